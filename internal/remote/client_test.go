package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/auth"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/config"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/datamodels/order"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/datamodels/product"
)

func testClient(url string, tokens *auth.TokenProvider) *Client {
	return NewClient(&config.RemoteConfig{BaseURL: url, TimeoutSeconds: 1}, tokens, zap.NewNop())
}

func TestSuccessDecodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/products", r.URL.Path)
		json.NewEncoder(w).Encode([]*product.Product{
			{ID: 1, Name: "Sake Nigiri", Price: 8.50},
			{ID: 2, Name: "California Maki", Price: 6.25},
		})
	}))
	defer srv.Close()

	list, err := testClient(srv.URL, nil).Products(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Sake Nigiri", list[0].Name)
}

func TestBearerTokenAttachedWhenHeld(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]*product.Product{})
	}))
	defer srv.Close()

	tokens := auth.NewTokenProvider()
	c := testClient(srv.URL, tokens)

	_, err := c.Products(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got, "anonymous call must not send an Authorization header")

	tokens.Set("tok123")
	_, err = c.Products(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok123", got)
}

func TestUnauthorizedIsItsOwnClass(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, nil).Products(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, nil).Products(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestConnectionRefusedIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := testClient(srv.URL, nil).Products(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestTimeoutIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(1500 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, nil).Products(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestLocallyExpiredTokenShortCircuits(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		json.NewEncoder(w).Encode([]*product.Product{})
	}))
	defer srv.Close()

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tokens := auth.NewTokenProvider()
	tokens.Set(expired)

	_, err = testClient(srv.URL, tokens).Products(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, hits, "an expired credential buys a guaranteed 401; skip the round trip")
}

func TestCreateOrderSendsIdempotencyKey(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		var o order.Order
		require.NoError(t, json.NewDecoder(r.Body).Decode(&o))
		o.ID = 42
		json.NewEncoder(w).Encode(&o)
	}))
	defer srv.Close()

	o := &order.Order{
		CustomerName:    "Jane",
		CustomerEmail:   "jane@x.com",
		DeliveryAddress: "Main St 1",
		Status:          order.StatusPending,
		IdempotencyKey:  "key-abc",
		Items: []order.OrderItem{
			{ProductID: 1, Quantity: 2, UnitPrice: 8.50},
		},
	}

	created, err := testClient(srv.URL, nil).CreateOrder(context.Background(), o)
	require.NoError(t, err)
	assert.Equal(t, int64(42), created.ID)
	assert.Equal(t, "key-abc", gotKey)
}
