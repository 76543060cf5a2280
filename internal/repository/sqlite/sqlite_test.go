package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/config"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/datamodels/category"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/datamodels/order"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/datamodels/product"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(&config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "mirror.db")})
	require.NoError(t, err)
	return db
}

func TestCategoryReplaceAllLeavesExactlyNewSet(t *testing.T) {
	ctx := context.Background()
	repo := NewCategoryRepository(testDB(t))

	require.NoError(t, repo.ReplaceAll(ctx, []*category.Category{
		{ID: 1, Name: "Nigiri"},
		{ID: 2, Name: "Maki"},
	}))
	require.NoError(t, repo.ReplaceAll(ctx, []*category.Category{
		{ID: 3, Name: "Drinks"},
	}))

	list, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(3), list[0].ID)
	assert.Equal(t, "Drinks", list[0].Name)
}

func TestProductReplaceAllAndQueries(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(testDB(t))

	require.NoError(t, repo.ReplaceAll(ctx, []*product.Product{
		{ID: 1, Name: "Sake Nigiri", Description: "salmon", Price: 8.50, CategoryID: 1, StockQuantity: 5},
		{ID: 2, Name: "California Maki", Description: "crab", Price: 6.25, CategoryID: 2, StockQuantity: 0},
		{ID: 3, Name: "Unagi Nigiri", Description: "eel", Price: 9.00, CategoryID: 1, StockQuantity: 2},
	}))

	byCat, err := repo.ListByCategory(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, byCat, 2)

	inStock, err := repo.ListInStock(ctx)
	require.NoError(t, err)
	require.Len(t, inStock, 2)
	for _, p := range inStock {
		assert.True(t, p.InStock())
	}

	found, err := repo.Search(ctx, "nigiri")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	missing, err := repo.GetByID(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func queuedOrder(email string, status order.Status) *order.Order {
	return &order.Order{
		OrderDate:       time.Now(),
		CustomerName:    "Jane",
		CustomerEmail:   email,
		DeliveryAddress: "Main St 1",
		Status:          status,
		SyncState:       order.SyncStatePendingUpload,
		IdempotencyKey:  "key-" + email,
		Items: []order.OrderItem{
			{ProductID: 1, ProductName: "Sake Nigiri", Quantity: 2, UnitPrice: 8.50},
		},
	}
}

func TestOrderCreateAndGetPreloadsItems(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(testDB(t))

	o := queuedOrder("jane@x.com", order.StatusPending)
	require.NoError(t, repo.Create(ctx, o))
	require.NotZero(t, o.ID)

	got, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Items, 1)
	assert.InDelta(t, 17.00, got.TotalAmount(), 1e-9)
}

func TestOrderDeleteReportsExistence(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(testDB(t))

	o := queuedOrder("jane@x.com", order.StatusPending)
	require.NoError(t, repo.Create(ctx, o))

	found, err := repo.Delete(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.Delete(ctx, o.ID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestListPendingUploadFiltersStateAndStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(testDB(t))

	pending := queuedOrder("a@x.com", order.StatusPending)
	require.NoError(t, repo.Create(ctx, pending))

	processing := queuedOrder("b@x.com", order.StatusProcessing)
	require.NoError(t, repo.Create(ctx, processing))

	// Final status: not part of the upload queue even while tagged pending.
	cancelled := queuedOrder("c@x.com", order.StatusCancelled)
	require.NoError(t, repo.Create(ctx, cancelled))

	synced := queuedOrder("d@x.com", order.StatusPending)
	synced.SyncState = order.SyncStateSynced
	require.NoError(t, repo.Create(ctx, synced))

	queue, err := repo.ListPendingUpload(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	emails := []string{queue[0].CustomerEmail, queue[1].CustomerEmail}
	assert.ElementsMatch(t, []string{"a@x.com", "b@x.com"}, emails)
}

func TestReplaceIDRewritesIdentity(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(testDB(t))

	local := queuedOrder("jane@x.com", order.StatusPending)
	require.NoError(t, repo.Create(ctx, local))
	localID := local.ID

	server := queuedOrder("jane@x.com", order.StatusPending)
	server.ID = 99
	server.SyncState = order.SyncStateSynced
	require.NoError(t, repo.ReplaceID(ctx, localID, server))

	gone, err := repo.GetByID(ctx, localID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	got, err := repo.GetByID(ctx, 99)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, order.SyncStateSynced, got.SyncState)
	require.Len(t, got.Items, 1)
	assert.InDelta(t, 17.00, got.TotalAmount(), 1e-9)
}

func TestReplaceIDKeepsServerCopyOnCollision(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(testDB(t))

	// A history merge already pulled the server's copy of this order.
	merged := queuedOrder("jane@x.com", order.StatusPending)
	merged.ID = 42
	merged.SyncState = order.SyncStateSynced
	require.NoError(t, repo.Create(ctx, merged))

	// The same order is still queued under a local placeholder, and the
	// replayed upload comes back with the same server id.
	pending := queuedOrder("jane@x.com", order.StatusPending)
	require.NoError(t, repo.Create(ctx, pending))

	server := queuedOrder("jane@x.com", order.StatusPending)
	server.ID = 42
	server.SyncState = order.SyncStateSynced
	require.NoError(t, repo.ReplaceID(ctx, pending.ID, server))

	gone, err := repo.GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	got, err := repo.GetByID(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Items, 1, "replayed upload must not duplicate the order's lines")
	assert.InDelta(t, 17.00, got.TotalAmount(), 1e-9)
}

func TestEmptyReadsReturnEmptySlices(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)

	cats, err := NewCategoryRepository(db).ListAll(ctx)
	require.NoError(t, err)
	require.NotNil(t, cats, "empty collections must serialize as [], not null")
	assert.Empty(t, cats)

	prods, err := NewProductRepository(db).Search(ctx, "nigiri")
	require.NoError(t, err)
	require.NotNil(t, prods)

	orders, err := NewOrderRepository(db).ListByCustomer(ctx, "jane@x.com")
	require.NoError(t, err)
	require.NotNil(t, orders)
}

func TestMergeRemotePreservesPendingRows(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(testDB(t))

	pending := queuedOrder("jane@x.com", order.StatusPending)
	require.NoError(t, repo.Create(ctx, pending))

	staleSynced := queuedOrder("jane@x.com", order.StatusDelivered)
	staleSynced.ID = 300
	staleSynced.SyncState = order.SyncStateSynced
	require.NoError(t, repo.Create(ctx, staleSynced))

	fresh := queuedOrder("jane@x.com", order.StatusShipped)
	fresh.ID = 500
	require.NoError(t, repo.MergeRemote(ctx, []*order.Order{fresh}))

	all, err := repo.ListByCustomer(ctx, "jane@x.com")
	require.NoError(t, err)
	require.Len(t, all, 2)

	byID := map[int64]*order.Order{}
	for _, o := range all {
		byID[o.ID] = o
	}
	// The stale synced row is gone, the server's row is in, the queued
	// order survived untouched.
	assert.Nil(t, byID[300])
	require.NotNil(t, byID[500])
	assert.Equal(t, order.SyncStateSynced, byID[500].SyncState)
	require.NotNil(t, byID[pending.ID])
	assert.Equal(t, order.SyncStatePendingUpload, byID[pending.ID].SyncState)
}

func TestUpdateStatusKeepsItems(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(testDB(t))

	o := queuedOrder("jane@x.com", order.StatusPending)
	require.NoError(t, repo.Create(ctx, o))

	updated, err := repo.UpdateStatus(ctx, o.ID, order.StatusProcessing)
	require.NoError(t, err)
	assert.True(t, updated)

	missed, err := repo.UpdateStatus(ctx, 9999, order.StatusProcessing)
	require.NoError(t, err)
	assert.False(t, missed)

	got, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, order.StatusProcessing, got.Status)
	assert.InDelta(t, 17.00, got.TotalAmount(), 1e-9)
}
