package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/auth"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/config"
)

// ErrUnauthorized signals a 401 from the ordering API. It always propagates
// to the caller so the credential can be refreshed; it never degrades to a
// cache fallback.
var ErrUnauthorized = errors.New("remote: unauthorized")

// ErrUnavailable covers everything the coordinators treat as "remote down":
// transport errors, timeouts and non-2xx statuses other than 401.
var ErrUnavailable = errors.New("remote: unavailable")

// Client makes typed HTTP calls against the ordering API. It attaches the
// current bearer credential when one is held, bounds every call with the
// configured timeout and classifies outcomes. It never retries; retry
// policy lives in the coordinators.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  *auth.TokenProvider
	log     *zap.Logger
}

// NewClient builds a client for the configured API endpoint.
func NewClient(cfg *config.RemoteConfig, tokens *auth.TokenProvider, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout()},
		tokens:  tokens,
		log:     log,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, headers map[string]string) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		// A locally-expired credential would only buy a guaranteed 401.
		if c.tokens.Expired(time.Now()) {
			return fmt.Errorf("%s %s: token expired: %w", method, path, ErrUnauthorized)
		}
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Transport failures and timeouts are one class for fallback.
		return fmt.Errorf("%s %s: %v: %w", method, path, err, ErrUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%s %s: status %d: %w", method, path, resp.StatusCode, ErrUnavailable)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		// A 2xx with an unreadable body is indistinguishable from a lost
		// response; callers fall back the same way.
		return fmt.Errorf("decode %s %s: %v: %w", method, path, err, ErrUnavailable)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out, nil)
}

func (c *Client) post(ctx context.Context, path string, body, out any, headers map[string]string) error {
	return c.do(ctx, http.MethodPost, path, body, out, headers)
}

func (c *Client) put(ctx context.Context, path string, body any) error {
	return c.do(ctx, http.MethodPut, path, body, nil, nil)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}
