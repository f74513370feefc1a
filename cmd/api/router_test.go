package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storecart/internal/cart"
	"github.com/noah-isme/storecart/internal/catalog"
	"github.com/noah-isme/storecart/internal/config"
	"github.com/noah-isme/storecart/internal/obs"
)

func testConfig() *config.Config {
	return &config.Config{
		CurrencyCode:    "USD",
		CartTTL:         time.Hour,
		IdempotencyTTL:  time.Hour,
		RateLimitWindow: time.Minute,
		RateLimitMax:    100,
		Obs:             config.ObsConfig{MetricsNamespace: "storecart_test", EnablePrometheus: true},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, rdb *redis.Client) *httptest.Server {
	t.Helper()
	obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)
	catalogService := catalog.NewService(catalog.ServiceConfig{Cache: catalog.NewCache(rdb, time.Minute)})
	require.NoError(t, catalogService.Seed([]catalog.SeedItem{
		{SKU: "laptop", Name: "Laptop", Price: "999.99"},
		{SKU: "mouse", Name: "Mouse", Price: "25.00", BulkQuantity: 12, BulkPrice: "200.00"},
	}))
	srv := httptest.NewServer(newRouter(routerDeps{
		Config:  cfg,
		Logger:  zerolog.Nop(),
		Redis:   rdb,
		Catalog: catalogService,
		Carts:   &cart.Service{Catalog: catalogService, TTL: cfg.CartTTL},
	}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string, headers ...string) (int, string) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func createCart(t *testing.T, base string) string {
	t.Helper()
	code, body := do(t, http.MethodPost, base+"/api/v1/carts", "")
	require.Equal(t, http.StatusCreated, code)
	var resp struct {
		Data struct {
			CartID string `json:"cartId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	return resp.Data.CartID
}

func TestRouterCartLifecycle(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)
	id := createCart(t, srv.URL)
	cartURL := srv.URL + "/api/v1/carts/" + id

	code, _ := do(t, http.MethodPut, cartURL+"/membership", `{"active":true}`)
	require.Equal(t, http.StatusOK, code)
	code, _ = do(t, http.MethodPut, cartURL+"/items/mouse", `{"quantity":13}`)
	require.Equal(t, http.StatusOK, code)

	code, body := do(t, http.MethodGet, cartURL+"/total", "")
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{"data":{"total":"225.00","currency":"USD"}}`, body)

	code, _ = do(t, http.MethodPut, cartURL+"/items/mouse", `{"quantity":8}`)
	require.Equal(t, http.StatusOK, code)
	_, body = do(t, http.MethodGet, cartURL+"/total", "")
	require.JSONEq(t, `{"data":{"total":"200.00","currency":"USD"}}`, body)

	code, _ = do(t, http.MethodPut, cartURL+"/membership", `{"active":false}`)
	require.Equal(t, http.StatusOK, code)
	code, _ = do(t, http.MethodPut, cartURL+"/items/mouse", `{"quantity":12}`)
	require.Equal(t, http.StatusOK, code)
	_, body = do(t, http.MethodGet, cartURL+"/total", "")
	require.JSONEq(t, `{"data":{"total":"300.00","currency":"USD"}}`, body)

	_, body = do(t, http.MethodGet, cartURL+"/size", "")
	require.JSONEq(t, `{"data":{"itemOrderCount":1,"itemCount":12}}`, body)

	code, _ = do(t, http.MethodDelete, cartURL+"/items", "")
	require.Equal(t, http.StatusNoContent, code)
	_, body = do(t, http.MethodGet, cartURL+"/size", "")
	require.JSONEq(t, `{"data":{"itemOrderCount":0,"itemCount":0}}`, body)

	code, _ = do(t, http.MethodDelete, cartURL, "")
	require.Equal(t, http.StatusNoContent, code)
	code, _ = do(t, http.MethodGet, cartURL, "")
	require.Equal(t, http.StatusNotFound, code)
}

func TestRouterCatalogAndHealth(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)

	code, body := do(t, http.MethodGet, srv.URL+"/api/v1/items", "")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, `"sku":"laptop"`)

	code, _ = do(t, http.MethodGet, srv.URL+"/api/v1/items/keyboard", "")
	require.Equal(t, http.StatusNotFound, code)

	code, body = do(t, http.MethodGet, srv.URL+"/health/ready", "")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, `"redis":"skipped"`)

	code, body = do(t, http.MethodGet, srv.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "storecart_test_http_requests_total")
}

func TestRouterRateLimitsWrites(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitMax = 2
	srv := newTestServer(t, cfg, nil)

	for i := 0; i < 2; i++ {
		code, _ := do(t, http.MethodPost, srv.URL+"/api/v1/carts", "", "X-Client-ID", "burst")
		require.Equal(t, http.StatusCreated, code)
	}
	code, body := do(t, http.MethodPost, srv.URL+"/api/v1/carts", "", "X-Client-ID", "burst")
	require.Equal(t, http.StatusTooManyRequests, code)
	require.Contains(t, body, "RATE_LIMITED")

	code, _ = do(t, http.MethodPost, srv.URL+"/api/v1/carts", "", "X-Client-ID", "other")
	require.Equal(t, http.StatusCreated, code)
}

func TestRouterIdempotencyWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	srv := newTestServer(t, testConfig(), rdb)

	code, _ := do(t, http.MethodPost, srv.URL+"/api/v1/carts", "", "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, code)
	code, body := do(t, http.MethodPost, srv.URL+"/api/v1/carts", "", "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusConflict, code)
	require.Contains(t, body, "IDEMPOTENT_REPLAY")

	code, body = do(t, http.MethodGet, srv.URL+"/health/ready", "")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, `"redis":"ok"`)
}
