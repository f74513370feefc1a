package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storecart/internal/client"
)

func TestResolverPrefersHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5123"
	req.Header.Set("X-Client-ID", " kiosk-4 ")
	require.Equal(t, "id:kiosk-4", client.NewResolver("").Resolve(req))
}

func TestResolverFallsBackToIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5123"
	require.Equal(t, "ip:10.0.0.7", client.NewResolver("").Resolve(req))

	req.Header.Set("X-Client-ID", strings.Repeat("x", 200))
	require.Equal(t, "ip:10.0.0.7", client.NewResolver("").Resolve(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	require.Equal(t, "ip:203.0.113.9", client.Key(req))
}

func TestMiddlewareStoresClient(t *testing.T) {
	var seen string
	h := client.NewResolver("X-Device").Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = client.From(r.Context())
		require.Equal(t, seen, client.Key(r))
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Device", "abc")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "id:abc", seen)
}

func TestContextHelpers(t *testing.T) {
	_, ok := client.From(context.Background())
	require.False(t, ok)

	ctx := client.With(context.Background(), "  ")
	_, ok = client.From(ctx)
	require.False(t, ok)

	id, ok := client.From(client.With(context.Background(), "id:a"))
	require.True(t, ok)
	require.Equal(t, "id:a", id)
}
