package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storecart/internal/catalog"
)

type itemsResponse struct {
	Data       []catalog.ItemView `json:"data"`
	Pagination struct {
		Page       int `json:"page"`
		PerPage    int `json:"per_page"`
		TotalItems int `json:"total_items"`
	} `json:"pagination"`
}

type itemResponse struct {
	Data catalog.ItemView `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func withSKU(r *http.Request, sku string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("sku", sku)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestCatalogHandlers(t *testing.T) {
	svc := catalog.NewService(catalog.ServiceConfig{DefaultLimit: 10})
	require.NoError(t, svc.Register("laptop", mustItem(t, "Laptop", "999.99", 0, "")))
	handler := catalog.NewHandler(catalog.HandlerConfig{Service: svc})

	t.Run("register", func(t *testing.T) {
		body := `{"sku":"Mouse","name":"Mouse","price":"25.00","bulkQuantity":12,"bulkPrice":"200.00"}`
		rec := httptest.NewRecorder()
		handler.Register(rec, httptest.NewRequest(http.MethodPost, "/api/v1/items", strings.NewReader(body)))
		require.Equal(t, http.StatusCreated, rec.Code)
		var resp itemResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "mouse", resp.Data.SKU)
		require.True(t, resp.Data.Bulk)
	})

	t.Run("register validation", func(t *testing.T) {
		body := `{"sku":"pen","name":"Pen","price":"cheap"}`
		rec := httptest.NewRecorder()
		handler.Register(rec, httptest.NewRequest(http.MethodPost, "/api/v1/items", strings.NewReader(body)))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), `"field":"price"`)
	})

	t.Run("register negative price", func(t *testing.T) {
		body := `{"sku":"pen","name":"Pen","price":"-1.00"}`
		rec := httptest.NewRecorder()
		handler.Register(rec, httptest.NewRequest(http.MethodPost, "/api/v1/items", strings.NewReader(body)))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "BAD_REQUEST", resp.Error.Code)
	})

	t.Run("list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/items?limit=1", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "2", rec.Header().Get("X-Total-Count"))
		var resp itemsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		require.Equal(t, "laptop", resp.Data[0].SKU)
		require.Equal(t, 2, resp.Pagination.TotalItems)
	})

	t.Run("get", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.Get(rec, withSKU(httptest.NewRequest(http.MethodGet, "/api/v1/items/laptop", nil), "laptop"))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp itemResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "999.99", resp.Data.Price)
	})

	t.Run("get missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.Get(rec, withSKU(httptest.NewRequest(http.MethodGet, "/api/v1/items/nope", nil), "nope"))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}
