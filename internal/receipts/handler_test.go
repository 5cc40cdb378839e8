package receipts

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/stocklane/stocklane/internal/catalog/products"
	"github.com/stocklane/stocklane/internal/observability"
	"github.com/stocklane/stocklane/internal/platform/httpx"
	"github.com/stocklane/stocklane/internal/printing"
	"github.com/stocklane/stocklane/internal/warehouses"
)

type stubProductDir struct {
	products map[int64]products.Product
}

func (d *stubProductDir) Get(ctx context.Context, id int64) (products.Product, error) {
	if p, ok := d.products[id]; ok {
		return p, nil
	}
	return products.Product{}, httpx.ErrNotFound
}

type stubWarehouseDir struct {
	warehouses map[int64]warehouses.Warehouse
}

func (d *stubWarehouseDir) List(ctx context.Context) ([]warehouses.Warehouse, error) {
	var result []warehouses.Warehouse
	for _, w := range d.warehouses {
		result = append(result, w)
	}
	return result, nil
}

func (d *stubWarehouseDir) Get(ctx context.Context, id int64) (warehouses.Warehouse, error) {
	if w, ok := d.warehouses[id]; ok {
		return w, nil
	}
	return warehouses.Warehouse{}, httpx.ErrNotFound
}

func newTestRouter(t *testing.T) (chi.Router, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	renderer, err := printing.NewRenderer()
	require.NoError(t, err)

	productDir := &stubProductDir{products: map[int64]products.Product{
		42: {ID: 42, Code: "SP-001", Name: "iPhone 13 Pro Max"},
	}}
	warehouseDir := &stubWarehouseDir{warehouses: map[int64]warehouses.Warehouse{
		1: {ID: 1, Code: "WH-C", Name: "Central", Address: "12 Dock Rd"},
	}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, svc, productDir, warehouseDir, renderer, observability.NewMetrics())

	r := chi.NewRouter()
	r.Route("/import", h.MountImportRoutes)
	r.Route("/export", h.MountExportRoutes)
	r.Route("/receipts", h.MountRoutes)
	return r, repo
}

func itoa64(id int64) string {
	return strconv.FormatInt(id, 10)
}

func postJSON(t *testing.T, router chi.Router, path string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSubmitImportReceipt(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/import/toWarehouse", map[string]any{
		"name":         "Restock November",
		"warehouse_id": 1,
		"items": []map[string]any{
			{"product_id": 42, "quantity": 10, "unit_price": "9500000"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data submitResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotZero(t, resp.Data.ID)
	require.Contains(t, resp.Data.Code, "IN-")
	require.True(t, resp.Data.GrandTotal.Equal(price("95000000")))
}

func TestSubmitExportChecksStock(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/import/toWarehouse", map[string]any{
		"name":         "Restock",
		"warehouse_id": 1,
		"items": []map[string]any{
			{"product_id": 42, "quantity": 10, "unit_price": "9500000"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, router, "/export/fromWarehouse", map[string]any{
		"name":         "Overdraw",
		"warehouse_id": 1,
		"items": []map[string]any{
			{"product_id": 42, "quantity": 11, "unit_price": "9500000"},
		},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "exceeds available stock")

	rec = postJSON(t, router, "/export/fromWarehouse", map[string]any{
		"name":         "Ship order",
		"warehouse_id": 1,
		"items": []map[string]any{
			{"product_id": 42, "quantity": 4, "unit_price": "9500000"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestSubmitExportSplitLinesCheckedPerProduct(t *testing.T) {
	router, repo := newTestRouter(t)

	rec := postJSON(t, router, "/import/toWarehouse", map[string]any{
		"name":         "Restock",
		"warehouse_id": 1,
		"items": []map[string]any{
			{"product_id": 42, "quantity": 10, "unit_price": "9500000"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, router, "/export/fromWarehouse", map[string]any{
		"name":         "Split overdraw",
		"warehouse_id": 1,
		"items": []map[string]any{
			{"product_id": 42, "quantity": 6, "unit_price": "9500000"},
			{"product_id": 42, "quantity": 6, "unit_price": "9500000"},
		},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "exceeds available stock")
	require.Len(t, repo.receipts, 1)
}

func TestSubmitRejectsEmptyItems(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/import/toWarehouse", map[string]any{
		"name":         "No items",
		"warehouse_id": 1,
		"items":        []map[string]any{},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShowEnforcesDirection(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/import/toWarehouse", map[string]any{
		"name":         "Restock",
		"warehouse_id": 1,
		"items": []map[string]any{
			{"product_id": 42, "quantity": 10, "unit_price": "9500000"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Data submitResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := get("/import/receipt/" + itoa64(resp.Data.ID))
	require.Equal(t, http.StatusOK, w.Code)

	// An IN receipt is not visible on the export surface.
	w = get("/export/receipt/" + itoa64(resp.Data.ID))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPrintReceipt(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/import/toWarehouse", map[string]any{
		"name":         "Restock",
		"warehouse_id": 1,
		"items": []map[string]any{
			{"product_id": 42, "quantity": 10, "unit_price": "9500000"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Data submitResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	req := httptest.NewRequest(http.MethodGet, "/import/receipt/"+itoa64(resp.Data.ID)+"/print", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/html")
	require.Contains(t, w.Body.String(), "iPhone 13 Pro Max")
	require.Contains(t, w.Body.String(), "Central")
	require.Contains(t, w.Body.String(), "window.print()")
}

func TestCancelReceipt(t *testing.T) {
	router, repo := newTestRouter(t)

	rec := postJSON(t, router, "/import/toWarehouse", map[string]any{
		"name":         "Restock",
		"warehouse_id": 1,
		"items": []map[string]any{
			{"product_id": 42, "quantity": 10, "unit_price": "9500000"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Data submitResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	w := postJSON(t, router, "/receipts/"+itoa64(resp.Data.ID)+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, StatusCancelled, repo.receipts[resp.Data.ID].Status)

	w = postJSON(t, router, "/receipts/"+itoa64(resp.Data.ID)+"/cancel", nil)
	require.Equal(t, http.StatusConflict, w.Code)
}
