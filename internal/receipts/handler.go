package receipts

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/stocklane/stocklane/internal/catalog/products"
	"github.com/stocklane/stocklane/internal/observability"
	"github.com/stocklane/stocklane/internal/platform/httpx"
	"github.com/stocklane/stocklane/internal/printing"
	"github.com/stocklane/stocklane/internal/shared"
	"github.com/stocklane/stocklane/internal/warehouses"
)

// ProductDirectory resolves products for printable documents.
type ProductDirectory interface {
	Get(ctx context.Context, id int64) (products.Product, error)
}

// WarehouseDirectory resolves warehouses for listings and printables.
type WarehouseDirectory interface {
	List(ctx context.Context) ([]warehouses.Warehouse, error)
	Get(ctx context.Context, id int64) (warehouses.Warehouse, error)
}

// Handler wires HTTP endpoints for the goods-in and goods-out flows.
type Handler struct {
	logger       *slog.Logger
	service      *Service
	productDir   ProductDirectory
	warehouseDir WarehouseDirectory
	renderer     *printing.Renderer
	metrics      *observability.Metrics
	validator    *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, productDir ProductDirectory, warehouseDir WarehouseDirectory, renderer *printing.Renderer, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:       logger,
		service:      service,
		productDir:   productDir,
		warehouseDir: warehouseDir,
		renderer:     renderer,
		metrics:      metrics,
		validator:    validator.New(),
	}
}

// MountImportRoutes registers the goods-in surface.
func (h *Handler) MountImportRoutes(r chi.Router) {
	r.Get("/warehouse", h.listWarehouses)
	r.Get("/history", h.history(DirectionIn))
	r.Get("/receipt/{id}", h.show(DirectionIn))
	r.Get("/receipt/{id}/print", h.print(DirectionIn))
	r.Post("/toWarehouse", h.submit(DirectionIn))
}

// MountExportRoutes registers the goods-out surface.
func (h *Handler) MountExportRoutes(r chi.Router) {
	r.Get("/history", h.history(DirectionOut))
	r.Get("/receipt/{id}", h.show(DirectionOut))
	r.Get("/receipt/{id}/print", h.print(DirectionOut))
	r.Post("/fromWarehouse", h.submit(DirectionOut))
}

// MountRoutes registers direction-independent receipt routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/{id}/cancel", h.cancel)
}

type lineRequest struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Quantity  int64           `json:"quantity" validate:"required,gte=1"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type submitRequest struct {
	Code        string        `json:"code"`
	Name        string        `json:"name" validate:"required"`
	WarehouseID int64         `json:"warehouse_id" validate:"required,gt=0"`
	Date        time.Time     `json:"date"`
	Items       []lineRequest `json:"items" validate:"required,min=1,dive"`
}

type submitResponse struct {
	ID         int64           `json:"id"`
	Code       string          `json:"code"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

type historyResponse struct {
	Receipts   []HistoryEntry    `json:"receipts"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) listWarehouses(w http.ResponseWriter, r *http.Request) {
	result, err := h.warehouseDir.List(r.Context())
	if err != nil {
		h.logger.Error("list warehouses", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if result == nil {
		result = []warehouses.Warehouse{}
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) history(direction Direction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit < 1 {
			limit = 20
		}
		filter := HistoryFilter{Direction: direction, Page: page, Limit: limit}
		if raw := r.URL.Query().Get("warehouseId"); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
				filter.WarehouseID = id
			}
		}
		entries, total, err := h.service.History(r.Context(), filter)
		if err != nil {
			h.logger.Error("receipt history", slog.Any("error", err), slog.String("direction", string(direction)))
			httpx.RespondError(w, err)
			return
		}
		if entries == nil {
			entries = []HistoryEntry{}
		}
		httpx.JSON(w, http.StatusOK, historyResponse{
			Receipts:   entries,
			Pagination: shared.NewPagination(page, limit, total),
		})
	}
}

func (h *Handler) show(direction Direction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		receipt, ok := h.loadReceipt(w, r, direction)
		if !ok {
			return
		}
		httpx.JSON(w, http.StatusOK, receipt)
	}
}

func (h *Handler) print(direction Direction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		receipt, ok := h.loadReceipt(w, r, direction)
		if !ok {
			return
		}
		doc, err := h.buildDocument(r.Context(), receipt)
		if err != nil {
			h.logger.Error("build printable", slog.Any("error", err), slog.Int64("id", receipt.ID))
			httpx.RespondError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := h.renderer.Render(w, doc); err != nil {
			h.logger.Error("render printable", slog.Any("error", err), slog.Int64("id", receipt.ID))
		}
	}
}

func (h *Handler) submit(direction Direction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Message(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := h.validator.Struct(req); err != nil {
			httpx.Message(w, http.StatusBadRequest, err.Error())
			return
		}

		draft := &Draft{
			Code:        req.Code,
			Name:        req.Name,
			WarehouseID: req.WarehouseID,
			Direction:   direction,
			Date:        req.Date,
		}
		for _, item := range req.Items {
			draft.Lines = append(draft.Lines, Line{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			})
		}
		if sess := shared.SessionFromContext(r.Context()); sess != nil {
			draft.CreatedBy = sess.Name
		}

		receipt, err := h.service.Submit(r.Context(), draft)
		if err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				httpx.Message(w, http.StatusBadRequest, ve.Error())
				return
			}
			h.logger.Error("submit receipt", slog.Any("error", err), slog.String("direction", string(direction)))
			httpx.RespondError(w, err)
			return
		}
		h.metrics.ReceiptPosted(string(direction))
		httpx.JSON(w, http.StatusCreated, submitResponse{
			ID:         receipt.ID,
			Code:       receipt.Code,
			GrandTotal: receipt.GrandTotal(),
		})
	}
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid receipt id")
		return
	}
	if err := h.service.Cancel(r.Context(), id); err != nil {
		if errors.Is(err, ErrAlreadyCancelled) {
			httpx.Message(w, http.StatusConflict, err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.Message(w, http.StatusOK, "receipt cancelled")
}

func (h *Handler) loadReceipt(w http.ResponseWriter, r *http.Request, direction Direction) (Receipt, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid receipt id")
		return Receipt{}, false
	}
	receipt, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return Receipt{}, false
	}
	if receipt.Direction != direction {
		httpx.RespondError(w, httpx.ErrNotFound)
		return Receipt{}, false
	}
	return receipt, true
}

func (h *Handler) buildDocument(ctx context.Context, receipt Receipt) (printing.Document, error) {
	doc := printing.Document{
		Code:       receipt.Code,
		Name:       receipt.Name,
		Direction:  string(receipt.Direction),
		Date:       receipt.Date,
		PreparedBy: receipt.CreatedBy,
		GrandTotal: receipt.GrandTotal(),
	}
	warehouse, err := h.warehouseDir.Get(ctx, receipt.WarehouseID)
	if err != nil {
		return printing.Document{}, err
	}
	doc.WarehouseName = warehouse.Name
	doc.WarehouseAddress = warehouse.Address
	for _, line := range receipt.Lines {
		docLine := printing.DocumentLine{
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Total:     line.Total(),
		}
		if product, err := h.productDir.Get(ctx, line.ProductID); err == nil {
			docLine.ProductCode = product.Code
			docLine.ProductName = product.Name
		}
		doc.Lines = append(doc.Lines, docLine)
	}
	return doc, nil
}
