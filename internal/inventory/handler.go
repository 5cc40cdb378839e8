package inventory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stocklane/stocklane/internal/platform/httpx"
)

// Handler serves the inventory read projection.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers inventory routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listBalances)
	r.Get("/balance", h.getBalance)
}

type balancesResponse struct {
	WarehouseID int64     `json:"warehouse_id"`
	Balances    []Balance `json:"balances"`
}

func (h *Handler) listBalances(w http.ResponseWriter, r *http.Request) {
	warehouseID, err := strconv.ParseInt(r.URL.Query().Get("warehouseId"), 10, 64)
	if err != nil || warehouseID <= 0 {
		httpx.Message(w, http.StatusBadRequest, "warehouseId is required")
		return
	}
	balances, err := h.service.ListBalances(r.Context(), warehouseID)
	if err != nil {
		h.logger.Error("list balances", slog.Any("error", err), slog.Int64("warehouse_id", warehouseID))
		httpx.RespondError(w, err)
		return
	}
	if balances == nil {
		balances = []Balance{}
	}
	httpx.JSON(w, http.StatusOK, balancesResponse{WarehouseID: warehouseID, Balances: balances})
}

type balanceResponse struct {
	ProductID   int64 `json:"product_id"`
	WarehouseID int64 `json:"warehouse_id"`
	Quantity    int64 `json:"quantity"`
}

func (h *Handler) getBalance(w http.ResponseWriter, r *http.Request) {
	warehouseID, err := strconv.ParseInt(r.URL.Query().Get("warehouseId"), 10, 64)
	if err != nil || warehouseID <= 0 {
		httpx.Message(w, http.StatusBadRequest, "warehouseId is required")
		return
	}
	productID, err := strconv.ParseInt(r.URL.Query().Get("productId"), 10, 64)
	if err != nil || productID <= 0 {
		httpx.Message(w, http.StatusBadRequest, "productId is required")
		return
	}
	qty, err := h.service.GetBalance(r.Context(), productID, warehouseID)
	if err != nil {
		h.logger.Error("get balance", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, balanceResponse{ProductID: productID, WarehouseID: warehouseID, Quantity: qty})
}
