package reports

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warelane/warelane/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the reporting suite.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs reports handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/customer", h.handleCustomer)
	r.Get("/item", h.handleItem)
	r.Get("/product", h.handleProduct)
	r.Get("/warehouse", h.handleWarehouse)
	r.Get("/negative", h.handleNegative)
	r.Get("/inventory", h.handleAllInventory)
	r.Get("/views", h.handleViews)
	r.Post("/manual", h.handleManual)
}

func (h *Handler) handleCustomer(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Customer(r.Context())
	if err != nil {
		h.logger.Error("customer report failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleItem(w http.ResponseWriter, r *http.Request) {
	itemName := r.URL.Query().Get("item")
	if itemName == "" {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "item is required")
		return
	}
	report, err := h.service.Item(r.Context(), itemName)
	if err != nil {
		h.logger.Error("item report failed", slog.Any("error", err), slog.String("item", itemName))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleProduct(w http.ResponseWriter, r *http.Request) {
	productName := r.URL.Query().Get("product")
	if productName == "" {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "product is required")
		return
	}
	report, err := h.service.Product(r.Context(), productName)
	if err != nil {
		h.logger.Error("product report failed", slog.Any("error", err), slog.String("product", productName))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleWarehouse(w http.ResponseWriter, r *http.Request) {
	warehouseName := r.URL.Query().Get("warehouse")
	if warehouseName == "" {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "warehouse is required")
		return
	}
	report, err := h.service.Warehouse(r.Context(), warehouseName)
	if err != nil {
		h.logger.Error("warehouse report failed", slog.Any("error", err), slog.String("warehouse", warehouseName))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleNegative(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Negative(r.Context())
	if err != nil {
		h.logger.Error("negative inventory report failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleAllInventory(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.AllInventory(r.Context())
	if err != nil {
		h.logger.Error("inventory report failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleViews(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"views": h.service.Views()})
}

func (h *Handler) handleManual(w http.ResponseWriter, r *http.Request) {
	var req ManualRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	rows, err := h.service.Manual(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrBadManualRequest) {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("manual report failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rows": rows, "row_count": len(rows)})
}
