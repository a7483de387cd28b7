package inventory

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warelane/warelane/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the inventory module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleCalculate)
	r.Get("/snapshot", h.handleSnapshot)
	r.Get("/warehouses", h.handleWarehouses)
	r.Get("/items", h.handleSearchItems)
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	positions, err := h.service.Calculate(r.Context(), Filters{
		Status: q.Get("status"),
		Search: q.Get("search"),
	})
	if err != nil {
		h.logger.Error("calculate inventory failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"inventory": positions})
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	warehouse := q.Get("warehouse")
	if warehouse == "" {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "warehouse is required")
		return
	}
	asOf, err := time.Parse("2006-01-02", q.Get("as_of"))
	if err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "as_of must be YYYY-MM-DD")
		return
	}
	items, err := h.service.Snapshot(r.Context(), warehouse, asOf)
	if err != nil {
		h.logger.Error("snapshot failed", slog.Any("error", err), slog.String("warehouse", warehouse))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"snapshot": items})
}

func (h *Handler) handleWarehouses(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.Warehouses(r.Context())
	if err != nil {
		h.logger.Error("list warehouses failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"warehouses": names})
}

func (h *Handler) handleSearchItems(w http.ResponseWriter, r *http.Request) {
	fragment := r.URL.Query().Get("q")
	if fragment == "" {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "q is required")
		return
	}
	names, err := h.service.SearchItems(r.Context(), fragment)
	if err != nil {
		h.logger.Error("item search failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": names})
}
