package masterdata

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warelane/warelane/internal/platform/httpx"
)

// Handler wires HTTP endpoints for master data CRUD.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs masterdata handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers master data routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/tables", h.handleTables)
	r.Get("/warehouses/search", h.handleWarehouseSearch)
	r.Get("/{table}", h.handleList)
	r.Post("/{table}", h.handleInsert)
	r.Put("/{table}", h.handleUpdate)
	r.Delete("/{table}", h.handleDelete)
	r.Get("/{table}/options", h.handleOptions)
}

func (h *Handler) handleTables(w http.ResponseWriter, r *http.Request) {
	specs := make([]TableSpec, 0, len(Tables))
	for _, name := range Tables {
		spec, err := Lookup(name)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		specs = append(specs, spec)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tables": specs})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	records, err := h.service.List(r.Context(), table)
	if err != nil {
		h.respondError(w, table, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"records": records})
}

func (h *Handler) handleInsert(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	var record Record
	if err := httpx.DecodeJSON(r, &record); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	saved, err := h.service.Insert(r.Context(), table, record)
	if err != nil {
		h.respondError(w, table, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, saved)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	var record Record
	if err := httpx.DecodeJSON(r, &record); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	saved, err := h.service.Update(r.Context(), table, record)
	if err != nil {
		h.respondError(w, table, err)
		return
	}
	httpx.JSON(w, http.StatusOK, saved)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	key := r.URL.Query().Get("key")
	if err := h.service.Delete(r.Context(), table, key); err != nil {
		h.respondError(w, table, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": key})
}

func (h *Handler) handleOptions(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	options, err := h.service.Options(r.Context(), table)
	if err != nil {
		h.respondError(w, table, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"options": options})
}

func (h *Handler) handleWarehouseSearch(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.SearchWarehouses(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.respondError(w, "warehouse", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"warehouses": records})
}

func (h *Handler) respondError(w http.ResponseWriter, table string, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	h.logger.Error("masterdata request failed", slog.Any("error", err), slog.String("table", table))
	httpx.RespondError(w, err)
}
