package audit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/warelane/warelane/internal/platform/httpx"
)

// Handler exposes the admin telemetry endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the telemetry handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers telemetry routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/sessions", h.handleSessions)
	r.Get("/sessions/{sessionID}/actions", h.handleSessionActions)
}

func (h *Handler) handleSessions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	sessions, err := h.service.Sessions(r.Context(), limit)
	if err != nil {
		h.logger.Error("list sessions failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (h *Handler) handleSessionActions(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	actions, err := h.service.Actions(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("list session actions failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"actions": actions})
}
