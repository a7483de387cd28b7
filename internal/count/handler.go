package count

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warelane/warelane/internal/platform/httpx"
	"github.com/warelane/warelane/internal/shared"
)

// Handler wires HTTP endpoints for the count workflow. Every mutation
// loads the state from the session, applies the change, and saves it back;
// the session middleware commits the session with the response.
type Handler struct {
	logger  *slog.Logger
	service *Service
	store   Store
}

// NewHandler constructs count handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers count workflow routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleState)
	r.Post("/reset", h.handleReset)
	r.Get("/warehouses", h.handleWarehouses)
	r.Post("/warehouse", h.handleSelectWarehouse)
	r.Post("/date", h.handleSelectDate)
	r.Post("/lines", h.handleAddLine)
	r.Put("/lines/{index}", h.handleUpdateLine)
	r.Delete("/lines/{index}", h.handleRemoveLine)
	r.Post("/complete", h.handleComplete)
	r.Get("/pending", h.handlePending)
	r.Post("/adjustment", h.handleAdjustment)
	r.Post("/back", h.handleBack)
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	state, err := h.store.Load(sess)
	if err != nil {
		h.logger.Error("load count state failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, state)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	h.store.Reset(sess)
	httpx.JSON(w, http.StatusOK, NewState())
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

func (h *Handler) handleSelectWarehouse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Warehouse string `json:"warehouse"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	h.mutate(w, r, func(state *State) error {
		return h.service.SelectWarehouse(state, req.Warehouse)
	})
}

func (h *Handler) handleSelectDate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "date must be YYYY-MM-DD")
		return
	}
	h.mutate(w, r, func(state *State) error {
		return h.service.SelectDate(r.Context(), state, date)
	})
}

func (h *Handler) handleAddLine(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemName string `json:"item_name"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	h.mutate(w, r, func(state *State) error {
		return h.service.AddLine(r.Context(), state, req.ItemName)
	})
}

type updateLineRequest struct {
	Quantity        *float64 `json:"quantity"`
	CaseCount       *float64 `json:"case_count"`
	InventoryStatus *string  `json:"inventory_status"`
	Notes           *string  `json:"notes"`
}

func (h *Handler) handleUpdateLine(w http.ResponseWriter, r *http.Request) {
	index, ok := lineIndex(w, r)
	if !ok {
		return
	}
	var req updateLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	h.mutate(w, r, func(state *State) error {
		if req.Quantity != nil {
			if err := h.service.SetQuantity(state, index, *req.Quantity); err != nil {
				return err
			}
		}
		if req.CaseCount != nil {
			if err := h.service.SetCaseCount(state, index, *req.CaseCount); err != nil {
				return err
			}
		}
		if req.InventoryStatus != nil {
			if err := h.service.SetLineStatus(state, index, *req.InventoryStatus); err != nil {
				return err
			}
		}
		if req.Notes != nil {
			if err := h.service.SetLineNotes(state, index, *req.Notes); err != nil {
				return err
			}
		}
		return nil
	})
}

func (h *Handler) handleRemoveLine(w http.ResponseWriter, r *http.Request) {
	index, ok := lineIndex(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, func(state *State) error {
		return h.service.RemoveLine(state, index)
	})
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(state *State) error {
		return h.service.CompleteCount(state)
	})
}

func (h *Handler) handlePending(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	state, err := h.store.Load(sess)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	headers, err := h.service.PendingTransactions(r.Context(), &state)
	if err != nil {
		h.respondWorkflowError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"pending_transactions": headers})
}

func (h *Handler) handleAdjustment(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	state, err := h.store.Load(sess)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	header, err := h.service.GenerateAdjustment(r.Context(), &state, sess.User())
	if err != nil {
		h.logger.Error("generate adjustment failed", slog.Any("error", err))
		h.respondWorkflowError(w, err)
		return
	}
	if err := h.store.Save(sess, state); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"adjustment": header,
		"state":      state,
	})
}

func (h *Handler) handleBack(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(state *State) error {
		return h.service.Back(state)
	})
}

// mutate runs a state transition and persists the result, responding with
// the updated state.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, fn func(*State) error) {
	sess := shared.SessionFromContext(r.Context())
	state, err := h.store.Load(sess)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := fn(&state); err != nil {
		h.respondWorkflowError(w, err)
		return
	}
	if err := h.store.Save(sess, state); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, state)
}

func (h *Handler) respondWorkflowError(w http.ResponseWriter, err error) {
	var wrongStep ErrWrongStep
	var badIndex ErrLineIndex
	switch {
	case errors.As(err, &wrongStep):
		httpx.Problem(w, http.StatusConflict, "Conflict", wrongStep.Error())
	case errors.As(err, &badIndex):
		httpx.Problem(w, http.StatusNotFound, "Not Found", badIndex.Error())
	default:
		httpx.RespondError(w, err)
	}
}

func lineIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "line index must be a non-negative number")
		return 0, false
	}
	return index, true
}
