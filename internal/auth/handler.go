package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/warelane/warelane/internal/platform/httpx"
	"github.com/warelane/warelane/internal/shared"
)

// TelemetryPort is notified of session starts and ends, best effort.
type TelemetryPort interface {
	SessionStarted(ctx context.Context, userID, ip, userAgent string)
	SessionEnded(ctx context.Context, userID string)
}

// Handler wires HTTP endpoints for authentication and user management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	csrf      *shared.CSRFManager
	telemetry TelemetryPort
	validate  *validator.Validate
	guard     Middleware
}

// NewHandler constructs auth handler.
func NewHandler(logger *slog.Logger, service *Service, csrf *shared.CSRFManager, telemetry TelemetryPort) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		csrf:      csrf,
		telemetry: telemetry,
		validate:  validator.New(),
	}
}

// MountRoutes registers auth routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.handleMe)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAdmin)
		r.Get("/users", h.handleListUsers)
		r.Post("/users", h.handleCreateUser)
		r.Put("/users/{userID}/role", h.handleSetRole)
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "email and password are required")
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid email or password")
			return
		}
		h.logger.Error("login failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	sess.SetUser(user.ID, string(user.Role))
	csrfToken, err := h.csrf.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Error("csrf token issue failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if h.telemetry != nil {
		h.telemetry.SessionStarted(r.Context(), user.ID, r.RemoteAddr, r.UserAgent())
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"user":       user,
		"csrf_token": csrfToken,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if userID := sess.User(); userID != "" && h.telemetry != nil {
		h.telemetry.SessionEnded(r.Context(), userID)
	}
	sess.Destroy()
	httpx.JSON(w, http.StatusOK, map[string]any{"signed_out": true})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	userID := sess.User()
	if userID == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
		return
	}
	user, err := h.service.UserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			sess.Destroy()
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
			return
		}
		h.logger.Error("load current user failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": users})
}

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=admin viewer"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	user, err := h.service.CreateUser(r.Context(), req.Email, req.Password, Role(req.Role))
	if err != nil {
		h.logger.Error("create user failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"user": user})
}

type setRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin viewer"`
}

func (h *Handler) handleSetRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	var req setRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	if err := h.service.SetRole(r.Context(), userID, Role(req.Role)); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "user not found")
			return
		}
		h.logger.Error("set role failed", slog.Any("error", err), slog.String("user_id", userID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user_id": userID, "role": req.Role})
}
