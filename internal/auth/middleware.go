package auth

import (
	"net/http"

	"github.com/warelane/warelane/internal/platform/httpx"
	"github.com/warelane/warelane/internal/shared"
)

// Middleware wires authorization helpers for HTTP handlers. The signed-in
// user's id and role travel in the session, so checks here never hit the
// database.
type Middleware struct{}

// RequireUser rejects requests without a signed-in user.
func (Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests unless the signed-in user is an admin.
func (Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
			return
		}
		if Role(sess.Role()) != RoleAdmin {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
