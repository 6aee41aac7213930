package middleware

import (
	"log/slog"
	"net/http"
	"slices"

	"p9e.in/workorders/models"
	"p9e.in/workorders/utils"
)

// RequirePermission checks that the session role grants the permission.
// Must run after RequireAuth.
func RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFrom(r.Context())
			if sess == nil {
				writeError(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !utils.HasPermission(sess.Role.Permissions(), permission) {
				slog.Debug("permission denied",
					"employee_id", sess.EmployeeID, "role", sess.Role, "permission", permission)
				writeError(w, "insufficient permissions", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole lets through sessions holding one of roles.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFrom(r.Context())
			if sess == nil {
				writeError(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !slices.Contains(roles, sess.Role) {
				writeError(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
