package middleware

import "net/http"

// Role constants define the supported user roles.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// RequireRole returns middleware that checks if the authenticated user has one
// of the allowed roles. It must be chained after the Auth middleware.
//
// Returns 401 Unauthorized when no role is found in context. Returns 403
// Forbidden when the role does not match any of the allowed roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := RoleFromContext(r.Context())
			if !ok || role == "" {
				http.Error(w, `{"title":"Unauthorized","status":401,"detail":"authentication required"}`, http.StatusUnauthorized)
				return
			}

			if _, match := allowed[role]; !match {
				http.Error(w, `{"title":"Forbidden","status":403,"detail":"insufficient permissions"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// KnownRole lets any recognised role through. The WebSocket feed sits behind it.
func KnownRole() func(http.Handler) http.Handler {
	return RequireRole(RoleAdmin, RoleEditor, RoleViewer)
}

// CanWrite reports whether role may mutate charts.
func CanWrite(role string) bool {
	return role == RoleAdmin || role == RoleEditor
}
