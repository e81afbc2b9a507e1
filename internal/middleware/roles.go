package middleware

import (
	"net/http"

	"github.com/baharkarakas/paywall-backend/internal/api/httpx"
)

// RequireRole allows only callers holding one of roles. Must run after Auth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return DevOrRole(false, roles...)
}

// DevOrRole lets everyone through in development, otherwise behaves like RequireRole.
func DevOrRole(isDev bool, roles ...string) func(http.Handler) http.Handler {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isDev {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := UserID(r.Context()); !ok {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
				return
			}
			role, _ := Role(r.Context())
			if _, ok := allowed[role]; !ok {
				httpx.WriteError(w, http.StatusForbidden, "forbidden", "insufficient role", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
