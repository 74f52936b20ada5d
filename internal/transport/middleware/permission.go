package middleware

import (
	"net/http"

	"github.com/rentstack/assettrack-backend/pkg/ctxutil"
)

// RequirePermission gates an endpoint on a single module permission.
// Anonymous requests get 401, authenticated requests missing the permission
// get 403, before the handler runs.
func RequirePermission(perm string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := ctxutil.UserIDFromCtx(r.Context()); !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !ctxutil.HasPermission(r.Context(), perm) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
