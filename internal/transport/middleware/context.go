package middleware

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/rbac-service/pkg/logger"
)

// RequestLogger roots the request scoped logger at base (or the process logger when nil),
// tagged with the method, path and chi request id.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := base
			if l == nil {
				l = logger.From(r.Context())
			}
			ctx := logger.Into(r.Context(), l.With(
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", middleware.GetReqID(r.Context()),
			))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
