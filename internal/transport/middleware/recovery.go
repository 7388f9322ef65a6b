package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/frahmantamala/rbac-service/internal"
	"github.com/frahmantamala/rbac-service/internal/transport"
	pkglogger "github.com/frahmantamala/rbac-service/pkg/logger"
)

// RecoveryMiddleware turns a panic into a 500 and logs it on the request logger.
// The panic value is echoed to the client only when exposeErrors is set.
func RecoveryMiddleware(logger *slog.Logger, exposeErrors bool) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}

					pkglogger.From(r.Context()).Error("panic recovered",
						"error", rec,
						"method", r.Method,
						"url", r.URL.String(),
						"stack", string(debug.Stack()))

					appErr := internal.NewInternalError("Internal server error", fmt.Errorf("panic: %v", rec))
					if exposeErrors {
						appErr = appErr.WithDetails(map[string]string{
							"cause": fmt.Sprintf("panic: %v", rec),
							"stack": string(debug.Stack()),
						})
					}
					base.WriteAppError(w, appErr)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
