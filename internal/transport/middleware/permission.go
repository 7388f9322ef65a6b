package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/rbac-service/internal"
	"github.com/frahmantamala/rbac-service/internal/transport"
	"github.com/frahmantamala/rbac-service/pkg/logger"
)

// Authorizer decides whether a user holds a permission.
type Authorizer interface {
	Authorize(ctx context.Context, userID int64, permission string) (bool, error)
}

type RBACAuthorization struct {
	*transport.BaseHandler
	authorizer Authorizer
}

func NewRBACAuthorization(authorizer Authorizer, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: transport.NewBaseHandler(logger),
		authorizer:  authorizer,
	}
}

// RequirePermission lets the request through only when the authenticated user holds permission.
// No principal is a 401, a denial is a 403 and a failed lookup is a 500.
func (ra *RBACAuthorization) RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := internal.UserIDFromContext(r.Context())
			if !ok {
				logger.From(r.Context()).Warn("authorization check failed: user not found in context")
				ra.WriteAppError(w, internal.ErrUnauthorized)
				return
			}

			hasAccess, err := ra.authorizer.Authorize(r.Context(), userID, permission)
			if err != nil {
				logger.From(r.Context()).Error("authorization check failed", "error", err, "permission", permission)
				ra.HandleServiceError(w, err)
				return
			}

			if !hasAccess {
				logger.From(r.Context()).Warn("access denied: insufficient permissions", "required_permission", permission)
				ra.WriteAppError(w, internal.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
