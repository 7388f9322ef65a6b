package auth

import (
	"net/http"

	"github.com/frahmantamala/rbac-service/internal"
	"github.com/frahmantamala/rbac-service/internal/transport"
	"github.com/frahmantamala/rbac-service/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	token, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, LoginResponse{Token: token})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := internal.UserIDFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrUnauthorized)
		return
	}

	account, err := h.Service.Me(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, MeResponse{User: account})
}

// AuthMiddleware rejects requests without a valid bearer token and stores the user id in the context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.Logger.Warn("auth middleware: missing authorization token", "path", r.URL.Path)
			h.WriteAppError(w, internal.ErrUnauthorized)
			return
		}

		userID, err := h.Service.Authorize(r.Context(), token)
		if err != nil {
			h.Logger.Warn("auth middleware: token rejected", "error", err)
			appErr, ok := internal.IsAppError(err)
			switch {
			case ok && appErr.StatusCode == http.StatusUnauthorized:
				h.WriteAppError(w, appErr)
			case ok && appErr.StatusCode < http.StatusInternalServerError:
				h.WriteAppError(w, internal.ErrUnauthorized)
			default:
				h.HandleServiceError(w, err)
			}
			return
		}

		ctx := internal.ContextWithUserID(r.Context(), userID)
		ctx = logger.With(ctx, "user_id", userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
