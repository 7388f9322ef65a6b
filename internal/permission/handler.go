package permission

import (
	"context"
	"net/http"

	"github.com/frahmantamala/rbac-service/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context) ([]*Permission, error)
	Get(ctx context.Context, id int64) (*Permission, error)
	Create(ctx context.Context, dto CreatePermissionDTO) (*Permission, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	permissions, err := h.Service.List(r.Context())
	if err != nil {
		h.Logger.Error("ListPermissions: failed to list permissions", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, PermissionsResponse{Data: permissions})
}

func (h *Handler) GetPermission(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	p, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, PermissionResponse{Data: p})
}

func (h *Handler) CreatePermission(w http.ResponseWriter, r *http.Request) {
	var dto CreatePermissionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Warn("CreatePermission: invalid request body", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	p, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, transport.MessageResponse{
		Message: "Permission created successfully",
		Data:    p.Name,
	})
}
