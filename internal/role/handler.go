package role

import (
	"context"
	"net/http"

	"github.com/frahmantamala/rbac-service/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, dto CreateRoleDTO) (*Role, error)
	List(ctx context.Context) ([]*Role, error)
	Get(ctx context.Context, id int64) (*Role, error)
	Update(ctx context.Context, id int64, dto UpdateRoleDTO) (*Role, error)
	Destroy(ctx context.Context, id int64) (*Role, error)
	AssignPermissions(ctx context.Context, id int64, permissionIDs []int64) (*Role, error)
	ReplacePermissions(ctx context.Context, id int64, permissionIDs []int64) (*Role, error)
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

func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var dto CreateRoleDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Warn("CreateRole: invalid request body", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	created, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, transport.MessageResponse{
		Message: "Role created successfully",
		Data:    created.Name,
	})
}

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Service.List(r.Context())
	if err != nil {
		h.Logger.Error("ListRoles: failed to list roles", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, RolesResponse{Data: roles})
}

func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	found, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, RoleResponse{Data: found})
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto UpdateRoleDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Warn("UpdateRole: invalid request body", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	updated, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, transport.MessageResponse{
		Message: "Role updated successfully",
		Data:    updated,
	})
}

func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	deleted, err := h.Service.Destroy(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, transport.MessageResponse{
		Message: "Role deleted successfully",
		Data:    deleted,
	})
}

// AssignPermissions merges permissionIds into the role's current set.
func (h *Handler) AssignPermissions(w http.ResponseWriter, r *http.Request) {
	h.changePermissions(w, r, "AssignPermissions", h.Service.AssignPermissions)
}

// ReplacePermissions makes permissionIds the role's whole set.
func (h *Handler) ReplacePermissions(w http.ResponseWriter, r *http.Request) {
	h.changePermissions(w, r, "ReplacePermissions", h.Service.ReplacePermissions)
}

func (h *Handler) changePermissions(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	apply func(ctx context.Context, id int64, permissionIDs []int64) (*Role, error),
) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto PermissionIDsDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Warn(op+": invalid request body", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	updated, err := apply(r.Context(), id, dto.PermissionIDs)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info(op+": role permissions changed", "role_id", id, "permissions", updated.PermissionNames())
	h.WriteJSON(w, http.StatusOK, transport.MessageResponse{
		Message: "Role permissions updated successfully",
		Data:    updated,
	})
}
