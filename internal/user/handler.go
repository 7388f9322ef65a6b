package user

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/rbac-service/internal"
	"github.com/frahmantamala/rbac-service/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, dto CreateUserDTO) (*User, error)
	List(ctx context.Context, filter ListFilter) ([]*User, int64, error)
	Get(ctx context.Context, id int64) (*User, error)
	Update(ctx context.Context, id int64, dto UpdateUserDTO) (*User, error)
	Destroy(ctx context.Context, id int64) (*User, error)
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

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var dto CreateUserDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Warn("CreateUser: invalid request body", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	created, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, transport.MessageResponse{
		Message: "User created successfully",
		Data:    created.Name,
	})
}

// ListUsers handles GET /users?page=&pageSize=&name=
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	users, total, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, UsersResponse{Data: users, Count: total})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
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

	h.WriteJSON(w, http.StatusOK, UserResponse{Data: found})
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto UpdateUserDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Warn("UpdateUser: invalid request body", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	updated, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, transport.MessageResponse{
		Message: "User updated successfully",
		Data:    updated,
	})
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
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
		Message: "User deleted successfully",
		Data:    deleted,
	})
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	filter := ListFilter{Name: q.Get("name")}

	for param, dst := range map[string]*int{"page": &filter.Page, "pageSize": &filter.PageSize} {
		raw := q.Get(param)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return ListFilter{}, internal.NewValidationFieldError(param, param+" must be a positive integer", internal.ErrCodeValidationFailed)
		}
		*dst = n
	}
	return filter, nil
}
