package profile

import (
	"context"
	"io"
	"net/http"

	"github.com/frahmantamala/rbac-service/internal"
	"github.com/frahmantamala/rbac-service/internal/transport"
)

type ServiceAPI interface {
	Me(ctx context.Context, userID int64) (*Profile, error)
	Update(ctx context.Context, userID int64, dto UpdateProfileDTO) (*Profile, error)
	UploadPhoto(ctx context.Context, userID int64, contentType string, body io.Reader) (string, error)
	Photo(ctx context.Context, userID int64) (string, error)
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

// Me handles GET /profile/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	p, err := h.Service.Me(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ProfileResponse{Data: p})
}

// UpdateProfile handles PUT /profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var dto UpdateProfileDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Warn("UpdateProfile: invalid request body", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	p, err := h.Service.Update(r.Context(), userID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, transport.MessageResponse{
		Message: "Profile updated successfully",
		Data:    p,
	})
}

// UploadPhoto handles PUT /profile/photo. The body is the raw image.
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	url, err := h.Service.UploadPhoto(r.Context(), userID, r.Header.Get("Content-Type"), r.Body)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, transport.MessageResponse{
		Message: "Profile photo updated successfully",
		Data:    PhotoData{URL: url},
	})
}

// GetPhoto handles GET /profile/photo
func (h *Handler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	url, err := h.Service.Photo(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, PhotoResponse{Data: PhotoData{URL: url}})
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := internal.UserIDFromContext(r.Context())
	if !ok {
		h.Logger.Warn("profile request without authenticated user", "path", r.URL.Path)
		h.WriteAppError(w, internal.ErrUnauthorized)
		return 0, false
	}
	return userID, true
}
