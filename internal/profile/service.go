package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/rbac-service/internal"
	"github.com/frahmantamala/rbac-service/internal/core/common/validation"
	userDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/user"
	"github.com/frahmantamala/rbac-service/internal/role"
	"github.com/frahmantamala/rbac-service/internal/user"
)

type RepositoryAPI interface {
	GetUser(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetUserByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	GetPerson(ctx context.Context, userID int64) (*userDatamodel.Person, error)
	UpdateAccount(ctx context.Context, id int64, name, email string) error
	UpsertPerson(ctx context.Context, p *userDatamodel.Person) error
	SaveImageURL(ctx context.Context, id int64, url string) error
}

// RoleReader loads a role together with its permissions.
type RoleReader interface {
	Get(ctx context.Context, id int64) (*role.Role, error)
}

// ImageStore persists an uploaded image and returns the URL it is served from.
type ImageStore interface {
	Store(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type Service struct {
	repo          RepositoryAPI
	roles         RoleReader
	images        ImageStore
	maxImageBytes int64
	logger        *slog.Logger
}

func NewService(repo RepositoryAPI, roles RoleReader, images ImageStore, maxImageBytes int64, logger *slog.Logger) *Service {
	return &Service{
		repo:          repo,
		roles:         roles,
		images:        images,
		maxImageBytes: maxImageBytes,
		logger:        logger,
	}
}

// Me assembles the profile of userID.
func (s *Service) Me(ctx context.Context, userID int64) (*Profile, error) {
	u, err := s.account(ctx, userID)
	if err != nil {
		return nil, err
	}

	person, err := s.repo.GetPerson(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load person", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to get profile", err)
	}

	r, err := s.roles.Get(ctx, u.RoleID)
	if err != nil && !errors.Is(err, internal.ErrRoleNotExist) {
		return nil, err
	}

	return newProfile(u, person, r), nil
}

// Update changes the account name and email and upserts the person details.
func (s *Service) Update(ctx context.Context, userID int64, dto UpdateProfileDTO) (*Profile, error) {
	dto.Email = user.NormalizeEmail(dto.Email)
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	u, err := s.account(ctx, userID)
	if err != nil {
		return nil, err
	}

	email := dto.Email
	if email != u.Email {
		other, err := s.repo.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, internal.NewInternalError("failed to update profile", err)
		}
		if other != nil && other.ID != userID {
			return nil, internal.ErrInfoUserInUse
		}
	}

	person := &userDatamodel.Person{
		UserID:    userID,
		FirstName: dto.FirstName,
		LastName:  dto.LastName,
		Telephone: dto.Telephone,
		Biography: dto.Biography,
	}
	if dto.DateBirth != nil && *dto.DateBirth != "" {
		born, err := time.Parse(DateLayout, *dto.DateBirth)
		if err != nil {
			return nil, internal.NewValidationFieldError("dateBirth", "dateBirth must be formatted as YYYY-MM-DD", internal.ErrCodeValidationFailed)
		}
		person.DateBirth = &born
	}

	if err := s.repo.UpdateAccount(ctx, userID, dto.Name, email); err != nil {
		s.logger.Error("failed to update account", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to update profile", err)
	}
	if err := s.repo.UpsertPerson(ctx, person); err != nil {
		s.logger.Error("failed to save person", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to update profile", err)
	}

	s.logger.Info("profile updated", "user_id", userID)
	return s.Me(ctx, userID)
}

// UploadPhoto stores body as the user's profile image and returns its URL.
// Only jpeg and png are accepted and the body may not exceed the configured size.
func (s *Service) UploadPhoto(ctx context.Context, userID int64, contentType string, body io.Reader) (string, error) {
	ext, ok := ImageExtension(contentType)
	if !ok {
		s.logger.Warn("rejected profile photo", "user_id", userID, "content_type", contentType)
		return "", internal.ErrUnsupportedImageType
	}

	if _, err := s.account(ctx, userID); err != nil {
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(body, s.maxImageBytes+1))
	if err != nil {
		return "", internal.ErrInvalidRequestBody.WithCause(err)
	}
	if int64(len(data)) > s.maxImageBytes {
		return "", internal.ErrImageTooLarge.WithMessage(fmt.Sprintf("image exceeds the maximum allowed size of %d bytes", s.maxImageBytes))
	}
	if len(data) == 0 {
		return "", internal.ErrInvalidRequestBody.WithMessage("image body is empty")
	}

	key := fmt.Sprintf("images/%s.%s", uuid.NewString(), ext)
	url, err := s.images.Store(ctx, key, data, contentType)
	if err != nil {
		s.logger.Error("failed to store profile photo", "user_id", userID, "key", key, "error", err)
		return "", internal.NewInternalError("failed to store image", err)
	}

	if err := s.repo.SaveImageURL(ctx, userID, url); err != nil {
		s.logger.Error("failed to save profile photo url", "user_id", userID, "error", err)
		return "", internal.NewInternalError("failed to save image url", err)
	}

	s.logger.Info("profile photo stored", "user_id", userID, "key", key, "bytes", len(data))
	return url, nil
}

// Photo returns the stored profile image URL.
func (s *Service) Photo(ctx context.Context, userID int64) (string, error) {
	u, err := s.account(ctx, userID)
	if err != nil {
		return "", err
	}
	if u.URLImageProfile == nil || *u.URLImageProfile == "" {
		return "", internal.ErrPhotoNotExist
	}
	return *u.URLImageProfile, nil
}

func (s *Service) account(ctx context.Context, userID int64) (*userDatamodel.User, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load user", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to get profile", err)
	}
	if u == nil {
		return nil, internal.ErrProfileNotExist
	}
	return u, nil
}
