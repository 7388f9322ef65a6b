package user

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/rbac-service/internal"
	"github.com/frahmantamala/rbac-service/internal/core/common/validation"
	roleDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/user"
	"github.com/frahmantamala/rbac-service/internal/core/events"
)

type RepositoryAPI interface {
	List(ctx context.Context, filter ListFilter) ([]*userDatamodel.User, int64, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	Create(ctx context.Context, u *userDatamodel.User) error
	Update(ctx context.Context, u *userDatamodel.User) error
	Delete(ctx context.Context, id int64) error
	RolesByIDs(ctx context.Context, ids []int64) (map[int64]*roleDatamodel.Role, error)
}

type Service struct {
	repo       RepositoryAPI
	publisher  events.Publisher
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, publisher events.Publisher, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		publisher:  publisher,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) Create(ctx context.Context, dto CreateUserDTO) (*User, error) {
	dto.Email = NormalizeEmail(dto.Email)
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	r, err := s.role(ctx, dto.RoleID)
	if err != nil {
		return nil, err
	}

	email := dto.Email
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Error("failed to look up user by email", "error", err)
		return nil, internal.NewInternalError("failed to create user", err)
	}
	if existing != nil {
		s.logger.Warn("email already in use", "email", email)
		return nil, internal.ErrInfoUserInUse
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	row := &userDatamodel.User{
		Name:         dto.Name,
		Email:        email,
		PasswordHash: string(hash),
		Active:       true,
		RoleID:       r.ID,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create user", "email", email, "error", err)
		return nil, internal.NewInternalError("failed to create user", err)
	}

	s.logger.Info("user created", "user_id", row.ID, "role_id", row.RoleID)
	return FromDataModelWithRole(row, r), nil
}

// List returns one page of users with their roles and the total number of matches.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*User, int64, error) {
	filter = filter.Normalize()

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, 0, internal.NewInternalError("failed to list users", err)
	}

	roleIDs := make([]int64, 0, len(rows))
	for _, row := range rows {
		roleIDs = append(roleIDs, row.RoleID)
	}
	roles, err := s.repo.RolesByIDs(ctx, roleIDs)
	if err != nil {
		s.logger.Error("failed to load user roles", "error", err)
		return nil, 0, internal.NewInternalError("failed to list users", err)
	}

	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		users = append(users, FromDataModelWithRole(row, roles[row.RoleID]))
	}
	return users, total, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	row, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withRole(ctx, row)
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateUserDTO) (*User, error) {
	dto.Email = NormalizeEmail(dto.Email)
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	row, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	email := dto.Email
	if email != row.Email {
		other, err := s.repo.GetByEmail(ctx, email)
		if err != nil {
			return nil, internal.NewInternalError("failed to update user", err)
		}
		if other != nil && other.ID != row.ID {
			return nil, internal.ErrInfoUserInUse
		}
	}

	roleChanged := false
	if dto.RoleID != nil && *dto.RoleID != row.RoleID {
		if _, err := s.role(ctx, *dto.RoleID); err != nil {
			return nil, err
		}
		row.RoleID = *dto.RoleID
		roleChanged = true
	}

	row.Name = dto.Name
	row.Email = email
	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.Error("failed to update user", "user_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update user", err)
	}

	if roleChanged {
		s.logger.Info("user role changed", "user_id", id, "role_id", row.RoleID)
		s.publish(ctx, events.NewUserEvent(events.EventTypeUserRoleChanged, id))
	}
	return s.withRole(ctx, row)
}

// Destroy soft-deletes the user. The row stays but no longer authenticates or authorizes.
func (s *Service) Destroy(ctx context.Context, id int64) (*User, error) {
	row, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete user", "user_id", id, "error", err)
		return nil, internal.NewInternalError("failed to delete user", err)
	}

	s.logger.Info("user deleted", "user_id", id)
	s.publish(ctx, events.NewUserEvent(events.EventTypeUserDeleted, id))
	return FromDataModel(row), nil
}

func (s *Service) find(ctx context.Context, id int64) (*userDatamodel.User, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get user", "user_id", id, "error", err)
		return nil, internal.NewInternalError("failed to get user", err)
	}
	if row == nil {
		return nil, internal.ErrUserNotExist
	}
	return row, nil
}

func (s *Service) role(ctx context.Context, id int64) (*roleDatamodel.Role, error) {
	roles, err := s.repo.RolesByIDs(ctx, []int64{id})
	if err != nil {
		return nil, internal.NewInternalError("failed to get role", err)
	}
	r, ok := roles[id]
	if !ok {
		return nil, internal.ErrRoleNotExist
	}
	return r, nil
}

func (s *Service) withRole(ctx context.Context, row *userDatamodel.User) (*User, error) {
	roles, err := s.repo.RolesByIDs(ctx, []int64{row.RoleID})
	if err != nil {
		return nil, internal.NewInternalError("failed to get user role", err)
	}
	return FromDataModelWithRole(row, roles[row.RoleID]), nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish user event", "event_type", event.EventType(), "error", err)
	}
}
