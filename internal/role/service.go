package role

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/rbac-service/internal"
	"github.com/frahmantamala/rbac-service/internal/core/common/validation"
	permissionDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/permission"
	roleDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/role"
	"github.com/frahmantamala/rbac-service/internal/core/events"
	"github.com/frahmantamala/rbac-service/internal/permission"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*roleDatamodel.Role, error)
	GetByID(ctx context.Context, id int64) (*roleDatamodel.Role, error)
	GetByName(ctx context.Context, name string) (*roleDatamodel.Role, error)
	Create(ctx context.Context, r *roleDatamodel.Role) error
	Update(ctx context.Context, r *roleDatamodel.Role) error
	Delete(ctx context.Context, id int64) error
	CountUsers(ctx context.Context, roleID int64) (int64, error)

	// Join table operations.
	PermissionIDs(ctx context.Context, roleID int64) ([]int64, error)
	PermissionsForRoles(ctx context.Context, roleIDs []int64) (map[int64][]*permissionDatamodel.Permission, error)
	AttachPermissions(ctx context.Context, roleID int64, permissionIDs []int64) error
	DetachPermissions(ctx context.Context, roleID int64, permissionIDs []int64) error
	DetachAll(ctx context.Context, roleID int64) error
	CountPermissions(ctx context.Context, roleID int64) (int64, error)
}

// PermissionResolver checks that permission ids exist.
type PermissionResolver interface {
	Resolve(ctx context.Context, ids []int64) ([]*permission.Permission, error)
}

type Service struct {
	repo        RepositoryAPI
	permissions PermissionResolver
	publisher   events.Publisher
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, permissions PermissionResolver, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		permissions: permissions,
		publisher:   publisher,
		logger:      logger,
	}
}

func (s *Service) Create(ctx context.Context, dto CreateRoleDTO) (*Role, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	existing, err := s.repo.GetByName(ctx, dto.Name)
	if err != nil {
		s.logger.Error("failed to look up role by name", "name", dto.Name, "error", err)
		return nil, internal.NewInternalError("failed to create role", err)
	}
	if existing != nil {
		return nil, internal.ErrInfoRoleInUse
	}

	row := ToDataModel(NewRole(dto.Name, dto.Description))
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create role", "name", dto.Name, "error", err)
		return nil, internal.NewInternalError("failed to create role", err)
	}

	s.logger.Info("role created", "role_id", row.ID, "name", row.Name)
	return FromDataModel(row), nil
}

func (s *Service) List(ctx context.Context) ([]*Role, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to list roles", "error", err)
		return nil, internal.NewInternalError("failed to list roles", err)
	}

	roles := make([]*Role, 0, len(rows))
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, FromDataModel(row))
		ids = append(ids, row.ID)
	}

	linked, err := s.repo.PermissionsForRoles(ctx, ids)
	if err != nil {
		s.logger.Error("failed to load role permissions", "error", err)
		return nil, internal.NewInternalError("failed to list roles", err)
	}
	for _, r := range roles {
		r.Permissions = permission.FromDataModels(linked[r.ID])
	}
	return roles, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Role, error) {
	row, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withPermissions(ctx, row)
}

func (s *Service) GetByName(ctx context.Context, name string) (*Role, error) {
	row, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, internal.NewInternalError("failed to get role", err)
	}
	if row == nil {
		return nil, internal.ErrRoleNotExist
	}
	return s.withPermissions(ctx, row)
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateRoleDTO) (*Role, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	row, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Name != row.Name {
		other, err := s.repo.GetByName(ctx, dto.Name)
		if err != nil {
			return nil, internal.NewInternalError("failed to update role", err)
		}
		if other != nil && other.ID != row.ID {
			return nil, internal.ErrInfoRoleInUse
		}
	}

	row.Name = dto.Name
	row.Description = dto.Description
	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.Error("failed to update role", "role_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update role", err)
	}

	s.publish(ctx, events.NewRoleEvent(events.EventTypeRoleUpdated, id))
	return s.withPermissions(ctx, row)
}

// Destroy deletes a role that no longer has permissions linked or users assigned.
func (s *Service) Destroy(ctx context.Context, id int64) (*Role, error) {
	row, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	linked, err := s.repo.CountPermissions(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to delete role", err)
	}
	if linked > 0 {
		s.logger.Warn("refusing to delete role with permissions", "role_id", id, "permissions", linked)
		return nil, internal.ErrRoleHasPermissions
	}

	assigned, err := s.repo.CountUsers(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to delete role", err)
	}
	if assigned > 0 {
		return nil, internal.ErrInfoRoleInUse.WithMessage("Role is still assigned to users")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete role", "role_id", id, "error", err)
		return nil, internal.NewInternalError("failed to delete role", err)
	}

	s.logger.Info("role deleted", "role_id", id, "name", row.Name)
	s.publish(ctx, events.NewRoleEvent(events.EventTypeRoleDeleted, id))
	return FromDataModel(row), nil
}

// AssignPermissions links the given permissions to the role, keeping existing links.
func (s *Service) AssignPermissions(ctx context.Context, id int64, permissionIDs []int64) (*Role, error) {
	row, want, err := s.prepareAssignment(ctx, id, permissionIDs)
	if err != nil {
		return nil, err
	}

	have, err := s.repo.PermissionIDs(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to assign permissions", err)
	}

	attach, _ := diff(have, want)
	if len(attach) > 0 {
		if err := s.repo.AttachPermissions(ctx, id, attach); err != nil {
			s.logger.Error("failed to attach permissions", "role_id", id, "error", err)
			return nil, internal.NewInternalError("failed to assign permissions", err)
		}
		s.publish(ctx, events.NewRoleEvent(events.EventTypeRolePermissionsChanged, id))
	}

	return s.withPermissions(ctx, row)
}

// ReplacePermissions makes the role's permission set exactly permissionIDs. An empty list clears it.
func (s *Service) ReplacePermissions(ctx context.Context, id int64, permissionIDs []int64) (*Role, error) {
	row, want, err := s.prepareAssignment(ctx, id, permissionIDs)
	if err != nil {
		return nil, err
	}

	have, err := s.repo.PermissionIDs(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to replace permissions", err)
	}

	attach, detach := diff(have, want)
	if len(detach) > 0 {
		if err := s.repo.DetachPermissions(ctx, id, detach); err != nil {
			s.logger.Error("failed to detach permissions", "role_id", id, "error", err)
			return nil, internal.NewInternalError("failed to replace permissions", err)
		}
	}
	if len(attach) > 0 {
		if err := s.repo.AttachPermissions(ctx, id, attach); err != nil {
			s.logger.Error("failed to attach permissions", "role_id", id, "error", err)
			return nil, internal.NewInternalError("failed to replace permissions", err)
		}
	}
	if len(attach)+len(detach) > 0 {
		s.publish(ctx, events.NewRoleEvent(events.EventTypeRolePermissionsChanged, id))
	}

	return s.withPermissions(ctx, row)
}

// ClearPermissions removes every link of the role.
func (s *Service) ClearPermissions(ctx context.Context, id int64) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DetachAll(ctx, id); err != nil {
		return internal.NewInternalError("failed to clear permissions", err)
	}
	s.publish(ctx, events.NewRoleEvent(events.EventTypeRolePermissionsChanged, id))
	return nil
}

func (s *Service) prepareAssignment(ctx context.Context, id int64, permissionIDs []int64) (*roleDatamodel.Role, []int64, error) {
	if appErr := validation.Struct(PermissionIDsDTO{PermissionIDs: permissionIDs}); appErr != nil {
		return nil, nil, appErr
	}

	row, err := s.find(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	resolved, err := s.permissions.Resolve(ctx, permissionIDs)
	if err != nil {
		return nil, nil, err
	}

	want := make([]int64, 0, len(resolved))
	for _, p := range resolved {
		want = append(want, p.ID)
	}
	return row, want, nil
}

func (s *Service) find(ctx context.Context, id int64) (*roleDatamodel.Role, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get role", "role_id", id, "error", err)
		return nil, internal.NewInternalError("failed to get role", err)
	}
	if row == nil {
		return nil, internal.ErrRoleNotExist
	}
	return row, nil
}

func (s *Service) withPermissions(ctx context.Context, row *roleDatamodel.Role) (*Role, error) {
	linked, err := s.repo.PermissionsForRoles(ctx, []int64{row.ID})
	if err != nil {
		return nil, internal.NewInternalError("failed to load role permissions", err)
	}
	r := FromDataModel(row)
	r.Permissions = permission.FromDataModels(linked[row.ID])
	return r, nil
}

// publish notifies subscribers. The mutation already happened, so failures are only logged.
func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish role event", "event_type", event.EventType(), "error", err)
	}
}
