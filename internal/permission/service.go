package permission

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/rbac-service/internal"
	"github.com/frahmantamala/rbac-service/internal/core/common/validation"
	permissionDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/permission"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*permissionDatamodel.Permission, error)
	GetByID(ctx context.Context, id int64) (*permissionDatamodel.Permission, error)
	GetByName(ctx context.Context, name string) (*permissionDatamodel.Permission, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*permissionDatamodel.Permission, error)
	Create(ctx context.Context, p *permissionDatamodel.Permission) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context) ([]*Permission, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to list permissions", "error", err)
		return nil, internal.NewInternalError("failed to list permissions", err)
	}
	return FromDataModels(rows), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Permission, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get permission", "permission_id", id, "error", err)
		return nil, internal.NewInternalError("failed to get permission", err)
	}
	if row == nil {
		return nil, internal.ErrPermissionNotExist
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, dto CreatePermissionDTO) (*Permission, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	existing, err := s.repo.GetByName(ctx, dto.Name)
	if err != nil {
		s.logger.Error("failed to look up permission by name", "name", dto.Name, "error", err)
		return nil, internal.NewInternalError("failed to create permission", err)
	}
	if existing != nil {
		return nil, internal.ErrInfoPermissionInUse
	}

	row := ToDataModel(NewPermission(dto.Name, dto.Description))
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create permission", "name", dto.Name, "error", err)
		return nil, internal.NewInternalError("failed to create permission", err)
	}

	s.logger.Info("permission created", "permission_id", row.ID, "name", row.Name)
	return FromDataModel(row), nil
}

// Resolve returns the permissions for ids, failing with ErrPermissionNotExist when any id is unknown.
// Duplicate ids are collapsed.
func (s *Service) Resolve(ctx context.Context, ids []int64) ([]*Permission, error) {
	unique := Dedupe(ids)
	if len(unique) == 0 {
		return []*Permission{}, nil
	}

	rows, err := s.repo.GetByIDs(ctx, unique)
	if err != nil {
		s.logger.Error("failed to resolve permissions", "ids", unique, "error", err)
		return nil, internal.NewInternalError("failed to resolve permissions", err)
	}
	if len(rows) != len(unique) {
		return nil, internal.ErrPermissionNotExist
	}
	return FromDataModels(rows), nil
}

// EnsureSeeded creates any of names that do not exist yet and returns all of them in order.
func (s *Service) EnsureSeeded(ctx context.Context, names []string) ([]*Permission, error) {
	out := make([]*Permission, 0, len(names))
	for _, name := range names {
		row, err := s.repo.GetByName(ctx, name)
		if err != nil {
			return nil, internal.NewInternalError("failed to seed permissions", err)
		}
		if row == nil {
			row = ToDataModel(NewPermission(name, ""))
			if err := s.repo.Create(ctx, row); err != nil {
				return nil, internal.NewInternalError("failed to seed permissions", err)
			}
			s.logger.Info("permission seeded", "name", name)
		}
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

// Dedupe keeps the first occurrence of every id.
func Dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
