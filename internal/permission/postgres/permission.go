package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	permissionDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/permission"
	"github.com/frahmantamala/rbac-service/internal/permission"
)

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) permission.RepositoryAPI {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) GetAll(ctx context.Context) ([]*permissionDatamodel.Permission, error) {
	var rows []*permissionDatamodel.Permission
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return rows, nil
}

func (r *PermissionRepository) GetByID(ctx context.Context, id int64) (*permissionDatamodel.Permission, error) {
	var row permissionDatamodel.Permission
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get permission %d: %w", id, err)
	}
	return &row, nil
}

func (r *PermissionRepository) GetByName(ctx context.Context, name string) (*permissionDatamodel.Permission, error) {
	var row permissionDatamodel.Permission
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get permission %q: %w", name, err)
	}
	return &row, nil
}

func (r *PermissionRepository) GetByIDs(ctx context.Context, ids []int64) ([]*permissionDatamodel.Permission, error) {
	var rows []*permissionDatamodel.Permission
	if len(ids) == 0 {
		return rows, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("get permissions by ids: %w", err)
	}
	return rows, nil
}

func (r *PermissionRepository) Create(ctx context.Context, p *permissionDatamodel.Permission) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create permission: %w", err)
	}
	return nil
}
