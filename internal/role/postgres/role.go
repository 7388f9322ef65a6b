package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	permissionDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/permission"
	roleDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/user"
	"github.com/frahmantamala/rbac-service/internal/role"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) role.RepositoryAPI {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) GetAll(ctx context.Context) ([]*roleDatamodel.Role, error) {
	var rows []*roleDatamodel.Role
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return rows, nil
}

func (r *RoleRepository) GetByID(ctx context.Context, id int64) (*roleDatamodel.Role, error) {
	var row roleDatamodel.Role
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get role %d: %w", id, err)
	}
	return &row, nil
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (*roleDatamodel.Role, error) {
	var row roleDatamodel.Role
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get role %q: %w", name, err)
	}
	return &row, nil
}

func (r *RoleRepository) Create(ctx context.Context, row *roleDatamodel.Role) error {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create role: %w", err)
	}
	return nil
}

func (r *RoleRepository) Update(ctx context.Context, row *roleDatamodel.Role) error {
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return fmt.Errorf("update role %d: %w", row.ID, err)
	}
	return nil
}

func (r *RoleRepository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&roleDatamodel.Role{}, id).Error; err != nil {
		return fmt.Errorf("delete role %d: %w", id, err)
	}
	return nil
}

// CountUsers counts live users holding the role; soft-deleted users are skipped by gorm's default scope.
func (r *RoleRepository) CountUsers(ctx context.Context, roleID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("role_id = ?", roleID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count users of role %d: %w", roleID, err)
	}
	return count, nil
}

func (r *RoleRepository) PermissionIDs(ctx context.Context, roleID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&roleDatamodel.RolePermission{}).
		Where("role_id = ?", roleID).
		Order("permission_id ASC").
		Pluck("permission_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list permission ids of role %d: %w", roleID, err)
	}
	return ids, nil
}

type rolePermissionRow struct {
	RoleID      int64     `gorm:"column:role_id"`
	ID          int64     `gorm:"column:id"`
	Name        string    `gorm:"column:name"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (r *RoleRepository) PermissionsForRoles(ctx context.Context, roleIDs []int64) (map[int64][]*permissionDatamodel.Permission, error) {
	out := make(map[int64][]*permissionDatamodel.Permission, len(roleIDs))
	if len(roleIDs) == 0 {
		return out, nil
	}

	var rows []rolePermissionRow
	err := r.db.WithContext(ctx).
		Table("role_permissions").
		Select("role_permissions.role_id, permissions.id, permissions.name, permissions.description, permissions.created_at, permissions.updated_at").
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Where("role_permissions.role_id IN ?", roleIDs).
		Order("permissions.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load role permissions: %w", err)
	}

	for _, row := range rows {
		out[row.RoleID] = append(out[row.RoleID], &permissionDatamodel.Permission{
			ID:          row.ID,
			Name:        row.Name,
			Description: row.Description,
			CreatedAt:   row.CreatedAt,
			UpdatedAt:   row.UpdatedAt,
		})
	}
	return out, nil
}

func (r *RoleRepository) AttachPermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	links := make([]roleDatamodel.RolePermission, 0, len(permissionIDs))
	for _, id := range permissionIDs {
		links = append(links, roleDatamodel.RolePermission{RoleID: roleID, PermissionID: id})
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
	if err != nil {
		return fmt.Errorf("attach permissions to role %d: %w", roleID, err)
	}
	return nil
}

func (r *RoleRepository) DetachPermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Where("role_id = ? AND permission_id IN ?", roleID, permissionIDs).
		Delete(&roleDatamodel.RolePermission{}).Error
	if err != nil {
		return fmt.Errorf("detach permissions from role %d: %w", roleID, err)
	}
	return nil
}

func (r *RoleRepository) DetachAll(ctx context.Context, roleID int64) error {
	err := r.db.WithContext(ctx).Where("role_id = ?", roleID).Delete(&roleDatamodel.RolePermission{}).Error
	if err != nil {
		return fmt.Errorf("detach all permissions from role %d: %w", roleID, err)
	}
	return nil
}

func (r *RoleRepository) CountPermissions(ctx context.Context, roleID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&roleDatamodel.RolePermission{}).Where("role_id = ?", roleID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count permissions of role %d: %w", roleID, err)
	}
	return count, nil
}
