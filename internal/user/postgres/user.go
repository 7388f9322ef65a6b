package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	roleDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/user"
	"github.com/frahmantamala/rbac-service/internal/user"
)

// likeEscaper makes the name filter a plain substring match.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) List(ctx context.Context, filter user.ListFilter) ([]*userDatamodel.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&userDatamodel.User{})
	if filter.Name != "" {
		query = query.Where(`name LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(filter.Name)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	var rows []*userDatamodel.User
	err := query.Order("id ASC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return rows, total, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &row, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &row, nil
}

func (r *UserRepository) Create(ctx context.Context, row *userDatamodel.User) error {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, row *userDatamodel.User) error {
	err := r.db.WithContext(ctx).
		Model(row).
		Select("name", "email", "role_id").
		Updates(row).Error
	if err != nil {
		return fmt.Errorf("update user %d: %w", row.ID, err)
	}
	return nil
}

// Delete is a soft delete; gorm sets deleted_at because the row carries gorm.DeletedAt.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&userDatamodel.User{}, id).Error; err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return nil
}

func (r *UserRepository) RolesByIDs(ctx context.Context, ids []int64) (map[int64]*roleDatamodel.Role, error) {
	out := make(map[int64]*roleDatamodel.Role, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []*roleDatamodel.Role
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("get roles: %w", err)
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}
