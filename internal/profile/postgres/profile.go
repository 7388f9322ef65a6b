package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	userDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/user"
	"github.com/frahmantamala/rbac-service/internal/profile"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) profile.RepositoryAPI {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetUser(ctx context.Context, id int64) (*userDatamodel.User, error) {
	return r.firstUser(ctx, "id = ?", id)
}

func (r *ProfileRepository) GetUserByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	return r.firstUser(ctx, "email = ?", email)
}

func (r *ProfileRepository) firstUser(ctx context.Context, cond string, arg interface{}) (*userDatamodel.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).Where(cond, arg).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &row, nil
}

func (r *ProfileRepository) GetPerson(ctx context.Context, userID int64) (*userDatamodel.Person, error) {
	var row userDatamodel.Person
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get person for user %d: %w", userID, err)
	}
	return &row, nil
}

func (r *ProfileRepository) UpdateAccount(ctx context.Context, id int64, name, email string) error {
	err := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "email": email}).Error
	if err != nil {
		return fmt.Errorf("update account %d: %w", id, err)
	}
	return nil
}

// UpsertPerson inserts the person row or overwrites its details when the user already has one.
func (r *ProfileRepository) UpsertPerson(ctx context.Context, p *userDatamodel.Person) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"first_name", "last_name", "telephone", "date_birth", "biography", "updated_at",
		}),
	}).Create(p).Error
	if err != nil {
		return fmt.Errorf("upsert person for user %d: %w", p.UserID, err)
	}
	return nil
}

func (r *ProfileRepository) SaveImageURL(ctx context.Context, id int64, url string) error {
	err := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", id).
		Update("url_image_profile", url).Error
	if err != nil {
		return fmt.Errorf("save image url for user %d: %w", id, err)
	}
	return nil
}
