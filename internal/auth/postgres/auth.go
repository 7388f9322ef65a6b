package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/rbac-service/internal/auth"
	userDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// FindCredentials matches the identifier against email first and falls back to name only when no
// email matches. Emails are compared lowercased, names as typed. Soft-deleted users are never returned.
func (r *Repository) FindCredentials(ctx context.Context, identifier string) (*auth.Credentials, error) {
	creds, err := r.findCredentialsBy(ctx, "email", strings.ToLower(identifier))
	if err != nil || creds != nil {
		return creds, err
	}
	return r.findCredentialsBy(ctx, "name", identifier)
}

func (r *Repository) findCredentialsBy(ctx context.Context, column, value string) (*auth.Credentials, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).
		Select("id", "password_hash").
		Where("active = ?", true).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).
		Order("id").
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find credentials by %s: %w", column, err)
	}
	return &auth.Credentials{UserID: row.ID, PasswordHash: row.PasswordHash}, nil
}

func (r *Repository) FindAccount(ctx context.Context, userID int64) (*auth.Account, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find account %d: %w", userID, err)
	}
	return &auth.Account{
		ID:              row.ID,
		Name:            row.Name,
		Email:           row.Email,
		RoleID:          row.RoleID,
		Active:          row.Active,
		URLImageProfile: row.URLImageProfile,
		CreatedAt:       row.CreatedAt,
	}, nil
}
