package user

import (
	"strings"
	"time"

	roleDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/user"
)

type User struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	Active          bool      `json:"active"`
	RoleID          int64     `json:"roleId"`
	Role            *RoleRef  `json:"role,omitempty"`
	URLImageProfile *string   `json:"urlImageProfile,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// RoleRef is the role summary embedded in user responses.
type RoleRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ListFilter selects one page of users, optionally narrowed by a name substring.
type ListFilter struct {
	Page     int
	PageSize int
	Name     string
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Offset is the number of rows skipped before the page starts.
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// Normalize fills defaults and caps the page size.
func (f ListFilter) Normalize() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	f.Name = strings.TrimSpace(f.Name)
	return f
}

// NormalizeEmail is the canonical stored form; login lookups rely on it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		PasswordHash:    u.PasswordHash,
		Active:          u.Active,
		RoleID:          u.RoleID,
		URLImageProfile: u.URLImageProfile,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		PasswordHash:    u.PasswordHash,
		Active:          u.Active,
		RoleID:          u.RoleID,
		URLImageProfile: u.URLImageProfile,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func FromDataModelWithRole(u *userDatamodel.User, r *roleDatamodel.Role) *User {
	domainUser := FromDataModel(u)
	if r != nil {
		domainUser.Role = &RoleRef{ID: r.ID, Name: r.Name}
	}
	return domainUser
}
