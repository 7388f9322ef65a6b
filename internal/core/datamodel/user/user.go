package user

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID              int64          `gorm:"primaryKey"`
	Name            string         `gorm:"column:name;not null"`
	Email           string         `gorm:"column:email;index;not null"`
	PasswordHash    string         `gorm:"column:password_hash;not null"`
	Active          bool           `gorm:"column:active;default:true"`
	RoleID          int64          `gorm:"column:role_id;not null;index"`
	URLImageProfile *string        `gorm:"column:url_image_profile"`
	ConfirmedAt     *time.Time     `gorm:"column:confirmed_at"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt       gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (User) TableName() string {
	return "users"
}

// Person holds the optional profile attached one-to-one to a user.
type Person struct {
	ID        int64          `gorm:"primaryKey"`
	UserID    int64          `gorm:"column:user_id;uniqueIndex;not null"`
	FirstName string         `gorm:"column:first_name"`
	LastName  string         `gorm:"column:last_name"`
	Telephone string         `gorm:"column:telephone"`
	DateBirth *time.Time     `gorm:"column:date_birth"`
	Biography string         `gorm:"column:biography"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Person) TableName() string {
	return "people"
}
