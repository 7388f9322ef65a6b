package role

import "time"

type Role struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Role) TableName() string {
	return "roles"
}

// RolePermission is the join row between roles and permissions. It has no lifecycle of its own.
type RolePermission struct {
	RoleID       int64     `gorm:"primaryKey;column:role_id;autoIncrement:false"`
	PermissionID int64     `gorm:"primaryKey;column:permission_id;autoIncrement:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (RolePermission) TableName() string {
	return "role_permissions"
}
