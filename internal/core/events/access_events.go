package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types emitted whenever something that feeds an authorization decision changes.
const (
	EventTypeRoleUpdated            = "role.updated"
	EventTypeRoleDeleted            = "role.deleted"
	EventTypeRolePermissionsChanged = "role.permissions_changed"
	EventTypeUserRoleChanged        = "user.role_changed"
	EventTypeUserDeleted            = "user.deleted"
)

// AccessChangedTypes lists every event that invalidates cached authorization data.
var AccessChangedTypes = []string{
	EventTypeRoleUpdated,
	EventTypeRoleDeleted,
	EventTypeRolePermissionsChanged,
	EventTypeUserRoleChanged,
	EventTypeUserDeleted,
}

type RoleEvent struct {
	BaseEvent
	RoleID int64 `json:"role_id"`
}

func NewRoleEvent(eventType string, roleID int64) *RoleEvent {
	return &RoleEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"role_id": roleID,
			},
		},
		RoleID: roleID,
	}
}

type UserEvent struct {
	BaseEvent
	UserID int64 `json:"user_id"`
}

func NewUserEvent(eventType string, userID int64) *UserEvent {
	return &UserEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id": userID,
			},
		},
		UserID: userID,
	}
}
