package permission

import (
	"time"

	permissionDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/permission"
)

// Names of the permissions every deployment is seeded with.
const (
	Create = "Create"
	Read   = "Read"
	Update = "Update"
	Delete = "Delete"
	List   = "List"
)

// DefaultNames is the seeded permission catalogue in a stable order.
var DefaultNames = []string{Create, Read, Update, Delete, List}

type Permission struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewPermission(name, description string) *Permission {
	now := time.Now()
	return &Permission{
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func ToDataModel(p *Permission) *permissionDatamodel.Permission {
	return &permissionDatamodel.Permission{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func FromDataModel(p *permissionDatamodel.Permission) *Permission {
	return &Permission{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func FromDataModels(rows []*permissionDatamodel.Permission) []*Permission {
	out := make([]*Permission, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out
}
