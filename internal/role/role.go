package role

import (
	"time"

	roleDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/role"
	"github.com/frahmantamala/rbac-service/internal/permission"
)

// Names of the seeded roles. AdminName is also the role the authorization bypass keys on.
const (
	AdminName = "ADMIN"
	UserName  = "User"
	GuestName = "Guest"
)

type Role struct {
	ID          int64                    `json:"id"`
	Name        string                   `json:"name"`
	Description string                   `json:"description,omitempty"`
	Permissions []*permission.Permission `json:"permissions"`
	CreatedAt   time.Time                `json:"createdAt"`
	UpdatedAt   time.Time                `json:"updatedAt"`
}

// PermissionNames returns the names of the linked permissions.
func (r *Role) PermissionNames() []string {
	names := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		names = append(names, p.Name)
	}
	return names
}

func NewRole(name, description string) *Role {
	now := time.Now()
	return &Role{
		Name:        name,
		Description: description,
		Permissions: []*permission.Permission{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func ToDataModel(r *Role) *roleDatamodel.Role {
	return &roleDatamodel.Role{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func FromDataModel(r *roleDatamodel.Role) *Role {
	return &Role{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Permissions: []*permission.Permission{},
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// diff returns the ids in want that are missing from have, and the ids in have that are not wanted.
func diff(have, want []int64) (attach, detach []int64) {
	haveSet := make(map[int64]struct{}, len(have))
	for _, id := range have {
		haveSet[id] = struct{}{}
	}
	wantSet := make(map[int64]struct{}, len(want))
	for _, id := range want {
		wantSet[id] = struct{}{}
		if _, ok := haveSet[id]; !ok {
			attach = append(attach, id)
		}
	}
	for _, id := range have {
		if _, ok := wantSet[id]; !ok {
			detach = append(detach, id)
		}
	}
	return attach, detach
}
