package authorization

import "slices"

// AdminRoleName is the role that is granted every permission.
const AdminRoleName = "ADMIN"

// Snapshot is everything a single decision needs about one user.
type Snapshot struct {
	UserID      int64    `json:"userId"`
	Found       bool     `json:"found"`
	RoleName    string   `json:"roleName"`
	Permissions []string `json:"permissions"`
	// RoleNames holds every role name known to the store.
	RoleNames []string `json:"roleNames"`
}

// AdminBypass grants everything to holders of the ADMIN role, regardless of linked permissions.
func AdminBypass(s *Snapshot) bool {
	return s.RoleName == AdminRoleName
}

// Decide evaluates a permission against a snapshot. It never touches storage.
func Decide(s *Snapshot, permission string) bool {
	if s == nil || !s.Found || s.RoleName == "" {
		return false
	}
	if !slices.Contains(s.RoleNames, s.RoleName) {
		return false
	}
	if AdminBypass(s) {
		return true
	}
	return slices.Contains(s.Permissions, permission)
}
