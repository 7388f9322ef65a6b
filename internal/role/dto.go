package role

type CreateRoleDTO struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=255"`
}

type UpdateRoleDTO struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=255"`
}

type PermissionIDsDTO struct {
	PermissionIDs []int64 `json:"permissionIds" validate:"dive,gt=0"`
}

type RolesResponse struct {
	Data []*Role `json:"data"`
}

type RoleResponse struct {
	Data *Role `json:"data"`
}
