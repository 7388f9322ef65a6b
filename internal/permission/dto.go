package permission

type CreatePermissionDTO struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=255"`
}

type PermissionsResponse struct {
	Data []*Permission `json:"data"`
}

type PermissionResponse struct {
	Data *Permission `json:"data"`
}
