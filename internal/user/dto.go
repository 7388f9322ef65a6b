package user

type CreateUserDTO struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=5,max=100"`
	RoleID   int64  `json:"roleId" validate:"required,gt=0"`
}

// UpdateUserDTO changes name and email. RoleID is optional; nil keeps the current role.
type UpdateUserDTO struct {
	Name   string `json:"name" validate:"required,max=255"`
	Email  string `json:"email" validate:"required,email,max=255"`
	RoleID *int64 `json:"roleId,omitempty" validate:"omitempty,gt=0"`
}

type UsersResponse struct {
	Data  []*User `json:"data"`
	Count int64   `json:"count"`
}

type UserResponse struct {
	Data *User `json:"data"`
}
