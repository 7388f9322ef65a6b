package auth

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
// Email may also carry the account name.
type LoginDTO struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required,min=4,max=200"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type MeResponse struct {
	User *Account `json:"user"`
}
