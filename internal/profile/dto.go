package profile

type UpdateProfileDTO struct {
	Name      string  `json:"name" validate:"required,max=255"`
	Email     string  `json:"email" validate:"required,email,max=255"`
	FirstName string  `json:"firstName" validate:"max=255"`
	LastName  string  `json:"lastName" validate:"max=255"`
	DateBirth *string `json:"dateBirth" validate:"omitempty,datetime=2006-01-02"`
	Telephone string  `json:"telephone" validate:"max=50"`
	Biography string  `json:"biography" validate:"max=2000"`
}

type PhotoData struct {
	URL string `json:"url"`
}

type ProfileResponse struct {
	Data *Profile `json:"data"`
}

type PhotoResponse struct {
	Data PhotoData `json:"data"`
}
