package profile

import (
	"mime"
	"strings"
	"time"

	userDatamodel "github.com/frahmantamala/rbac-service/internal/core/datamodel/user"
	"github.com/frahmantamala/rbac-service/internal/role"
)

// DateLayout is the wire format of dateBirth.
const DateLayout = "2006-01-02"

// Profile is the signed-in user as seen by themselves: account, person details and effective role.
type Profile struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Active          bool       `json:"active"`
	URLImageProfile *string    `json:"urlImageProfile,omitempty"`
	Person          *Person    `json:"person"`
	Role            *role.Role `json:"role"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type Person struct {
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Telephone string  `json:"telephone"`
	DateBirth *string `json:"dateBirth"`
	Biography string  `json:"biography"`
}

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
}

// ImageExtension maps an accepted upload content type to its file extension.
func ImageExtension(contentType string) (string, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	ext, ok := imageExtensions[strings.ToLower(mediaType)]
	return ext, ok
}

func newProfile(u *userDatamodel.User, p *userDatamodel.Person, r *role.Role) *Profile {
	return &Profile{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Active:          u.Active,
		URLImageProfile: u.URLImageProfile,
		Person:          personFromDataModel(p),
		Role:            r,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func personFromDataModel(p *userDatamodel.Person) *Person {
	if p == nil {
		return nil
	}
	out := &Person{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Telephone: p.Telephone,
		Biography: p.Biography,
	}
	if p.DateBirth != nil {
		d := p.DateBirth.Format(DateLayout)
		out.DateBirth = &d
	}
	return out
}
