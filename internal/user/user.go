package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/leave-management/internal/core/user"
)

// User is the public view of an account. The password hash never leaves this package.
type User struct {
	ID              int64         `json:"id"`
	Email           string        `json:"email"`
	FirstName       string        `json:"first_name"`
	LastName        string        `json:"last_name"`
	DisplayName     string        `json:"display_name"`
	ProfileImageURL string        `json:"profile_image_url,omitempty"`
	Role            coreUser.Role `json:"role"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (u *User) IsManager() bool {
	return u.Role == coreUser.RoleManager
}

func FromDataModel(u *userDatamodel.User) *User {
	core := coreUser.User{Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
	return &User{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		DisplayName:     core.DisplayName(),
		ProfileImageURL: u.ProfileImageURL,
		Role:            coreUser.ParseRole(u.Role),
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}
