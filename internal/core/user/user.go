package user

import (
	"strings"
	"time"
)

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
)

// ParseRole maps a stored role string onto a Role. Anything unrecognised is
// returned as-is so the access policy can deny it.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(RoleEmployee):
		return RoleEmployee
	case string(RoleManager):
		return RoleManager
	default:
		return Role(s)
	}
}

func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleManager
}

// Toggle flips employee and manager. Unknown roles become employee.
func (r Role) Toggle() Role {
	if r == RoleEmployee {
		return RoleManager
	}
	return RoleEmployee
}

type User struct {
	ID              int64
	Email           string
	FirstName       string
	LastName        string
	ProfileImageURL string
	PasswordHash    string
	Role            Role
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DisplayName is "first last" trimmed, falling back to the email.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// Principal is the authenticated caller. It is passed explicitly into every
// lifecycle operation instead of being read from ambient state.
type Principal struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

func (p *Principal) IsManager() bool {
	return p != nil && p.Role == RoleManager
}
