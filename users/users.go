package users

import (
	"net/url"
	"strings"
)

// RoleType represents a user role on the platform.
type RoleType string

const (
	RoleParent RoleType = "parent"
	RoleTutor  RoleType = "tutor"
	RoleAdmin  RoleType = "admin"
)

// User is the profile record returned by the backend. Optional fields are
// pointers so that a missing field can be told apart from a zero value.
type User struct {
	ID        string    `json:"id,omitempty"`        // Unique identifier for the user
	Email     string    `json:"email,omitempty"`     // User's email address
	FirstName string    `json:"firstName,omitempty"` // First name of the user
	LastName  string    `json:"lastName,omitempty"`  // Last name of the user
	Phone     string    `json:"phone,omitempty"`     // Optional contact number
	PhotoURL  *string   `json:"photoURL,omitempty"`  // Avatar URL, set for OAuth accounts
	Role      *RoleType `json:"role,omitempty"`      // Platform role, assigned server-side
	Credits   *int      `json:"credits,omitempty"`   // Remaining session credits balance
}

// DisplayName returns a human readable name for the user.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// Photo returns the user's avatar URL, falling back to a generated
// placeholder derived from the first name when no photo is set.
func (u *User) Photo() string {
	if u.PhotoURL != nil && *u.PhotoURL != "" {
		return *u.PhotoURL
	}
	seed := u.FirstName
	if seed == "" {
		seed = u.Email
	}
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(seed)
}

// CreditBalance returns the credits balance, zero when the backend omitted
// the field.
func (u *User) CreditBalance() int {
	if u.Credits == nil {
		return 0
	}
	return *u.Credits
}
