package domain

import (
	"time"
)

// Roles assignable to a user. Role is set at creation and never mutated by
// the auth core.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Known authentication provider tags. Stored as open-ended strings so new
// federated providers can be added without a schema change.
const (
	ProviderCredentials = "credentials"
	ProviderGoogle      = "google"
)

// User represents a registered identity. Email is the natural key across
// all providers: a federated sign-in with an email matching an existing
// local account attaches to that same record.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone,omitempty"`
	Provider     string    `json:"provider"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// SessionView is the public-facing session shape reconstructed from decoded
// claims. It never carries the password hash.
type SessionView struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email"`
	Provider  string    `json:"provider"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
