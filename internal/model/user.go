package model

import "time"

// AuthProvider identifies where a user signed in from
type AuthProvider string

const (
	AuthProviderLinkedIn AuthProvider = "linkedin"
)

// User is a member who connected a publishing account. Users are created on
// first OAuth login and looked up by email afterwards.
type User struct {
	ID         string       `json:"id"`
	Email      string       `json:"email"`
	Name       string       `json:"name,omitempty"`
	Provider   AuthProvider `json:"provider"`
	ProviderID string       `json:"provider_id,omitempty"`
	CreatedOn  time.Time    `json:"created_on"`
	UpdatedOn  time.Time    `json:"updated_on"`
	LoginOn    *time.Time   `json:"login_on,omitempty"`
}
