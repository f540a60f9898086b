// Package tweeter holds the domain types shared by the follow service and its
// clients.
package tweeter

import "strings"

// User represents a tweeter account as seen by clients
type User struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Alias     string `json:"alias"`
	ImageURL  string `json:"image_url"`
}

// NewUser builds a user record
func NewUser(firstName, lastName, alias, imageURL string) *User {
	return &User{
		FirstName: firstName,
		LastName:  lastName,
		Alias:     alias,
		ImageURL:  imageURL,
	}
}

// Name returns the display name
func (u *User) Name() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Equals reports whether both records describe the same account.
// Users are identified by alias only.
func (u *User) Equals(other *User) bool {
	if u == nil || other == nil {
		return u == other
	}
	return u.Alias == other.Alias
}

// AuthToken is an opaque credential issued at login. It is passed through to
// the data source as-is.
type AuthToken string

// String returns the raw token
func (t AuthToken) String() string {
	return string(t)
}
