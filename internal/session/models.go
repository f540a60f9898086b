package session

import "time"

// Session binds an auth token to the alias it was issued for
type Session struct {
	Token     string    `json:"token"`
	Alias     string    `json:"alias"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
