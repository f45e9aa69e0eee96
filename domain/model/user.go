package model

import "time"

// User is the caller identity resolved from the X-User-ID header or the user cookie.
type User struct {
	ID        string    `json:"id"`
	IsGuest   bool      `json:"isGuest"`
	CreatedAt time.Time `json:"created_at"`
}
