package domain

import "time"

// Profile is the user directory row. Peer transfers resolve recipients by
// e-mail; moderation endpoints require the admin flag.
type Profile struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email" binding:"required"`
	FullName  string    `json:"full_name" db:"full_name"`
	IsAdmin   bool      `json:"is_admin" db:"is_admin"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
