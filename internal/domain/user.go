package domain

import "time"

// User represents a registered account of the system.
type User struct {
	ID           int64
	Username     string
	Email        string
	FullName     string
	PasswordHash string `json:"-"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
