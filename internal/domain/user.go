package domain

import "time"

// User represents a registered account. Email is stored normalized
// (trimmed, lowercased) and is unique across all accounts.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
