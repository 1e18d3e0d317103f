package repository

import (
	"context"
	"errors"

	"ecomonitor/internal/domain"
)

var (
	// ErrNotFound is returned when no user matches the lookup key.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when an insert loses the uniqueness
	// race on the email column.
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository defines persistence operations for User entities.
// Email uniqueness is enforced by the storage layer itself, so two
// concurrent Create calls for the same email resolve to exactly one
// success and one ErrDuplicateEmail.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}
