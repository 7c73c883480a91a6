package repository

import (
	"context"
	"time"

	"github.com/wanderio/tourhub/internal/model"
)

// UserStore is the slice of user persistence consumed by the auth lifecycle
// (handlers and the Protect middleware). Declaring it here lets tests drive
// the full auth flow against an in-memory implementation.
//
// All lookups observe the active-user base scope: soft-deleted users behave
// as if they do not exist.
type UserStore interface {
	// Create inserts a new user and returns its id. Duplicate emails
	// return ErrEmailExists.
	Create(ctx context.Context, u *model.User) (uint64, error)
	// GetByEmail fetches an active user by normalized email, including the
	// password hash. Missing rows return ErrNotFound.
	GetByEmail(ctx context.Context, email string) (model.User, error)
	// GetByID fetches an active user by id. Missing rows return ErrNotFound.
	GetByID(ctx context.Context, id uint64) (model.User, error)
	// UpdatePassword stores a new password hash and the change timestamp.
	UpdatePassword(ctx context.Context, id uint64, hash string, changedAt time.Time) error
	// SetResetToken stores the reset token hash and its expiry.
	SetResetToken(ctx context.Context, id uint64, tokenHash string, expires time.Time) error
	// ClearResetToken removes any pending reset token.
	ClearResetToken(ctx context.Context, id uint64) error
	// GetByResetHash fetches the user whose stored reset hash matches and
	// whose expiry is after now. Anything else returns ErrNotFound.
	GetByResetHash(ctx context.Context, tokenHash string, now time.Time) (model.User, error)
}
