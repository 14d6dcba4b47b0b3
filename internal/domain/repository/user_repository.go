// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"
	"errors"
	"time"

	"emuss/internal/domain/entity"
)

// ErrUserNotFound is returned by lookups when no user matches.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines user persistence. No method returns a password hash
// except FindCredentials.
type UserRepository interface {
	// FindByID retrieves a single user by id.
	FindByID(ctx context.Context, id int64) (*entity.User, error)

	// FindByEmail retrieves a single user by email address.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindCredentials retrieves a user together with the stored password hash.
	FindCredentials(ctx context.Context, email string) (*entity.Credentials, error)

	// Create hashes the password and inserts the user. Fails with a conflict
	// when the email is taken.
	Create(ctx context.Context, user *entity.NewUser) (*entity.User, error)

	// Update applies a partial replace and returns the stored result.
	Update(ctx context.Context, id int64, patch *entity.UserPatch) (*entity.User, error)

	// Delete removes the user.
	Delete(ctx context.Context, id int64) error

	// TouchLastLogin records a successful authentication.
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error

	// ListAll returns every user ordered by id.
	ListAll(ctx context.Context) ([]*entity.User, error)
}
