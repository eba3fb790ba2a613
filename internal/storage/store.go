// Package storage provides abstractions for account persistence.
package storage

import (
	"context"

	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/models"
)

// UserStore defines the interface for account storage operations. Wedding
// documents do not live here; they belong to the document store. This
// abstraction keeps the auth layer free of SQL.
type UserStore interface {
	// CreateUser persists a new account.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves an account by email. Returns (nil, nil)
	// when no account exists.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves an account by id. Returns (nil, nil) when no
	// account exists.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Close releases any resources held by the store.
	Close() error
}
