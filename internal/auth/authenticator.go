// Package auth provides the identity layer for the tracker: password
// registration and login backed by bcrypt, and stateless JWT sessions.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailExists        = errors.New("email already registered")
)

// Authenticator defines the interface for authentication implementations.
// The service layer depends on this, not on a concrete method, so password
// auth can later be swapped for passkeys or OAuth without touching it.
type Authenticator interface {
	// Register creates a new account for the given email and credential
	// and returns the created user.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the credential and returns the user if valid.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks the credential against the
	// implementation's requirements before any storage work happens.
	ValidateCredential(credential string) error
}

// Friendly reduces an authentication error to a short fragment suitable for
// inline display next to a sign-in form, stripping any wrapped technical
// detail. Only the auth boundary surfaces errors to users this way; data
// layer errors go through the normal API error path.
func Friendly(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid email or password"
	case errors.Is(err, ErrWeakPassword):
		return "password must be at least 8 characters"
	case errors.Is(err, ErrEmailExists):
		return "email already registered"
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrMissingToken):
		return "session expired, please sign in again"
	default:
		// Keep only the first error segment so wrapped driver detail
		// never reaches the form.
		msg := err.Error()
		if i := strings.IndexByte(msg, ':'); i > 0 {
			msg = msg[:i]
		}
		return msg
	}
}
