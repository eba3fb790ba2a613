package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. Accounts hold credentials only; everything
// the couple shares lives in the Wedding document, which a User is linked
// to through their UserProfile.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `json:"id"`

	// Email is the user's email address (unique). Used for login and as
	// the key invites are addressed to.
	Email string `json:"email"`

	// DisplayName is the name shown to the other member.
	DisplayName string `json:"displayName"`

	// PasswordHash is the bcrypt hash of the user's password. Never
	// serialized to clients.
	PasswordHash string `json:"-"`

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64 `json:"createdAt"`

	// UpdatedAt is the Unix timestamp of the last credential change.
	UpdatedAt int64 `json:"updatedAt"`
}

// NewUser creates a User with a generated id and current timestamps.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
