package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account for self-hosted deployments.
// Hosted deployments verify Supabase bearer tokens instead and never
// touch the users table; guests get a short-lived token with only a
// display name.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Email is the user's email address (unique, used for login).
	Email string

	// DisplayName is shown to other trip participants.
	DisplayName string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// NewUser creates a user with a fresh UUID and timestamps.
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
