package auth

import (
	"context"

	"github.com/journi-app/journi/internal/models"
)

// Authenticator defines the interface for account creation and login.
// This abstraction allows swapping between different auth methods
// (password, passkeys, OAuth, etc.) without changing the service layer.
type Authenticator interface {
	// Register creates a new user account with the given email and credential.
	// The credential format depends on the implementation.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if successful.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}

// Identity is the authenticated caller attached to a request after token
// verification.
type Identity struct {
	UserID      string
	Email       string
	DisplayName string
}

// TokenVerifier resolves a bearer token to an identity. Implemented by
// the local JWT manager and by the Supabase verifier, so the middleware
// does not care which auth mode the deployment runs.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}
