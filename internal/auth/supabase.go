package auth

import (
	"context"
	"fmt"

	"github.com/supabase-community/supabase-go"
)

// SupabaseVerifier validates bearer tokens against a Supabase project.
// Used when the mobile app signs users in through Supabase Auth instead
// of local accounts.
type SupabaseVerifier struct {
	client *supabase.Client
}

// NewSupabaseVerifier creates a verifier backed by the project's service
// role key.
func NewSupabaseVerifier(projectURL, serviceRoleKey string) (*SupabaseVerifier, error) {
	client, err := supabase.NewClient(projectURL, serviceRoleKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &SupabaseVerifier{client: client}, nil
}

// Verify implements TokenVerifier by asking Supabase who the token
// belongs to. The GetUser call, when chained with WithToken, carries the
// context implicitly in the underlying HTTP request.
func (v *SupabaseVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	user, err := v.client.Auth.WithToken(token).GetUser()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	identity := &Identity{
		UserID: user.ID.String(),
		Email:  user.Email,
	}
	if name, ok := user.UserMetadata["display_name"].(string); ok {
		identity.DisplayName = name
	}
	return identity, nil
}
