package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/journi-app/journi/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// identityKey is the context key for the authenticated identity.
	identityKey contextKey = "identity"
)

// WithIdentity returns a context carrying the identity. Used by the
// interceptors and by callers that authenticate out of band.
func WithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentity extracts the authenticated identity from the context.
// Returns nil if the request was not authenticated.
func GetIdentity(ctx context.Context) *auth.Identity {
	identity, _ := ctx.Value(identityKey).(*auth.Identity)
	return identity
}

// GetUserID extracts the authenticated user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	if identity := GetIdentity(ctx); identity != nil {
		return identity.UserID
	}
	return ""
}

func bearerToken(req connect.AnyRequest) string {
	authHeader := req.Header().Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// RequireAuth returns a middleware that resolves the bearer token through
// the verifier and rejects unauthenticated requests. The identity is
// added to the request context for the handlers.
func RequireAuth(verifier auth.TokenVerifier) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Header().Get("Authorization") == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}
			token := bearerToken(req)
			if token == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}

			identity, err := verifier.Verify(ctx, token)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			return next(WithIdentity(ctx, identity), req)
		}
	}
}

// OptionalAuth returns a middleware that resolves the bearer token if
// present, but allows requests without authentication. Useful for
// endpoints that have different behavior for authenticated vs
// unauthenticated users.
func OptionalAuth(verifier auth.TokenVerifier) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if token := bearerToken(req); token != "" {
				if identity, err := verifier.Verify(ctx, token); err == nil {
					ctx = WithIdentity(ctx, identity)
				}
			}
			return next(ctx, req)
		}
	}
}
