package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/journi-app/journi/internal/auth"
	"github.com/journi-app/journi/internal/middleware"
	"github.com/journi-app/journi/internal/models"
	"github.com/journi-app/journi/internal/storage"
)

// AuthService handles local account registration and login. Deployments
// running in supabase mode do not mount it.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	store         storage.Store
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, store storage.Store, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		store:         store,
		logger:        logger,
	}
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error) {
	s.logger.Info("Register request", "email", req.Msg.Email)

	if req.Msg.Email == "" || req.Msg.DisplayName == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	user, err := s.authenticator.Register(ctx, req.Msg.Email, req.Msg.DisplayName, req.Msg.Password)
	if err != nil {
		s.logger.Error("Registration failed", "email", req.Msg.Email, "error", err)
		switch err {
		case auth.ErrEmailExists:
			return nil, connect.NewError(connect.CodeAlreadyExists, err)
		case auth.ErrWeakPassword:
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		default:
			return nil, connect.NewError(connect.CodeInternal, err)
		}
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User registered", "user_id", user.ID, "email", user.Email)
	return connect.NewResponse(&RegisterResponse{User: userView(user), Token: token}), nil
}

// Login authenticates a user and returns a session token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	s.logger.Info("Login request", "email", req.Msg.Email)

	if req.Msg.Email == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	user, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "email", req.Msg.Email, "error", err)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User logged in", "user_id", user.ID)
	return connect.NewResponse(&LoginResponse{User: userView(user), Token: token}), nil
}

// GuestLogin creates a throwaway account from just a display name and
// returns a session token for it. Guests join trips by session code like
// everyone else; they cannot log back in once the token expires.
func (s *AuthService) GuestLogin(ctx context.Context, req *connect.Request[GuestLoginRequest]) (*connect.Response[LoginResponse], error) {
	name := strings.TrimSpace(req.Msg.DisplayName)
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("display_name is required"))
	}

	// Synthetic unique email keeps the users table schema uniform.
	email := fmt.Sprintf("guest-%s@guest.invalid", uuid.New().String())
	user := models.NewUser(email, name, "")
	if err := s.store.CreateUser(ctx, user); err != nil {
		s.logger.Error("Guest login failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Guest logged in", "user_id", user.ID, "display_name", name)
	return connect.NewResponse(&LoginResponse{User: userView(user), Token: token}), nil
}

// GetCurrentUser returns the authenticated user's account.
func (s *AuthService) GetCurrentUser(ctx context.Context, _ *connect.Request[GetCurrentUserRequest]) (*connect.Response[GetCurrentUserResponse], error) {
	identity := middleware.GetIdentity(ctx)
	if identity == nil {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	user, err := s.store.GetUser(ctx, identity.UserID)
	if err != nil {
		s.logger.Error("GetCurrentUser failed", "user_id", identity.UserID, "error", err)
		return nil, connect.NewError(connect.CodeNotFound, err)
	}
	return connect.NewResponse(&GetCurrentUserResponse{User: userView(user)}), nil
}
