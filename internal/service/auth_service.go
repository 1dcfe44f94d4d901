package service

import (
	"context"
	"log/slog"

	"github.com/splitscan/splitscan/internal/auth"
	"github.com/splitscan/splitscan/internal/models"
)

// AuthService handles user registration and login, issuing JWTs on success.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
}

// NewAuthService creates an AuthService.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
	}
}

// Register creates a new account and returns a session token for it.
func (s *AuthService) Register(ctx context.Context, email, displayName, password string) (string, *models.User, error) {
	user, err := s.authenticator.Register(ctx, email, displayName, password)
	if err != nil {
		slog.Warn("Register failed", "email", email, "error", err)
		return "", nil, err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		slog.Error("Register: token generation failed", "user_id", user.ID, "error", err)
		return "", nil, err
	}

	slog.Info("User registered", "user_id", user.ID)
	return token, user, nil
}

// Login authenticates an existing account and returns a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		slog.Warn("Login failed", "email", email, "error", err)
		return "", nil, err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		slog.Error("Login: token generation failed", "user_id", user.ID, "error", err)
		return "", nil, err
	}

	slog.Info("User logged in", "user_id", user.ID)
	return token, user, nil
}
