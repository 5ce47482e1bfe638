package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Lap-DevOps/Organizational-Chart/internal"
	"github.com/Lap-DevOps/Organizational-Chart/internal/user"
	"github.com/google/uuid"
)

// UserAuthenticator is the part of the user service that auth depends on.
type UserAuthenticator interface {
	Authenticate(ctx context.Context, email, password string) (*user.User, error)
	GetByPublicID(ctx context.Context, publicID uuid.UUID) (*user.User, error)
}

// ServiceAPI performs authentication-related business logic.
type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
}

type Service struct {
	users          UserAuthenticator
	tokenGenerator TokenGenerator
	logger         *slog.Logger
}

func NewService(users UserAuthenticator, tokenGen TokenGenerator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:          users,
		tokenGenerator: tokenGen,
		logger:         logger,
	}
}

// Authenticate validates credentials and returns tokens
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if appErr := dto.Validate(); appErr != nil {
		return AuthTokens{}, appErr
	}

	u, err := s.users.Authenticate(ctx, dto.Email, dto.Password)
	if err != nil {
		return AuthTokens{}, err
	}

	return s.issue(u)
}

// RefreshTokens exchanges a refresh token for a new pair. The user is reloaded so
// a changed role is reflected and a removed user cannot refresh.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.Validate(refreshToken, RefreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	publicID, err := uuid.Parse(claims.PublicID)
	if err != nil {
		return AuthTokens{}, internal.ErrInvalidToken.WithCause(err)
	}

	u, err := s.users.GetByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return AuthTokens{}, internal.ErrInvalidToken
		}
		return AuthTokens{}, err
	}

	return s.issue(u)
}

// ValidateAccessToken validates access token and returns claims
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.Validate(tokenString, AccessToken)
}

func (s *Service) issue(u *user.User) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.Generate(u, AccessToken)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign access token", err)
	}

	refreshToken, err := s.tokenGenerator.Generate(u, RefreshToken)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign refresh token", err)
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokenGenerator.TTL(AccessToken).Seconds()),
	}, nil
}
