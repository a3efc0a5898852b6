package auth

import (
	"context"
	"errors"

	"github.com/chaincred/chaincred/internal/config"
	"github.com/chaincred/chaincred/internal/user"
)

// Service issues and refreshes token pairs.
type Service struct {
	cfg   config.Config
	users user.Repository
}

// NewService builds the auth service.
func NewService(cfg config.Config, users user.Repository) *Service {
	return &Service{cfg: cfg, users: users}
}

// TokenPair bundles the credentials returned on login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Login issues an access/refresh pair for an authenticated user.
func (s *Service) Login(u user.User) (TokenPair, error) {
	access, err := Sign(newClaims(u.ID, u.Username, u.Role, u.TokenVersion, s.cfg.AccessTokenTTL), []byte(s.cfg.JWTSecret))
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := Sign(newClaims(u.ID, "", "", u.TokenVersion, s.cfg.RefreshTokenTTL), []byte(s.cfg.RefreshSecret))
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

// Refresh verifies the refresh token and the stored token version, then
// issues a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, int64, error) {
	claims, err := Parse(refreshToken, []byte(s.cfg.RefreshSecret))
	if err != nil {
		return "", 0, errors.New("invalid refresh token")
	}

	u, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		return "", 0, errors.New("user not found")
	}
	if u.TokenVersion != claims.Version {
		return "", 0, errors.New("token version invalidated")
	}

	access, err := Sign(newClaims(u.ID, u.Username, u.Role, u.TokenVersion, s.cfg.AccessTokenTTL), []byte(s.cfg.JWTSecret))
	if err != nil {
		return "", 0, err
	}
	return access, int64(s.cfg.AccessTokenTTL.Seconds()), nil
}

// Logout bumps the token version so outstanding tokens become invalid.
func (s *Service) Logout(ctx context.Context, userID string) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	return s.users.UpdateTokenVersion(ctx, u.ID, u.TokenVersion+1)
}

// Verify parses an access token and checks it against the stored token
// version. Used by the JWT middleware.
func (s *Service) Verify(ctx context.Context, tokenStr string) (Claims, error) {
	claims, err := Parse(tokenStr, []byte(s.cfg.JWTSecret))
	if err != nil {
		return Claims{}, err
	}
	u, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil || u.TokenVersion != claims.Version {
		return Claims{}, errors.New("token invalidated")
	}
	return claims, nil
}
