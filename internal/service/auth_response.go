package service

import (
	"context"
	"time"

	"github.com/prperemyshlev/grocery-store/internal/apperror"
	"github.com/prperemyshlev/grocery-store/internal/domain"
)

// Session is the result of every successful sign-in or refresh.
type Session struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
	ExpiresIn    int // refresh token lifetime in seconds
}

// issueSession signs a token pair and records the refresh jti.
func (s *authService) issueSession(ctx context.Context, user *domain.User, client domain.ClientInfo) (*Session, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user)
	if err != nil {
		return nil, apperror.Wrap(err, "failed to generate access token")
	}

	refreshToken, claims, err := s.jwtManager.GenerateRefreshToken(user)
	if err != nil {
		return nil, apperror.Wrap(err, "failed to generate refresh token")
	}

	record := &domain.RefreshToken{
		ID:        claims.TokenID,
		UserID:    user.ID,
		ExpiresAt: claims.ExpiresAt,
		UserAgent: optional(client.UserAgent),
		IPAddress: optional(client.IPAddress),
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, apperror.Wrap(err, "failed to save refresh token")
	}

	return &Session{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtManager.RefreshTokenExpiry() / time.Second),
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
