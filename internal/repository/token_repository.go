package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/prperemyshlev/grocery-store/internal/domain"
)

// tokenRepository implements TokenRepository interface
type tokenRepository struct {
	db DBTX
}

// Create records an issued refresh token. token.ID must be the token's jti.
func (r *tokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, expires_at, created_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if token.ID == "" {
		return errors.New("refresh token id is required")
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.ExpiresAt,
		token.CreatedAt,
		token.UserAgent,
		token.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}

	return nil
}

func (r *tokenRepository) GetByID(ctx context.Context, tokenID string) (*domain.RefreshToken, error) {
	query := `
		SELECT id, user_id, expires_at, created_at, user_agent, ip_address
		FROM refresh_tokens
		WHERE id = $1
	`

	token := &domain.RefreshToken{}
	var userAgent, ipAddress sql.NullString

	err := r.db.QueryRowContext(ctx, query, tokenID).Scan(
		&token.ID,
		&token.UserID,
		&token.ExpiresAt,
		&token.CreatedAt,
		&userAgent,
		&ipAddress,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, fmt.Errorf("token %s not found: %w", tokenID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	if userAgent.Valid {
		token.UserAgent = &userAgent.String
	}
	if ipAddress.Valid {
		token.IPAddress = &ipAddress.String
	}

	return token, nil
}

// Delete deletes a refresh token by jti
func (r *tokenRepository) Delete(ctx context.Context, tokenID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE id = $1`, tokenID)
	if err != nil {
		if isInvalidID(err) {
			return fmt.Errorf("token %s not found: %w", tokenID, ErrNotFound)
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}

	return expectAffected(result, "token", tokenID)
}

// DeleteByUserID revokes every session of a user.
func (r *tokenRepository) DeleteByUserID(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete tokens for user: %w", err)
	}
	return nil
}

// DeleteExpired deletes all expired refresh tokens
func (r *tokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
