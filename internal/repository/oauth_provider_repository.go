package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/prperemyshlev/grocery-store/internal/domain"
)

// oauthProviderRepository stores links between users and external identities.
// A user holds at most one link per provider.
type oauthProviderRepository struct {
	db DBTX
}

const oauthProviderColumns = `id, user_id, provider, provider_user_id, email, created_at`

func scanOAuthProvider(row rowScanner) (*domain.OAuthProvider, error) {
	link := &domain.OAuthProvider{}
	var email sql.NullString

	if err := row.Scan(
		&link.ID,
		&link.UserID,
		&link.Provider,
		&link.ProviderUserID,
		&email,
		&link.CreatedAt,
	); err != nil {
		return nil, err
	}

	if email.Valid {
		link.Email = &email.String
	}
	return link, nil
}

// Create inserts the link and fills in its id and creation time.
func (r *oauthProviderRepository) Create(ctx context.Context, link *domain.OAuthProvider) error {
	query := `
		INSERT INTO oauth_providers (id, user_id, provider, provider_user_id, email)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	if link.ID == "" {
		link.ID = uuid.New().String()
	}

	err := r.db.QueryRowContext(ctx, query,
		link.ID,
		link.UserID,
		link.Provider,
		link.ProviderUserID,
		link.Email,
	).Scan(&link.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s identity %s is already linked: %w", link.Provider, link.ProviderUserID, ErrDuplicateOAuthProvider)
		}
		return fmt.Errorf("failed to link %s identity: %w", link.Provider, err)
	}

	return nil
}

func (r *oauthProviderRepository) GetByProvider(ctx context.Context, provider, providerUserID string) (*domain.OAuthProvider, error) {
	query := `SELECT ` + oauthProviderColumns + ` FROM oauth_providers WHERE provider = $1 AND provider_user_id = $2`

	link, err := scanOAuthProvider(r.db.QueryRowContext(ctx, query, provider, providerUserID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s identity %s is not linked: %w", provider, providerUserID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s link: %w", provider, err)
	}

	return link, nil
}
