package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prperemyshlev/grocery-store/pkg/database"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repositories holds all repository interfaces
type Repositories struct {
	User          UserRepository
	Token         TokenRepository
	OAuthProvider OAuthProviderRepository
	Product       ProductRepository
	Order         OrderRepository

	db *sql.DB
}

var _ Transactor = (*Repositories)(nil)

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	repos := newRepositories(db.DB)
	repos.db = db.DB
	return repos
}

func newRepositories(q DBTX) *Repositories {
	return &Repositories{
		User:          &userRepository{db: q},
		Token:         &tokenRepository{db: q},
		OAuthProvider: &oauthProviderRepository{db: q},
		Product:       &productRepository{db: q},
		Order:         &orderRepository{db: q},
	}
}

// WithinTx runs fn in a transaction. Called on transaction-bound repositories it reuses the open transaction.
func (r *Repositories) WithinTx(ctx context.Context, fn func(tx *Repositories) error) error {
	if r.db == nil {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(newRepositories(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	return nil
}
