package repository

import (
	"context"

	"github.com/prperemyshlev/grocery-store/internal/domain"
)

// UserRepository defines methods for user operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateRole(ctx context.Context, userID string, role domain.Role) error
	UpdateLastLogin(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID string) error
}

// TokenRepository stores issued refresh tokens by jti.
type TokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	GetByID(ctx context.Context, tokenID string) (*domain.RefreshToken, error)
	Delete(ctx context.Context, tokenID string) error
	DeleteByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// OAuthProviderRepository defines methods for OAuth provider operations
type OAuthProviderRepository interface {
	Create(ctx context.Context, provider *domain.OAuthProvider) error
	GetByProvider(ctx context.Context, provider, providerUserID string) (*domain.OAuthProvider, error)
}

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, category string) ([]*domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
	// Update writes only the non-nil fields of changes and returns the stored row.
	Update(ctx context.Context, id string, changes domain.ProductChanges) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	// DecrementStock subtracts quantity only if enough units remain and returns the updated row.
	DecrementStock(ctx context.Context, id string, quantity int) (*domain.Product, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	List(ctx context.Context) ([]*domain.Order, error)
	ListByEmail(ctx context.Context, email string) ([]*domain.Order, error)
	Delete(ctx context.Context, id string) error
	DeleteByEmail(ctx context.Context, email string) (int64, error)
}

// Transactor runs fn against repositories bound to one transaction.
// The transaction commits only if fn returns nil.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx *Repositories) error) error
}
