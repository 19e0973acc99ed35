package service

import (
	"context"

	"github.com/prperemyshlev/grocery-store/internal/domain"
	"github.com/prperemyshlev/grocery-store/internal/dto"
	"github.com/prperemyshlev/grocery-store/internal/oauth"
)

// AuthService covers sessions: credentials, refresh rotation and federated login.
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest, client domain.ClientInfo) (*Session, error)
	Login(ctx context.Context, req *dto.LoginRequest, client domain.ClientInfo) (*Session, error)
	Refresh(ctx context.Context, refreshToken string, client domain.ClientInfo) (*Session, error)
	Logout(ctx context.Context, refreshToken string) error
	LoginWithProvider(ctx context.Context, provider string, profile *oauth.Profile, client domain.ClientInfo) (*Session, error)
	// Authenticate verifies an access token and loads the current user record.
	Authenticate(ctx context.Context, accessToken string) (*domain.User, error)
}

// UserService covers self-service account management and the admin user surface.
type UserService interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*domain.User, error)
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
	DeleteAccount(ctx context.Context, userID string) error
	ListUsers(ctx context.Context) ([]*domain.User, error)
	UpdateRole(ctx context.Context, userID, role string) (*domain.User, error)
}

type CatalogService interface {
	List(ctx context.Context, category string) ([]*domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, req *dto.CreateProductRequest) (*domain.Product, error)
	Update(ctx context.Context, id string, req *dto.UpdateProductRequest) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	// ReduceStock applies every change or none.
	ReduceStock(ctx context.Context, changes []domain.StockChange) error
}

type OrderService interface {
	Checkout(ctx context.Context, user *domain.User, req *dto.CreateOrderRequest) (*domain.Order, error)
	// ListOrders returns every order for callers that may view all, otherwise the caller's own.
	ListOrders(ctx context.Context, user *domain.User) ([]*domain.Order, error)
	ListOwnOrders(ctx context.Context, user *domain.User) ([]*domain.Order, error)
	Delete(ctx context.Context, id string) error
}
