package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prperemyshlev/grocery-store/internal/apperror"
	"github.com/prperemyshlev/grocery-store/internal/domain"
	"github.com/prperemyshlev/grocery-store/internal/dto"
	"github.com/prperemyshlev/grocery-store/internal/oauth"
	"github.com/prperemyshlev/grocery-store/internal/repository"
	"github.com/prperemyshlev/grocery-store/internal/utils"
	"go.uber.org/zap"
)

var errInvalidCredentials = apperror.Unauthenticated("invalid credentials")

// AuthOptions tunes credential handling.
type AuthOptions struct {
	BCryptCost          int
	AllowedEmailDomains []string
}

// authService implements AuthService interface
type authService struct {
	users      repository.UserRepository
	tokens     repository.TokenRepository
	providers  repository.OAuthProviderRepository
	tx         repository.Transactor
	jwtManager *utils.JWTManager
	metrics    *Metrics
	logger     *zap.Logger
	opts       AuthOptions
	now        func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	repos *repository.Repositories,
	tx repository.Transactor,
	jwtManager *utils.JWTManager,
	metrics *Metrics,
	logger *zap.Logger,
	opts AuthOptions,
) AuthService {
	return &authService{
		users:      repos.User,
		tokens:     repos.Token,
		providers:  repos.OAuthProvider,
		tx:         tx,
		jwtManager: jwtManager,
		metrics:    metrics,
		logger:     logger,
		opts:       opts,
		now:        time.Now,
	}
}

// Register creates a password account and signs it in.
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest, client domain.ClientInfo) (*Session, error) {
	email := utils.SanitizeEmail(req.Email)
	if !utils.EmailDomainAllowed(email, s.opts.AllowedEmailDomains) {
		return nil, apperror.Validation("validation failed", apperror.FieldError{
			Field:   "email",
			Message: "email domain is not allowed",
		})
	}

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return nil, apperror.Conflict("email already registered")
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Wrap(err, "failed to check user existence")
	}

	passwordHash, err := hashPassword(req.Password, s.opts.BCryptCost, "password")
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         domain.RoleUser,
		Country:      domain.DefaultCountry,
	}
	if err := user.Validate(); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperror.Conflict("email already registered")
		}
		return nil, apperror.Wrap(err, "failed to create user")
	}

	return s.issueSession(ctx, user, client)
}

// Login never reveals which of email or password was wrong.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, client domain.ClientInfo) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, utils.SanitizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.Login(ctx, "password", false)
			return nil, errInvalidCredentials
		}
		return nil, apperror.Wrap(err, "failed to get user")
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		s.metrics.Login(ctx, "password", false)
		return nil, errInvalidCredentials
	}

	s.touchLastLogin(ctx, user)
	s.metrics.Login(ctx, "password", true)

	return s.issueSession(ctx, user, client)
}

// Refresh rotates a refresh token. The presented jti must still be in the
// issued set; it is removed before the replacement pair is signed.
func (s *authService) Refresh(ctx context.Context, refreshToken string, client domain.ClientInfo) (*Session, error) {
	if refreshToken == "" {
		return nil, apperror.Unauthenticated("no refresh token provided")
	}

	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperror.Unauthenticated("invalid refresh token")
	}

	record, err := s.tokens.GetByID(ctx, claims.TokenID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Unauthenticated("refresh token has been revoked")
		}
		return nil, apperror.Wrap(err, "failed to get refresh token")
	}

	if record.UserID != claims.UserID || record.IsExpired(s.now()) {
		return nil, apperror.Unauthenticated("invalid refresh token")
	}

	// A concurrent refresh with the same token loses here.
	if err := s.tokens.Delete(ctx, record.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Unauthenticated("refresh token has been revoked")
		}
		return nil, apperror.Wrap(err, "failed to revoke refresh token")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Unauthenticated("user not found")
		}
		return nil, apperror.Wrap(err, "failed to get user")
	}

	return s.issueSession(ctx, user, client)
}

// Logout revokes the presented refresh token. Unknown or invalid tokens are ignored.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil
	}

	if err := s.tokens.Delete(ctx, claims.TokenID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return apperror.Wrap(err, "failed to revoke refresh token")
	}
	return nil
}

func (s *authService) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	claims, err := s.jwtManager.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, apperror.Unauthenticated("invalid or expired token")
	}

	// The stored record wins over the signed claims so role changes and
	// deletions apply immediately.
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Unauthenticated("user not found")
		}
		return nil, apperror.Wrap(err, "failed to get user")
	}

	return user, nil
}

// LoginWithProvider maps a verified external profile to a local account:
// an existing link first, then a matching email, otherwise a new password-less user.
func (s *authService) LoginWithProvider(ctx context.Context, provider string, profile *oauth.Profile, client domain.ClientInfo) (*Session, error) {
	email := utils.SanitizeEmail(profile.Email)
	if email == "" || profile.Subject == "" {
		s.metrics.Login(ctx, provider, false)
		return nil, apperror.Unauthenticated(oauth.ErrMissingEmail.Error())
	}

	user, err := s.resolveProviderUser(ctx, provider, profile, email)
	if err != nil {
		s.metrics.Login(ctx, provider, false)
		return nil, err
	}

	s.touchLastLogin(ctx, user)
	s.metrics.Login(ctx, provider, true)

	return s.issueSession(ctx, user, client)
}

func (s *authService) resolveProviderUser(ctx context.Context, provider string, profile *oauth.Profile, email string) (*domain.User, error) {
	link, err := s.providers.GetByProvider(ctx, provider, profile.Subject)
	if err == nil {
		user, err := s.users.GetByID(ctx, link.UserID)
		if err != nil {
			return nil, apperror.Wrap(err, "failed to get linked user")
		}
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Wrap(err, "failed to get provider link")
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		s.linkProvider(ctx, user, provider, profile, email)
		return user, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperror.Wrap(err, "failed to get user")
	}

	user, err = s.createProviderUser(ctx, provider, profile, email)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		// Lost a race with a concurrent first login for the same email.
		user, err = s.users.GetByEmail(ctx, email)
	}
	if err != nil {
		return nil, apperror.Wrap(err, "failed to create user")
	}
	return user, nil
}

func (s *authService) createProviderUser(ctx context.Context, provider string, profile *oauth.Profile, email string) (*domain.User, error) {
	subject := profile.Subject
	user := &domain.User{
		Name:     displayName(profile.Name, email),
		Email:    email,
		Role:     domain.RoleUser,
		Country:  domain.DefaultCountry,
		GoogleID: &subject,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, func(tx *repository.Repositories) error {
		if err := tx.User.Create(ctx, user); err != nil {
			return err
		}
		return tx.OAuthProvider.Create(ctx, &domain.OAuthProvider{
			UserID:         user.ID,
			Provider:       provider,
			ProviderUserID: subject,
			Email:          &email,
		})
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// linkProvider records the external identity on an existing account. A user
// already linked to another subject keeps the old link.
func (s *authService) linkProvider(ctx context.Context, user *domain.User, provider string, profile *oauth.Profile, email string) {
	err := s.providers.Create(ctx, &domain.OAuthProvider{
		UserID:         user.ID,
		Provider:       provider,
		ProviderUserID: profile.Subject,
		Email:          &email,
	})
	if err != nil {
		if !errors.Is(err, repository.ErrDuplicateOAuthProvider) {
			s.logger.Warn("failed to link identity provider",
				zap.String("user_id", user.ID),
				zap.String("provider", provider),
				zap.Error(err),
			)
		}
		return
	}

	if provider == domain.ProviderGoogle && user.GoogleID == nil {
		subject := profile.Subject
		user.GoogleID = &subject
	}
}

func (s *authService) touchLastLogin(ctx context.Context, user *domain.User) {
	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
		return
	}
	now := s.now()
	user.LastLoginAt = &now
}

// displayName falls back to the email's local part.
func displayName(name, email string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}
