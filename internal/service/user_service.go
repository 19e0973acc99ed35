package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prperemyshlev/grocery-store/internal/apperror"
	"github.com/prperemyshlev/grocery-store/internal/domain"
	"github.com/prperemyshlev/grocery-store/internal/dto"
	"github.com/prperemyshlev/grocery-store/internal/repository"
	"github.com/prperemyshlev/grocery-store/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type userService struct {
	users      repository.UserRepository
	tx         repository.Transactor
	bcryptCost int
	logger     *zap.Logger
}

func NewUserService(repos *repository.Repositories, tx repository.Transactor, bcryptCost int, logger *zap.Logger) UserService {
	return &userService{
		users:      repos.User,
		tx:         tx,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *userService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, userLookupError(err)
	}
	return user, nil
}

// UpdateProfile applies only the whitelisted fields present in req.
func (s *userService) UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, userLookupError(err)
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Country != nil {
		user.Country = strings.TrimSpace(*req.Country)
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Addresses != nil {
		user.Addresses = toAddresses(*req.Addresses)
	}

	if err := domain.ValidateAddresses(user.Addresses); err != nil {
		return nil, apperror.Validation("validation failed", apperror.FieldError{
			Field:   "addresses",
			Message: err.Error(),
		})
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, userLookupError(err)
	}
	return user, nil
}

func toAddresses(in []dto.AddressRequest) []domain.Address {
	out := make([]domain.Address, 0, len(in))
	for _, a := range in {
		out = append(out, domain.Address{
			Label:      strings.TrimSpace(a.Label),
			Street:     strings.TrimSpace(a.Street),
			Department: strings.TrimSpace(a.Department),
			Province:   strings.TrimSpace(a.Province),
			District:   strings.TrimSpace(a.District),
			IsPrimary:  a.IsPrimary,
		})
	}
	return out
}

func (s *userService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return userLookupError(err)
	}

	if !user.HasPassword() {
		return apperror.Validation("account has no password set")
	}
	if !utils.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		return apperror.Validation("current password is incorrect")
	}

	hash, err := hashPassword(req.NewPassword, s.bcryptCost, "newPassword")
	if err != nil {
		return err
	}

	// Every refresh token issued before the change stops working.
	err = s.tx.WithinTx(ctx, func(tx *repository.Repositories) error {
		if err := tx.User.UpdatePassword(ctx, user.ID, hash); err != nil {
			return err
		}
		return tx.Token.DeleteByUserID(ctx, user.ID)
	})
	if err != nil {
		return userLookupError(err)
	}
	return nil
}

// DeleteAccount removes the user and every order placed under their email
// in one transaction. Refresh tokens and provider links cascade.
func (s *userService) DeleteAccount(ctx context.Context, userID string) error {
	var (
		email   string
		removed int64
	)
	err := s.tx.WithinTx(ctx, func(tx *repository.Repositories) error {
		user, err := tx.User.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		email = user.Email

		if removed, err = tx.Order.DeleteByEmail(ctx, user.Email); err != nil {
			return err
		}
		return tx.User.Delete(ctx, user.ID)
	})
	if err != nil {
		return userLookupError(err)
	}

	s.logger.Info("account deleted",
		zap.String("user_id", userID),
		zap.String("email", email),
		zap.Int64("orders_removed", removed),
	)
	return nil
}

func (s *userService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, "failed to list users")
	}
	return users, nil
}

func (s *userService) UpdateRole(ctx context.Context, userID, role string) (*domain.User, error) {
	parsed, err := domain.ParseRole(role)
	if err != nil {
		return nil, apperror.Validation("validation failed", apperror.FieldError{
			Field:   "role",
			Message: err.Error(),
		})
	}

	if err := s.users.UpdateRole(ctx, userID, parsed); err != nil {
		return nil, userLookupError(err)
	}

	return s.GetUser(ctx, userID)
}

func userLookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound("user not found")
	}
	return apperror.Wrap(err, "user operation failed")
}

// hashPassword reports an input bcrypt cannot take as a validation error on field.
func hashPassword(password string, cost int, field string) (string, error) {
	hash, err := utils.HashPassword(password, cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperror.Validation("validation failed", apperror.FieldError{
			Field:   field,
			Message: fmt.Sprintf("must fit in %d bytes", utils.MaxPasswordBytes),
		})
	}
	if err != nil {
		return "", apperror.Wrap(err, "failed to hash password")
	}
	return hash, nil
}
