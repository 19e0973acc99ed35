package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/grocery-store/internal/domain"
)

// userRepository implements UserRepository interface
type userRepository struct {
	db DBTX
}

const userColumns = `
	u.id, u.name, u.email, u.password_hash, u.country, u.phone, u.role, u.addresses,
	u.created_at, u.updated_at, u.last_login_at,
	(SELECT op.provider_user_id FROM oauth_providers op
	  WHERE op.user_id = u.id AND op.provider = 'google') AS google_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var (
		role        string
		addresses   []byte
		lastLoginAt sql.NullTime
		googleID    sql.NullString
	)

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Country,
		&user.Phone,
		&role,
		&addresses,
		&user.CreatedAt,
		&user.UpdatedAt,
		&lastLoginAt,
		&googleID,
	)
	if err != nil {
		return nil, err
	}

	user.Role = domain.Role(role)
	if err := json.Unmarshal(addresses, &user.Addresses); err != nil {
		return nil, fmt.Errorf("failed to decode addresses: %w", err)
	}
	if user.Addresses == nil {
		user.Addresses = []domain.Address{}
	}
	if lastLoginAt.Valid {
		user.LastLoginAt = &lastLoginAt.Time
	}
	if googleID.Valid {
		user.GoogleID = &googleID.String
	}

	return user, nil
}

func encodeAddresses(addresses []domain.Address) (string, error) {
	if addresses == nil {
		addresses = []domain.Address{}
	}
	b, err := json.Marshal(addresses)
	if err != nil {
		return "", fmt.Errorf("failed to encode addresses: %w", err)
	}
	return string(b), nil
}

// Create creates a new user in the database
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, country, phone, role, addresses, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	if user.Country == "" {
		user.Country = domain.DefaultCountry
	}
	if user.Addresses == nil {
		user.Addresses = []domain.Address{}
	}

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	addresses, err := encodeAddresses(user.Addresses)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Country,
		user.Phone,
		string(user.Role),
		addresses,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user with email %s already exists: %w", user.Email, ErrDuplicateEmail)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByEmail retrieves a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT` + userColumns + ` FROM users u WHERE u.email = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with email %s not found: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT` + userColumns + ` FROM users u WHERE u.id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, fmt.Errorf("user with id %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT` + userColumns + ` FROM users u ORDER BY u.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// UpdateProfile writes only the self-service profile fields.
func (r *userRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $2, country = $3, phone = $4, addresses = $5, updated_at = $6
		WHERE id = $1
	`

	addresses, err := encodeAddresses(user.Addresses)
	if err != nil {
		return err
	}

	user.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Country,
		user.Phone,
		addresses,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return expectAffected(result, "user", user.ID)
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, userID, passwordHash, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return expectAffected(result, "user", userID)
}

func (r *userRepository) UpdateRole(ctx context.Context, userID string, role domain.Role) error {
	query := `UPDATE users SET role = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, userID, string(role), time.Now())
	if err != nil {
		if isInvalidID(err) {
			return fmt.Errorf("user with id %s not found: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to update role: %w", err)
	}

	return expectAffected(result, "user", userID)
}

// UpdateLastLogin updates the last login timestamp for a user
func (r *userRepository) UpdateLastLogin(ctx context.Context, userID string) error {
	query := `UPDATE users SET last_login_at = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, userID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return expectAffected(result, "user", userID)
}

// Delete removes the user. Refresh tokens and provider links cascade.
func (r *userRepository) Delete(ctx context.Context, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		if isInvalidID(err) {
			return fmt.Errorf("user with id %s not found: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return expectAffected(result, "user", userID)
}

func expectAffected(result sql.Result, entity, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%s with id %s not found: %w", entity, id, ErrNotFound)
	}

	return nil
}
