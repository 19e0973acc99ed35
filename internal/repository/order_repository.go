package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/grocery-store/internal/domain"
)

type orderRepository struct {
	db DBTX
}

const orderColumns = `id, user_email, cart, total, shipping_address, shipping_city, shipping_postal, created_at`

func scanOrder(row rowScanner) (*domain.Order, error) {
	o := &domain.Order{}
	var cart []byte

	err := row.Scan(
		&o.ID,
		&o.UserEmail,
		&cart,
		&o.Total,
		&o.Shipping.Address,
		&o.Shipping.City,
		&o.Shipping.Postal,
		&o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(cart, &o.Cart); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return o, nil
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (id, user_email, cart, total, shipping_address, shipping_city, shipping_postal, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}

	cart, err := json.Marshal(order.Cart)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		order.ID,
		order.UserEmail,
		string(cart),
		order.Total,
		order.Shipping.Address,
		order.Shipping.City,
		order.Shipping.Postal,
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

func (r *orderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	return r.query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (r *orderRepository) ListByEmail(ctx context.Context, email string) ([]*domain.Order, error) {
	return r.query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_email = $1 ORDER BY created_at DESC`, email)
}

func (r *orderRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		if isInvalidID(err) {
			return fmt.Errorf("order with id %s not found: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to delete order: %w", err)
	}

	return expectAffected(result, "order", id)
}

// DeleteByEmail removes every order placed under email.
func (r *orderRepository) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE user_email = $1`, email)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orders for %s: %w", email, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
