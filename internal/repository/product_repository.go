package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/grocery-store/internal/domain"
)

type productRepository struct {
	db DBTX
}

const productColumns = `id, title, description, image, category, price, stock, created_at, updated_at`

func scanProduct(row rowScanner) (*domain.Product, error) {
	p := &domain.Product{}
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Image,
		&p.Category,
		&p.Price,
		&p.Stock,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, title, description, image, category, price, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	if product.ID == "" {
		product.ID = uuid.New().String()
	}

	now := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = product.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		product.ID,
		product.Title,
		product.Description,
		product.Image,
		product.Category,
		product.Price,
		product.Stock,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, fmt.Errorf("product with id %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return product, nil
}

// List returns the newest products first, optionally filtered by category.
func (r *productRepository) List(ctx context.Context, category string) ([]*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE $1 = '' OR category = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]*domain.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	return products, nil
}

func (r *productRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT category FROM products ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]string, 0)
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}

	return categories, nil
}

// Update never rewrites a column the caller left nil, so a stock change made by a
// concurrent checkout survives an edit of the other fields.
func (r *productRepository) Update(ctx context.Context, id string, changes domain.ProductChanges) (*domain.Product, error) {
	query := `
		UPDATE products
		SET title = COALESCE($2, title),
			description = COALESCE($3, description),
			image = COALESCE($4, image),
			category = COALESCE($5, category),
			price = COALESCE($6, price),
			stock = COALESCE($7, stock),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + productColumns

	var price, stock any
	if changes.Price != nil {
		price = *changes.Price
	}
	if changes.Stock != nil {
		stock = *changes.Stock
	}

	product, err := scanProduct(r.db.QueryRowContext(ctx, query,
		id,
		nullableString(changes.Title),
		nullableString(changes.Description),
		nullableString(changes.Image),
		nullableString(changes.Category),
		price,
		stock,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, fmt.Errorf("product with id %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isInvalidID(err) {
			return fmt.Errorf("product with id %s not found: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return expectAffected(result, "product", id)
}

func (r *productRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

// DecrementStock is a single conditional UPDATE, so concurrent callers can never
// take the same units twice. The row lock it takes is held until the surrounding
// transaction ends.
func (r *productRepository) DecrementStock(ctx context.Context, id string, quantity int) (*domain.Product, error) {
	query := `
		UPDATE products
		SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2
		RETURNING ` + productColumns

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id, quantity))
	if err == nil {
		return product, nil
	}
	if isInvalidID(err) {
		return nil, fmt.Errorf("product with id %s not found: %w", id, ErrNotFound)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to decrement stock: %w", err)
	}

	// No row updated: tell a missing product from a short one.
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return current, fmt.Errorf("product %s has %d units, %d requested: %w", id, current.Stock, quantity, ErrInsufficientStock)
}
