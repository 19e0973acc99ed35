package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/prperemyshlev/grocery-store/internal/apperror"
	"github.com/prperemyshlev/grocery-store/internal/domain"
	"github.com/prperemyshlev/grocery-store/internal/dto"
	"github.com/prperemyshlev/grocery-store/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type catalogService struct {
	products repository.ProductRepository
	tx       repository.Transactor
	cache    ListingCache
	logger   *zap.Logger
}

func NewCatalogService(repos *repository.Repositories, tx repository.Transactor, cache ListingCache, logger *zap.Logger) CatalogService {
	return &catalogService{
		products: repos.Product,
		tx:       tx,
		cache:    cache,
		logger:   logger,
	}
}

func (s *catalogService) List(ctx context.Context, category string) ([]*domain.Product, error) {
	category = strings.TrimSpace(category)
	key := "products:" + category

	var products []*domain.Product
	if s.cache.Load(ctx, key, &products) {
		return products, nil
	}

	products, err := s.products.List(ctx, category)
	if err != nil {
		return nil, apperror.Wrap(err, "failed to list products")
	}

	s.cache.Store(ctx, key, products)
	return products, nil
}

func (s *catalogService) Categories(ctx context.Context) ([]string, error) {
	const key = "categories"

	var categories []string
	if s.cache.Load(ctx, key, &categories) {
		return categories, nil
	}

	categories, err := s.products.Categories(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, "failed to list categories")
	}

	s.cache.Store(ctx, key, categories)
	return categories, nil
}

func (s *catalogService) Get(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, productLookupError(err)
	}
	return product, nil
}

func (s *catalogService) Create(ctx context.Context, req *dto.CreateProductRequest) (*domain.Product, error) {
	if err := validatePrice(req.Price); err != nil {
		return nil, err
	}

	product := &domain.Product{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Image:       strings.TrimSpace(req.Image),
		Category:    strings.TrimSpace(req.Category),
		Price:       req.Price.Round(2),
		Stock:       domain.DefaultStock,
	}
	if req.Stock != nil {
		if err := validateStock(*req.Stock); err != nil {
			return nil, err
		}
		product.Stock = *req.Stock
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, apperror.Wrap(err, "failed to create product")
	}

	s.cache.Invalidate(ctx)
	return product, nil
}

// Update writes only the whitelisted fields present in req.
func (s *catalogService) Update(ctx context.Context, id string, req *dto.UpdateProductRequest) (*domain.Product, error) {
	changes := domain.ProductChanges{
		Title:       trimmed(req.Title),
		Description: trimmed(req.Description),
		Image:       trimmed(req.Image),
		Category:    trimmed(req.Category),
		Stock:       req.Stock,
	}
	if req.Price != nil {
		if err := validatePrice(req.Price); err != nil {
			return nil, err
		}
		price := req.Price.Round(2)
		changes.Price = &price
	}
	if req.Stock != nil {
		if err := validateStock(*req.Stock); err != nil {
			return nil, err
		}
	}

	product, err := s.products.Update(ctx, id, changes)
	if err != nil {
		return nil, productLookupError(err)
	}

	s.cache.Invalidate(ctx)
	return product, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func (s *catalogService) Delete(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return productLookupError(err)
	}

	s.cache.Invalidate(ctx)
	return nil
}

func (s *catalogService) ReduceStock(ctx context.Context, changes []domain.StockChange) error {
	err := s.tx.WithinTx(ctx, func(tx *repository.Repositories) error {
		ids := make([]string, len(changes))
		for i, change := range changes {
			ids[i] = change.ProductID
		}

		for _, i := range lockOrder(ids) {
			if _, err := decrementStock(ctx, tx.Product, changes[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx)
	return nil
}

// lockOrder returns the indexes of ids sorted by id. Decrementing in this
// order makes concurrent carts lock product rows in the same sequence.
func lockOrder(ids []string) []int {
	order := make([]int, len(ids))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return ids[order[a]] < ids[order[b]] })
	return order
}

// decrementStock takes units atomically and translates the store's refusal.
func decrementStock(ctx context.Context, products repository.ProductRepository, change domain.StockChange) (*domain.Product, error) {
	if change.Quantity < 1 {
		return nil, apperror.Validation("quantity must be at least 1")
	}
	if change.Quantity > domain.MaxUnits {
		return nil, apperror.Validation(fmt.Sprintf("quantity must be at most %d", domain.MaxUnits))
	}

	product, err := products.DecrementStock(ctx, change.ProductID, change.Quantity)
	switch {
	case err == nil:
		return product, nil
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperror.NotFound(fmt.Sprintf("product %s not found", change.ProductID))
	case errors.Is(err, repository.ErrInsufficientStock):
		title := change.ProductID
		if product != nil {
			title = product.Title
		}
		return nil, apperror.InsufficientStock(fmt.Sprintf("insufficient stock for %s", title))
	default:
		return nil, apperror.Wrap(err, "failed to reduce stock")
	}
}

func validatePrice(price *decimal.Decimal) error {
	if price == nil || price.IsNegative() {
		return apperror.Validation("validation failed", apperror.FieldError{
			Field:   "price",
			Message: "price must be greater than or equal to 0",
		})
	}
	return nil
}

func validateStock(stock int) error {
	if stock < 0 || stock > domain.MaxUnits {
		return apperror.Validation("validation failed", apperror.FieldError{
			Field:   "stock",
			Message: fmt.Sprintf("stock must be between 0 and %d", domain.MaxUnits),
		})
	}
	return nil
}

func productLookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound("product not found")
	}
	return apperror.Wrap(err, "product operation failed")
}
