package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prperemyshlev/grocery-store/internal/apperror"
	"github.com/prperemyshlev/grocery-store/internal/domain"
	"github.com/prperemyshlev/grocery-store/internal/dto"
	"github.com/prperemyshlev/grocery-store/internal/repository"
	"go.uber.org/zap"
)

const publishTimeout = 3 * time.Second

type orderService struct {
	orders    repository.OrderRepository
	tx        repository.Transactor
	cache     ListingCache
	publisher EventPublisher
	metrics   *Metrics
	logger    *zap.Logger
}

func NewOrderService(
	repos *repository.Repositories,
	tx repository.Transactor,
	cache ListingCache,
	publisher EventPublisher,
	metrics *Metrics,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orders:    repos.Order,
		tx:        tx,
		cache:     cache,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Checkout takes stock and records the order in one transaction. Line titles,
// prices and the total come from the catalog rows the decrement returns.
func (s *orderService) Checkout(ctx context.Context, user *domain.User, req *dto.CreateOrderRequest) (*domain.Order, error) {
	if err := validateCheckout(req); err != nil {
		s.metrics.CheckoutFailed(ctx, "validation")
		return nil, err
	}

	order := &domain.Order{
		UserEmail: user.Email,
		Shipping: domain.Shipping{
			Address: strings.TrimSpace(req.Shipping.Address),
			City:    strings.TrimSpace(req.Shipping.City),
			Postal:  strings.TrimSpace(req.Shipping.Postal),
		},
	}

	err := s.tx.WithinTx(ctx, func(tx *repository.Repositories) error {
		order.Cart = make([]domain.LineItem, len(req.Cart))

		ids := make([]string, len(req.Cart))
		for i, line := range req.Cart {
			ids[i] = line.ID
		}

		for _, i := range lockOrder(ids) {
			line := req.Cart[i]
			product, err := decrementStock(ctx, tx.Product, domain.StockChange{
				ProductID: line.ID,
				Quantity:  line.Quantity,
			})
			if err != nil {
				return err
			}

			order.Cart[i] = domain.LineItem{
				ProductID: product.ID,
				Title:     product.Title,
				Price:     product.Price,
				Quantity:  line.Quantity,
			}
		}

		order.Total = domain.CartTotal(order.Cart)
		if !order.Total.IsPositive() {
			return apperror.Validation("order total must be greater than 0")
		}

		if err := tx.Order.Create(ctx, order); err != nil {
			return apperror.Wrap(err, "failed to create order")
		}
		return nil
	})
	if err != nil {
		s.metrics.CheckoutFailed(ctx, apperror.KindOf(err).String())
		return nil, err
	}

	if clientTotal := req.Total.Round(2); !clientTotal.Equal(order.Total) {
		s.logger.Warn("client total differs from catalog total",
			zap.String("order_id", order.ID),
			zap.String("client_total", clientTotal.String()),
			zap.String("total", order.Total.String()),
		)
	}

	s.metrics.OrderPlaced(ctx)
	s.cache.Invalidate(ctx)
	s.publishPlaced(ctx, order)

	return order, nil
}

func validateCheckout(req *dto.CreateOrderRequest) error {
	var fields []apperror.FieldError

	if len(req.Cart) == 0 {
		fields = append(fields, apperror.FieldError{Field: "cart", Message: "cart must not be empty"})
	}
	if req.Total == nil || !req.Total.IsPositive() {
		fields = append(fields, apperror.FieldError{Field: "total", Message: "total must be greater than 0"})
	}
	shipping := []struct{ field, value string }{
		{"shipping.address", req.Shipping.Address},
		{"shipping.city", req.Shipping.City},
		{"shipping.postal", req.Shipping.Postal},
	}
	for _, f := range shipping {
		if strings.TrimSpace(f.value) == "" {
			fields = append(fields, apperror.FieldError{Field: f.field, Message: "is required"})
		}
	}

	if len(fields) > 0 {
		return apperror.Validation("validation failed", fields...)
	}
	return nil
}

// publishPlaced is best effort: the order is already committed.
func (s *orderService) publishPlaced(ctx context.Context, order *domain.Order) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.PublishOrderPlaced(ctx, domain.NewOrderEvent(order)); err != nil {
		s.logger.Warn("failed to publish order event",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
	}
}

func (s *orderService) ListOrders(ctx context.Context, user *domain.User) ([]*domain.Order, error) {
	if !user.Role.Can(domain.CapViewAllOrders) {
		return s.ListOwnOrders(ctx, user)
	}

	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, "failed to list orders")
	}
	return orders, nil
}

func (s *orderService) ListOwnOrders(ctx context.Context, user *domain.User) ([]*domain.Order, error) {
	orders, err := s.orders.ListByEmail(ctx, user.Email)
	if err != nil {
		return nil, apperror.Wrap(err, "failed to list orders")
	}
	return orders, nil
}

func (s *orderService) Delete(ctx context.Context, id string) error {
	if err := s.orders.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("order not found")
		}
		return apperror.Wrap(err, "failed to delete order")
	}
	return nil
}
