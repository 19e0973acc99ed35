package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/prperemyshlev/grocery-store/internal/service"

// Metrics are the business counters exported on /metrics.
type Metrics struct {
	ordersPlaced     metric.Int64Counter
	checkoutFailures metric.Int64Counter
	logins           metric.Int64Counter
	cacheLookups     metric.Int64Counter
}

func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(meterName)

	ordersPlaced, err := meter.Int64Counter("store.orders.placed",
		metric.WithDescription("Orders committed by checkout"))
	if err != nil {
		return nil, fmt.Errorf("failed to create orders counter: %w", err)
	}

	checkoutFailures, err := meter.Int64Counter("store.checkout.failures",
		metric.WithDescription("Checkouts rolled back, by reason"))
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout failures counter: %w", err)
	}

	logins, err := meter.Int64Counter("store.auth.logins",
		metric.WithDescription("Login attempts, by method and result"))
	if err != nil {
		return nil, fmt.Errorf("failed to create logins counter: %w", err)
	}

	cacheLookups, err := meter.Int64Counter("store.catalog.cache",
		metric.WithDescription("Catalog cache lookups, by result"))
	if err != nil {
		return nil, fmt.Errorf("failed to create cache counter: %w", err)
	}

	return &Metrics{
		ordersPlaced:     ordersPlaced,
		checkoutFailures: checkoutFailures,
		logins:           logins,
		cacheLookups:     cacheLookups,
	}, nil
}

func (m *Metrics) OrderPlaced(ctx context.Context) {
	m.ordersPlaced.Add(ctx, 1)
}

func (m *Metrics) CheckoutFailed(ctx context.Context, reason string) {
	m.checkoutFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *Metrics) Login(ctx context.Context, method string, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	m.logins.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("result", result),
	))
}

func (m *Metrics) CacheLookup(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
