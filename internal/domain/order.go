package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is a product snapshot taken at checkout.
type LineItem struct {
	ProductID string          `json:"id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

func (l LineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Shipping struct {
	Address string `json:"address"`
	City    string `json:"city"`
	Postal  string `json:"postal"`
}

// Order is immutable once created. UserEmail is denormalized, not a foreign key.
type Order struct {
	ID        string          `json:"id"`
	UserEmail string          `json:"user"`
	Cart      []LineItem      `json:"cart"`
	Total     decimal.Decimal `json:"total"`
	Shipping  Shipping        `json:"shipping"`
	CreatedAt time.Time       `json:"date"`
}

// CartTotal sums the line subtotals rounded to cents.
func CartTotal(lines []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total.Round(2)
}

// OrderEvent is published after an order commits.
type OrderEvent struct {
	OrderID   string          `json:"order_id"`
	UserEmail string          `json:"user_email"`
	Items     []LineItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Shipping  Shipping        `json:"shipping"`
	PlacedAt  string          `json:"placed_at"`
}

func NewOrderEvent(o *Order) OrderEvent {
	return OrderEvent{
		OrderID:   o.ID,
		UserEmail: o.UserEmail,
		Items:     o.Cart,
		Total:     o.Total,
		Shipping:  o.Shipping,
		PlacedAt:  o.CreatedAt.UTC().Format(time.RFC3339),
	}
}
