package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultStock = 100

// MaxUnits is the largest stock or line quantity the products table can hold.
const MaxUnits = math.MaxInt32

func init() {
	// Prices travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is a catalog entry.
type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// StockChange asks for quantity units of a product.
type StockChange struct {
	ProductID string
	Quantity  int
}

// ProductChanges holds the fields of a partial product update. Nil fields keep
// their stored value.
type ProductChanges struct {
	Title       *string
	Description *string
	Image       *string
	Category    *string
	Price       *decimal.Decimal
	Stock       *int
}
