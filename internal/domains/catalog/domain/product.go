package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPrice    = errors.New("product price must not be negative")
	ErrInvalidDiscount = errors.New("product discount must be between 0 and 100")
	ErrNegativeStock   = errors.New("product stock must not be negative")

	// ErrInsufficientStock is wrapped with the offending product's name.
	ErrInsufficientStock = errors.New("insufficient stock")
)

var oneHundred = decimal.NewFromInt(100)

// Product is the slice of the catalog this core reads: a stock pool to
// reserve from plus the pricing inputs for order snapshots. Catalog CRUD
// lives elsewhere.
type Product struct {
	ID        int64
	Name      string
	Price     decimal.Decimal
	Discount  decimal.Decimal // percentage, 0-100
	Stock     int64
	Colors    []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate enforces invariants on the aggregate.
func (p *Product) Validate() error {
	if p.Price.IsNegative() {
		return ErrInvalidPrice
	}
	if p.Discount.IsNegative() || p.Discount.GreaterThan(oneHundred) {
		return ErrInvalidDiscount
	}
	if p.Stock < 0 {
		return ErrNegativeStock
	}
	return nil
}

// DiscountedPrice returns the unit price after the product's own discount,
// rounded to two decimal places.
func (p *Product) DiscountedPrice() decimal.Decimal {
	price := p.Price
	if p.Discount.IsPositive() {
		price = price.Mul(oneHundred.Sub(p.Discount)).Div(oneHundred)
	}
	return price.Round(2)
}

// StockLine is one product's share of a reservation or release.
type StockLine struct {
	ProductID int64
	Quantity  int64
}

// StockLevel reports a product's stock after a ledger mutation.
type StockLevel struct {
	ProductID int64
	Name      string
	Remaining int64
}
