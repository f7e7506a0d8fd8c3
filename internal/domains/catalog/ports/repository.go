package ports

import (
	"context"
	"errors"

	"github.com/ydbloom/commerce-api/internal/domains/catalog/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrCouponNotFound  = errors.New("coupon not found")
)

// ProductRepository reads catalog products. Writes to product stock go
// through the InventoryLedger only.
type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Product, error)
}

// InventoryLedger mutates per-product stock counts. Both operations run
// inside the caller's transaction and are all-or-nothing across lines:
// a partial reservation never commits.
type InventoryLedger interface {
	// Reserve decrements stock for every line after verifying each product
	// holds at least the requested quantity. On a deficit it fails with
	// domain.ErrInsufficientStock wrapped with the product name and leaves
	// every stock count untouched.
	Reserve(ctx context.Context, lines []domain.StockLine) ([]domain.StockLevel, error)
	// Release increments stock for every line, reversing a reservation.
	Release(ctx context.Context, lines []domain.StockLine) error
}

// CouponRepository looks up and consumes discount codes.
type CouponRepository interface {
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	// IncrementUsage bumps used_count by one. Runs inside the caller's
	// transaction so a rolled-back checkout never burns a use.
	IncrementUsage(ctx context.Context, id int64) error
}
