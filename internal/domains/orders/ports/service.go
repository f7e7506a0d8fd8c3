package ports

import (
	"context"

	"github.com/ydbloom/commerce-api/internal/domains/orders/domain"
)

// CheckoutResult carries the created order plus the opaque client-side
// payment handle returned by the provider.
type CheckoutResult struct {
	Order           *domain.Order
	PaymentIntentID string
	ClientSecret    string
}

// Service exposes the order core's use cases to adapters.
type Service interface {
	// Checkout converts the user's cart into a pending order and opens a
	// provider charge. The coupon code is an explicit input; an invalid or
	// exhausted code is ignored, not an error.
	Checkout(ctx context.Context, userID int64, couponCode string) (*CheckoutResult, error)

	// Transition drives the order state machine, applying the inventory
	// side effects bound to the edge inside one atomic unit.
	Transition(ctx context.Context, orderID int64, target domain.Status) (*domain.Order, error)

	// ConfirmPayment marks an order paid on behalf of a provider webhook.
	// Duplicate deliveries are success no-ops; applied reports whether this
	// call performed the transition.
	ConfirmPayment(ctx context.Context, orderID int64) (order *domain.Order, applied bool, err error)

	// Cancel lets the owning user cancel an order still in pending.
	Cancel(ctx context.Context, userID, orderID int64) (*domain.Order, error)

	GetOrder(ctx context.Context, userID int64, staff bool, orderID int64) (*domain.Order, error)
	ListOrders(ctx context.Context, userID int64, staff bool) ([]*domain.Order, error)
}
