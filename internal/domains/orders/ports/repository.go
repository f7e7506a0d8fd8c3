package ports

import (
	"context"
	"errors"
	"time"

	"github.com/ydbloom/commerce-api/internal/domains/orders/domain"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrCartNotFound  = errors.New("cart not found")
	ErrItemNotFound  = errors.New("cart item not found")
)

// TxManager runs fn inside a single atomic unit of work. Repositories called
// with the context passed to fn join that transaction; any error from fn
// rolls the whole unit back.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderRepository persists orders and their item snapshots. Orders are never
// hard-deleted.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	// GetForUpdate loads the order under a row lock, serializing concurrent
	// transitions on the same order. Only valid inside a TxManager unit.
	GetForUpdate(ctx context.Context, id int64) (*domain.Order, error)
	// UpdateStatus persists the new status and the caller-chosen update
	// timestamp, keeping persisted updated_at aligned with the service clock.
	UpdateStatus(ctx context.Context, id int64, status domain.Status, updatedAt time.Time) error
	ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error)
	List(ctx context.Context) ([]*domain.Order, error)
}

// CartRepository manages the per-user cart and its items.
type CartRepository interface {
	// GetByUser returns the user's cart, creating an empty one if absent.
	GetByUser(ctx context.Context, userID int64) (*domain.Cart, error)
	AddItem(ctx context.Context, userID int64, item domain.CartItem) (*domain.Cart, error)
	// UpdateItemQuantity sets the quantity of an item the user owns; a
	// quantity of zero or less removes it.
	UpdateItemQuantity(ctx context.Context, userID, itemID, quantity int64) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID int64) error
	// Clear deletes every item in the user's cart.
	Clear(ctx context.Context, userID int64) error
}
