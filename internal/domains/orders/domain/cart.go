package domain

import (
	"errors"
	"time"
)

var ErrEmptyCart = errors.New("cart is empty")

// Cart is a user's staging area before checkout. One cart per user; items
// are mutated freely until checkout consumes them atomically.
type Cart struct {
	ID        int64
	UserID    int64
	Items     []CartItem
	CreatedAt time.Time
}

// CartItem references a product (and optional size) with a quantity of at
// least one. Unlike OrderItem it carries no price: pricing is snapshotted
// only at checkout.
type CartItem struct {
	ID        int64
	CartID    int64
	ProductID int64
	SizeID    *int64
	Quantity  int64
}

// Validate enforces invariants on a cart line.
func (i CartItem) Validate() error {
	if i.ProductID <= 0 {
		return ErrInvalidProductID
	}
	if i.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// Empty reports whether the cart has no items.
func (c *Cart) Empty() bool {
	return c == nil || len(c.Items) == 0
}
