package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates order progression.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

var (
	ErrInvalidStatus     = errors.New("order status is invalid")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrInvalidProductID  = errors.New("product id must be greater than zero")
	ErrNegativeTotal     = errors.New("order total must not be negative")
)

// transitions is the single source of truth for the order lifecycle.
var transitions = map[Status][]Status{
	StatusPending:   {StatusPaid, StatusCancelled},
	StatusPaid:      {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
	StatusDelivered: {},
	StatusCancelled: {},
}

// ValidStatus reports whether s names a known lifecycle state.
func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// Order models a confirmed purchase: an immutable line-item snapshot plus a
// status lifecycle. Status only moves through Transition; orders are never
// hard-deleted (cancelled is terminal, not removal).
type Order struct {
	ID        int64
	UserID    int64
	Status    Status
	Total     decimal.Decimal
	Items     []OrderItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem snapshots one purchased line. UnitPrice is captured at order
// creation and never recomputed from the live product price.
type OrderItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	SizeID    *int64
	Quantity  int64
	UnitPrice decimal.Decimal
}

// NewOrder validates and constructs a pending order with its item snapshot.
func NewOrder(userID int64, total decimal.Decimal, items []OrderItem) (*Order, error) {
	order := &Order{
		UserID: userID,
		Status: StatusPending,
		Total:  total,
		Items:  items,
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

// Validate enforces invariants on the aggregate.
func (o *Order) Validate() error {
	if !ValidStatus(o.Status) {
		return ErrInvalidStatus
	}
	if o.Total.IsNegative() {
		return ErrNegativeTotal
	}
	for _, item := range o.Items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate enforces invariants on a line item.
func (i OrderItem) Validate() error {
	if i.ProductID <= 0 {
		return ErrInvalidProductID
	}
	if i.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// CanTransition reports whether the order may move to target from its
// current status.
func (o *Order) CanTransition(target Status) bool {
	for _, next := range transitions[o.Status] {
		if next == target {
			return true
		}
	}
	return false
}

// Transition moves the order to target, or fails with ErrInvalidTransition.
// Inventory side effects bound to the edge are the application layer's job;
// this only guards the graph.
func (o *Order) Transition(target Status) error {
	if !ValidStatus(target) {
		return ErrInvalidStatus
	}
	if !o.CanTransition(target) {
		return ErrInvalidTransition
	}
	o.Status = target
	return nil
}

// AtOrPast reports whether the order already reached target, treating the
// lifecycle as pending < paid < shipped < delivered. Cancelled compares
// equal only to itself. Used by webhook retries to detect already-applied
// events without attempting a transition.
func (o *Order) AtOrPast(target Status) bool {
	rank := map[Status]int{
		StatusPending:   0,
		StatusPaid:      1,
		StatusShipped:   2,
		StatusDelivered: 3,
	}
	if o.Status == StatusCancelled || target == StatusCancelled {
		return o.Status == target
	}
	return rank[o.Status] >= rank[target]
}
