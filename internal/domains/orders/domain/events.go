package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is the base interface for order lifecycle notifications handed to
// the notifier after a successful commit.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	Timestamp time.Time
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// OrderPlaced is raised once per successful checkout.
type OrderPlaced struct {
	BaseEvent
	OrderID int64
	UserID  int64
	Total   decimal.Decimal
}

func (e OrderPlaced) EventName() string { return "orders.order.placed" }

// OrderStatusChanged is raised after every committed transition.
type OrderStatusChanged struct {
	BaseEvent
	OrderID    int64
	UserID     int64
	FromStatus Status
	ToStatus   Status
}

func (e OrderStatusChanged) EventName() string { return "orders.order.status_changed" }

// LowStock is raised when a reservation leaves a product under the restock
// threshold.
type LowStock struct {
	BaseEvent
	ProductID int64
	Name      string
	Remaining int64
}

func (e LowStock) EventName() string { return "catalog.product.low_stock" }

// PaymentFailed is raised for provider "payment failed" events so a human
// can follow up.
type PaymentFailed struct {
	BaseEvent
	OrderID  int64 // zero when the event carried no order reference
	Contact  string
	Amount   int64 // provider minor units
	Currency string
	Reason   string
}

func (e PaymentFailed) EventName() string { return "payments.payment.failed" }

// StockEmergency is raised when a paid webhook cannot reserve stock: money
// is captured but goods are unavailable. Never silently dropped.
type StockEmergency struct {
	BaseEvent
	OrderID int64
	Detail  string
}

func (e StockEmergency) EventName() string { return "orders.order.stock_emergency" }
