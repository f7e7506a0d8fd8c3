package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// ChargeRequest asks the payment provider to open a charge for an order.
// The order id travels in provider metadata so webhook events can be
// correlated back.
type ChargeRequest struct {
	OrderID  int64
	Amount   decimal.Decimal
	Currency string
}

// ChargeIntent is the provider's handle for a pending charge. ClientSecret
// is opaque to this core and handed to the browser to complete payment.
type ChargeIntent struct {
	ID           string
	ClientSecret string
}

// PaymentProvider opens charge intents with the external processor. Called
// as the last step of checkout; failure aborts the whole checkout unit.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, req ChargeRequest) (*ChargeIntent, error)
}
