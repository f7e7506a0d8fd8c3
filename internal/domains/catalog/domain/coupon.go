package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrCouponInactive  = errors.New("coupon is not active")
	ErrCouponExpired   = errors.New("coupon has expired")
	ErrCouponExhausted = errors.New("coupon usage limit reached")
)

// Coupon is a percentage discount code with an activation flag, optional
// expiry, and a bounded usage count.
type Coupon struct {
	ID         int64
	Code       string
	Discount   decimal.Decimal // percentage, e.g. 10 for 10%
	Active     bool
	ExpiresAt  *time.Time
	UsageLimit int64
	UsedCount  int64
}

// Usable reports whether the coupon may be consumed at the given instant.
// The returned error names the first failing condition.
func (c *Coupon) Usable(now time.Time) error {
	if !c.Active {
		return ErrCouponInactive
	}
	if c.ExpiresAt != nil && c.ExpiresAt.Before(now) {
		return ErrCouponExpired
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return ErrCouponExhausted
	}
	return nil
}

// Apply returns the subtotal after the coupon's percentage discount,
// rounded to two decimal places.
func (c *Coupon) Apply(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(oneHundred.Sub(c.Discount)).Div(oneHundred).Round(2)
}
