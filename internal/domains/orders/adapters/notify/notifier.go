// Package notify delivers order lifecycle events to operators. Events are
// emitted as structured logs; a mail or chat transport can replace the
// sink without touching the order core.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ydbloom/commerce-api/internal/domains/orders/domain"
	"github.com/ydbloom/commerce-api/internal/domains/orders/ports"
)

// DedupeWindow is how long a low-stock alert for a product stays muted
// after firing.
const DedupeWindow = 24 * time.Hour

// Notifier logs lifecycle events and rate-limits repeat low-stock alerts.
type Notifier struct {
	logger *slog.Logger
	window time.Duration
	now    func() time.Time

	mu    sync.Mutex
	muted map[int64]time.Time
}

var _ ports.Notifier = (*Notifier)(nil)

// Option configures the notifier.
type Option func(*Notifier)

// WithDedupeWindow overrides the low-stock mute window.
func WithDedupeWindow(d time.Duration) Option {
	return func(n *Notifier) {
		if d > 0 {
			n.window = d
		}
	}
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) {
		if now != nil {
			n.now = now
		}
	}
}

// New builds a notifier writing to the given logger.
func New(logger *slog.Logger, opts ...Option) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Notifier{
		logger: logger,
		window: DedupeWindow,
		now:    time.Now,
		muted:  make(map[int64]time.Time),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

// Notify logs the event at a severity matching its urgency.
func (n *Notifier) Notify(_ context.Context, event domain.Event) {
	switch e := event.(type) {
	case domain.OrderPlaced:
		n.logger.Info("order placed",
			slog.String("event", e.EventName()),
			slog.Int64("order.id", e.OrderID),
			slog.Int64("user.id", e.UserID),
			slog.String("total", e.Total.StringFixed(2)),
		)
	case domain.OrderStatusChanged:
		n.logger.Info("order status changed",
			slog.String("event", e.EventName()),
			slog.Int64("order.id", e.OrderID),
			slog.String("from", string(e.FromStatus)),
			slog.String("to", string(e.ToStatus)),
		)
	case domain.LowStock:
		if !n.shouldAlert(e.ProductID) {
			return
		}
		n.logger.Warn("product stock low",
			slog.String("event", e.EventName()),
			slog.Int64("product.id", e.ProductID),
			slog.String("product.name", e.Name),
			slog.Int64("remaining", e.Remaining),
		)
	case domain.PaymentFailed:
		n.logger.Warn("payment failed",
			slog.String("event", e.EventName()),
			slog.Int64("order.id", e.OrderID),
			slog.String("contact", e.Contact),
			slog.String("reason", e.Reason),
		)
	case domain.StockEmergency:
		n.logger.Error("paid order without stock",
			slog.String("event", e.EventName()),
			slog.Int64("order.id", e.OrderID),
			slog.String("detail", e.Detail),
		)
	default:
		n.logger.Info("order event",
			slog.String("event", event.EventName()),
			slog.Time("occurred_at", event.OccurredAt()),
		)
	}
}

// shouldAlert reports whether a product's low-stock alert is currently
// unmuted, and mutes it for the window when it is.
func (n *Notifier) shouldAlert(productID int64) bool {
	now := n.now()
	n.mu.Lock()
	defer n.mu.Unlock()
	if until, ok := n.muted[productID]; ok && now.Before(until) {
		return false
	}
	n.muted[productID] = now.Add(n.window)
	// Opportunistic cleanup keeps the map from growing unbounded.
	for id, until := range n.muted {
		if now.After(until) {
			delete(n.muted, id)
		}
	}
	return true
}
