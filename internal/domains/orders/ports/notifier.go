package ports

import (
	"context"

	"github.com/ydbloom/commerce-api/internal/domains/orders/domain"
)

// Notifier receives lifecycle events after the triggering transaction has
// committed. Implementations must not block the caller on delivery; a lost
// notification is acceptable, a phantom one (pre-commit) is not.
type Notifier interface {
	Notify(ctx context.Context, event domain.Event)
}

// Broadcaster fans an order-status change out to the owning user's live
// connections. Best-effort: connections not open simply miss the event.
type Broadcaster interface {
	Publish(userID, orderID int64, status domain.Status, message string)
}

// NopNotifier discards events.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, domain.Event) {}

// NopBroadcaster discards publishes.
type NopBroadcaster struct{}

func (NopBroadcaster) Publish(int64, int64, domain.Status, string) {}
