package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	catalogdomain "github.com/ydbloom/commerce-api/internal/domains/catalog/domain"
	ordersdomain "github.com/ydbloom/commerce-api/internal/domains/orders/domain"
	ordersports "github.com/ydbloom/commerce-api/internal/domains/orders/ports"
	"github.com/ydbloom/commerce-api/internal/domains/payments/domain"
)

// Ack is the acknowledgment returned to the provider.
type Ack struct {
	Status string `json:"status"`
}

// Handler consumes asynchronous provider events under at-least-once,
// possibly out-of-order delivery. Signature verification is the endpoint's
// only authentication; once a payload is authenticated and parsed the
// handler always acknowledges, even when the business effect is a no-op,
// so the provider never retry-storms events already durably processed.
type Handler struct {
	orders    ordersports.Service
	notifier  ordersports.Notifier
	secret    string
	tolerance time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures optional handler collaborators.
type Option func(*Handler)

// WithNotifier injects the operational alert sink.
func WithNotifier(n ordersports.Notifier) Option {
	return func(h *Handler) {
		if n != nil {
			h.notifier = n
		}
	}
}

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithTolerance overrides the signature timestamp tolerance.
func WithTolerance(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.tolerance = d
		}
	}
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler wires the webhook handler around the order core.
func NewHandler(orders ordersports.Service, secret string, opts ...Option) *Handler {
	h := &Handler{
		orders:    orders,
		notifier:  ordersports.NopNotifier{},
		secret:    secret,
		tolerance: domain.DefaultTolerance,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// HandleEvent verifies, parses, and dispatches one raw provider event.
// Returned errors map to rejections (bad signature, unparseable body);
// everything past that point acknowledges.
func (h *Handler) HandleEvent(ctx context.Context, payload []byte, sigHeader string) (*Ack, error) {
	if err := domain.VerifySignature(payload, sigHeader, h.secret, h.now(), h.tolerance); err != nil {
		return nil, err
	}
	event, err := domain.ParseEvent(payload)
	if err != nil {
		return nil, err
	}

	switch event.Type {
	case domain.EventPaymentSucceeded:
		h.handleSucceeded(ctx, event)
	case domain.EventPaymentFailed:
		h.handleFailed(ctx, event)
	default:
		h.logger.Debug("ignoring webhook event", slog.String("event.id", event.ID), slog.String("event.type", event.Type))
	}
	return &Ack{Status: "success"}, nil
}

func (h *Handler) handleSucceeded(ctx context.Context, event *domain.Event) {
	orderID := event.Intent.OrderID()
	if orderID == 0 {
		h.logger.Warn("payment succeeded event without order reference", slog.String("event.id", event.ID))
		return
	}
	_, applied, err := h.orders.ConfirmPayment(ctx, orderID)
	switch {
	case err == nil:
		if applied {
			h.logger.Info("order marked paid via webhook", slog.Int64("order.id", orderID), slog.String("event.id", event.ID))
		} else {
			h.logger.Info("duplicate payment event, already applied", slog.Int64("order.id", orderID), slog.String("event.id", event.ID))
		}
	case errors.Is(err, ordersports.ErrOrderNotFound):
		// May reference an order from another environment. Log only.
		h.logger.Warn("payment event for unknown order", slog.Int64("order.id", orderID), slog.String("event.id", event.ID))
	case errors.Is(err, catalogdomain.ErrInsufficientStock):
		// Money captured, goods unavailable. Alert, never drop silently.
		h.logger.Error("paid order cannot reserve stock", slog.Int64("order.id", orderID), slog.String("error", err.Error()))
		h.notifier.Notify(ctx, ordersdomain.StockEmergency{
			BaseEvent: ordersdomain.BaseEvent{Timestamp: h.now()},
			OrderID:   orderID,
			Detail:    err.Error(),
		})
	case errors.Is(err, ordersdomain.ErrInvalidTransition):
		// Out-of-order or duplicate delivery racing another path. Benign.
		h.logger.Info("payment event not applicable to current status", slog.Int64("order.id", orderID), slog.String("event.id", event.ID))
	default:
		h.logger.Error("failed to apply payment event", slog.Int64("order.id", orderID), slog.String("error", err.Error()))
	}
}

func (h *Handler) handleFailed(ctx context.Context, event *domain.Event) {
	h.logger.Warn("payment failed",
		slog.Int64("order.id", event.Intent.OrderID()),
		slog.String("contact", event.Intent.ReceiptEmail),
		slog.Int64("amount", event.Intent.Amount),
		slog.String("currency", event.Intent.Currency),
		slog.String("reason", event.Intent.FailureReason()),
	)
	h.notifier.Notify(ctx, ordersdomain.PaymentFailed{
		BaseEvent: ordersdomain.BaseEvent{Timestamp: h.now()},
		OrderID:   event.Intent.OrderID(),
		Contact:   event.Intent.ReceiptEmail,
		Amount:    event.Intent.Amount,
		Currency:  event.Intent.Currency,
		Reason:    event.Intent.FailureReason(),
	})
}
