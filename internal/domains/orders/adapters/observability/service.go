package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/ydbloom/commerce-api/internal/domains/orders/domain"
	"github.com/ydbloom/commerce-api/internal/domains/orders/ports"
)

const tracerName = "github.com/ydbloom/commerce-api/internal/domains/orders/adapters/observability/service"

// Service decorates the orders application port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

// Checkout converts a cart into a pending order with instrumentation.
func (s *Service) Checkout(ctx context.Context, userID int64, couponCode string) (*ports.CheckoutResult, error) {
	ctx, span := s.startSpan(ctx, "Service.Checkout", attribute.Int64("user.id", userID))
	defer span.End()

	s.logInfo(ctx, "starting checkout", slog.Int64("user.id", userID))
	result, err := s.inner.Checkout(ctx, userID, couponCode)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "checkout failed", slog.Int64("user.id", userID))
	}
	if result != nil && result.Order != nil {
		span.SetAttributes(attribute.Int64("order.id", result.Order.ID))
		s.metrics.recordCheckout(ctx)
		s.logInfo(ctx, "checkout completed",
			slog.Int64("user.id", userID),
			slog.Int64("order.id", result.Order.ID),
			slog.String("total", result.Order.Total.StringFixed(2)),
		)
	}
	return result, nil
}

// Transition drives the order state machine.
func (s *Service) Transition(ctx context.Context, orderID int64, target domain.Status) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.Transition",
		attribute.Int64("order.id", orderID),
		attribute.String("order.target_status", string(target)),
	)
	defer span.End()

	s.logInfo(ctx, "transitioning order", slog.Int64("order.id", orderID), slog.String("target", string(target)))
	order, err := s.inner.Transition(ctx, orderID, target)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "order transition failed", slog.Int64("order.id", orderID), slog.String("target", string(target)))
	}
	s.metrics.recordTransition(ctx, target)
	s.logInfo(ctx, "order transitioned", slog.Int64("order.id", orderID), slog.String("status", string(order.Status)))
	return order, nil
}

// ConfirmPayment marks an order paid on behalf of a provider webhook.
func (s *Service) ConfirmPayment(ctx context.Context, orderID int64) (*domain.Order, bool, error) {
	ctx, span := s.startSpan(ctx, "Service.ConfirmPayment", attribute.Int64("order.id", orderID))
	defer span.End()

	order, applied, err := s.inner.ConfirmPayment(ctx, orderID)
	if err != nil {
		return nil, false, s.handleError(ctx, span, err, "payment confirmation failed", slog.Int64("order.id", orderID))
	}
	span.SetAttributes(attribute.Bool("order.payment_applied", applied))
	if applied {
		s.metrics.recordTransition(ctx, domain.StatusPaid)
		s.logInfo(ctx, "payment confirmed", slog.Int64("order.id", orderID))
	}
	return order, applied, nil
}

// Cancel lets the owning user cancel a pending order.
func (s *Service) Cancel(ctx context.Context, userID, orderID int64) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.Cancel",
		attribute.Int64("user.id", userID),
		attribute.Int64("order.id", orderID),
	)
	defer span.End()

	s.logInfo(ctx, "cancelling order", slog.Int64("user.id", userID), slog.Int64("order.id", orderID))
	order, err := s.inner.Cancel(ctx, userID, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "order cancellation failed", slog.Int64("order.id", orderID))
	}
	s.metrics.recordTransition(ctx, domain.StatusCancelled)
	s.logInfo(ctx, "order cancelled", slog.Int64("order.id", orderID))
	return order, nil
}

// GetOrder loads a single order respecting visibility.
func (s *Service) GetOrder(ctx context.Context, userID int64, staff bool, orderID int64) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.GetOrder",
		attribute.Int64("order.id", orderID),
		attribute.Bool("user.staff", staff),
	)
	defer span.End()

	order, err := s.inner.GetOrder(ctx, userID, staff, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.Int64("order.id", orderID))
	}
	return order, nil
}

// ListOrders lists the orders visible to the caller.
func (s *Service) ListOrders(ctx context.Context, userID int64, staff bool) ([]*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.ListOrders", attribute.Bool("user.staff", staff))
	defer span.End()

	orders, err := s.inner.ListOrders(ctx, userID, staff)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders", slog.Int64("user.id", userID))
	}
	span.SetAttributes(attribute.Int("order.result.count", len(orders)))
	return orders, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	checkouts   metric.Int64Counter
	transitions metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	checkouts, _ := m.Int64Counter("orders.service.checkouts", metric.WithDescription("Number of completed checkouts"))
	transitions, _ := m.Int64Counter("orders.service.transitions", metric.WithDescription("Number of order status transitions"))
	return serviceMetrics{
		checkouts:   checkouts,
		transitions: transitions,
	}
}

func (m serviceMetrics) recordCheckout(ctx context.Context) {
	addCounter(ctx, m.checkouts, 1)
}

func (m serviceMetrics) recordTransition(ctx context.Context, target domain.Status) {
	addCounter(ctx, m.transitions, 1, attribute.String("order.status", string(target)))
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
