package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	catalogdomain "github.com/ydbloom/commerce-api/internal/domains/catalog/domain"
	catalogports "github.com/ydbloom/commerce-api/internal/domains/catalog/ports"
	"github.com/ydbloom/commerce-api/internal/domains/orders/domain"
	"github.com/ydbloom/commerce-api/internal/domains/orders/ports"
)

// LowStockThreshold is the remaining-stock level at which a reservation
// raises a LowStock event for the admin notifier.
const LowStockThreshold = 5

// Deps bundles the collaborators the order core orchestrates.
type Deps struct {
	Tx       ports.TxManager
	Orders   ports.OrderRepository
	Carts    ports.CartRepository
	Products catalogports.ProductRepository
	Ledger   catalogports.InventoryLedger
	Coupons  catalogports.CouponRepository
	Provider ports.PaymentProvider
}

// Service owns the order lifecycle: checkout, the status state machine with
// its bound inventory side effects, and the post-commit notification hooks.
type Service struct {
	deps        Deps
	notifier    ports.Notifier
	broadcaster ports.Broadcaster
	currency    string
	now         func() time.Time
}

// Option configures optional collaborators.
type Option func(*Service)

// WithNotifier injects the post-commit event sink.
func WithNotifier(n ports.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithBroadcaster injects the live status fan-out.
func WithBroadcaster(b ports.Broadcaster) Option {
	return func(s *Service) {
		if b != nil {
			s.broadcaster = b
		}
	}
}

// WithCurrency overrides the charge currency (default usd).
func WithCurrency(code string) Option {
	return func(s *Service) {
		if code != "" {
			s.currency = code
		}
	}
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the order core.
func NewService(deps Deps, opts ...Option) *Service {
	s := &Service{
		deps:        deps,
		notifier:    ports.NopNotifier{},
		broadcaster: ports.NopBroadcaster{},
		currency:    "usd",
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

var _ ports.Service = (*Service)(nil)

// Checkout converts the user's cart into a pending order plus a provider
// charge intent. The whole sequence runs in one transaction: a provider
// failure rolls back the order, its items, the cart deletion, and any coupon
// consumption.
func (s *Service) Checkout(ctx context.Context, userID int64, couponCode string) (*ports.CheckoutResult, error) {
	var result ports.CheckoutResult
	err := s.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
		cart, err := s.deps.Carts.GetByUser(ctx, userID)
		if err != nil {
			return err
		}
		if cart.Empty() {
			return domain.ErrEmptyCart
		}

		products, err := s.loadProducts(ctx, cart.Items)
		if err != nil {
			return err
		}
		// Verify stock up front so no order is created for a doomed cart.
		// Nothing is decremented here; reservation happens on pending->paid.
		for _, item := range cart.Items {
			product := products[item.ProductID]
			if product.Stock < item.Quantity {
				return fmt.Errorf("%w: not enough stock for %s", catalogdomain.ErrInsufficientStock, product.Name)
			}
		}

		subtotal := decimal.Zero
		items := make([]domain.OrderItem, 0, len(cart.Items))
		for _, item := range cart.Items {
			product := products[item.ProductID]
			unit := product.DiscountedPrice()
			subtotal = subtotal.Add(unit.Mul(decimal.NewFromInt(item.Quantity)))
			items = append(items, domain.OrderItem{
				ProductID: item.ProductID,
				SizeID:    item.SizeID,
				Quantity:  item.Quantity,
				UnitPrice: unit,
			})
		}
		total, err := s.applyCoupon(ctx, couponCode, subtotal)
		if err != nil {
			return err
		}

		order, err := domain.NewOrder(userID, total, items)
		if err != nil {
			return err
		}
		order.CreatedAt = s.now()
		order.UpdatedAt = order.CreatedAt
		saved, err := s.deps.Orders.Create(ctx, order)
		if err != nil {
			return err
		}
		if err := s.deps.Carts.Clear(ctx, userID); err != nil {
			return err
		}

		intent, err := s.deps.Provider.CreateIntent(ctx, ports.ChargeRequest{
			OrderID:  saved.ID,
			Amount:   saved.Total,
			Currency: s.currency,
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrPaymentProvider, err)
		}
		result = ports.CheckoutResult{
			Order:           saved,
			PaymentIntentID: intent.ID,
			ClientSecret:    intent.ClientSecret,
		}
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.notifier.Notify(ctx, domain.OrderPlaced{
		BaseEvent: domain.BaseEvent{Timestamp: s.now()},
		OrderID:   result.Order.ID,
		UserID:    result.Order.UserID,
		Total:     result.Order.Total,
	})
	return &result, nil
}

// Transition drives the state machine for one order: validates the edge
// under a row lock, applies the inventory effect bound to it, and commits
// status plus stock mutations atomically. Notifications and the live
// broadcast fire only after the commit.
func (s *Service) Transition(ctx context.Context, orderID int64, target domain.Status) (*domain.Order, error) {
	var (
		updated *domain.Order
		from    domain.Status
		levels  []catalogdomain.StockLevel
	)
	err := s.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
		order, err := s.deps.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		from = order.Status
		if err := order.Transition(target); err != nil {
			return err
		}
		switch {
		case from == domain.StatusPending && target == domain.StatusPaid:
			levels, err = s.deps.Ledger.Reserve(ctx, stockLines(order.Items))
			if err != nil {
				return err
			}
		case (from == domain.StatusPaid || from == domain.StatusShipped) && target == domain.StatusCancelled:
			if err := s.deps.Ledger.Release(ctx, stockLines(order.Items)); err != nil {
				return err
			}
		}
		order.UpdatedAt = s.now()
		if err := s.deps.Orders.UpdateStatus(ctx, orderID, target, order.UpdatedAt); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.afterTransition(ctx, updated, from, levels)
	return updated, nil
}

// ConfirmPayment applies a provider "payment succeeded" event. The current
// status is checked before attempting the transition so duplicate webhook
// deliveries resolve as success no-ops instead of error paths.
func (s *Service) ConfirmPayment(ctx context.Context, orderID int64) (*domain.Order, bool, error) {
	order, err := s.deps.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	if order.AtOrPast(domain.StatusPaid) {
		return order, false, nil
	}
	updated, err := s.Transition(ctx, orderID, domain.StatusPaid)
	if errors.Is(err, domain.ErrInvalidTransition) {
		// A concurrent delivery won the race between our read and the lock.
		if current, gerr := s.deps.Orders.GetByID(ctx, orderID); gerr == nil && current.AtOrPast(domain.StatusPaid) {
			return current, false, nil
		}
		return nil, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return updated, true, nil
}

// Cancel lets the owning user cancel an order that is still pending.
func (s *Service) Cancel(ctx context.Context, userID, orderID int64) (*domain.Order, error) {
	order, err := s.deps.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}
	if order.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: only pending orders can be cancelled", domain.ErrInvalidTransition)
	}
	return s.Transition(ctx, orderID, domain.StatusCancelled)
}

// GetOrder returns one order, enforcing ownership unless staff.
func (s *Service) GetOrder(ctx context.Context, userID int64, staff bool, orderID int64) (*domain.Order, error) {
	order, err := s.deps.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !staff && order.UserID != userID {
		return nil, ErrForbidden
	}
	return order, nil
}

// ListOrders returns the caller's order history, or every order for staff.
func (s *Service) ListOrders(ctx context.Context, userID int64, staff bool) ([]*domain.Order, error) {
	if staff {
		return s.deps.Orders.List(ctx)
	}
	return s.deps.Orders.ListByUser(ctx, userID)
}

// applyCoupon validates and consumes the coupon inside the checkout
// transaction. An unknown, inactive, expired, or exhausted code leaves the
// subtotal unchanged rather than failing the checkout.
func (s *Service) applyCoupon(ctx context.Context, code string, subtotal decimal.Decimal) (decimal.Decimal, error) {
	if code == "" {
		return subtotal, nil
	}
	coupon, err := s.deps.Coupons.GetByCode(ctx, code)
	if errors.Is(err, catalogports.ErrCouponNotFound) {
		return subtotal, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	if coupon.Usable(s.now()) != nil {
		return subtotal, nil
	}
	if err := s.deps.Coupons.IncrementUsage(ctx, coupon.ID); err != nil {
		return decimal.Zero, err
	}
	return coupon.Apply(subtotal), nil
}

func (s *Service) afterTransition(ctx context.Context, order *domain.Order, from domain.Status, levels []catalogdomain.StockLevel) {
	s.notifier.Notify(ctx, domain.OrderStatusChanged{
		BaseEvent:  domain.BaseEvent{Timestamp: s.now()},
		OrderID:    order.ID,
		UserID:     order.UserID,
		FromStatus: from,
		ToStatus:   order.Status,
	})
	for _, level := range levels {
		if level.Remaining < LowStockThreshold {
			s.notifier.Notify(ctx, domain.LowStock{
				BaseEvent: domain.BaseEvent{Timestamp: s.now()},
				ProductID: level.ProductID,
				Name:      level.Name,
				Remaining: level.Remaining,
			})
		}
	}
	s.broadcaster.Publish(order.UserID, order.ID, order.Status,
		fmt.Sprintf("Order #%d status updated to %s", order.ID, order.Status))
}

func (s *Service) loadProducts(ctx context.Context, items []domain.CartItem) (map[int64]*catalogdomain.Product, error) {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.deps.Products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if _, ok := products[item.ProductID]; !ok {
			return nil, fmt.Errorf("%w: id %d", catalogports.ErrProductNotFound, item.ProductID)
		}
	}
	return products, nil
}

func stockLines(items []domain.OrderItem) []catalogdomain.StockLine {
	lines := make([]catalogdomain.StockLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, catalogdomain.StockLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}
