package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	catalogmemory "github.com/ydbloom/commerce-api/internal/domains/catalog/adapters/memory"
	catalogdomain "github.com/ydbloom/commerce-api/internal/domains/catalog/domain"
	"github.com/ydbloom/commerce-api/internal/domains/orders/adapters/memory"
	"github.com/ydbloom/commerce-api/internal/domains/orders/domain"
	"github.com/ydbloom/commerce-api/internal/domains/orders/ports"
)

type fakeProvider struct {
	fail  bool
	calls int
}

func (f *fakeProvider) CreateIntent(_ context.Context, req ports.ChargeRequest) (*ports.ChargeIntent, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("provider unavailable")
	}
	return &ports.ChargeIntent{
		ID:           fmt.Sprintf("pi_%d", req.OrderID),
		ClientSecret: fmt.Sprintf("pi_%d_secret", req.OrderID),
	}, nil
}

type captureNotifier struct {
	mu     sync.Mutex
	events []domain.Event
}

func (n *captureNotifier) Notify(_ context.Context, event domain.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *captureNotifier) names() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var names []string
	for _, event := range n.events {
		names = append(names, event.EventName())
	}
	return names
}

type published struct {
	userID  int64
	orderID int64
	status  domain.Status
}

type captureBroadcaster struct {
	mu     sync.Mutex
	events []published
}

func (b *captureBroadcaster) Publish(userID, orderID int64, status domain.Status, _ string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, published{userID: userID, orderID: orderID, status: status})
}

type fixture struct {
	svc         *Service
	orders      *memory.OrderRepository
	carts       *memory.CartRepository
	catalog     *catalogmemory.Store
	provider    *fakeProvider
	notifier    *captureNotifier
	broadcaster *captureBroadcaster
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		orders:      memory.NewOrderRepository(),
		carts:       memory.NewCartRepository(),
		catalog:     catalogmemory.NewStore(),
		provider:    &fakeProvider{},
		notifier:    &captureNotifier{},
		broadcaster: &captureBroadcaster{},
	}
	tx := memory.NewTxManager(f.orders, f.carts, f.catalog)
	f.svc = NewService(Deps{
		Tx:       tx,
		Orders:   f.orders,
		Carts:    f.carts,
		Products: f.catalog,
		Ledger:   f.catalog,
		Coupons:  f.catalog,
		Provider: f.provider,
	}, WithNotifier(f.notifier), WithBroadcaster(f.broadcaster))
	return f
}

func (f *fixture) seedProduct(t *testing.T, id int64, name, price string, discount int64, stock int64) {
	t.Helper()
	f.catalog.SeedProduct(catalogdomain.Product{
		ID:       id,
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Discount: decimal.NewFromInt(discount),
		Stock:    stock,
	})
}

func (f *fixture) addToCart(t *testing.T, userID, productID, quantity int64) {
	t.Helper()
	_, err := f.carts.AddItem(context.Background(), userID, domain.CartItem{ProductID: productID, Quantity: quantity})
	require.NoError(t, err)
}

func (f *fixture) stock(t *testing.T, productID int64) int64 {
	t.Helper()
	product, err := f.catalog.GetByID(context.Background(), productID)
	require.NoError(t, err)
	return product.Stock
}

const userID = int64(42)

func TestCheckout_Succeeds(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, 1, "Peony Bouquet", "20.00", 0, 10)
	f.addToCart(t, userID, 1, 1)

	result, err := f.svc.Checkout(context.Background(), userID, "")
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, result.Order.Status)
	require.Equal(t, "20.00", result.Order.Total.StringFixed(2))
	require.Len(t, result.Order.Items, 1)
	require.Equal(t, "20.00", result.Order.Items[0].UnitPrice.StringFixed(2))
	require.NotEmpty(t, result.ClientSecret)
	require.NotEmpty(t, result.PaymentIntentID)

	// Stock only moves on pending->paid, not at order creation.
	require.Equal(t, int64(10), f.stock(t, 1))

	cart, err := f.carts.GetByUser(context.Background(), userID)
	require.NoError(t, err)
	require.True(t, cart.Empty())

	require.Contains(t, f.notifier.names(), "orders.order.placed")
}

func TestCheckout_AppliesProductDiscount(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, 1, "Rose Bundle", "50.00", 20, 10)
	f.addToCart(t, userID, 1, 2)

	result, err := f.svc.Checkout(context.Background(), userID, "")
	require.NoError(t, err)
	require.Equal(t, "80.00", result.Order.Total.StringFixed(2))
	require.Equal(t, "40.00", result.Order.Items[0].UnitPrice.StringFixed(2))
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Checkout(context.Background(), userID, "")
	require.ErrorIs(t, err, domain.ErrEmptyCart)
	require.Zero(t, f.provider.calls)
}

func TestCheckout_InsufficientStock(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, 1, "Tulip Crate", "15.00", 0, 2)
	f.addToCart(t, userID, 1, 3)

	_, err := f.svc.Checkout(context.Background(), userID, "")
	require.ErrorIs(t, err, catalogdomain.ErrInsufficientStock)
	require.Contains(t, err.Error(), "Tulip Crate")
	require.Zero(t, f.provider.calls)

	// No order created, cart untouched.
	orders, err := f.orders.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Empty(t, orders)
	cart, err := f.carts.GetByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
}

func TestCheckout_ProviderFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, 1, "Peony Bouquet", "20.00", 0, 10)
	f.catalog.SeedCoupon(catalogdomain.Coupon{ID: 5, Code: "SPRING10", Discount: decimal.NewFromInt(10), Active: true, UsageLimit: 10})
	f.addToCart(t, userID, 1, 1)
	f.provider.fail = true

	_, err := f.svc.Checkout(context.Background(), userID, "SPRING10")
	require.ErrorIs(t, err, ErrPaymentProvider)
	require.Equal(t, 1, f.provider.calls)

	// The whole unit rolled back: no order, cart restored, coupon not burned.
	orders, listErr := f.orders.ListByUser(context.Background(), userID)
	require.NoError(t, listErr)
	require.Empty(t, orders)
	cart, cartErr := f.carts.GetByUser(context.Background(), userID)
	require.NoError(t, cartErr)
	require.Len(t, cart.Items, 1)
	coupon, couponErr := f.catalog.GetByCode(context.Background(), "SPRING10")
	require.NoError(t, couponErr)
	require.Zero(t, coupon.UsedCount)
}

func TestCheckout_CouponApplied(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, 1, "Peony Bouquet", "100.00", 0, 10)
	f.catalog.SeedCoupon(catalogdomain.Coupon{ID: 5, Code: "SPRING10", Discount: decimal.NewFromInt(10), Active: true, UsageLimit: 10})
	f.addToCart(t, userID, 1, 1)

	result, err := f.svc.Checkout(context.Background(), userID, "SPRING10")
	require.NoError(t, err)
	require.Equal(t, "90.00", result.Order.Total.StringFixed(2))

	coupon, err := f.catalog.GetByCode(context.Background(), "SPRING10")
	require.NoError(t, err)
	require.Equal(t, int64(1), coupon.UsedCount)
}

func TestCheckout_InvalidCouponSilentlyIgnored(t *testing.T) {
	expired := time.Now().Add(-time.Hour)
	cases := []struct {
		name   string
		coupon catalogdomain.Coupon
		code   string
	}{
		{"unknown code", catalogdomain.Coupon{}, "NOPE"},
		{"inactive", catalogdomain.Coupon{ID: 1, Code: "OFF", Discount: decimal.NewFromInt(10), Active: false}, "OFF"},
		{"expired", catalogdomain.Coupon{ID: 2, Code: "OLD", Discount: decimal.NewFromInt(10), Active: true, ExpiresAt: &expired}, "OLD"},
		{"exhausted", catalogdomain.Coupon{ID: 3, Code: "DONE", Discount: decimal.NewFromInt(10), Active: true, UsageLimit: 1, UsedCount: 1}, "DONE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.seedProduct(t, 1, "Peony Bouquet", "100.00", 0, 10)
			if tc.coupon.Code != "" {
				f.catalog.SeedCoupon(tc.coupon)
			}
			f.addToCart(t, userID, 1, 1)

			result, err := f.svc.Checkout(context.Background(), userID, tc.code)
			require.NoError(t, err)
			require.Equal(t, "100.00", result.Order.Total.StringFixed(2))

			if tc.coupon.Code != "" {
				coupon, err := f.catalog.GetByCode(context.Background(), tc.coupon.Code)
				require.NoError(t, err)
				require.Equal(t, tc.coupon.UsedCount, coupon.UsedCount)
			}
		})
	}
}

func TestConfirmPayment_DecrementsStockOnce(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, 1, "Peony Bouquet", "20.00", 0, 10)
	f.addToCart(t, userID, 1, 3)
	result, err := f.svc.Checkout(context.Background(), userID, "")
	require.NoError(t, err)

	order, applied, err := f.svc.ConfirmPayment(context.Background(), result.Order.ID)
	require.NoError(t, err)
	require.True(t, applied)
	require.Equal(t, domain.StatusPaid, order.Status)
	require.Equal(t, int64(7), f.stock(t, 1))

	// Duplicate delivery: no-op, stock unchanged.
	order, applied, err = f.svc.ConfirmPayment(context.Background(), result.Order.ID)
	require.NoError(t, err)
	require.False(t, applied)
	require.Equal(t, domain.StatusPaid, order.Status)
	require.Equal(t, int64(7), f.stock(t, 1))
}

func TestConfirmPayment_InsufficientStockSurfaces(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, 1, "Peony Bouquet", "20.00", 0, 5)
	f.addToCart(t, userID, 1, 5)
	result, err := f.svc.Checkout(context.Background(), userID, "")
	require.NoError(t, err)

	// Stock drains between checkout and payment confirmation.
	_, err = f.catalog.Reserve(context.Background(), []catalogdomain.StockLine{{ProductID: 1, Quantity: 3}})
	require.NoError(t, err)

	_, applied, err := f.svc.ConfirmPayment(context.Background(), result.Order.ID)
	require.ErrorIs(t, err, catalogdomain.ErrInsufficientStock)
	require.False(t, applied)

	// Failed transition leaves the order pending and stock untouched.
	order, err := f.orders.GetByID(context.Background(), result.Order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, order.Status)
	require.Equal(t, int64(2), f.stock(t, 1))
}

func TestTransition_CancelPaidRestoresStock(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, 2, "Lily Vase", "30.00", 0, 8)
	f.addToCart(t, userID, 2, 2)
	result, err := f.svc.Checkout(context.Background(), userID, "")
	require.NoError(t, err)
	_, _, err = f.svc.ConfirmPayment(context.Background(), result.Order.ID)
	require.NoError(t, err)
	require.Equal(t, int64(6), f.stock(t, 2))

	order, err := f.svc.Transition(context.Background(), result.Order.ID, domain.StatusCancelled)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, order.Status)
	require.Equal(t, int64(8), f.stock(t, 2))
}

func TestTransition_DeliveredIsTerminal(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, 1, "Peony Bouquet", "20.00", 0, 10)
	f.addToCart(t, userID, 1, 1)
	result, err := f.svc.Checkout(context.Background(), userID, "")
	require.NoError(t, err)
	for _, status := range []domain.Status{domain.StatusPaid, domain.StatusShipped, domain.StatusDelivered} {
		_, err = f.svc.Transition(context.Background(), result.Order.ID, status)
		require.NoError(t, err)
	}

	for _, target := range []domain.Status{domain.StatusPending, domain.StatusPaid, domain.StatusShipped, domain.StatusCancelled} {
		_, err = f.svc.Transition(context.Background(), result.Order.ID, target)
		require.ErrorIs(t, err, domain.ErrInvalidTransition)
	}
	require.Equal(t, int64(9), f.stock(t, 1))
}

func TestTransition_PublishesAfterCommit(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, 1, "Peony Bouquet", "20.00", 0, 10)
	f.addToCart(t, userID, 1, 1)
	result, err := f.svc.Checkout(context.Background(), userID, "")
	require.NoError(t, err)

	_, _, err = f.svc.ConfirmPayment(context.Background(), result.Order.ID)
	require.NoError(t, err)

	require.Len(t, f.broadcaster.events, 1)
	require.Equal(t, published{userID: userID, orderID: result.Order.ID, status: domain.StatusPaid}, f.broadcaster.events[0])
	require.Contains(t, f.notifier.names(), "orders.order.status_changed")
}

func TestTransition_LowStockEvent(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, 1, "Peony Bouquet", "20.00", 0, 6)
	f.addToCart(t, userID, 1, 3)
	result, err := f.svc.Checkout(context.Background(), userID, "")
	require.NoError(t, err)
	_, _, err = f.svc.ConfirmPayment(context.Background(), result.Order.ID)
	require.NoError(t, err)

	require.Contains(t, f.notifier.names(), "catalog.product.low_stock")
}

func TestCancel_OwnershipAndStatus(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, 1, "Peony Bouquet", "20.00", 0, 10)
	f.addToCart(t, userID, 1, 1)
	result, err := f.svc.Checkout(context.Background(), userID, "")
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), userID+1, result.Order.ID)
	require.ErrorIs(t, err, ErrForbidden)

	order, err := f.svc.Cancel(context.Background(), userID, result.Order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, order.Status)

	// Pending order never reserved stock, so cancellation restores nothing.
	require.Equal(t, int64(10), f.stock(t, 1))

	_, err = f.svc.Cancel(context.Background(), userID, order.ID)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCancel_RejectsNonPending(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, 1, "Peony Bouquet", "20.00", 0, 10)
	f.addToCart(t, userID, 1, 1)
	result, err := f.svc.Checkout(context.Background(), userID, "")
	require.NoError(t, err)
	_, _, err = f.svc.ConfirmPayment(context.Background(), result.Order.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), userID, result.Order.ID)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestGetOrder_Access(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, 1, "Peony Bouquet", "20.00", 0, 10)
	f.addToCart(t, userID, 1, 1)
	result, err := f.svc.Checkout(context.Background(), userID, "")
	require.NoError(t, err)

	_, err = f.svc.GetOrder(context.Background(), userID+1, false, result.Order.ID)
	require.ErrorIs(t, err, ErrForbidden)

	order, err := f.svc.GetOrder(context.Background(), userID+1, true, result.Order.ID)
	require.NoError(t, err)
	require.Equal(t, result.Order.ID, order.ID)
}

func TestTransition_PersistsServiceClock(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, 1, "Peony Bouquet", "20.00", 0, 10)
	f.addToCart(t, userID, 1, 1)
	result, err := f.svc.Checkout(context.Background(), userID, "")
	require.NoError(t, err)

	frozen := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	clocked := NewService(Deps{
		Tx:       memory.NewTxManager(f.orders, f.carts, f.catalog),
		Orders:   f.orders,
		Carts:    f.carts,
		Products: f.catalog,
		Ledger:   f.catalog,
		Coupons:  f.catalog,
		Provider: f.provider,
	}, WithClock(func() time.Time { return frozen }))

	updated, err := clocked.Transition(context.Background(), result.Order.ID, domain.StatusPaid)
	require.NoError(t, err)
	require.True(t, updated.UpdatedAt.Equal(frozen))

	stored, err := f.orders.GetByID(context.Background(), result.Order.ID)
	require.NoError(t, err)
	require.True(t, stored.UpdatedAt.Equal(frozen), "repository must persist the clock the service chose")
}
