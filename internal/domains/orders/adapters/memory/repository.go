package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ydbloom/commerce-api/internal/domains/orders/domain"
	"github.com/ydbloom/commerce-api/internal/domains/orders/ports"
)

var (
	_ ports.OrderRepository = (*OrderRepository)(nil)
	_ Snapshotter           = (*OrderRepository)(nil)
)

// OrderRepository keeps orders in process memory. Used as the fallback when
// no database is configured and by the application tests.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[int64]*domain.Order
	nextID int64
}

// NewOrderRepository creates an empty in-memory order repository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: map[int64]*domain.Order{}, nextID: 1}
}

func (r *OrderRepository) Create(_ context.Context, order *domain.Order) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := cloneOrder(order)
	clone.ID = r.nextID
	r.nextID++
	for i := range clone.Items {
		clone.Items[i].OrderID = clone.ID
		clone.Items[i].ID = clone.ID*100 + int64(i) + 1
	}
	r.orders[clone.ID] = clone
	return cloneOrder(clone), nil
}

func (r *OrderRepository) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// GetForUpdate relies on the memory TxManager's exclusive lock for
// serialization, so it is a plain read here.
func (r *OrderRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *OrderRepository) UpdateStatus(_ context.Context, id int64, status domain.Status, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return ports.ErrOrderNotFound
	}
	order.Status = status
	order.UpdatedAt = updatedAt
	return nil
}

func (r *OrderRepository) ListByUser(_ context.Context, userID int64) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []*domain.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			list = append(list, cloneOrder(order))
		}
	}
	sortOrders(list)
	return list, nil
}

func (r *OrderRepository) List(_ context.Context) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		list = append(list, cloneOrder(order))
	}
	sortOrders(list)
	return list, nil
}

// Snapshot captures the full store state for the memory TxManager.
func (r *OrderRepository) Snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	orders := make(map[int64]*domain.Order, len(r.orders))
	for id, order := range r.orders {
		orders[id] = cloneOrder(order)
	}
	return orderSnapshot{orders: orders, nextID: r.nextID}
}

// Restore rolls the store back to a snapshot.
func (r *OrderRepository) Restore(snapshot any) {
	state, ok := snapshot.(orderSnapshot)
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = state.orders
	r.nextID = state.nextID
}

type orderSnapshot struct {
	orders map[int64]*domain.Order
	nextID int64
}

func sortOrders(list []*domain.Order) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

func cloneOrder(order *domain.Order) *domain.Order {
	clone := *order
	clone.Items = make([]domain.OrderItem, len(order.Items))
	copy(clone.Items, order.Items)
	return &clone
}
