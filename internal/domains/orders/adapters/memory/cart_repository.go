package memory

import (
	"context"
	"sync"

	"github.com/ydbloom/commerce-api/internal/domains/orders/domain"
	"github.com/ydbloom/commerce-api/internal/domains/orders/ports"
)

var (
	_ ports.CartRepository = (*CartRepository)(nil)
	_ Snapshotter          = (*CartRepository)(nil)
)

// CartRepository keeps per-user carts in process memory.
type CartRepository struct {
	mu     sync.RWMutex
	carts  map[int64]*domain.Cart // keyed by user id
	nextID int64
}

// NewCartRepository creates an empty in-memory cart repository.
func NewCartRepository() *CartRepository {
	return &CartRepository{carts: map[int64]*domain.Cart{}, nextID: 1}
}

func (r *CartRepository) GetByUser(_ context.Context, userID int64) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneCart(r.ensureCart(userID)), nil
}

func (r *CartRepository) AddItem(_ context.Context, userID int64, item domain.CartItem) (*domain.Cart, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cart := r.ensureCart(userID)
	item.ID = r.nextID
	r.nextID++
	item.CartID = cart.ID
	cart.Items = append(cart.Items, item)
	return cloneCart(cart), nil
}

func (r *CartRepository) UpdateItemQuantity(_ context.Context, userID, itemID, quantity int64) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.carts[userID]
	if !ok {
		return nil, ports.ErrCartNotFound
	}
	for i := range cart.Items {
		if cart.Items[i].ID != itemID {
			continue
		}
		if quantity <= 0 {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		} else {
			cart.Items[i].Quantity = quantity
		}
		return cloneCart(cart), nil
	}
	return nil, ports.ErrItemNotFound
}

func (r *CartRepository) RemoveItem(_ context.Context, userID, itemID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.carts[userID]
	if !ok {
		return ports.ErrCartNotFound
	}
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			return nil
		}
	}
	return ports.ErrItemNotFound
}

func (r *CartRepository) Clear(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cart, ok := r.carts[userID]; ok {
		cart.Items = nil
	}
	return nil
}

// Snapshot captures the full store state for the memory TxManager.
func (r *CartRepository) Snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	carts := make(map[int64]*domain.Cart, len(r.carts))
	for userID, cart := range r.carts {
		carts[userID] = cloneCart(cart)
	}
	return cartSnapshot{carts: carts, nextID: r.nextID}
}

// Restore rolls the store back to a snapshot.
func (r *CartRepository) Restore(snapshot any) {
	state, ok := snapshot.(cartSnapshot)
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts = state.carts
	r.nextID = state.nextID
}

type cartSnapshot struct {
	carts  map[int64]*domain.Cart
	nextID int64
}

// ensureCart returns the user's cart, creating it on first touch. Caller
// holds the write lock.
func (r *CartRepository) ensureCart(userID int64) *domain.Cart {
	if cart, ok := r.carts[userID]; ok {
		return cart
	}
	cart := &domain.Cart{ID: r.nextID, UserID: userID}
	r.nextID++
	r.carts[userID] = cart
	return cart
}

func cloneCart(cart *domain.Cart) *domain.Cart {
	clone := *cart
	clone.Items = make([]domain.CartItem, len(cart.Items))
	copy(clone.Items, cart.Items)
	return &clone
}
