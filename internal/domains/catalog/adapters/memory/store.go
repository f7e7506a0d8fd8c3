package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/ydbloom/commerce-api/internal/domains/catalog/domain"
	"github.com/ydbloom/commerce-api/internal/domains/catalog/ports"
)

var (
	_ ports.ProductRepository = (*Store)(nil)
	_ ports.InventoryLedger   = (*Store)(nil)
	_ ports.CouponRepository  = (*Store)(nil)
)

// Store keeps the catalog slice this core reads (products and coupons) in
// process memory. It doubles as the inventory ledger over those products.
type Store struct {
	mu       sync.RWMutex
	products map[int64]*domain.Product
	coupons  map[string]*domain.Coupon
}

// NewStore creates an empty catalog store.
func NewStore() *Store {
	return &Store{
		products: map[int64]*domain.Product{},
		coupons:  map[string]*domain.Coupon{},
	}
}

// SeedProduct inserts or replaces a product.
func (s *Store) SeedProduct(product domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := product
	s.products[product.ID] = &clone
}

// SeedCoupon inserts or replaces a coupon, keyed by code.
func (s *Store) SeedCoupon(coupon domain.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := coupon
	s.coupons[coupon.Code] = &clone
}

func (s *Store) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	product, ok := s.products[id]
	if !ok {
		return nil, ports.ErrProductNotFound
	}
	clone := *product
	return &clone, nil
}

func (s *Store) GetByIDs(_ context.Context, ids []int64) (map[int64]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[int64]*domain.Product, len(ids))
	for _, id := range ids {
		if product, ok := s.products[id]; ok {
			clone := *product
			result[id] = &clone
		}
	}
	return result, nil
}

// Reserve decrements stock for every line, verifying all lines first so a
// deficit leaves nothing mutated.
func (s *Store) Reserve(_ context.Context, lines []domain.StockLine) ([]domain.StockLevel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range lines {
		product, ok := s.products[line.ProductID]
		if !ok {
			return nil, ports.ErrProductNotFound
		}
		if product.Stock < line.Quantity {
			return nil, fmt.Errorf("%w: not enough stock for %s", domain.ErrInsufficientStock, product.Name)
		}
	}
	levels := make([]domain.StockLevel, 0, len(lines))
	for _, line := range lines {
		product := s.products[line.ProductID]
		product.Stock -= line.Quantity
		levels = append(levels, domain.StockLevel{
			ProductID: product.ID,
			Name:      product.Name,
			Remaining: product.Stock,
		})
	}
	return levels, nil
}

// Release returns reserved quantities to stock.
func (s *Store) Release(_ context.Context, lines []domain.StockLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range lines {
		product, ok := s.products[line.ProductID]
		if !ok {
			return ports.ErrProductNotFound
		}
		product.Stock += line.Quantity
	}
	return nil
}

func (s *Store) GetByCode(_ context.Context, code string) (*domain.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	coupon, ok := s.coupons[code]
	if !ok {
		return nil, ports.ErrCouponNotFound
	}
	clone := *coupon
	return &clone, nil
}

func (s *Store) IncrementUsage(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, coupon := range s.coupons {
		if coupon.ID == id {
			coupon.UsedCount++
			return nil
		}
	}
	return ports.ErrCouponNotFound
}

// Snapshot captures the full store state for the memory TxManager.
func (s *Store) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	products := make(map[int64]*domain.Product, len(s.products))
	for id, product := range s.products {
		clone := *product
		products[id] = &clone
	}
	coupons := make(map[string]*domain.Coupon, len(s.coupons))
	for code, coupon := range s.coupons {
		clone := *coupon
		coupons[code] = &clone
	}
	return storeSnapshot{products: products, coupons: coupons}
}

// Restore rolls the store back to a snapshot.
func (s *Store) Restore(snapshot any) {
	state, ok := snapshot.(storeSnapshot)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = state.products
	s.coupons = state.coupons
}

type storeSnapshot struct {
	products map[int64]*domain.Product
	coupons  map[string]*domain.Coupon
}
