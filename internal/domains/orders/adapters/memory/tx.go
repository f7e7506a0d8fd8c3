package memory

import (
	"context"
	"sync"
)

// Snapshotter is implemented by in-memory stores that can capture and
// restore their full state, giving the memory TxManager rollback semantics.
type Snapshotter interface {
	Snapshot() any
	Restore(snapshot any)
}

// TxManager serializes units of work over the registered stores. On error
// from fn, every store is restored to its pre-transaction snapshot, matching
// the all-or-nothing contract of the postgres adapter.
type TxManager struct {
	mu     sync.Mutex
	stores []Snapshotter
}

// NewTxManager creates a transaction manager over the given stores.
func NewTxManager(stores ...Snapshotter) *TxManager {
	return &TxManager{stores: stores}
}

// WithinTx runs fn with exclusive access to the registered stores.
func (t *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	snapshots := make([]any, len(t.stores))
	for i, store := range t.stores {
		snapshots[i] = store.Snapshot()
	}
	if err := fn(ctx); err != nil {
		for i, store := range t.stores {
			store.Restore(snapshots[i])
		}
		return err
	}
	return nil
}
