package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"doner/internal/models"
)

// MockStagingLedger is an in-memory implementation of StagingLedger. Reconcile
// holds the order store's lock and the ledger's lock together, which makes it
// atomic the same way a database transaction would.
type MockStagingLedger struct {
	carts      map[string]models.StagedCart
	tombstones map[string]models.ConsumedToken
	orders     *MockOrderRepository
	nextID     uint
	mu         sync.Mutex
}

// NewMockStagingLedger creates a ledger that appends reconciled orders to orders.
func NewMockStagingLedger(orders *MockOrderRepository) *MockStagingLedger {
	return &MockStagingLedger{
		carts:      make(map[string]models.StagedCart),
		tombstones: make(map[string]models.ConsumedToken),
		orders:     orders,
		nextID:     1,
	}
}

func (r *MockStagingLedger) Stage(_ context.Context, cart *models.StagedCart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.carts[cart.TokenKey]; ok {
		return fmt.Errorf("staged cart: %w", ErrDuplicate)
	}
	cart.ID = r.nextID
	r.nextID++
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = time.Now().UTC()
	}
	r.carts[cart.TokenKey] = *cart
	return nil
}

func (r *MockStagingLedger) Get(_ context.Context, tokenKey string) (*models.StagedCart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.carts[tokenKey]
	if !ok {
		return nil, fmt.Errorf("staged cart: %w", ErrNotFound)
	}
	return &cart, nil
}

func (r *MockStagingLedger) Discard(_ context.Context, tokenKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.remove(tokenKey, models.OutcomeDiscarded, time.Now().UTC())
	return nil
}

func (r *MockStagingLedger) Reconcile(_ context.Context, tokenKey string, p Payment) (*models.Order, error) {
	r.orders.mu.Lock()
	defer r.orders.mu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.carts[tokenKey]
	if !ok {
		return nil, fmt.Errorf("reconcile: %w", ErrNotFound)
	}
	order := newOrder(&cart, p)
	if err := r.orders.append(order); err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	delete(r.carts, tokenKey)
	r.tombstones[tokenKey] = models.ConsumedToken{
		TokenKey:   tokenKey,
		Outcome:    models.OutcomeReconciled,
		OrderID:    &order.ID,
		ConsumedAt: p.PaidAt,
	}
	return order, nil
}

func (r *MockStagingLedger) Tombstone(_ context.Context, tokenKey string) (*models.ConsumedToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tombstones[tokenKey]
	if !ok {
		return nil, fmt.Errorf("tombstone: %w", ErrNotFound)
	}
	return &t, nil
}

func (r *MockStagingLedger) ReapExpired(_ context.Context, cutoff time.Time, limit int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reaped := 0
	now := time.Now().UTC()
	for key, cart := range r.carts {
		if reaped >= limit {
			break
		}
		if cart.CreatedAt.Before(cutoff) {
			r.remove(key, models.OutcomeExpired, now)
			reaped++
		}
	}
	return reaped, nil
}

func (r *MockStagingLedger) PruneTombstones(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for key, t := range r.tombstones {
		if t.ConsumedAt.Before(cutoff) {
			delete(r.tombstones, key)
			n++
		}
	}
	return n, nil
}

func (r *MockStagingLedger) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.carts)), nil
}

// remove deletes a cart and writes its tombstone. Callers must hold r.mu.
func (r *MockStagingLedger) remove(tokenKey string, outcome models.TokenOutcome, now time.Time) {
	if _, ok := r.carts[tokenKey]; !ok {
		return
	}
	delete(r.carts, tokenKey)
	if _, ok := r.tombstones[tokenKey]; !ok {
		r.tombstones[tokenKey] = models.ConsumedToken{TokenKey: tokenKey, Outcome: outcome, ConsumedAt: now}
	}
}
