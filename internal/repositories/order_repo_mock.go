package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"doner/internal/models"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[uint]models.Order
	nextID uint
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[uint]models.Order),
		nextID: 1,
	}
}

// GetAll returns all orders, newest first.
func (r *MockOrderRepository) GetAll(_ context.Context) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filter(func(models.Order) bool { return true }), nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(_ context.Context, id uint) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	return &order, nil
}

// GetByUser returns the orders of a user, newest first.
func (r *MockOrderRepository) GetByUser(_ context.Context, userID int64) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filter(func(o models.Order) bool { return o.UserID == userID }), nil
}

func (r *MockOrderRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.orders)), nil
}

// append stores a new order. Callers must hold r.mu.
func (r *MockOrderRepository) append(order *models.Order) error {
	for _, o := range r.orders {
		if o.TokenKey == order.TokenKey {
			return fmt.Errorf("order for token: %w", ErrDuplicate)
		}
	}
	order.ID = r.nextID
	r.nextID++
	if order.Timestamp.IsZero() {
		order.Timestamp = time.Now().UTC()
	}
	r.orders[order.ID] = *order
	return nil
}

func (r *MockOrderRepository) filter(keep func(models.Order) bool) []models.Order {
	list := make([]models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if keep(o) {
			list = append(list, o)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list
}
