package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"doner/internal/models"
)

// MockCatalogRepository is an in-memory implementation of CatalogRepository.
type MockCatalogRepository struct {
	items  map[uint]models.CatalogItem
	nextID uint
	mu     sync.RWMutex
}

// NewMockCatalogRepository creates a new instance of MockCatalogRepository.
func NewMockCatalogRepository() *MockCatalogRepository {
	return &MockCatalogRepository{
		items:  make(map[uint]models.CatalogItem),
		nextID: 1,
	}
}

// GetAll returns all catalog items ordered by category and name.
func (r *MockCatalogRepository) GetAll(_ context.Context) ([]models.CatalogItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.CatalogItem, 0, len(r.items))
	for _, item := range r.items {
		list = append(list, item)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Category != list[j].Category {
			return list[i].Category < list[j].Category
		}
		return list[i].Name < list[j].Name
	})
	return list, nil
}

// GetByID returns a catalog item by its ID.
func (r *MockCatalogRepository) GetByID(_ context.Context, id uint) (*models.CatalogItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("catalog item %d: %w", id, ErrNotFound)
	}
	return &item, nil
}

// GetByName returns a catalog item by its name.
func (r *MockCatalogRepository) GetByName(_ context.Context, name string) (*models.CatalogItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.Name == name {
			return &item, nil
		}
	}
	return nil, fmt.Errorf("catalog item %q: %w", name, ErrNotFound)
}

// Categories returns the distinct non-empty categories, sorted.
func (r *MockCatalogRepository) Categories(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var categories []string
	for _, item := range r.items {
		if item.Category == "" {
			continue
		}
		if _, ok := seen[item.Category]; ok {
			continue
		}
		seen[item.Category] = struct{}{}
		categories = append(categories, item.Category)
	}
	sort.Strings(categories)
	return categories, nil
}

// Create adds a new catalog item, enforcing name uniqueness.
func (r *MockCatalogRepository) Create(_ context.Context, item *models.CatalogItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Name == item.Name {
			return fmt.Errorf("catalog item %q: %w", item.Name, ErrDuplicate)
		}
	}
	if item.ID == 0 {
		item.ID = r.nextID
	}
	if item.ID >= r.nextID {
		r.nextID = item.ID + 1
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	r.items[item.ID] = *item
	return nil
}

// Put replaces the stored item with the same ID.
func (r *MockCatalogRepository) Put(item models.CatalogItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
}

// DeleteByName removes a catalog item by its name.
func (r *MockCatalogRepository) DeleteByName(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, item := range r.items {
		if item.Name == name {
			delete(r.items, id)
			return nil
		}
	}
	return fmt.Errorf("catalog item %q: %w", name, ErrNotFound)
}
