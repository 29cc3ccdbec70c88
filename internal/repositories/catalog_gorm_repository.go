package repositories

import (
	"context"
	"errors"
	"fmt"

	"doner/internal/models"

	"gorm.io/gorm"
)

// GORMCatalogRepository is a GORM implementation of CatalogRepository.
type GORMCatalogRepository struct {
	db *gorm.DB
}

// NewGORMCatalogRepository creates a new instance of GORMCatalogRepository.
func NewGORMCatalogRepository(db *gorm.DB) *GORMCatalogRepository {
	return &GORMCatalogRepository{
		db: db,
	}
}

// GetAll retrieves all catalog items ordered by category and name.
func (r *GORMCatalogRepository) GetAll(ctx context.Context) ([]models.CatalogItem, error) {
	var items []models.CatalogItem
	if err := r.db.WithContext(ctx).Order("category, name").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to get catalog items: %w", err)
	}
	return items, nil
}

// GetByID retrieves a single catalog item by its ID.
func (r *GORMCatalogRepository) GetByID(ctx context.Context, id uint) (*models.CatalogItem, error) {
	var item models.CatalogItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("catalog item %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get catalog item %d: %w", id, err)
	}
	return &item, nil
}

// GetByName retrieves a single catalog item by its unique name.
func (r *GORMCatalogRepository) GetByName(ctx context.Context, name string) (*models.CatalogItem, error) {
	var item models.CatalogItem
	if err := r.db.WithContext(ctx).First(&item, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("catalog item %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get catalog item %q: %w", name, err)
	}
	return &item, nil
}

// Categories returns the distinct non-empty categories present in the catalog.
func (r *GORMCatalogRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&models.CatalogItem{}).
		Where("category <> ''").
		Distinct("category").
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

// Create inserts a new catalog item. A name collision yields ErrDuplicate.
func (r *GORMCatalogRepository) Create(ctx context.Context, item *models.CatalogItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("catalog item %q: %w", item.Name, ErrDuplicate)
		}
		return fmt.Errorf("failed to create catalog item: %w", err)
	}
	return nil
}

// DeleteByName removes the catalog item with the given name.
func (r *GORMCatalogRepository) DeleteByName(ctx context.Context, name string) error {
	res := r.db.WithContext(ctx).Where("name = ?", name).Delete(&models.CatalogItem{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete catalog item %q: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("catalog item %q: %w", name, ErrNotFound)
	}
	return nil
}
