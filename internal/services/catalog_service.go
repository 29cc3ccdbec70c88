package services

import (
	"context"

	"doner/internal/models"
	"doner/internal/repositories"
)

// DefaultCategories is listed when the catalog has no categorized items.
var DefaultCategories = []string{"Classic", "Cheese", "Spicy", "Vegan", "Drinks"}

// CatalogService handles read access to the menu.
type CatalogService struct {
	repo repositories.CatalogRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(repo repositories.CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

// ListItems returns every catalog item.
func (s *CatalogService) ListItems(ctx context.Context) ([]models.CatalogItem, error) {
	return s.repo.GetAll(ctx)
}

// ListCategories returns the distinct categories in use.
func (s *CatalogService) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return append([]string(nil), DefaultCategories...), nil
	}
	return categories, nil
}
