package handlers

import (
	"doner/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CatalogHandler handles HTTP requests for the menu.
type CatalogHandler struct {
	service *services.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(service *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// RegisterRoutes registers the catalog routes.
func (h *CatalogHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/catalog", h.HandleGetCatalog)
	router.Get("/categories", h.HandleGetCategories)
}

// HandleGetCatalog lists every menu item.
func (h *CatalogHandler) HandleGetCatalog(c *fiber.Ctx) error {
	items, err := h.service.ListItems(c.UserContext())
	if err != nil {
		return respondError(c, "listing catalog", err)
	}
	return c.JSON(items)
}

// HandleGetCategories lists the menu categories.
func (h *CatalogHandler) HandleGetCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories(c.UserContext())
	if err != nil {
		return respondError(c, "listing categories", err)
	}
	return c.JSON(categories)
}
