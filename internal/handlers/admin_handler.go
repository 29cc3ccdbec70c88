package handlers

import (
	"log"
	"net/url"

	"doner/internal/middleware"
	"doner/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CommandRequest carries raw bot command text.
type CommandRequest struct {
	Text string `json:"text"`
}

// AdminHandler exposes catalog mutations to the administrator.
type AdminHandler struct {
	service  *services.AdminService
	identity *services.IdentityService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service *services.AdminService, identity *services.IdentityService) *AdminHandler {
	return &AdminHandler{
		service:  service,
		identity: identity,
	}
}

// RegisterRoutes registers the admin routes behind identity verification.
func (h *AdminHandler) RegisterRoutes(router fiber.Router) {
	adminRoutes := router.Group("/admin", middleware.IdentityRequired(h.identity))
	adminRoutes.Post("/items", h.HandleAddItem)
	adminRoutes.Delete("/items/:name", h.HandleDeleteItem)
	adminRoutes.Post("/commands", h.HandleCommand)
}

// HandleAddItem adds a menu item.
func (h *AdminHandler) HandleAddItem(c *fiber.Ctx) error {
	var cmd services.AddItemCommand
	if err := c.BodyParser(&cmd); err != nil {
		log.Printf("Error parsing add item request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	item, err := h.service.AddItem(c.UserContext(), middleware.UserID(c), cmd)
	if err != nil {
		return respondError(c, "adding menu item", err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// HandleDeleteItem removes a menu item by name.
func (h *AdminHandler) HandleDeleteItem(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid item name",
		})
	}

	cmd := services.DeleteItemCommand{Name: name}
	if err := h.service.DeleteItem(c.UserContext(), middleware.UserID(c), cmd); err != nil {
		return respondError(c, "deleting menu item", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleCommand runs a /add or /del bot command.
func (h *AdminHandler) HandleCommand(c *fiber.Ctx) error {
	var req CommandRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	message, err := h.service.Execute(c.UserContext(), middleware.UserID(c), req.Text)
	if err != nil {
		return respondError(c, "running admin command", err)
	}
	return c.JSON(fiber.Map{
		"message": message,
	})
}
