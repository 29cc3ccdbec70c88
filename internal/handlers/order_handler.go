package handlers

import (
	"fmt"
	"strconv"

	"doner/internal/middleware"
	"doner/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for order history.
type OrderHandler struct {
	service  *services.OrderService
	identity *services.IdentityService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, identity *services.IdentityService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		identity: identity,
	}
}

// RegisterRoutes registers the order routes behind identity verification.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders", middleware.IdentityRequired(h.identity))
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
}

// HandleGetOrders lists the caller's orders, newest first. The administrator
// may narrow to one payer with ?user_id= or omit it to list everything.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	var userID int64
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("invalid user_id %q", raw),
			})
		}
		userID = id
	}

	orders, err := h.service.ListOrders(c.UserContext(), middleware.UserID(c), userID)
	if err != nil {
		return respondError(c, "listing orders", err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("invalid order id %q", c.Params("id")),
		})
	}

	order, err := h.service.GetOrder(c.UserContext(), middleware.UserID(c), uint(id))
	if err != nil {
		return respondError(c, fmt.Sprintf("getting order %d", id), err)
	}
	return c.JSON(order)
}
