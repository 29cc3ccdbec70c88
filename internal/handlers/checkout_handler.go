package handlers

import (
	"fmt"
	"log"

	"doner/internal/models"
	"doner/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CheckoutLine is one position of a submitted cart.
type CheckoutLine struct {
	ItemID   uint `json:"item_id" validate:"required"`
	Quantity int  `json:"quantity"`
}

// CheckoutRequest is the cart submitted by the web app.
type CheckoutRequest struct {
	UserID int64          `json:"user_id" validate:"required"`
	Lines  []CheckoutLine `json:"lines" validate:"dive"`
}

// CheckoutHandler turns submitted carts into invoice links.
type CheckoutHandler struct {
	service  *services.InvoiceService
	validate *validator.Validate
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(service *services.InvoiceService) *CheckoutHandler {
	return &CheckoutHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the checkout route.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/checkout", h.HandleCheckout)
}

// HandleCheckout stages the cart and responds with the invoice link.
func (h *CheckoutHandler) HandleCheckout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing checkout request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Validation failed",
			"fields": validationMessages(err),
		})
	}

	lines := make([]models.CartLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, models.CartLine{ItemID: l.ItemID, Quantity: l.Quantity})
	}

	link, err := h.service.Issue(c.UserContext(), req.UserID, lines)
	if err != nil {
		return respondError(c, fmt.Sprintf("creating invoice for user %d", req.UserID), err)
	}
	return c.JSON(fiber.Map{
		"invoice_link": link,
	})
}

// validationMessages flattens validator errors into field → message.
func validationMessages(err error) map[string]string {
	messages := make(map[string]string)
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		messages["_"] = err.Error()
		return messages
	}
	for _, e := range validationErrors {
		messages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return messages
}
