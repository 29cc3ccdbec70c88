package handlers

import (
	"crypto/subtle"
	"log"

	"doner/internal/services"

	"github.com/gofiber/fiber/v2"
)

// SecretHeader carries the shared webhook secret.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// PreCheckoutRequest is the provider's pre-checkout query.
type PreCheckoutRequest struct {
	Payload string `json:"payload"`
}

// PaymentHandler receives payment events over HTTP.
type PaymentHandler struct {
	service *services.ConfirmationService
	secret  string
}

// NewPaymentHandler creates a new PaymentHandler. An empty secret disables the
// header check.
func NewPaymentHandler(service *services.ConfirmationService, secret string) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		secret:  secret,
	}
}

// RegisterRoutes registers the payment webhook routes.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router) {
	paymentRoutes := router.Group("/payments", h.requireSecret)
	paymentRoutes.Post("/confirmations", h.HandleConfirmation)
	paymentRoutes.Post("/pre-checkout", h.HandlePreCheckout)
}

func (h *PaymentHandler) requireSecret(c *fiber.Ctx) error {
	if h.secret == "" {
		return c.Next()
	}
	if subtle.ConstantTimeCompare([]byte(c.Get(SecretHeader)), []byte(h.secret)) != 1 {
		log.Printf("Rejected payment webhook from %s: bad secret", c.IP())
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid webhook secret",
		})
	}
	return c.Next()
}

// HandleConfirmation reconciles a successful payment. A 2xx tells the sender
// the confirmation is settled; 500 asks it to retry.
func (h *PaymentHandler) HandleConfirmation(c *fiber.Ctx) error {
	var confirmation services.Confirmation
	if err := c.BodyParser(&confirmation); err != nil {
		log.Printf("Error parsing payment confirmation: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	ack, err := h.service.ConfirmPayment(c.UserContext(), confirmation)
	if err != nil {
		return respondError(c, "reconciling payment", err)
	}
	return c.JSON(ack)
}

// HandlePreCheckout answers whether payment for a payload may proceed.
func (h *PaymentHandler) HandlePreCheckout(c *fiber.Ctx) error {
	var req PreCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	ok, reason, err := h.service.PreCheckout(c.UserContext(), req.Payload)
	if err != nil {
		return respondError(c, "answering pre-checkout", err)
	}
	return c.JSON(fiber.Map{
		"ok":            ok,
		"error_message": reason,
	})
}
