package handlers

import (
	"errors"
	"log"

	"doner/internal/services"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrDuplicateName):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrItemNotFound), errors.Is(err, services.ErrOrderNotFound):
		return fiber.StatusNotFound
	case services.IsClientError(err):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrGateway):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err as a JSON error body. Client and gateway errors
// carry their message; storage errors are logged and reported generically.
func respondError(c *fiber.Ctx, context string, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		log.Printf("Error %s: %v", context, err)
		return c.Status(status).JSON(fiber.Map{
			"error": "internal error, please try again",
		})
	}
	if status == fiber.StatusBadGateway {
		log.Printf("Gateway error %s: %v", context, err)
		return c.Status(status).JSON(fiber.Map{
			"error": "payment provider is unavailable, please try again",
		})
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
