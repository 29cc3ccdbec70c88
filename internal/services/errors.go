package services

import "errors"

// Client errors: surfaced to the caller with their message, never retried.
var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrUnknownItem     = errors.New("unknown catalog item")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrDuplicateName   = errors.New("menu item already exists")
	ErrItemNotFound    = errors.New("menu item not found")
	ErrUnauthorized    = errors.New("administrator permissions required")
	ErrInvalidPrice    = errors.New("invalid price")
	ErrInvalidName     = errors.New("invalid menu item name")
	ErrInvalidCommand  = errors.New("invalid command")
	ErrOrderNotFound   = errors.New("order not found")
	ErrMissingPayer    = errors.New("confirmation has no payer")
)

// ErrGateway means the payment provider could not issue an invoice. Nothing
// stays staged, so the checkout can be resubmitted.
var ErrGateway = errors.New("payment provider error")

// IsClientError reports whether err is caused by the request itself.
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrEmptyCart, ErrUnknownItem, ErrInvalidQuantity, ErrDuplicateName, ErrItemNotFound,
		ErrUnauthorized, ErrInvalidPrice, ErrInvalidName, ErrInvalidCommand, ErrOrderNotFound,
		ErrMissingPayer,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
