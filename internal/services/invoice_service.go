package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"doner/internal/models"
	"doner/internal/repositories"
	"doner/pkg/payments"

	"github.com/google/uuid"
)

// cleanupTimeout bounds the discard of a stage after a failed issuance.
const cleanupTimeout = 5 * time.Second

// InvoiceGateway creates payable invoice links.
type InvoiceGateway interface {
	CreateInvoiceLink(ctx context.Context, req payments.InvoiceRequest) (string, error)
}

// InvoiceConfig holds the invoice settings.
type InvoiceConfig struct {
	Title          string
	Currency       string
	GatewayTimeout time.Duration
}

// InvoiceService revalidates client carts, stages them and requests invoice links.
type InvoiceService struct {
	catalog repositories.CatalogRepository
	ledger  repositories.StagingLedger
	gateway InvoiceGateway
	cfg     InvoiceConfig
}

// NewInvoiceService creates a new InvoiceService.
func NewInvoiceService(catalog repositories.CatalogRepository, ledger repositories.StagingLedger, gateway InvoiceGateway, cfg InvoiceConfig) *InvoiceService {
	return &InvoiceService{
		catalog: catalog,
		ledger:  ledger,
		gateway: gateway,
		cfg:     cfg,
	}
}

// Issue stages the submitted cart and returns an invoice link for it.
// Submitted names and prices are ignored; every line is priced from the
// catalog. On any failure no staged cart is left behind.
func (s *InvoiceService) Issue(ctx context.Context, userID int64, submitted []models.CartLine) (string, error) {
	if len(submitted) == 0 {
		return "", ErrEmptyCart
	}

	lines := make([]models.CartLine, 0, len(submitted))
	for _, l := range submitted {
		if l.Quantity < 1 {
			return "", fmt.Errorf("%w: item %d has quantity %d", ErrInvalidQuantity, l.ItemID, l.Quantity)
		}
		item, err := s.catalog.GetByID(ctx, l.ItemID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return "", fmt.Errorf("%w: %d", ErrUnknownItem, l.ItemID)
			}
			return "", fmt.Errorf("failed to look up item %d: %w", l.ItemID, err)
		}
		lines = append(lines, models.CartLine{
			ItemID:   item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: l.Quantity,
		})
	}

	token := uuid.NewString()
	cart := &models.StagedCart{
		TokenKey:   models.TokenKey(token),
		UserID:     userID,
		Lines:      lines,
		TotalPrice: models.LinesTotal(lines),
		Currency:   s.cfg.Currency,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.ledger.Stage(ctx, cart); err != nil {
		return "", fmt.Errorf("failed to stage cart: %w", err)
	}

	gatewayCtx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
	defer cancel()

	link, err := s.gateway.CreateInvoiceLink(gatewayCtx, s.invoiceRequest(cart, token))
	if err != nil {
		log.Printf("Invoice error for staged cart %d: %v", cart.ID, err)
		s.discard(ctx, cart)
		return "", fmt.Errorf("%w: %v", ErrGateway, err)
	}

	log.Printf("Staged cart %d for user %d: %d lines, total %s %s",
		cart.ID, userID, len(lines), cart.TotalPrice.StringFixed(2), cart.Currency)
	return link, nil
}

// discard removes a stage whose invoice failed. It must run even when ctx was
// cancelled or timed out, so it uses a detached context.
func (s *InvoiceService) discard(ctx context.Context, cart *models.StagedCart) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := s.ledger.Discard(cleanupCtx, cart.TokenKey); err != nil {
		log.Printf("CRITICAL: failed to discard staged cart %d, left for the reaper: %v", cart.ID, err)
	}
}

func (s *InvoiceService) invoiceRequest(cart *models.StagedCart, token string) payments.InvoiceRequest {
	prices := make([]payments.LabeledPrice, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		label := l.Name
		if l.Quantity > 1 {
			label = fmt.Sprintf("%s (x%d)", l.Name, l.Quantity)
		}
		prices = append(prices, payments.LabeledPrice{
			Label:  label,
			Amount: MinorUnits(l.Subtotal()),
		})
	}
	return payments.InvoiceRequest{
		Title:           s.cfg.Title,
		Description:     fmt.Sprintf("Order #%d", cart.ID),
		Payload:         token,
		Currency:        cart.Currency,
		Prices:          prices,
		NeedName:        true,
		NeedPhoneNumber: true,
	}
}
