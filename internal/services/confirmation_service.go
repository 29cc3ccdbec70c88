package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"doner/internal/models"
	"doner/internal/repositories"
)

// Outcome says what a payment confirmation led to. Every outcome is
// acknowledged to the transport; only errors withhold the acknowledgment.
type Outcome string

const (
	// OutcomeReconciled: the staged cart became an order.
	OutcomeReconciled Outcome = "reconciled"
	// OutcomeDuplicate: the token was already reconciled; redelivery.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeExpired: the stage was reaped or discarded before payment arrived.
	OutcomeExpired Outcome = "expired"
	// OutcomeUnknown: the payload matches no stage and no tombstone.
	OutcomeUnknown Outcome = "unknown"
)

// Confirmation is a successful-payment event delivered by the bot transport.
type Confirmation struct {
	Payload     string `json:"payload"`
	PayerID     int64  `json:"payer_id"`
	TotalAmount int64  `json:"total_amount"`
	Currency    string `json:"currency"`
	ChargeID    string `json:"charge_id"`
}

// Ack is returned when a confirmation may be acknowledged.
type Ack struct {
	Outcome Outcome `json:"outcome"`
	OrderID uint    `json:"order_id,omitempty"`
}

// ConfirmationConfig holds reconciliation settings.
type ConfirmationConfig struct {
	ReconcileTimeout time.Duration
	StageTTL         time.Duration
}

// ConfirmationService turns confirmed payments into orders exactly once.
type ConfirmationService struct {
	ledger    repositories.StagingLedger
	publisher EventPublisher
	cfg       ConfirmationConfig
}

// NewConfirmationService creates a new ConfirmationService. publisher may be nil.
func NewConfirmationService(ledger repositories.StagingLedger, publisher EventPublisher, cfg ConfirmationConfig) *ConfirmationService {
	return &ConfirmationService{
		ledger:    ledger,
		publisher: publisher,
		cfg:       cfg,
	}
}

type orderCreatedEvent struct {
	OrderID    uint      `json:"order_id"`
	UserID     int64     `json:"user_id"`
	TotalPrice string    `json:"total_price"`
	Currency   string    `json:"currency"`
	Timestamp  time.Time `json:"timestamp"`
	Receipt    string    `json:"receipt"`
}

type paymentAnomalyEvent struct {
	Outcome     Outcome `json:"outcome"`
	TokenKey    string  `json:"token_key"`
	PayerID     int64   `json:"payer_id"`
	TotalAmount int64   `json:"total_amount"`
	Currency    string  `json:"currency"`
	ChargeID    string  `json:"charge_id"`
}

// ConfirmPayment reconciles a payment confirmation. A non-nil error means
// nothing was committed and the confirmation must not be acknowledged, so the
// transport redelivers it.
func (s *ConfirmationService) ConfirmPayment(ctx context.Context, c Confirmation) (*Ack, error) {
	if c.Payload == "" {
		return s.anomaly(OutcomeUnknown, "", c), nil
	}
	key := models.TokenKey(c.Payload)
	if c.PayerID <= 0 {
		log.Printf("Refusing confirmation without payer (charge %q), stage left in place", c.ChargeID)
		return nil, fmt.Errorf("%w: %d", ErrMissingPayer, c.PayerID)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ReconcileTimeout)
	defer cancel()

	order, err := s.ledger.Reconcile(ctx, key, repositories.Payment{
		PayerID:    c.PayerID,
		PaidAmount: c.TotalAmount,
		PaidAt:     time.Now().UTC(),
	})
	switch {
	case err == nil:
	case errors.Is(err, repositories.ErrNotFound), errors.Is(err, repositories.ErrDuplicate):
		return s.resolveMiss(ctx, key, c)
	default:
		return nil, fmt.Errorf("reconciliation failed: %w", err)
	}

	if expected := MinorUnits(order.TotalPrice); c.TotalAmount != 0 && c.TotalAmount != expected {
		log.Printf("Warning: order %d paid %d %s but staged total is %d", order.ID, c.TotalAmount, c.Currency, expected)
	}
	if c.Currency != "" && c.Currency != order.Currency {
		log.Printf("Warning: order %d paid in %s but was staged in %s", order.ID, c.Currency, order.Currency)
	}
	log.Printf("Order %d reconciled for payer %d, total %s %s", order.ID, order.UserID, order.TotalPrice.StringFixed(2), order.Currency)

	publishEvent(s.publisher, EventOrderCreated, orderCreatedEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		TotalPrice: order.TotalPrice.StringFixed(2),
		Currency:   order.Currency,
		Timestamp:  order.Timestamp,
		Receipt:    order.Receipt(),
	})
	return &Ack{Outcome: OutcomeReconciled, OrderID: order.ID}, nil
}

// resolveMiss classifies a confirmation whose token has no staged cart.
func (s *ConfirmationService) resolveMiss(ctx context.Context, key string, c Confirmation) (*Ack, error) {
	tombstone, err := s.ledger.Tombstone(ctx, key)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return s.anomaly(OutcomeUnknown, key, c), nil
		}
		return nil, fmt.Errorf("tombstone lookup failed: %w", err)
	}

	if tombstone.Outcome == models.OutcomeReconciled {
		ack := &Ack{Outcome: OutcomeDuplicate}
		if tombstone.OrderID != nil {
			ack.OrderID = *tombstone.OrderID
		}
		log.Printf("Duplicate confirmation for order %d from payer %d, acknowledged", ack.OrderID, c.PayerID)
		return ack, nil
	}
	return s.anomaly(OutcomeExpired, key, c), nil
}

// anomaly logs and announces a confirmation that cannot be reconciled. The
// payment was taken, so it needs a manual refund.
func (s *ConfirmationService) anomaly(outcome Outcome, key string, c Confirmation) *Ack {
	log.Printf("RECONCILIATION ANOMALY (%s): payer %d paid %d %s (charge %q) for a token with no staged cart",
		outcome, c.PayerID, c.TotalAmount, c.Currency, c.ChargeID)
	publishEvent(s.publisher, EventPaymentAnomaly, paymentAnomalyEvent{
		Outcome:     outcome,
		TokenKey:    key,
		PayerID:     c.PayerID,
		TotalAmount: c.TotalAmount,
		Currency:    c.Currency,
		ChargeID:    c.ChargeID,
	})
	return &Ack{Outcome: outcome}
}

// PreCheckout answers the provider's pre-checkout query: payment may proceed
// only while a live staged cart exists for the payload.
func (s *ConfirmationService) PreCheckout(ctx context.Context, payload string) (bool, string, error) {
	if payload == "" {
		return false, "Invalid order payload.", nil
	}
	cart, err := s.ledger.Get(ctx, models.TokenKey(payload))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, "This order has expired. Please place it again.", nil
		}
		return false, "", err
	}
	if time.Since(cart.CreatedAt) > s.cfg.StageTTL {
		return false, "This order has expired. Please place it again.", nil
	}
	return true, "", nil
}
