package handlers

import (
	"context"
	"encoding/json"
	"log"

	"doner/internal/services"

	"github.com/streadway/amqp"
)

// PaymentConsumer settles payment confirmations delivered over AMQP.
type PaymentConsumer struct {
	service *services.ConfirmationService
	ctx     context.Context
}

// NewPaymentConsumer creates a new PaymentConsumer. ctx bounds every
// reconciliation it runs.
func NewPaymentConsumer(ctx context.Context, service *services.ConfirmationService) *PaymentConsumer {
	return &PaymentConsumer{
		service: service,
		ctx:     ctx,
	}
}

// HandleDelivery reconciles one delivery. A nil return acks it; an error
// leaves it for redelivery. Undecodable or invalid confirmations can never
// succeed, so they are logged and acked.
func (p *PaymentConsumer) HandleDelivery(msg amqp.Delivery) error {
	var confirmation services.Confirmation
	if err := json.Unmarshal(msg.Body, &confirmation); err != nil {
		log.Printf("Dropping undecodable payment confirmation (Tag: %d): %v", msg.DeliveryTag, err)
		return nil
	}

	ack, err := p.service.ConfirmPayment(p.ctx, confirmation)
	if services.IsClientError(err) {
		log.Printf("Dropping invalid payment confirmation (Tag: %d): %v", msg.DeliveryTag, err)
		return nil
	}
	if err != nil {
		log.Printf("Payment confirmation (Tag: %d) not settled, will be redelivered: %v", msg.DeliveryTag, err)
		return err
	}
	log.Printf("Payment confirmation (Tag: %d) settled: %s", msg.DeliveryTag, ack.Outcome)
	return nil
}
