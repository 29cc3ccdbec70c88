package services

import (
	"encoding/json"
	"log"
)

// Routing keys of the events published after commits.
const (
	EventOrderCreated   = "order.created"
	EventPaymentAnomaly = "payment.anomaly"
)

// EventPublisher publishes a message to a broker exchange. An empty exchange
// selects the publisher's default.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// publishEvent is best effort: the state change it announces is already
// committed, so failures are only logged.
func publishEvent(pub EventPublisher, routingKey string, event interface{}) {
	if pub == nil {
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := pub.Publish("", routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}
