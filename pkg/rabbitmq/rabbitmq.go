package rabbitmq

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/streadway/amqp"
)

const consumerTag = "doner-payments"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	cfg     Config

	// amqp channels are not meant for concurrent publishers.
	mu sync.Mutex
	wg sync.WaitGroup
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL            string
	PaymentQueue   string
	EventsExchange string
}

// NewClient creates a new RabbitMQ client.
// It connects to RabbitMQ, declares the payment confirmation queue and the
// topic exchange order events are published to.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close() // Close connection if channel creation fails
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		cfg.PaymentQueue, // name
		true,             // durable (persists messages across broker restarts)
		false,            // delete when unused
		false,            // exclusive
		false,            // no-wait
		nil,              // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s: %w", cfg.PaymentQueue, err)
	}

	err = ch.ExchangeDeclare(
		cfg.EventsExchange, // name
		"topic",            // kind
		true,               // durable
		false,              // auto-deleted
		false,              // internal
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.EventsExchange, err)
	}

	log.Printf("RabbitMQ client connected, queue %s and exchange %s declared.", cfg.PaymentQueue, cfg.EventsExchange)

	return &Client{
		conn:    conn,
		channel: ch,
		cfg:     cfg,
	}, nil
}

// Close waits for in-flight deliveries and closes the channel and connection.
func (c *Client) Close() error {
	c.wg.Wait()

	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Publish sends a persistent JSON message. An empty exchange means the
// configured events exchange.
func (c *Client) Publish(exchange, routingKey string, body []byte) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}
	if exchange == "" {
		exchange = c.cfg.EventsExchange
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.channel.Publish(
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	return nil
}

// ConsumePaymentConfirmations starts workers goroutines that pass deliveries
// from the payment queue to messageHandler. A delivery is acked only when the
// handler returns nil; otherwise it is nacked and requeued so the broker
// redelivers it. Consumption stops when ctx is done.
func (c *Client) ConsumePaymentConfirmations(ctx context.Context, workers int, messageHandler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}
	if workers < 1 {
		workers = 1
	}

	// Never hold more unacked deliveries than there are workers.
	if err := c.channel.Qos(workers, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}

	msgs, err := c.channel.Consume(
		c.cfg.PaymentQueue, // queue
		consumerTag,        // consumer tag
		false,              // auto-ack: acked manually after reconciliation commits
		false,              // exclusive
		false,              // no-local
		false,              // no-wait
		nil,                // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Printf(" [*] Waiting for payment confirmations on %s with %d workers", c.cfg.PaymentQueue, workers)

	for i := 0; i < workers; i++ {
		c.wg.Add(1)
		go func(id int) {
			defer c.wg.Done()
			for msg := range msgs {
				settle(id, msg, messageHandler)
			}
		}(i)
	}

	go func() {
		<-ctx.Done()
		if err := c.channel.Cancel(consumerTag, false); err != nil {
			log.Printf("Error cancelling consumer: %v", err)
		}
	}()

	return nil
}

// settle runs the handler for one delivery and acks or requeues it.
func settle(worker int, msg amqp.Delivery, messageHandler func(msg amqp.Delivery) error) {
	if err := messageHandler(msg); err != nil {
		log.Printf("worker %d: error processing message %d: %v", worker, msg.DeliveryTag, err)
		if nackErr := msg.Nack(false, true); nackErr != nil {
			log.Printf("worker %d: error nacking message %d: %v", worker, msg.DeliveryTag, nackErr)
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		log.Printf("worker %d: error acking message %d: %v", worker, msg.DeliveryTag, ackErr)
	}
}
