// Package payments issues invoice links through the Telegram Bot API payment
// provider integration.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker/v2"
)

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("payment provider unavailable")

// LabeledPrice is one invoice position, amount in the smallest currency unit.
type LabeledPrice struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}

// InvoiceRequest describes the invoice to create.
type InvoiceRequest struct {
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Payload         string         `json:"payload"`
	ProviderToken   string         `json:"provider_token,omitempty"`
	Currency        string         `json:"currency"`
	Prices          []LabeledPrice `json:"prices"`
	NeedName        bool           `json:"need_name"`
	NeedPhoneNumber bool           `json:"need_phone_number"`
	IsFlexible      bool           `json:"is_flexible"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Result      string `json:"result"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// Config holds gateway connection details.
type Config struct {
	BaseURL       string
	BotToken      string
	ProviderToken string
	Timeout       time.Duration
}

// Client calls createInvoiceLink on the Bot API.
type Client struct {
	cfg     Config
	breaker *gobreaker.CircuitBreaker[string]
}

// NewClient creates a new gateway client. Five consecutive failures open the
// breaker for thirty seconds.
func NewClient(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "payments",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("payments: circuit breaker %s changed from %s to %s", name, from, to)
		},
	})
	return &Client{cfg: cfg, breaker: breaker}
}

// CreateInvoiceLink requests a payable invoice link. The call gives up when
// ctx is done or the configured timeout elapses, whichever comes first.
func (c *Client) CreateInvoiceLink(ctx context.Context, req InvoiceRequest) (string, error) {
	if req.ProviderToken == "" {
		req.ProviderToken = c.cfg.ProviderToken
	}
	link, err := c.breaker.Execute(func() (string, error) {
		return c.call(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return link, err
}

type result struct {
	link string
	err  error
}

func (c *Client) call(ctx context.Context, req InvoiceRequest) (string, error) {
	url := fmt.Sprintf("%s/bot%s/createInvoiceLink", c.cfg.BaseURL, c.cfg.BotToken)

	done := make(chan result, 1)
	go func() {
		agent := fiber.Post(url).JSON(req)
		if c.cfg.Timeout > 0 {
			agent.Timeout(c.cfg.Timeout)
		}
		code, body, errs := agent.Bytes()
		if len(errs) > 0 {
			done <- result{err: fmt.Errorf("createInvoiceLink request failed: %w", errors.Join(errs...))}
			return
		}
		done <- parseResponse(code, body)
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("createInvoiceLink: %w", ctx.Err())
	case r := <-done:
		return r.link, r.err
	}
}

func parseResponse(code int, body []byte) result {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return result{err: fmt.Errorf("createInvoiceLink returned status %d with undecodable body: %w", code, err)}
	}
	if code < 200 || code >= 300 || !resp.OK {
		return result{err: fmt.Errorf("createInvoiceLink rejected (status %d): %s", code, resp.Description)}
	}
	if resp.Result == "" {
		return result{err: errors.New("createInvoiceLink returned an empty link")}
	}
	return result{link: resp.Result}
}
