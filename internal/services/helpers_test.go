package services_test

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"testing"

	"doner/internal/models"
	"doner/internal/repositories"
	"doner/pkg/payments"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// MockInvoiceGateway is a mock implementation of services.InvoiceGateway
type MockInvoiceGateway struct {
	mock.Mock
}

func (m *MockInvoiceGateway) CreateInvoiceLink(ctx context.Context, req payments.InvoiceRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// stubGateway records every invoice request and answers with a fixed link or err.
type stubGateway struct {
	mu       sync.Mutex
	requests []payments.InvoiceRequest
	err      error
}

func (g *stubGateway) CreateInvoiceLink(_ context.Context, req payments.InvoiceRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return "", g.err
	}
	return fmt.Sprintf("https://t.me/$invoice-%d", len(g.requests)), nil
}

func (g *stubGateway) lastPayload() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.requests) == 0 {
		return ""
	}
	return g.requests[len(g.requests)-1].Payload
}

type publishedEvent struct {
	exchange   string
	routingKey string
	body       []byte
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(exchange, routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{exchange: exchange, routingKey: routingKey, body: body})
	return nil
}

func (p *recordingPublisher) byKey(routingKey string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.routingKey == routingKey {
			out = append(out, e)
		}
	}
	return out
}

// addItem inserts a catalog item and returns its assigned ID.
func addItem(t *testing.T, repo repositories.CatalogRepository, name, price string) uint {
	t.Helper()
	item := &models.CatalogItem{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Category: "Classic",
		Emoji:    "🌯",
	}
	require.NoError(t, repo.Create(context.Background(), item))
	return item.ID
}
