package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateInvoiceLink_Success(t *testing.T) {
	var got InvoiceRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTEST/createInvoiceLink", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"result":"https://t.me/$invoice"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, BotToken: "TEST", ProviderToken: "prov", Timeout: time.Second})
	link, err := c.CreateInvoiceLink(context.Background(), InvoiceRequest{
		Title:    "Order",
		Payload:  "token-1",
		Currency: "USD",
		Prices:   []LabeledPrice{{Label: "Ayran", Amount: 4000}},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://t.me/$invoice", link)
	assert.Equal(t, "prov", got.ProviderToken)
	assert.Equal(t, "token-1", got.Payload)
	assert.Equal(t, int64(4000), got.Prices[0].Amount)
}

func TestCreateInvoiceLink_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: CURRENCY_INVALID"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, BotToken: "TEST", Timeout: time.Second})
	_, err := c.CreateInvoiceLink(context.Background(), InvoiceRequest{Payload: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CURRENCY_INVALID")
}

func TestCreateInvoiceLink_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(Config{BaseURL: srv.URL, BotToken: "TEST", Timeout: 5 * time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.CreateInvoiceLink(ctx, InvoiceRequest{Payload: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCreateInvoiceLink_BreakerOpens(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"ok":false,"description":"boom"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, BotToken: "TEST", Timeout: time.Second})
	for i := 0; i < 5; i++ {
		_, err := c.CreateInvoiceLink(context.Background(), InvoiceRequest{Payload: "x"})
		require.Error(t, err)
	}

	_, err := c.CreateInvoiceLink(context.Background(), InvoiceRequest{Payload: "x"})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}
