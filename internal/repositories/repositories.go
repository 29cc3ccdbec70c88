package repositories

import (
	"context"
	"errors"
	"time"

	"doner/internal/models"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// CatalogRepository defines the interface for catalog data access.
type CatalogRepository interface {
	GetAll(ctx context.Context) ([]models.CatalogItem, error)
	GetByID(ctx context.Context, id uint) (*models.CatalogItem, error)
	GetByName(ctx context.Context, name string) (*models.CatalogItem, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, item *models.CatalogItem) error
	DeleteByName(ctx context.Context, name string) error
}

// StagingLedger defines the interface for pending checkouts. Every method that
// removes a StagedCart also writes its ConsumedToken in the same transaction.
type StagingLedger interface {
	Stage(ctx context.Context, cart *models.StagedCart) error
	Get(ctx context.Context, tokenKey string) (*models.StagedCart, error)
	// Discard removes a stage whose invoice could not be issued.
	Discard(ctx context.Context, tokenKey string) error
	// Reconcile atomically deletes the stage and appends the order built from
	// it. Returns ErrNotFound if no stage exists for tokenKey.
	Reconcile(ctx context.Context, tokenKey string, payment Payment) (*models.Order, error)
	Tombstone(ctx context.Context, tokenKey string) (*models.ConsumedToken, error)
	// ReapExpired discards up to limit stages created before cutoff.
	ReapExpired(ctx context.Context, cutoff time.Time, limit int) (int, error)
	PruneTombstones(ctx context.Context, cutoff time.Time) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// Payment carries the confirmed payer details used to materialize an order.
type Payment struct {
	PayerID    int64
	PaidAmount int64
	PaidAt     time.Time
}

// OrderRepository defines read access to finalized orders. Orders are only
// ever written by StagingLedger.Reconcile.
type OrderRepository interface {
	GetAll(ctx context.Context) ([]models.Order, error)
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	GetByUser(ctx context.Context, userID int64) ([]models.Order, error)
	Count(ctx context.Context) (int64, error)
}

// newOrder builds the order materialized from a staged cart.
func newOrder(cart *models.StagedCart, p Payment) *models.Order {
	return &models.Order{
		UserID:     p.PayerID,
		TokenKey:   cart.TokenKey,
		Lines:      cart.Lines,
		TotalPrice: cart.TotalPrice,
		Currency:   cart.Currency,
		PaidAmount: p.PaidAmount,
		Timestamp:  p.PaidAt,
	}
}
