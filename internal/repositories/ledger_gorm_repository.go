package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"doner/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMStagingLedger is a GORM implementation of StagingLedger.
//
// Mutual exclusion between concurrent consumers of the same token comes from
// the DELETE of the staged row: only the transaction whose delete affects
// exactly one row may write the order. On sqlite the connection must be opened
// with _txlock=immediate so writers serialize at BEGIN; on postgres the second
// DELETE blocks on the row lock and then affects nothing.
type GORMStagingLedger struct {
	db *gorm.DB
}

// NewGORMStagingLedger creates a new instance of GORMStagingLedger.
func NewGORMStagingLedger(db *gorm.DB) *GORMStagingLedger {
	return &GORMStagingLedger{db: db}
}

// Stage persists a new staged cart.
func (r *GORMStagingLedger) Stage(ctx context.Context, cart *models.StagedCart) error {
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("staged cart: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to stage cart: %w", err)
	}
	return nil
}

// Get returns the staged cart for tokenKey.
func (r *GORMStagingLedger) Get(ctx context.Context, tokenKey string) (*models.StagedCart, error) {
	var cart models.StagedCart
	if err := r.db.WithContext(ctx).First(&cart, "token_key = ?", tokenKey).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("staged cart: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get staged cart: %w", err)
	}
	return &cart, nil
}

// Discard removes a staged cart and tombstones its token as discarded.
func (r *GORMStagingLedger) Discard(ctx context.Context, tokenKey string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := discard(tx, tokenKey, models.OutcomeDiscarded, nil, time.Now().UTC())
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to discard staged cart: %w", err)
	}
	return nil
}

// Reconcile deletes the staged cart and appends its order in one transaction.
func (r *GORMStagingLedger) Reconcile(ctx context.Context, tokenKey string, p Payment) (*models.Order, error) {
	var order *models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart models.StagedCart
		if err := tx.First(&cart, "token_key = ?", tokenKey).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load staged cart: %w", err)
		}

		res := tx.Where("token_key = ?", tokenKey).Delete(&models.StagedCart{})
		if res.Error != nil {
			return fmt.Errorf("delete staged cart: %w", res.Error)
		}
		if res.RowsAffected != 1 {
			// Another transaction consumed the token first.
			return ErrNotFound
		}

		order = newOrder(&cart, p)
		if err := tx.Create(order).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("order for token: %w", ErrDuplicate)
			}
			return fmt.Errorf("insert order: %w", err)
		}

		tombstone := models.ConsumedToken{
			TokenKey:   tokenKey,
			Outcome:    models.OutcomeReconciled,
			OrderID:    &order.ID,
			ConsumedAt: p.PaidAt,
		}
		if err := tx.Create(&tombstone).Error; err != nil {
			return fmt.Errorf("insert tombstone: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	return order, nil
}

// Tombstone returns the consumed-token record for tokenKey.
func (r *GORMStagingLedger) Tombstone(ctx context.Context, tokenKey string) (*models.ConsumedToken, error) {
	var t models.ConsumedToken
	if err := r.db.WithContext(ctx).First(&t, "token_key = ?", tokenKey).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tombstone: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get tombstone: %w", err)
	}
	return &t, nil
}

// ReapExpired discards up to limit staged carts created before cutoff.
func (r *GORMStagingLedger) ReapExpired(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	reaped := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var keys []string
		err := tx.Model(&models.StagedCart{}).
			Where("created_at < ?", cutoff).
			Order("created_at").
			Limit(limit).
			Pluck("token_key", &keys).Error
		if err != nil {
			return fmt.Errorf("select expired: %w", err)
		}

		now := time.Now().UTC()
		for _, key := range keys {
			ok, err := discard(tx, key, models.OutcomeExpired, &cutoff, now)
			if err != nil {
				return err
			}
			if ok {
				reaped++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to reap staged carts: %w", err)
	}
	return reaped, nil
}

// PruneTombstones removes tombstones older than cutoff.
func (r *GORMStagingLedger) PruneTombstones(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("consumed_at < ?", cutoff).Delete(&models.ConsumedToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to prune tombstones: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Count returns the number of live staged carts.
func (r *GORMStagingLedger) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.StagedCart{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count staged carts: %w", err)
	}
	return n, nil
}

// discard deletes one staged cart and records its tombstone. When olderThan is
// set, the row is only removed if it is still older than that instant.
func discard(tx *gorm.DB, tokenKey string, outcome models.TokenOutcome, olderThan *time.Time, now time.Time) (bool, error) {
	q := tx.Where("token_key = ?", tokenKey)
	if olderThan != nil {
		q = q.Where("created_at < ?", *olderThan)
	}
	res := q.Delete(&models.StagedCart{})
	if res.Error != nil {
		return false, fmt.Errorf("delete staged cart: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	tombstone := models.ConsumedToken{TokenKey: tokenKey, Outcome: outcome, ConsumedAt: now}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&tombstone).Error; err != nil {
		return false, fmt.Errorf("insert tombstone: %w", err)
	}
	return true, nil
}
