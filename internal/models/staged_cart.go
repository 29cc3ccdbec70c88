package models

import (
	"encoding/hex"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/blake2b"
)

// StagedCart is a checkout awaiting payment confirmation. It is keyed by the
// digest of the opaque token handed to the payment provider and is never
// updated in place: it is either consumed by reconciliation or reaped.
type StagedCart struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	TokenKey   string          `json:"-" gorm:"uniqueIndex;type:varchar(64);not null"`
	UserID     int64           `json:"user_id" gorm:"index"`
	Lines      []CartLine      `json:"lines" gorm:"serializer:json;type:text;not null"`
	TotalPrice decimal.Decimal `json:"total_price" gorm:"type:numeric(12,2);not null"`
	Currency   string          `json:"currency" gorm:"type:varchar(8)"`
	CreatedAt  time.Time       `json:"created_at" gorm:"index;not null"`
}

// TokenOutcome records how a staging token left the ledger.
type TokenOutcome string

const (
	OutcomeReconciled TokenOutcome = "reconciled"
	OutcomeExpired    TokenOutcome = "expired"
	OutcomeDiscarded  TokenOutcome = "discarded"
)

// ConsumedToken is a tombstone for a staging token that no longer has a
// StagedCart. It lets a late confirmation be told apart from a forged one.
type ConsumedToken struct {
	TokenKey   string       `json:"token_key" gorm:"primaryKey;type:varchar(64)"`
	Outcome    TokenOutcome `json:"outcome" gorm:"type:varchar(16);not null"`
	OrderID    *uint        `json:"order_id,omitempty"`
	ConsumedAt time.Time    `json:"consumed_at" gorm:"index;not null"`
}

// TokenKey derives the storage key for a staging token. Raw tokens are
// capabilities and are never persisted.
func TokenKey(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
