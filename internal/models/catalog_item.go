package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CatalogItem represents a purchasable menu item.
type CatalogItem struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"uniqueIndex;type:varchar(100);not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null"`
	Description string          `json:"description" gorm:"type:varchar(500)"`
	Category    string          `json:"category" gorm:"index;type:varchar(64)"`
	Emoji       string          `json:"emoji" gorm:"type:varchar(16)"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
