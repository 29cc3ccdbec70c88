package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is a single cart position. Name and Price are snapshots taken from
// the catalog when the cart was staged.
type CartLine struct {
	ItemID   uint            `json:"item_id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Subtotal returns price × quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LinesTotal sums the subtotals of lines.
func LinesTotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Order is a finalized, paid order. Orders are append-only.
type Order struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	UserID     int64           `json:"user_id" gorm:"index;not null"`
	TokenKey   string          `json:"-" gorm:"uniqueIndex;type:varchar(64);not null"`
	Lines      []CartLine      `json:"lines" gorm:"serializer:json;type:text;not null"`
	TotalPrice decimal.Decimal `json:"total_price" gorm:"type:numeric(12,2);not null"`
	Currency   string          `json:"currency" gorm:"type:varchar(8)"`
	PaidAmount int64           `json:"paid_amount"` // minor units reported by the payment provider
	Timestamp  time.Time       `json:"timestamp" gorm:"index;not null"`
}

// CurrencySymbol maps a currency code to the symbol printed on receipts.
func CurrencySymbol(currency string) string {
	if currency == "BYN" {
		return "Br"
	}
	return currency
}

// Receipt renders the human-readable receipt sent back to the payer.
func (o *Order) Receipt() string {
	symbol := CurrencySymbol(o.Currency)
	var b strings.Builder
	b.WriteString("Payment Successful!\n\nYour Receipt:\n")
	for _, l := range o.Lines {
		fmt.Fprintf(&b, "• %s x%d: %s %s\n", l.Name, l.Quantity, l.Subtotal().StringFixed(2), symbol)
	}
	fmt.Fprintf(&b, "\nTotal Paid: %s %s", o.TotalPrice.StringFixed(2), symbol)
	b.WriteString("\n\nThe kitchen is preparing your order!")
	return b.String()
}
