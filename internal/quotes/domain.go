// Package quotes implements price-quote documents with derived totals.
// Totals are owned by the engine: every item mutation recomputes its
// line amounts and the parent quote's totals in the same transaction.
package quotes

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteStatus is the lifecycle label of a quote. Transitions are free;
// the label carries no workflow enforcement.
type QuoteStatus string

const (
	StatusDraft     QuoteStatus = "DRAFT"
	StatusSent      QuoteStatus = "SENT"
	StatusApproved  QuoteStatus = "APPROVED"
	StatusRejected  QuoteStatus = "REJECTED"
	StatusCancelled QuoteStatus = "CANCELLED"
)

// Valid reports whether s is one of the known statuses.
func (s QuoteStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Quote is a price-quote document. Totals are always derived from its
// items and never settable by callers.
type Quote struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"-"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email,omitempty"`
	IssuedAt      time.Time       `json:"issued_at"`
	ValidUntil    time.Time       `json:"valid_until"`
	Notes         string          `json:"notes,omitempty"`
	Status        QuoteStatus     `json:"status"`
	TotalGross    decimal.Decimal `json:"total_gross"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	TotalNet      decimal.Decimal `json:"total_net"`
	CreatedAt     time.Time       `json:"created_at"`
}

// QuoteItem is one line of a quote. Sku, name and unit are snapshots
// taken when the item was added, decoupled from later product edits.
type QuoteItem struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"-"`
	QuoteID         int64           `json:"quote_id"`
	ProductID       int64           `json:"product_id"`
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	Unit            string          `json:"unit"`
	Quantity        float64         `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	GrossTotal      decimal.Decimal `json:"gross_total"`
	DiscountTotal   decimal.Decimal `json:"discount_total"`
	NetTotal        decimal.Decimal `json:"net_total"`
	CreatedAt       time.Time       `json:"created_at"`
}

// QuoteWithItems is the detail view returned by Get.
type QuoteWithItems struct {
	Quote Quote       `json:"quote"`
	Items []QuoteItem `json:"items"`
}
