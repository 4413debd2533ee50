package categories

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products and optionally carries a default discount that
// is applied when its products are quoted.
type Category struct {
	ID                     int64           `json:"id"`
	UserID                 int64           `json:"-"`
	Name                   string          `json:"name"`
	AutoDiscountEnabled    bool            `json:"auto_discount_enabled"`
	DefaultDiscountPercent decimal.Decimal `json:"default_discount_percent"`
	CreatedAt              time.Time       `json:"created_at"`
}
