package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable catalog entry. SKUs are unique per owner only;
// two owners may register the same sku independently.
type Product struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"-"`
	CategoryID int64           `json:"category_id"`
	SKU        string          `json:"sku"`
	Name       string          `json:"name"`
	Unit       string          `json:"unit"`
	Price      decimal.Decimal `json:"price"`
	PackFactor float64         `json:"pack_factor"`
	CreatedAt  time.Time       `json:"created_at"`
}

// MinProduct is the compact product+category row served to quote-building
// clients, carrying the category's discount defaults alongside the price.
type MinProduct struct {
	ID                     int64           `json:"id"`
	SKU                    string          `json:"sku"`
	Name                   string          `json:"name"`
	Unit                   string          `json:"unit"`
	Price                  decimal.Decimal `json:"price"`
	PackFactor             float64         `json:"pack_factor"`
	CategoryID             int64           `json:"category_id"`
	CategoryName           string          `json:"category_name"`
	AutoDiscountEnabled    bool            `json:"auto_discount_enabled"`
	DefaultDiscountPercent decimal.Decimal `json:"default_discount_percent"`
}
