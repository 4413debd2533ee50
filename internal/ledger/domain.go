// Package ledger implements the append-only stock ledger. Balances are
// never stored; they are always derived by summing signed movement
// quantities, so the movement rows remain the single source of truth.
package ledger

import "time"

// MovementType classifies a stock movement.
type MovementType string

const (
	TypeIn     MovementType = "IN"
	TypeOut    MovementType = "OUT"
	TypeAdjust MovementType = "ADJUST"
)

// Valid reports whether t is one of the known movement types.
func (t MovementType) Valid() bool {
	switch t {
	case TypeIn, TypeOut, TypeAdjust:
		return true
	}
	return false
}

// Signed applies the ledger sign convention: IN and ADJUST add stock,
// OUT subtracts it.
func (t MovementType) Signed(quantity float64) float64 {
	if t == TypeOut {
		return -quantity
	}
	return quantity
}

// Movement is one immutable ledger fact. Quantity is always a positive
// magnitude; direction comes from Type.
type Movement struct {
	ID        int64        `json:"id"`
	UserID    int64        `json:"-"`
	ProductID int64        `json:"product_id"`
	Type      MovementType `json:"type"`
	Quantity  float64      `json:"quantity"`
	Note      string       `json:"note,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// Balance is the derived stock position of one product.
type Balance struct {
	ProductID int64   `json:"product_id"`
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	Balance   float64 `json:"balance"`
}

// StatementLine is one movement inside a statement window with the
// running balance after it was applied.
type StatementLine struct {
	ID             int64        `json:"id"`
	CreatedAt      time.Time    `json:"created_at"`
	Type           MovementType `json:"type"`
	Quantity       float64      `json:"quantity"`
	SignedQuantity float64      `json:"signed_quantity"`
	Note           string       `json:"note,omitempty"`
	BalanceAfter   float64      `json:"balance_after"`
}

// Statement reconstructs a product's ledger over a date window.
type Statement struct {
	ProductID       int64           `json:"product_id"`
	FromDate        *string         `json:"from_date"`
	ToDate          *string         `json:"to_date"`
	StartingBalance float64         `json:"starting_balance"`
	EndingBalance   float64         `json:"ending_balance"`
	Lines           []StatementLine `json:"lines"`
}
