package quotes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carlosryandeveloper/GenericERP/internal/platform/httpx"
	"github.com/carlosryandeveloper/GenericERP/internal/shared"
)

const (
	defaultValidDays = 7
	maxValidDays     = 365
)

// Service owns quote business rules.
type Service struct {
	repo Repository
	// now is swappable for deterministic issue dates in tests.
	now func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CreateInput carries the fields a caller may set on a new quote.
type CreateInput struct {
	CustomerName  string
	CustomerEmail string
	ValidDays     int
	Notes         string
}

// ItemInput describes an item to add. Nil price and discount fall back
// to the product price and the category's auto-discount default.
type ItemInput struct {
	ProductID       int64
	Quantity        float64
	UnitPrice       *decimal.Decimal
	DiscountPercent *decimal.Decimal
}

// ItemPatch is a partial item update. Nil fields retain prior values.
type ItemPatch struct {
	Quantity        *float64
	UnitPrice       *decimal.Decimal
	DiscountPercent *decimal.Decimal
}

func (s *Service) Create(ctx context.Context, ownerID int64, input CreateInput) (Quote, error) {
	name := strings.TrimSpace(input.CustomerName)
	if name == "" {
		return Quote{}, fmt.Errorf("%w: customer_name is required", httpx.ErrValidation)
	}
	validDays := input.ValidDays
	if validDays == 0 {
		validDays = defaultValidDays
	}
	if validDays <= 0 || validDays > maxValidDays {
		return Quote{}, fmt.Errorf("%w: valid_days must be between 1 and %d", httpx.ErrValidation, maxValidDays)
	}

	today := midnight(s.now().UTC())
	quote := Quote{
		UserID:        ownerID,
		CustomerName:  name,
		CustomerEmail: strings.ToLower(strings.TrimSpace(input.CustomerEmail)),
		IssuedAt:      today,
		ValidUntil:    today.AddDate(0, 0, validDays),
		Notes:         strings.TrimSpace(input.Notes),
		Status:        StatusDraft,
	}
	return s.repo.CreateQuote(ctx, quote)
}

func (s *Service) List(ctx context.Context, ownerID int64, p shared.Pagination) ([]Quote, error) {
	return s.repo.ListQuotes(ctx, ownerID, p)
}

func (s *Service) Get(ctx context.Context, ownerID, id int64) (QuoteWithItems, error) {
	quote, err := s.repo.GetQuote(ctx, ownerID, id)
	if err != nil {
		return QuoteWithItems{}, err
	}
	items, err := s.repo.ListItems(ctx, ownerID, id)
	if err != nil {
		return QuoteWithItems{}, err
	}
	if items == nil {
		items = []QuoteItem{}
	}
	return QuoteWithItems{Quote: quote, Items: items}, nil
}

func (s *Service) SetStatus(ctx context.Context, ownerID, id int64, raw string) (Quote, error) {
	status := QuoteStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !status.Valid() {
		return Quote{}, fmt.Errorf("%w: status must be one of DRAFT, SENT, APPROVED, REJECTED, CANCELLED", httpx.ErrValidation)
	}
	if err := s.repo.UpdateStatus(ctx, ownerID, id, status); err != nil {
		return Quote{}, err
	}
	return s.repo.GetQuote(ctx, ownerID, id)
}

// AddItem prices and appends one line. The insert and the quote totals
// recompute commit in the same transaction, under the quote row lock.
func (s *Service) AddItem(ctx context.Context, ownerID, quoteID int64, input ItemInput) (QuoteItem, error) {
	if input.Quantity <= 0 {
		return QuoteItem{}, fmt.Errorf("%w: quantity must be greater than zero", httpx.ErrValidation)
	}
	snapshot, err := s.repo.ProductSnapshot(ctx, ownerID, input.ProductID)
	if err != nil {
		return QuoteItem{}, err
	}

	unitPrice := snapshot.Price
	if input.UnitPrice != nil {
		unitPrice = *input.UnitPrice
	}
	var discount decimal.Decimal
	switch {
	case input.DiscountPercent != nil:
		discount = *input.DiscountPercent
	case snapshot.AutoDiscountEnabled:
		discount = snapshot.DefaultDiscountPercent
	}
	if err := validateItemBounds(unitPrice, discount); err != nil {
		return QuoteItem{}, err
	}

	gross, disc, net := CalcLineTotals(input.Quantity, unitPrice, discount)
	item := QuoteItem{
		UserID:          ownerID,
		QuoteID:         quoteID,
		ProductID:       snapshot.ID,
		SKU:             snapshot.SKU,
		Name:            snapshot.Name,
		Unit:            snapshot.Unit,
		Quantity:        input.Quantity,
		UnitPrice:       unitPrice,
		DiscountPercent: discount,
		GrossTotal:      gross,
		DiscountTotal:   disc,
		NetTotal:        net,
	}

	err = s.repo.InTx(ctx, func(tx TxRepository) error {
		if _, err := tx.LockQuote(ctx, ownerID, quoteID); err != nil {
			return err
		}
		created, err := tx.InsertItem(ctx, item)
		if err != nil {
			return err
		}
		item = created
		return s.recompute(ctx, tx, ownerID, quoteID)
	})
	if err != nil {
		return QuoteItem{}, err
	}
	return item, nil
}

// PatchItem updates a subset of an item's pricing fields, recomputing
// its line amounts and the quote totals in one transaction.
func (s *Service) PatchItem(ctx context.Context, ownerID, quoteID, itemID int64, patch ItemPatch) (QuoteItem, error) {
	if patch.Quantity != nil && *patch.Quantity <= 0 {
		return QuoteItem{}, fmt.Errorf("%w: quantity must be greater than zero", httpx.ErrValidation)
	}

	var item QuoteItem
	err := s.repo.InTx(ctx, func(tx TxRepository) error {
		if _, err := tx.LockQuote(ctx, ownerID, quoteID); err != nil {
			return err
		}
		current, err := tx.GetItem(ctx, ownerID, quoteID, itemID)
		if err != nil {
			return err
		}
		if patch.Quantity != nil {
			current.Quantity = *patch.Quantity
		}
		if patch.UnitPrice != nil {
			current.UnitPrice = *patch.UnitPrice
		}
		if patch.DiscountPercent != nil {
			current.DiscountPercent = *patch.DiscountPercent
		}
		if err := validateItemBounds(current.UnitPrice, current.DiscountPercent); err != nil {
			return err
		}
		current.GrossTotal, current.DiscountTotal, current.NetTotal =
			CalcLineTotals(current.Quantity, current.UnitPrice, current.DiscountPercent)
		if err := tx.UpdateItem(ctx, current); err != nil {
			return err
		}
		item = current
		return s.recompute(ctx, tx, ownerID, quoteID)
	})
	if err != nil {
		return QuoteItem{}, err
	}
	return item, nil
}

// DeleteItem removes a line and recomputes the quote totals in one
// transaction.
func (s *Service) DeleteItem(ctx context.Context, ownerID, quoteID, itemID int64) error {
	return s.repo.InTx(ctx, func(tx TxRepository) error {
		if _, err := tx.LockQuote(ctx, ownerID, quoteID); err != nil {
			return err
		}
		if err := tx.DeleteItem(ctx, ownerID, quoteID, itemID); err != nil {
			return err
		}
		return s.recompute(ctx, tx, ownerID, quoteID)
	})
}

func (s *Service) recompute(ctx context.Context, tx TxRepository, ownerID, quoteID int64) error {
	items, err := tx.ListItems(ctx, ownerID, quoteID)
	if err != nil {
		return err
	}
	gross, discount, net := sumItemTotals(items)
	return tx.UpdateTotals(ctx, quoteID, gross, discount, net)
}

func validateItemBounds(unitPrice, discountPercent decimal.Decimal) error {
	if unitPrice.IsNegative() {
		return fmt.Errorf("%w: unit_price cannot be negative", httpx.ErrValidation)
	}
	if discountPercent.IsNegative() || discountPercent.GreaterThan(hundred) {
		return fmt.Errorf("%w: discount_percent must be between 0 and 100", httpx.ErrValidation)
	}
	return nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
