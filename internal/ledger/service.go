package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/carlosryandeveloper/GenericERP/internal/platform/httpx"
	"github.com/carlosryandeveloper/GenericERP/internal/shared"
)

// AuditRecorder persists append facts for the audit trail. A nil
// recorder disables auditing.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns ledger business rules.
type Service struct {
	repo  Repository
	audit AuditRecorder
}

// NewService constructs a Service.
func NewService(repo Repository, audit AuditRecorder) *Service {
	return &Service{repo: repo, audit: audit}
}

// AppendInput describes a movement to make a fact of. Quantity is a
// positive magnitude regardless of type.
type AppendInput struct {
	ProductID int64
	Type      MovementType
	Quantity  float64
	Note      string
}

// Append validates input and commits a new movement. The ownership
// check, the OUT balance guard and the insert all run inside one
// transaction holding the product row lock, so concurrent OUTs cannot
// both pass the guard.
func (s *Service) Append(ctx context.Context, ownerID int64, input AppendInput) (Movement, error) {
	if input.Quantity <= 0 {
		return Movement{}, fmt.Errorf("%w: quantity must be greater than zero", httpx.ErrValidation)
	}
	movType := MovementType(strings.ToUpper(strings.TrimSpace(string(input.Type))))
	if !movType.Valid() {
		return Movement{}, fmt.Errorf("%w: type must be IN, OUT or ADJUST", httpx.ErrValidation)
	}
	note := strings.TrimSpace(input.Note)
	if movType == TypeAdjust && note == "" {
		return Movement{}, fmt.Errorf("%w: adjustments require a note", httpx.ErrValidation)
	}

	var created Movement
	err := s.repo.InTx(ctx, func(tx TxRepository) error {
		if err := tx.LockProduct(ctx, ownerID, input.ProductID); err != nil {
			return err
		}
		if movType == TypeOut {
			balance, err := tx.Balance(ctx, ownerID, input.ProductID)
			if err != nil {
				return err
			}
			if balance-input.Quantity < 0 {
				return fmt.Errorf("%w: insufficient balance (%v available, %v requested)",
					httpx.ErrConflict, balance, input.Quantity)
			}
		}
		m, err := tx.Insert(ctx, Movement{
			UserID:    ownerID,
			ProductID: input.ProductID,
			Type:      movType,
			Quantity:  input.Quantity,
			Note:      note,
		})
		if err != nil {
			return err
		}
		created = m
		return nil
	})
	if err != nil {
		return Movement{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  ownerID,
			Action:   "stock.append",
			Entity:   "stock_movement",
			EntityID: strconv.FormatInt(created.ID, 10),
			Meta: map[string]any{
				"product_id": created.ProductID,
				"type":       string(created.Type),
				"quantity":   created.Quantity,
			},
		})
	}
	return created, nil
}

// Balance derives one product's stock position. 0 for a product without
// movements.
func (s *Service) Balance(ctx context.Context, ownerID, productID int64) (float64, error) {
	if err := s.repo.ProductOwned(ctx, ownerID, productID); err != nil {
		return 0, err
	}
	return s.repo.Balance(ctx, ownerID, productID)
}

// Balances derives the stock position of every owned product.
func (s *Service) Balances(ctx context.Context, ownerID int64) ([]Balance, error) {
	return s.repo.ListBalances(ctx, ownerID)
}

// Movements lists the owner's movements, newest first.
func (s *Service) Movements(ctx context.Context, ownerID int64, p shared.Pagination) ([]Movement, error) {
	return s.repo.ListMovements(ctx, ownerID, p)
}

// Statement reconstructs one product's ledger over [fromDate, toDate]
// inclusive. Dates are truncated to midnight; the window upper bound is
// the midnight after toDate, exclusive. Either bound may be nil.
func (s *Service) Statement(ctx context.Context, ownerID, productID int64, fromDate, toDate *time.Time) (Statement, error) {
	if err := s.repo.ProductOwned(ctx, ownerID, productID); err != nil {
		return Statement{}, err
	}

	var from, to *time.Time
	if fromDate != nil {
		t := midnight(*fromDate)
		from = &t
	}
	if toDate != nil {
		t := midnight(*toDate).AddDate(0, 0, 1)
		to = &t
	}

	var starting float64
	if from != nil {
		sum, err := s.repo.SumBefore(ctx, ownerID, productID, *from)
		if err != nil {
			return Statement{}, err
		}
		starting = sum
	}

	movements, err := s.repo.ListWindow(ctx, ownerID, productID, from, to)
	if err != nil {
		return Statement{}, err
	}

	balance := starting
	lines := make([]StatementLine, 0, len(movements))
	for _, m := range movements {
		signed := m.Type.Signed(m.Quantity)
		balance += signed
		lines = append(lines, StatementLine{
			ID:             m.ID,
			CreatedAt:      m.CreatedAt,
			Type:           m.Type,
			Quantity:       m.Quantity,
			SignedQuantity: signed,
			Note:           m.Note,
			BalanceAfter:   balance,
		})
	}

	return Statement{
		ProductID:       productID,
		FromDate:        dateString(fromDate),
		ToDate:          dateString(toDate),
		StartingBalance: starting,
		EndingBalance:   balance,
		Lines:           lines,
	}, nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func dateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}
