package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/carlosryandeveloper/GenericERP/internal/platform/httpx"
	"github.com/carlosryandeveloper/GenericERP/internal/shared"
)

type fakeProduct struct {
	ownerID int64
	sku     string
	name    string
}

type memoryRepo struct {
	nextID    int64
	products  map[int64]fakeProduct
	movements []Movement
	now       time.Time
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		nextID: 1,
		products: map[int64]fakeProduct{
			1: {ownerID: 1, sku: "A-1", name: "Widget"},
			2: {ownerID: 1, sku: "A-2", name: "Gadget"},
			3: {ownerID: 2, sku: "B-1", name: "Gizmo"},
		},
		now: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
	}
}

// tick advances the fake clock so each movement gets a distinct timestamp.
func (m *memoryRepo) tick() time.Time {
	m.now = m.now.Add(time.Minute)
	return m.now
}

type memoryTx struct {
	repo    *memoryRepo
	pending []Movement
}

func (m *memoryRepo) InTx(_ context.Context, fn func(tx TxRepository) error) error {
	tx := &memoryTx{repo: m}
	if err := fn(tx); err != nil {
		return err // pending inserts are discarded, as a rollback would
	}
	m.movements = append(m.movements, tx.pending...)
	return nil
}

func (t *memoryTx) LockProduct(_ context.Context, ownerID, productID int64) error {
	p, ok := t.repo.products[productID]
	if !ok || p.ownerID != ownerID {
		return fmt.Errorf("%w: product %d", httpx.ErrNotFound, productID)
	}
	return nil
}

func (t *memoryTx) Balance(_ context.Context, ownerID, productID int64) (float64, error) {
	balance := t.repo.sum(ownerID, productID, nil)
	for _, m := range t.pending {
		if m.UserID == ownerID && m.ProductID == productID {
			balance += m.Type.Signed(m.Quantity)
		}
	}
	return balance, nil
}

func (t *memoryTx) Insert(_ context.Context, m Movement) (Movement, error) {
	m.ID = t.repo.nextID
	m.CreatedAt = t.repo.tick()
	t.repo.nextID++
	t.pending = append(t.pending, m)
	return m, nil
}

func (m *memoryRepo) ProductOwned(_ context.Context, ownerID, productID int64) error {
	p, ok := m.products[productID]
	if !ok || p.ownerID != ownerID {
		return fmt.Errorf("%w: product %d", httpx.ErrNotFound, productID)
	}
	return nil
}

func (m *memoryRepo) Balance(_ context.Context, ownerID, productID int64) (float64, error) {
	return m.sum(ownerID, productID, nil), nil
}

func (m *memoryRepo) ListBalances(_ context.Context, ownerID int64) ([]Balance, error) {
	var result []Balance
	for id := int64(1); id < 100; id++ { // id-ascending order
		p, ok := m.products[id]
		if !ok || p.ownerID != ownerID {
			continue
		}
		result = append(result, Balance{
			ProductID: id,
			SKU:       p.sku,
			Name:      p.name,
			Balance:   m.sum(ownerID, id, nil),
		})
	}
	return result, nil
}

func (m *memoryRepo) ListMovements(_ context.Context, ownerID int64, _ shared.Pagination) ([]Movement, error) {
	var result []Movement
	for i := len(m.movements) - 1; i >= 0; i-- {
		if m.movements[i].UserID == ownerID {
			result = append(result, m.movements[i])
		}
	}
	return result, nil
}

func (m *memoryRepo) SumBefore(_ context.Context, ownerID, productID int64, before time.Time) (float64, error) {
	return m.sum(ownerID, productID, &before), nil
}

func (m *memoryRepo) ListWindow(_ context.Context, ownerID, productID int64, from, to *time.Time) ([]Movement, error) {
	var result []Movement
	for _, mv := range m.movements {
		if mv.UserID != ownerID || mv.ProductID != productID {
			continue
		}
		if from != nil && mv.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && !mv.CreatedAt.Before(*to) {
			continue
		}
		result = append(result, mv)
	}
	return result, nil
}

func (m *memoryRepo) sum(ownerID, productID int64, before *time.Time) float64 {
	var total float64
	for _, mv := range m.movements {
		if mv.UserID != ownerID || mv.ProductID != productID {
			continue
		}
		if before != nil && !mv.CreatedAt.Before(*before) {
			continue
		}
		total += mv.Type.Signed(mv.Quantity)
	}
	return total
}

func appendMovement(t *testing.T, svc *Service, ownerID, productID int64, typ MovementType, qty float64, note string) Movement {
	t.Helper()
	m, err := svc.Append(context.Background(), ownerID, AppendInput{
		ProductID: productID,
		Type:      typ,
		Quantity:  qty,
		Note:      note,
	})
	require.NoError(t, err)
	return m
}

func TestBalanceIsSumOfSignedQuantities(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	appendMovement(t, svc, 1, 1, TypeIn, 10, "")
	appendMovement(t, svc, 1, 1, TypeOut, 3, "")
	appendMovement(t, svc, 1, 1, TypeAdjust, 2.5, "stocktake correction")
	appendMovement(t, svc, 1, 1, TypeOut, 1.5, "")

	balance, err := svc.Balance(context.Background(), 1, 1)
	require.NoError(t, err)
	require.InDelta(t, 8.0, balance, 1e-9)

	// A product with no movements reports zero.
	balance, err = svc.Balance(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Zero(t, balance)
}

func TestOutCannotDriveBalanceNegative(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	appendMovement(t, svc, 1, 1, TypeIn, 5, "")

	_, err := svc.Append(context.Background(), 1, AppendInput{
		ProductID: 1, Type: TypeOut, Quantity: 6,
	})
	require.ErrorIs(t, err, httpx.ErrConflict)

	// The rejected movement left no trace.
	require.Len(t, repo.movements, 1)
	balance, err := svc.Balance(context.Background(), 1, 1)
	require.NoError(t, err)
	require.InDelta(t, 5.0, balance, 1e-9)

	// Taking exactly the remaining balance is allowed.
	appendMovement(t, svc, 1, 1, TypeOut, 5, "")
	balance, err = svc.Balance(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Zero(t, balance)
}

func TestAppendValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.Append(context.Background(), 1, AppendInput{ProductID: 1, Type: TypeIn, Quantity: 0})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Append(context.Background(), 1, AppendInput{ProductID: 1, Type: TypeIn, Quantity: -2})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Append(context.Background(), 1, AppendInput{ProductID: 1, Type: "TRANSFER", Quantity: 1})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Append(context.Background(), 1, AppendInput{ProductID: 1, Type: TypeAdjust, Quantity: 1, Note: "   "})
	require.ErrorIs(t, err, httpx.ErrValidation)

	// Lowercase type and surrounding whitespace are normalized.
	m, err := svc.Append(context.Background(), 1, AppendInput{ProductID: 1, Type: " in ", Quantity: 1})
	require.NoError(t, err)
	require.Equal(t, TypeIn, m.Type)
}

func TestAppendRejectsForeignProduct(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	// Product 3 belongs to owner 2.
	_, err := svc.Append(context.Background(), 1, AppendInput{ProductID: 3, Type: TypeIn, Quantity: 1})
	require.ErrorIs(t, err, httpx.ErrNotFound)
	require.Empty(t, repo.movements)

	_, err = svc.Balance(context.Background(), 1, 3)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestListBalancesCoversAllOwnedProducts(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	appendMovement(t, svc, 1, 1, TypeIn, 7, "")
	appendMovement(t, svc, 2, 3, TypeIn, 4, "")

	balances, err := svc.Balances(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	require.Equal(t, int64(1), balances[0].ProductID)
	require.InDelta(t, 7.0, balances[0].Balance, 1e-9)
	require.Equal(t, int64(2), balances[1].ProductID)
	require.Zero(t, balances[1].Balance)
}

func TestStatementFold(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	// Day one.
	repo.now = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	appendMovement(t, svc, 1, 1, TypeIn, 10, "")
	appendMovement(t, svc, 1, 1, TypeOut, 2, "")

	// Day two.
	repo.now = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	appendMovement(t, svc, 1, 1, TypeOut, 3, "")
	appendMovement(t, svc, 1, 1, TypeAdjust, 1, "recount")

	// Day three, outside the window.
	repo.now = time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC)
	appendMovement(t, svc, 1, 1, TypeOut, 4, "")

	from := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	to := from
	st, err := svc.Statement(context.Background(), 1, 1, &from, &to)
	require.NoError(t, err)

	require.InDelta(t, 8.0, st.StartingBalance, 1e-9) // day one only
	require.Len(t, st.Lines, 2)
	require.Equal(t, TypeOut, st.Lines[0].Type)
	require.InDelta(t, -3.0, st.Lines[0].SignedQuantity, 1e-9)
	require.InDelta(t, 5.0, st.Lines[0].BalanceAfter, 1e-9)
	require.Equal(t, TypeAdjust, st.Lines[1].Type)
	require.InDelta(t, 6.0, st.Lines[1].BalanceAfter, 1e-9)
	require.InDelta(t, 6.0, st.EndingBalance, 1e-9)
	require.NotNil(t, st.FromDate)
	require.Equal(t, "2025-06-02", *st.FromDate)
}

func TestStatementUnboundedWindow(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	appendMovement(t, svc, 1, 1, TypeIn, 3, "")
	appendMovement(t, svc, 1, 1, TypeOut, 1, "")

	st, err := svc.Statement(context.Background(), 1, 1, nil, nil)
	require.NoError(t, err)
	require.Zero(t, st.StartingBalance)
	require.Len(t, st.Lines, 2)
	require.InDelta(t, 2.0, st.EndingBalance, 1e-9)
	require.Nil(t, st.FromDate)
	require.Nil(t, st.ToDate)

	_, err = svc.Statement(context.Background(), 2, 1, nil, nil)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
