package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/carlosryandeveloper/GenericERP/internal/platform/httpx"
)

type memoryRepo struct {
	nextID int64
	items  map[int64]Category
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, items: map[int64]Category{}}
}

func (m *memoryRepo) List(_ context.Context, ownerID int64) ([]Category, error) {
	var out []Category
	for _, c := range m.items {
		if c.UserID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memoryRepo) Get(_ context.Context, ownerID, id int64) (Category, error) {
	c, ok := m.items[id]
	if !ok || c.UserID != ownerID {
		return Category{}, fmt.Errorf("%w: category %d", httpx.ErrNotFound, id)
	}
	return c, nil
}

func (m *memoryRepo) Create(_ context.Context, category Category) (Category, error) {
	for _, existing := range m.items {
		if existing.UserID == category.UserID && strings.EqualFold(existing.Name, category.Name) {
			return Category{}, httpx.ErrDuplicate
		}
	}
	category.ID = m.nextID
	category.CreatedAt = time.Now().UTC()
	m.nextID++
	m.items[category.ID] = category
	return category, nil
}

func (m *memoryRepo) Update(_ context.Context, category Category) error {
	existing, ok := m.items[category.ID]
	if !ok || existing.UserID != category.UserID {
		return fmt.Errorf("%w: category %d", httpx.ErrNotFound, category.ID)
	}
	for id, other := range m.items {
		if id != category.ID && other.UserID == category.UserID && strings.EqualFold(other.Name, category.Name) {
			return httpx.ErrDuplicate
		}
	}
	category.CreatedAt = existing.CreatedAt
	m.items[category.ID] = category
	return nil
}

func TestCreateTrimsAndValidates(t *testing.T) {
	svc := NewService(newMemoryRepo())

	created, err := svc.Create(context.Background(), 1, CreateInput{
		Name:                   "  Electronics  ",
		AutoDiscountEnabled:    true,
		DefaultDiscountPercent: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	require.Equal(t, "Electronics", created.Name)
	require.True(t, created.AutoDiscountEnabled)

	_, err = svc.Create(context.Background(), 1, CreateInput{Name: "   "})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(context.Background(), 1, CreateInput{
		Name:                   "Books",
		DefaultDiscountPercent: decimal.NewFromInt(101),
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateDuplicateNamePerOwner(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), 1, CreateInput{Name: "Tools"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), 1, CreateInput{Name: "Tools"})
	require.ErrorIs(t, err, httpx.ErrDuplicate)

	// Same name under a different owner is fine.
	_, err = svc.Create(context.Background(), 2, CreateInput{Name: "Tools"})
	require.NoError(t, err)
}

func TestUpdatePartialFields(t *testing.T) {
	svc := NewService(newMemoryRepo())

	created, err := svc.Create(context.Background(), 1, CreateInput{
		Name:                   "Hardware",
		DefaultDiscountPercent: decimal.NewFromInt(5),
	})
	require.NoError(t, err)

	pct := decimal.NewFromFloat(12.5)
	enabled := true
	updated, err := svc.Update(context.Background(), 1, created.ID, UpdateInput{
		AutoDiscountEnabled:    &enabled,
		DefaultDiscountPercent: &pct,
	})
	require.NoError(t, err)
	require.Equal(t, "Hardware", updated.Name)
	require.True(t, updated.AutoDiscountEnabled)
	require.True(t, updated.DefaultDiscountPercent.Equal(pct))

	bad := decimal.NewFromInt(-1)
	_, err = svc.Update(context.Background(), 1, created.ID, UpdateInput{DefaultDiscountPercent: &bad})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestGetScopedToOwner(t *testing.T) {
	svc := NewService(newMemoryRepo())

	created, err := svc.Create(context.Background(), 1, CreateInput{Name: "Office"})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), 2, created.ID)
	require.True(t, errors.Is(err, httpx.ErrNotFound))
}
