package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/carlosryandeveloper/GenericERP/internal/platform/httpx"
)

var maxDiscountPercent = decimal.NewFromInt(100)

// Service owns category business rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput carries the fields a caller may set on a new category.
type CreateInput struct {
	Name                   string
	AutoDiscountEnabled    bool
	DefaultDiscountPercent decimal.Decimal
}

// UpdateInput carries a partial update. Nil fields are left untouched.
type UpdateInput struct {
	Name                   *string
	AutoDiscountEnabled    *bool
	DefaultDiscountPercent *decimal.Decimal
}

func (s *Service) List(ctx context.Context, ownerID int64) ([]Category, error) {
	return s.repo.List(ctx, ownerID)
}

func (s *Service) Get(ctx context.Context, ownerID, id int64) (Category, error) {
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) Create(ctx context.Context, ownerID int64, input CreateInput) (Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Category{}, fmt.Errorf("%w: name is required", httpx.ErrValidation)
	}
	if err := validateDiscount(input.DefaultDiscountPercent); err != nil {
		return Category{}, err
	}
	category := Category{
		UserID:                 ownerID,
		Name:                   name,
		AutoDiscountEnabled:    input.AutoDiscountEnabled,
		DefaultDiscountPercent: input.DefaultDiscountPercent,
	}
	created, err := s.repo.Create(ctx, category)
	if err != nil {
		if errors.Is(err, httpx.ErrDuplicate) {
			return Category{}, fmt.Errorf("%w: category %q already exists", httpx.ErrDuplicate, name)
		}
		return Category{}, err
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, ownerID, id int64, input UpdateInput) (Category, error) {
	category, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return Category{}, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return Category{}, fmt.Errorf("%w: name is required", httpx.ErrValidation)
		}
		category.Name = name
	}
	if input.AutoDiscountEnabled != nil {
		category.AutoDiscountEnabled = *input.AutoDiscountEnabled
	}
	if input.DefaultDiscountPercent != nil {
		if err := validateDiscount(*input.DefaultDiscountPercent); err != nil {
			return Category{}, err
		}
		category.DefaultDiscountPercent = *input.DefaultDiscountPercent
	}
	if err := s.repo.Update(ctx, category); err != nil {
		if errors.Is(err, httpx.ErrDuplicate) {
			return Category{}, fmt.Errorf("%w: category %q already exists", httpx.ErrDuplicate, category.Name)
		}
		return Category{}, err
	}
	return category, nil
}

func validateDiscount(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(maxDiscountPercent) {
		return fmt.Errorf("%w: default_discount_percent must be between 0 and 100", httpx.ErrValidation)
	}
	return nil
}
