package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/carlosryandeveloper/GenericERP/internal/catalog/categories"
	"github.com/carlosryandeveloper/GenericERP/internal/platform/httpx"
)

// CategoryDirectory resolves owner-scoped categories. Satisfied by
// *categories.Service.
type CategoryDirectory interface {
	Get(ctx context.Context, ownerID, id int64) (categories.Category, error)
}

// Service owns product business rules.
type Service struct {
	repo       Repository
	categories CategoryDirectory
}

// NewService constructs a Service.
func NewService(repo Repository, categories CategoryDirectory) *Service {
	return &Service{repo: repo, categories: categories}
}

// CreateInput carries the fields a caller may set on a new product.
type CreateInput struct {
	SKU        string
	Name       string
	Unit       string
	Price      decimal.Decimal
	CategoryID int64
	PackFactor float64
}

// UpdateInput carries a partial update. Nil fields are left untouched.
type UpdateInput struct {
	SKU        *string
	Name       *string
	Unit       *string
	Price      *decimal.Decimal
	CategoryID *int64
	PackFactor *float64
}

func (s *Service) List(ctx context.Context, ownerID int64) ([]Product, error) {
	return s.repo.List(ctx, ownerID)
}

func (s *Service) ListMin(ctx context.Context, ownerID int64) ([]MinProduct, error) {
	return s.repo.ListMin(ctx, ownerID)
}

func (s *Service) Get(ctx context.Context, ownerID, id int64) (Product, error) {
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) Create(ctx context.Context, ownerID int64, input CreateInput) (Product, error) {
	sku := strings.TrimSpace(input.SKU)
	name := strings.TrimSpace(input.Name)
	unit := strings.ToUpper(strings.TrimSpace(input.Unit))
	if sku == "" || name == "" || unit == "" {
		return Product{}, fmt.Errorf("%w: sku, name and unit are required", httpx.ErrValidation)
	}
	if input.Price.IsNegative() {
		return Product{}, fmt.Errorf("%w: price cannot be negative", httpx.ErrValidation)
	}
	packFactor := input.PackFactor
	if packFactor == 0 {
		packFactor = 1
	}
	if packFactor <= 0 {
		return Product{}, fmt.Errorf("%w: pack_factor must be greater than zero", httpx.ErrValidation)
	}
	if _, err := s.categories.Get(ctx, ownerID, input.CategoryID); err != nil {
		return Product{}, err
	}

	product := Product{
		UserID:     ownerID,
		CategoryID: input.CategoryID,
		SKU:        sku,
		Name:       name,
		Unit:       unit,
		Price:      input.Price,
		PackFactor: packFactor,
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		if errors.Is(err, httpx.ErrDuplicate) {
			return Product{}, fmt.Errorf("%w: sku %q already exists", httpx.ErrDuplicate, sku)
		}
		return Product{}, err
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, ownerID, id int64, input UpdateInput) (Product, error) {
	product, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return Product{}, err
	}
	if input.SKU != nil {
		sku := strings.TrimSpace(*input.SKU)
		if sku == "" {
			return Product{}, fmt.Errorf("%w: sku is required", httpx.ErrValidation)
		}
		product.SKU = sku
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return Product{}, fmt.Errorf("%w: name is required", httpx.ErrValidation)
		}
		product.Name = name
	}
	if input.Unit != nil {
		unit := strings.ToUpper(strings.TrimSpace(*input.Unit))
		if unit == "" {
			return Product{}, fmt.Errorf("%w: unit is required", httpx.ErrValidation)
		}
		product.Unit = unit
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return Product{}, fmt.Errorf("%w: price cannot be negative", httpx.ErrValidation)
		}
		product.Price = *input.Price
	}
	if input.PackFactor != nil {
		if *input.PackFactor <= 0 {
			return Product{}, fmt.Errorf("%w: pack_factor must be greater than zero", httpx.ErrValidation)
		}
		product.PackFactor = *input.PackFactor
	}
	if input.CategoryID != nil {
		if _, err := s.categories.Get(ctx, ownerID, *input.CategoryID); err != nil {
			return Product{}, err
		}
		product.CategoryID = *input.CategoryID
	}
	if err := s.repo.Update(ctx, product); err != nil {
		if errors.Is(err, httpx.ErrDuplicate) {
			return Product{}, fmt.Errorf("%w: sku %q already exists", httpx.ErrDuplicate, product.SKU)
		}
		return Product{}, err
	}
	return product, nil
}
