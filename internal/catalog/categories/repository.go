package categories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carlosryandeveloper/GenericERP/internal/platform/httpx"
)

// Repository persists categories, always scoped by the owning user.
type Repository interface {
	List(ctx context.Context, ownerID int64) ([]Category, error)
	Get(ctx context.Context, ownerID, id int64) (Category, error)
	Create(ctx context.Context, category Category) (Category, error)
	Update(ctx context.Context, category Category) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, ownerID int64) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, user_id, name, auto_discount_enabled, default_discount_percent, created_at
FROM categories WHERE user_id=$1 ORDER BY id DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.AutoDiscountEnabled, &c.DefaultDiscountPercent, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *repository) Get(ctx context.Context, ownerID, id int64) (Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, `SELECT id, user_id, name, auto_discount_enabled, default_discount_percent, created_at
FROM categories WHERE id=$1 AND user_id=$2`, id, ownerID).
		Scan(&c.ID, &c.UserID, &c.Name, &c.AutoDiscountEnabled, &c.DefaultDiscountPercent, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, fmt.Errorf("%w: category %d", httpx.ErrNotFound, id)
		}
		return Category{}, err
	}
	return c, nil
}

func (r *repository) Create(ctx context.Context, category Category) (Category, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO categories (user_id, name, auto_discount_enabled, default_discount_percent, created_at)
VALUES ($1, $2, $3, $4, NOW()) RETURNING id, created_at`,
		category.UserID, category.Name, category.AutoDiscountEnabled, category.DefaultDiscountPercent).
		Scan(&category.ID, &category.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Category{}, httpx.ErrDuplicate
		}
		return Category{}, err
	}
	return category, nil
}

func (r *repository) Update(ctx context.Context, category Category) error {
	tag, err := r.pool.Exec(ctx, `UPDATE categories SET name=$1, auto_discount_enabled=$2, default_discount_percent=$3
WHERE id=$4 AND user_id=$5`,
		category.Name, category.AutoDiscountEnabled, category.DefaultDiscountPercent, category.ID, category.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return httpx.ErrDuplicate
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: category %d", httpx.ErrNotFound, category.ID)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
