package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carlosryandeveloper/GenericERP/internal/platform/httpx"
)

// Repository persists products, always scoped by the owning user.
type Repository interface {
	List(ctx context.Context, ownerID int64) ([]Product, error)
	ListMin(ctx context.Context, ownerID int64) ([]MinProduct, error)
	Get(ctx context.Context, ownerID, id int64) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, product Product) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const productColumns = `id, user_id, category_id, sku, name, unit, price, pack_factor, created_at`

func (r *repository) List(ctx context.Context, ownerID int64) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE user_id=$1 ORDER BY id DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *repository) ListMin(ctx context.Context, ownerID int64) ([]MinProduct, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.id, p.sku, p.name, p.unit, p.price, p.pack_factor,
p.category_id, c.name, c.auto_discount_enabled, c.default_discount_percent
FROM products p
JOIN categories c ON c.id = p.category_id
WHERE p.user_id=$1
ORDER BY p.name ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MinProduct
	for rows.Next() {
		var m MinProduct
		if err := rows.Scan(&m.ID, &m.SKU, &m.Name, &m.Unit, &m.Price, &m.PackFactor,
			&m.CategoryID, &m.CategoryName, &m.AutoDiscountEnabled, &m.DefaultDiscountPercent); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (r *repository) Get(ctx context.Context, ownerID, id int64) (Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1 AND user_id=$2`, id, ownerID).
		Scan(&p.ID, &p.UserID, &p.CategoryID, &p.SKU, &p.Name, &p.Unit, &p.Price, &p.PackFactor, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, fmt.Errorf("%w: product %d", httpx.ErrNotFound, id)
		}
		return Product{}, err
	}
	return p, nil
}

func (r *repository) Create(ctx context.Context, product Product) (Product, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO products (user_id, category_id, sku, name, unit, price, pack_factor, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW()) RETURNING id, created_at`,
		product.UserID, product.CategoryID, product.SKU, product.Name, product.Unit, product.Price, product.PackFactor).
		Scan(&product.ID, &product.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Product{}, httpx.ErrDuplicate
		}
		return Product{}, err
	}
	return product, nil
}

func (r *repository) Update(ctx context.Context, product Product) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET category_id=$1, sku=$2, name=$3, unit=$4, price=$5, pack_factor=$6
WHERE id=$7 AND user_id=$8`,
		product.CategoryID, product.SKU, product.Name, product.Unit, product.Price, product.PackFactor,
		product.ID, product.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return httpx.ErrDuplicate
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", httpx.ErrNotFound, product.ID)
	}
	return nil
}

func scanProducts(rows pgx.Rows) ([]Product, error) {
	var result []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.UserID, &p.CategoryID, &p.SKU, &p.Name, &p.Unit, &p.Price, &p.PackFactor, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
