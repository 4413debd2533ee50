package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carlosryandeveloper/GenericERP/internal/platform/db"
	"github.com/carlosryandeveloper/GenericERP/internal/platform/httpx"
	"github.com/carlosryandeveloper/GenericERP/internal/shared"
)

const signedQuantity = `CASE WHEN type = 'OUT' THEN -quantity ELSE quantity END`

// TxRepository is the movement store seen from inside an append
// transaction. LockProduct must be called first so the balance read and
// the insert run under the product row lock.
type TxRepository interface {
	LockProduct(ctx context.Context, ownerID, productID int64) error
	Balance(ctx context.Context, ownerID, productID int64) (float64, error)
	Insert(ctx context.Context, m Movement) (Movement, error)
}

// Repository persists and derives ledger state.
type Repository interface {
	InTx(ctx context.Context, fn func(tx TxRepository) error) error
	ProductOwned(ctx context.Context, ownerID, productID int64) error
	Balance(ctx context.Context, ownerID, productID int64) (float64, error)
	ListBalances(ctx context.Context, ownerID int64) ([]Balance, error)
	ListMovements(ctx context.Context, ownerID int64, p shared.Pagination) ([]Movement, error)
	SumBefore(ctx context.Context, ownerID, productID int64, before time.Time) (float64, error)
	ListWindow(ctx context.Context, ownerID, productID int64, from, to *time.Time) ([]Movement, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

func (r *repository) InTx(ctx context.Context, fn func(tx TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&txRepository{tx: tx})
	})
}

func (t *txRepository) LockProduct(ctx context.Context, ownerID, productID int64) error {
	var id int64
	err := t.tx.QueryRow(ctx, `SELECT id FROM products WHERE id=$1 AND user_id=$2 FOR UPDATE`, productID, ownerID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: product %d", httpx.ErrNotFound, productID)
		}
		return err
	}
	return nil
}

func (t *txRepository) Balance(ctx context.Context, ownerID, productID int64) (float64, error) {
	return sumBalance(ctx, t.tx, ownerID, productID, nil)
}

func (t *txRepository) Insert(ctx context.Context, m Movement) (Movement, error) {
	err := t.tx.QueryRow(ctx, `INSERT INTO stock_movements (user_id, product_id, type, quantity, note, created_at)
VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING id, created_at`,
		m.UserID, m.ProductID, m.Type, m.Quantity, m.Note).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return Movement{}, err
	}
	return m, nil
}

func (r *repository) ProductOwned(ctx context.Context, ownerID, productID int64) error {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM products WHERE id=$1 AND user_id=$2`, productID, ownerID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: product %d", httpx.ErrNotFound, productID)
		}
		return err
	}
	return nil
}

func (r *repository) Balance(ctx context.Context, ownerID, productID int64) (float64, error) {
	return sumBalance(ctx, r.pool, ownerID, productID, nil)
}

func (r *repository) ListBalances(ctx context.Context, ownerID int64) ([]Balance, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.id, p.sku, p.name, COALESCE(SUM(`+signedQuantityQualified("m")+`), 0)
FROM products p
LEFT JOIN stock_movements m ON m.product_id = p.id AND m.user_id = $1
WHERE p.user_id = $1
GROUP BY p.id, p.sku, p.name
ORDER BY p.id ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Balance
	for rows.Next() {
		var b Balance
		if err := rows.Scan(&b.ProductID, &b.SKU, &b.Name, &b.Balance); err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func (r *repository) ListMovements(ctx context.Context, ownerID int64, p shared.Pagination) ([]Movement, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, user_id, product_id, type, quantity, COALESCE(note, ''), created_at
FROM stock_movements WHERE user_id=$1 ORDER BY id DESC LIMIT $2 OFFSET $3`,
		ownerID, p.PerPage, p.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMovements(rows)
}

func (r *repository) SumBefore(ctx context.Context, ownerID, productID int64, before time.Time) (float64, error) {
	return sumBalance(ctx, r.pool, ownerID, productID, &before)
}

func (r *repository) ListWindow(ctx context.Context, ownerID, productID int64, from, to *time.Time) ([]Movement, error) {
	query := `SELECT id, user_id, product_id, type, quantity, COALESCE(note, ''), created_at
FROM stock_movements WHERE user_id=$1 AND product_id=$2`
	args := []any{ownerID, productID}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND created_at < $%d", len(args))
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMovements(rows)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func sumBalance(ctx context.Context, q querier, ownerID, productID int64, before *time.Time) (float64, error) {
	query := `SELECT COALESCE(SUM(` + signedQuantity + `), 0) FROM stock_movements WHERE user_id=$1 AND product_id=$2`
	args := []any{ownerID, productID}
	if before != nil {
		args = append(args, *before)
		query += " AND created_at < $3"
	}
	var balance float64
	if err := q.QueryRow(ctx, query, args...).Scan(&balance); err != nil {
		return 0, err
	}
	return balance, nil
}

func signedQuantityQualified(alias string) string {
	return `CASE WHEN ` + alias + `.type = 'OUT' THEN -` + alias + `.quantity ELSE ` + alias + `.quantity END`
}

func scanMovements(rows pgx.Rows) ([]Movement, error) {
	var result []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.UserID, &m.ProductID, &m.Type, &m.Quantity, &m.Note, &m.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}
