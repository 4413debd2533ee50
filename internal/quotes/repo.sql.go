package quotes

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/carlosryandeveloper/GenericERP/internal/platform/db"
	"github.com/carlosryandeveloper/GenericERP/internal/platform/httpx"
	"github.com/carlosryandeveloper/GenericERP/internal/shared"
)

// ProductSnapshot is the product view needed to price a quote item:
// current price plus the category's discount defaults.
type ProductSnapshot struct {
	ID                     int64
	SKU                    string
	Name                   string
	Unit                   string
	Price                  decimal.Decimal
	AutoDiscountEnabled    bool
	DefaultDiscountPercent decimal.Decimal
}

// TxRepository is the quote store seen from inside an item mutation
// transaction. LockQuote must be called first so the recompute runs
// under the quote row lock.
type TxRepository interface {
	LockQuote(ctx context.Context, ownerID, quoteID int64) (Quote, error)
	GetItem(ctx context.Context, ownerID, quoteID, itemID int64) (QuoteItem, error)
	InsertItem(ctx context.Context, item QuoteItem) (QuoteItem, error)
	UpdateItem(ctx context.Context, item QuoteItem) error
	DeleteItem(ctx context.Context, ownerID, quoteID, itemID int64) error
	ListItems(ctx context.Context, ownerID, quoteID int64) ([]QuoteItem, error)
	UpdateTotals(ctx context.Context, quoteID int64, gross, discount, net decimal.Decimal) error
}

// Repository persists quotes and their items.
type Repository interface {
	InTx(ctx context.Context, fn func(tx TxRepository) error) error
	CreateQuote(ctx context.Context, q Quote) (Quote, error)
	ListQuotes(ctx context.Context, ownerID int64, p shared.Pagination) ([]Quote, error)
	GetQuote(ctx context.Context, ownerID, id int64) (Quote, error)
	ListItems(ctx context.Context, ownerID, quoteID int64) ([]QuoteItem, error)
	UpdateStatus(ctx context.Context, ownerID, id int64, status QuoteStatus) error
	ProductSnapshot(ctx context.Context, ownerID, productID int64) (ProductSnapshot, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const quoteColumns = `id, user_id, customer_name, COALESCE(customer_email, ''), issued_at, valid_until,
COALESCE(notes, ''), status, total_gross, total_discount, total_net, created_at`

const itemColumns = `id, user_id, quote_id, product_id, sku_snapshot, name_snapshot, unit_snapshot,
quantity, unit_price, discount_percent, gross_total, discount_total, net_total, created_at`

type txRepository struct {
	tx pgx.Tx
}

func (r *repository) InTx(ctx context.Context, fn func(tx TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&txRepository{tx: tx})
	})
}

func (r *repository) CreateQuote(ctx context.Context, q Quote) (Quote, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO quotes
(user_id, customer_name, customer_email, issued_at, valid_until, notes, status, total_gross, total_discount, total_net, created_at)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''), $7, 0, 0, 0, NOW()) RETURNING id, created_at`,
		q.UserID, q.CustomerName, q.CustomerEmail, q.IssuedAt, q.ValidUntil, q.Notes, q.Status).
		Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return Quote{}, err
	}
	return q, nil
}

func (r *repository) ListQuotes(ctx context.Context, ownerID int64, p shared.Pagination) ([]Quote, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE user_id=$1 ORDER BY id DESC LIMIT $2 OFFSET $3`,
		ownerID, p.PerPage, p.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, q)
	}
	return result, rows.Err()
}

func (r *repository) GetQuote(ctx context.Context, ownerID, id int64) (Quote, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id=$1 AND user_id=$2`, id, ownerID)
	q, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Quote{}, fmt.Errorf("%w: quote %d", httpx.ErrNotFound, id)
		}
		return Quote{}, err
	}
	return q, nil
}

func (r *repository) ListItems(ctx context.Context, ownerID, quoteID int64) ([]QuoteItem, error) {
	return listItems(ctx, r.pool, ownerID, quoteID)
}

func (r *repository) UpdateStatus(ctx context.Context, ownerID, id int64, status QuoteStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE quotes SET status=$1 WHERE id=$2 AND user_id=$3`, status, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: quote %d", httpx.ErrNotFound, id)
	}
	return nil
}

func (r *repository) ProductSnapshot(ctx context.Context, ownerID, productID int64) (ProductSnapshot, error) {
	var s ProductSnapshot
	err := r.pool.QueryRow(ctx, `SELECT p.id, p.sku, p.name, p.unit, p.price, c.auto_discount_enabled, c.default_discount_percent
FROM products p
JOIN categories c ON c.id = p.category_id AND c.user_id = p.user_id
WHERE p.id=$1 AND p.user_id=$2`, productID, ownerID).
		Scan(&s.ID, &s.SKU, &s.Name, &s.Unit, &s.Price, &s.AutoDiscountEnabled, &s.DefaultDiscountPercent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductSnapshot{}, fmt.Errorf("%w: product %d", httpx.ErrNotFound, productID)
		}
		return ProductSnapshot{}, err
	}
	return s, nil
}

func (t *txRepository) LockQuote(ctx context.Context, ownerID, quoteID int64) (Quote, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id=$1 AND user_id=$2 FOR UPDATE`, quoteID, ownerID)
	q, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Quote{}, fmt.Errorf("%w: quote %d", httpx.ErrNotFound, quoteID)
		}
		return Quote{}, err
	}
	return q, nil
}

func (t *txRepository) GetItem(ctx context.Context, ownerID, quoteID, itemID int64) (QuoteItem, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM quote_items WHERE id=$1 AND quote_id=$2 AND user_id=$3`,
		itemID, quoteID, ownerID)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return QuoteItem{}, fmt.Errorf("%w: quote item %d", httpx.ErrNotFound, itemID)
		}
		return QuoteItem{}, err
	}
	return item, nil
}

func (t *txRepository) InsertItem(ctx context.Context, item QuoteItem) (QuoteItem, error) {
	err := t.tx.QueryRow(ctx, `INSERT INTO quote_items
(user_id, quote_id, product_id, sku_snapshot, name_snapshot, unit_snapshot, quantity, unit_price, discount_percent, gross_total, discount_total, net_total, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW()) RETURNING id, created_at`,
		item.UserID, item.QuoteID, item.ProductID, item.SKU, item.Name, item.Unit,
		item.Quantity, item.UnitPrice, item.DiscountPercent, item.GrossTotal, item.DiscountTotal, item.NetTotal).
		Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return QuoteItem{}, err
	}
	return item, nil
}

func (t *txRepository) UpdateItem(ctx context.Context, item QuoteItem) error {
	tag, err := t.tx.Exec(ctx, `UPDATE quote_items SET quantity=$1, unit_price=$2, discount_percent=$3,
gross_total=$4, discount_total=$5, net_total=$6
WHERE id=$7 AND quote_id=$8 AND user_id=$9`,
		item.Quantity, item.UnitPrice, item.DiscountPercent,
		item.GrossTotal, item.DiscountTotal, item.NetTotal,
		item.ID, item.QuoteID, item.UserID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: quote item %d", httpx.ErrNotFound, item.ID)
	}
	return nil
}

func (t *txRepository) DeleteItem(ctx context.Context, ownerID, quoteID, itemID int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM quote_items WHERE id=$1 AND quote_id=$2 AND user_id=$3`,
		itemID, quoteID, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: quote item %d", httpx.ErrNotFound, itemID)
	}
	return nil
}

func (t *txRepository) ListItems(ctx context.Context, ownerID, quoteID int64) ([]QuoteItem, error) {
	return listItems(ctx, t.tx, ownerID, quoteID)
}

func (t *txRepository) UpdateTotals(ctx context.Context, quoteID int64, gross, discount, net decimal.Decimal) error {
	_, err := t.tx.Exec(ctx, `UPDATE quotes SET total_gross=$1, total_discount=$2, total_net=$3 WHERE id=$4`,
		gross, discount, net, quoteID)
	return err
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listItems(ctx context.Context, q querier, ownerID, quoteID int64) ([]QuoteItem, error) {
	rows, err := q.Query(ctx, `SELECT `+itemColumns+` FROM quote_items WHERE quote_id=$1 AND user_id=$2 ORDER BY id ASC`,
		quoteID, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []QuoteItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func scanQuote(row pgx.Row) (Quote, error) {
	var q Quote
	err := row.Scan(&q.ID, &q.UserID, &q.CustomerName, &q.CustomerEmail, &q.IssuedAt, &q.ValidUntil,
		&q.Notes, &q.Status, &q.TotalGross, &q.TotalDiscount, &q.TotalNet, &q.CreatedAt)
	return q, err
}

func scanItem(row pgx.Row) (QuoteItem, error) {
	var item QuoteItem
	err := row.Scan(&item.ID, &item.UserID, &item.QuoteID, &item.ProductID, &item.SKU, &item.Name, &item.Unit,
		&item.Quantity, &item.UnitPrice, &item.DiscountPercent, &item.GrossTotal, &item.DiscountTotal, &item.NetTotal,
		&item.CreatedAt)
	return item, err
}
