package reports

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) CountProducts(ctx context.Context, ownerID int64) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM products WHERE user_id=$1`, ownerID)
}

func (r *repository) CountCategories(ctx context.Context, ownerID int64) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM categories WHERE user_id=$1`, ownerID)
}

func (r *repository) CountMovements(ctx context.Context, ownerID int64) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM stock_movements WHERE user_id=$1`, ownerID)
}

func (r *repository) QuoteStatusCounts(ctx context.Context, ownerID int64) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM quotes WHERE user_id=$1 GROUP BY status`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *repository) TotalNetQuoted(ctx context.Context, ownerID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(total_net), 0) FROM quotes WHERE user_id=$1`, ownerID).Scan(&total)
	return total, err
}

func (r *repository) count(ctx context.Context, query string, ownerID int64) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, query, ownerID).Scan(&n)
	return n, err
}
