// Package reports aggregates owner-wide counts for dashboard clients.
package reports

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Summary is the per-owner dashboard payload.
type Summary struct {
	Products       int64            `json:"products"`
	Categories     int64            `json:"categories"`
	Movements      int64            `json:"movements"`
	QuotesByState  map[string]int64 `json:"quotes_by_status"`
	TotalNetQuoted decimal.Decimal  `json:"total_net_quoted"`
}

// Repository provides the independent read queries behind a summary.
type Repository interface {
	CountProducts(ctx context.Context, ownerID int64) (int64, error)
	CountCategories(ctx context.Context, ownerID int64) (int64, error)
	CountMovements(ctx context.Context, ownerID int64) (int64, error)
	QuoteStatusCounts(ctx context.Context, ownerID int64) (map[string]int64, error)
	TotalNetQuoted(ctx context.Context, ownerID int64) (decimal.Decimal, error)
}

// Service assembles summaries.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Summary runs the five reads concurrently; the first failure cancels
// the rest.
func (s *Service) Summary(ctx context.Context, ownerID int64) (Summary, error) {
	var summary Summary
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.repo.CountProducts(ctx, ownerID)
		summary.Products = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountCategories(ctx, ownerID)
		summary.Categories = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountMovements(ctx, ownerID)
		summary.Movements = n
		return err
	})
	g.Go(func() error {
		counts, err := s.repo.QuoteStatusCounts(ctx, ownerID)
		summary.QuotesByState = counts
		return err
	})
	g.Go(func() error {
		total, err := s.repo.TotalNetQuoted(ctx, ownerID)
		summary.TotalNetQuoted = total
		return err
	})

	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	if summary.QuotesByState == nil {
		summary.QuotesByState = map[string]int64{}
	}
	return summary, nil
}
