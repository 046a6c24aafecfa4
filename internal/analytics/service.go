package analytics

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"ms-charity/internal/models"
)

// Store is the read surface the dashboard summary needs
type Store interface {
	GetTotalRevenue(ctx context.Context) (float64, error)
	GetActiveEventsByCategory(ctx context.Context) ([]models.CategoryCount, error)
}

// Service handles analytics operations
type Service struct {
	store Store
}

// NewService creates a new analytics service
func NewService(store Store) *Service {
	return &Service{store: store}
}

// GetSummary runs both aggregates concurrently
func (s *Service) GetSummary(ctx context.Context) (*models.Summary, error) {
	var summary models.Summary

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, err := s.store.GetTotalRevenue(gctx)
		if err != nil {
			return fmt.Errorf("total revenue: %w", err)
		}
		// Prices are stored with two decimals.
		summary.TotalRevenue = math.Round(total*100) / 100
		return nil
	})
	g.Go(func() error {
		counts, err := s.store.GetActiveEventsByCategory(gctx)
		if err != nil {
			return fmt.Errorf("events by category: %w", err)
		}
		summary.EventsByCategory = counts
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &summary, nil
}
