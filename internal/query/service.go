// Package query serves the read side: event listings with derived remaining
// capacity, event details with registrations, and categories.
package query

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"ms-charity/internal/logger"
	"ms-charity/internal/models"
)

type Catalog interface {
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	ListEvents(ctx context.Context, f models.EventFilter) ([]models.Event, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

type Ledger interface {
	ListByEvent(ctx context.Context, eventID int64) ([]models.Registration, error)
	GetByID(ctx context.Context, id int64) (*models.Registration, error)
}

type Cache interface {
	Get(ctx context.Context, name string, dst interface{}) (int64, bool, error)
	Set(ctx context.Context, name string, version int64, v interface{}) error
}

type Service struct {
	Catalog Catalog
	Ledger  Ledger
	Cache   Cache
	Logger  *logger.Logger
}

func (s *Service) ListEvents(ctx context.Context, f models.EventFilter) ([]models.Event, error) {
	key := filterKey(f)

	var events []models.Event
	version, hit := s.cached(ctx, key, &events)
	if hit {
		return events, nil
	}

	events, err := s.Catalog.ListEvents(ctx, f)
	if err != nil {
		return nil, err
	}
	for i := range events {
		events[i].RemainingSpots = events[i].Remaining()
	}

	s.store(ctx, key, version, events)
	return events, nil
}

func (s *Service) EventDetails(ctx context.Context, id int64) (*models.EventDetails, error) {
	event, err := s.Catalog.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	event.RemainingSpots = event.Remaining()

	regs, err := s.Ledger.ListByEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.EventDetails{EventDetails: *event, Registrations: regs}, nil
}

// Registrations lists an event's ledger entries, newest first. Unknown events
// are NotFound rather than an empty list.
func (s *Service) Registrations(ctx context.Context, eventID int64) ([]models.Registration, error) {
	if _, err := s.Catalog.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.Ledger.ListByEvent(ctx, eventID)
}

func (s *Service) Registration(ctx context.Context, id int64) (*models.Registration, error) {
	return s.Ledger.GetByID(ctx, id)
}

func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	version, hit := s.cached(ctx, "categories", &categories)
	if hit {
		return categories, nil
	}

	categories, err := s.Catalog.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, "categories", version, categories)
	return categories, nil
}

// cached treats any cache error as a miss; the database stays authoritative.
// The version is what a later store must write under.
func (s *Service) cached(ctx context.Context, key string, dst interface{}) (int64, bool) {
	if s.Cache == nil {
		return 0, false
	}
	version, hit, err := s.Cache.Get(ctx, key, dst)
	if err != nil {
		s.Logger.Warn("CACHE", fmt.Sprintf("get %s: %v", key, err))
		return version, false
	}
	return version, hit
}

func (s *Service) store(ctx context.Context, key string, version int64, v interface{}) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Set(ctx, key, version, v); err != nil {
		s.Logger.Warn("CACHE", fmt.Sprintf("set %s: %v", key, err))
	}
}

func filterKey(f models.EventFilter) string {
	cats := append([]string(nil), f.Categories...)
	sort.Strings(cats)
	return fmt.Sprintf("events:active=%t:q=%s:date=%s:loc=%s:cat=%s",
		f.ActiveOnly,
		strings.ToLower(strings.TrimSpace(f.Query)),
		strings.TrimSpace(f.Date),
		strings.ToLower(strings.TrimSpace(f.Location)),
		strings.Join(cats, ","))
}
