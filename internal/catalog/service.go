// Package catalog validates admin edits to the event catalog before they reach
// the store, and announces every change to the rest of the platform.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ms-charity/internal/logger"
	"ms-charity/internal/models"
)

type Store interface {
	CreateEvent(ctx context.Context, event *models.Event) (int64, error)
	UpdateEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, id int64) error
	CategoryExists(ctx context.Context, id int64) (bool, error)
}

type Publisher interface {
	PublishEventChanged(ctx context.Context, action string, eventID int64) error
}

type Cache interface {
	Invalidate(ctx context.Context) error
}

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

type Service struct {
	Store     Store
	Publisher Publisher
	Cache     Cache
	Logger    *logger.Logger
}

func (s *Service) Create(ctx context.Context, draft models.EventDraft) (int64, error) {
	event, err := s.validate(ctx, draft, "creating")
	if err != nil {
		return 0, err
	}

	id, err := s.Store.CreateEvent(ctx, event)
	if err != nil {
		return 0, err
	}

	s.Logger.LogCatalog(ActionCreated, id, fmt.Sprintf("created %q", event.EventName))
	s.changed(ctx, ActionCreated, id)
	return id, nil
}

func (s *Service) Update(ctx context.Context, id int64, draft models.EventDraft) error {
	event, err := s.validate(ctx, draft, "updating")
	if err != nil {
		return err
	}
	event.EventID = id

	if err := s.Store.UpdateEvent(ctx, event); err != nil {
		return err
	}

	s.Logger.LogCatalog(ActionUpdated, id, fmt.Sprintf("updated %q, status %d", event.EventName, event.CurrentStatus))
	s.changed(ctx, ActionUpdated, id)
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.Store.DeleteEvent(ctx, id); err != nil {
		var regErr *models.RegistrationsExistError
		if errors.As(err, &regErr) {
			s.Logger.Warn("CATALOG", fmt.Sprintf("refused to delete event %d: %d registration(s)", id, regErr.Count))
		}
		return err
	}

	s.Logger.LogCatalog(ActionDeleted, id, "deleted")
	s.changed(ctx, ActionDeleted, id)
	return nil
}

// validate turns a draft into a storable event. No store mutation happens
// when it fails.
func (s *Service) validate(ctx context.Context, d models.EventDraft, verb string) (*models.Event, error) {
	name := strings.TrimSpace(d.EventName)
	location := strings.TrimSpace(d.Location)
	if name == "" || strings.TrimSpace(d.EventDate) == "" || location == "" || d.CategoryID == 0 || d.GoalAttendees == 0 {
		return nil, models.NewValidationError("", fmt.Sprintf("Missing required fields for %s an event.", verb))
	}

	if d.CurrentStatus == nil || (*d.CurrentStatus != models.StatusActive && *d.CurrentStatus != models.StatusInactive) {
		return nil, models.NewValidationError("", "Invalid value for CurrentStatus. Must be 0 or 1.")
	}
	status := *d.CurrentStatus

	var price float64
	if d.TicketPrice != nil {
		price = *d.TicketPrice
	}
	if price < 0 {
		return nil, models.NewValidationError("TicketPrice", "cannot be negative")
	}

	if d.GoalAttendees < 1 {
		return nil, models.NewValidationError("GoalAttendees", "must be at least 1")
	}

	date, err := models.ParseDate(d.EventDate)
	if err != nil {
		return nil, models.NewValidationError("EventDate", "must be a date in YYYY-MM-DD format")
	}

	ok, err := s.Store.CategoryExists(ctx, d.CategoryID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewValidationError("CategoryID", fmt.Sprintf("category %d does not exist", d.CategoryID))
	}

	return &models.Event{
		EventName:     name,
		EventImage:    strings.TrimSpace(d.EventImage),
		EventDate:     date,
		Location:      location,
		Description:   strings.TrimSpace(d.Description),
		TicketPrice:   models.Money(price),
		GoalAttendees: d.GoalAttendees,
		CurrentStatus: status,
		CategoryID:    d.CategoryID,
	}, nil
}

// changed runs after the write is durable; failures are only logged.
func (s *Service) changed(ctx context.Context, action string, id int64) {
	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx); err != nil {
			s.Logger.Warn("CACHE", fmt.Sprintf("invalidate after event %d %s: %v", id, action, err))
		}
	}
	if s.Publisher != nil {
		if err := s.Publisher.PublishEventChanged(ctx, action, id); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("event %d %s not published: %v", id, action, err))
		}
	}
}
