package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	"ms-charity/internal/database"
	"ms-charity/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// GetEvent → one event joined with its category name
func (d *DB) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		ColumnExpr("e.*").
		ColumnExpr("c.category_name").
		Join("LEFT JOIN categories AS c ON c.category_id = e.category_id").
		Where("e.event_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("event %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("get event %d: %w", id, err)
	}
	return &event, nil
}

// ListEvents → events matching every set field of f, soonest first
func (d *DB) ListEvents(ctx context.Context, f models.EventFilter) ([]models.Event, error) {
	events := make([]models.Event, 0)
	q := d.Bun.NewSelect().
		Model(&events).
		ColumnExpr("e.*").
		ColumnExpr("c.category_name").
		Join("LEFT JOIN categories AS c ON c.category_id = e.category_id")

	if f.ActiveOnly {
		q = q.Where("e.current_status = ?", models.StatusActive)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("LOWER(e.event_name) LIKE ?", pattern).
				WhereOr("LOWER(e.description) LIKE ?", pattern)
		})
	}
	if f.Date != "" {
		date, err := models.ParseDate(f.Date)
		if err != nil {
			return nil, models.NewValidationError("date", "must be a date in YYYY-MM-DD format")
		}
		q = q.Where("e.event_date = ?", date)
	}
	if s := strings.TrimSpace(f.Location); s != "" {
		q = q.Where("LOWER(e.location) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	if len(f.Categories) > 0 {
		q = q.Where("c.category_name IN (?)", bun.In(f.Categories))
	}

	if err := q.OrderExpr("e.event_date ASC, e.event_id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// CreateEvent → insert, returns the new id
func (d *DB) CreateEvent(ctx context.Context, event *models.Event) (int64, error) {
	event.CurrentAttendees = 0
	if _, err := d.Bun.NewInsert().Model(event).Exec(ctx); err != nil {
		return 0, fmt.Errorf("create event: %w", err)
	}
	return event.EventID, nil
}

// UpdateEvent overwrites the editable columns. The row is locked so that the
// goal check cannot race an admission; current_attendees is never written here.
func (d *DB) UpdateEvent(ctx context.Context, event *models.Event) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var current models.Event
		err := database.ForUpdate(tx.NewSelect().
			Model(&current).
			Column("event_id", "current_attendees").
			Where("event_id = ?", event.EventID)).
			Scan(ctx)
		if err != nil {
			if database.IsNoRows(err) {
				return fmt.Errorf("event %d: %w", event.EventID, models.ErrNotFound)
			}
			return fmt.Errorf("lock event %d: %w", event.EventID, err)
		}

		if event.GoalAttendees < current.CurrentAttendees {
			return models.NewValidationError("GoalAttendees",
				fmt.Sprintf("cannot be lower than the %d attendees already registered", current.CurrentAttendees))
		}

		_, err = tx.NewUpdate().
			Model(event).
			Column("event_name", "event_image", "event_date", "location", "description",
				"ticket_price", "goal_attendees", "current_status", "category_id").
			Where("event_id = ?", event.EventID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update event %d: %w", event.EventID, err)
		}
		return nil
	})
}

// DeleteEvent removes an event that owns no registrations.
func (d *DB) DeleteEvent(ctx context.Context, id int64) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var event models.Event
		err := database.ForUpdate(tx.NewSelect().
			Model(&event).
			Column("event_id").
			Where("event_id = ?", id)).
			Scan(ctx)
		if err != nil {
			if database.IsNoRows(err) {
				return fmt.Errorf("event %d: %w", id, models.ErrNotFound)
			}
			return fmt.Errorf("lock event %d: %w", id, err)
		}

		count, err := tx.NewSelect().
			Model((*models.Registration)(nil)).
			Where("event_id = ?", id).
			Count(ctx)
		if err != nil {
			return fmt.Errorf("count registrations of event %d: %w", id, err)
		}
		if count > 0 {
			return &models.RegistrationsExistError{Count: count}
		}

		if _, err := tx.NewDelete().
			Model((*models.Event)(nil)).
			Where("event_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete event %d: %w", id, err)
		}
		return nil
	})
}

// ListCategories → all categories by name
func (d *DB) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := make([]models.Category, 0)
	if err := d.Bun.NewSelect().Model(&categories).OrderExpr("c.category_name ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (d *DB) CategoryExists(ctx context.Context, id int64) (bool, error) {
	exists, err := d.Bun.NewSelect().
		Model((*models.Category)(nil)).
		Where("category_id = ?", id).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check category %d: %w", id, err)
	}
	return exists, nil
}
