// Package db is the registration ledger. Entries are append-only; Append is
// only called from inside the admission transaction.
package db

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"ms-charity/internal/database"
	"ms-charity/internal/models"
)

// DB accepts either the pool or an open transaction.
type DB struct {
	Bun bun.IDB
}

// Append → insert one registration, returns its id
func (d *DB) Append(ctx context.Context, reg *models.Registration) (int64, error) {
	if _, err := d.Bun.NewInsert().Model(reg).Exec(ctx); err != nil {
		return 0, fmt.Errorf("append registration for event %d: %w", reg.EventID, err)
	}
	return reg.RegistrationID, nil
}

// ListByEvent → registrations of one event, newest first
func (d *DB) ListByEvent(ctx context.Context, eventID int64) ([]models.Registration, error) {
	regs := make([]models.Registration, 0)
	err := d.Bun.NewSelect().
		Model(&regs).
		Where("event_id = ?", eventID).
		OrderExpr("registration_date DESC, registration_id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list registrations of event %d: %w", eventID, err)
	}
	return regs, nil
}

func (d *DB) GetByID(ctx context.Context, id int64) (*models.Registration, error) {
	var reg models.Registration
	err := d.Bun.NewSelect().
		Model(&reg).
		Where("registration_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("registration %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("get registration %d: %w", id, err)
	}
	return &reg, nil
}

// SumTickets → total tickets held by an event's registrations
func (d *DB) SumTickets(ctx context.Context, eventID int64) (int, error) {
	var sum int
	err := d.Bun.NewSelect().
		Model((*models.Registration)(nil)).
		ColumnExpr("COALESCE(SUM(number_of_tickets), 0)").
		Where("event_id = ?", eventID).
		Scan(ctx, &sum)
	if err != nil {
		return 0, fmt.Errorf("sum tickets of event %d: %w", eventID, err)
	}
	return sum, nil
}
