// Package db runs admission transactions on bun.
package db

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"ms-charity/internal/admission"
	"ms-charity/internal/database"
	ledger "ms-charity/internal/ledger/db"
	"ms-charity/internal/models"
)

type Store struct {
	Bun *bun.DB
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx admission.Tx) error) error {
	return s.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &Tx{tx: tx, ledger: &ledger.DB{Bun: tx}})
	})
}

type Tx struct {
	tx     bun.Tx
	ledger *ledger.DB
}

// LockEvent → SELECT ... FOR UPDATE on the capacity columns
func (t *Tx) LockEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	var event models.Event
	err := database.ForUpdate(t.tx.NewSelect().
		Model(&event).
		Column("event_id", "current_attendees", "goal_attendees", "current_status").
		Where("event_id = ?", eventID)).
		Scan(ctx)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("event %d: %w", eventID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("lock event %d: %w", eventID, err)
	}
	return &event, nil
}

func (t *Tx) AppendRegistration(ctx context.Context, reg *models.Registration) (int64, error) {
	return t.ledger.Append(ctx, reg)
}

// AddAttendees → guarded increment that can never push past the goal
func (t *Tx) AddAttendees(ctx context.Context, eventID int64, n int) (bool, error) {
	res, err := t.tx.NewUpdate().
		Model((*models.Event)(nil)).
		Set("current_attendees = current_attendees + ?", n).
		Where("event_id = ?", eventID).
		Where("current_attendees + ? <= goal_attendees", n).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("add %d attendees to event %d: %w", n, eventID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add attendees rows affected: %w", err)
	}
	return rows == 1, nil
}
