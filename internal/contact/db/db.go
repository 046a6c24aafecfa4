// Package db stores visitor feedback from the contact form.
package db

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"ms-charity/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// CreateContact → insert one message
func (d *DB) CreateContact(ctx context.Context, c *models.Contact) error {
	if _, err := d.Bun.NewInsert().Model(c).Exec(ctx); err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

// ListContacts → every message, newest first
func (d *DB) ListContacts(ctx context.Context) ([]models.Contact, error) {
	contacts := make([]models.Contact, 0)
	err := d.Bun.NewSelect().
		Model(&contacts).
		OrderExpr("ct.submission_date DESC, ct.contact_id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

// DeleteContact → NotFound when no row matched
func (d *DB) DeleteContact(ctx context.Context, id int64) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Contact)(nil)).
		Where("contact_id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete contact %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete contact %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("contact %d: %w", id, models.ErrNotFound)
	}
	return nil
}
