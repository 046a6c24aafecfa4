package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"ms-charity/internal/models"
)

// CreateSchema creates the tables in dependency order. Postgres deployments
// use the SQL files under migrations/ instead.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*models.Category)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create categories: %w", err)
	}

	if _, err := db.NewCreateTable().
		Model((*models.Event)(nil)).
		IfNotExists().
		ForeignKey(`("category_id") REFERENCES "categories" ("category_id") ON DELETE SET NULL`).
		Exec(ctx); err != nil {
		return fmt.Errorf("create events: %w", err)
	}

	if _, err := db.NewCreateTable().
		Model((*models.Registration)(nil)).
		IfNotExists().
		ForeignKey(`("event_id") REFERENCES "events" ("event_id")`).
		Exec(ctx); err != nil {
		return fmt.Errorf("create registrations: %w", err)
	}

	if _, err := db.NewCreateTable().
		Model((*models.Contact)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create contact: %w", err)
	}

	// MySQL has no CREATE INDEX IF NOT EXISTS.
	if db.Dialect().Name() != dialect.MySQL {
		if _, err := db.NewCreateIndex().
			Model((*models.Registration)(nil)).
			Index("registrations_event_id_idx").
			Column("event_id").
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("create registrations index: %w", err)
		}
	}

	return nil
}

// DropSchema removes every table, children first.
func DropSchema(ctx context.Context, db *bun.DB) error {
	tables := []interface{}{(*models.Registration)(nil), (*models.Contact)(nil), (*models.Event)(nil), (*models.Category)(nil)}
	for _, m := range tables {
		if _, err := db.NewDropTable().Model(m).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("drop %T: %w", m, err)
		}
	}
	return nil
}
