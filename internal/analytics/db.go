package analytics

import (
	"context"

	"github.com/uptrace/bun"

	"ms-charity/internal/models"
)

// DB handles analytics database operations
type DB struct {
	bun *bun.DB
}

// NewDB creates a new analytics DB handler
func NewDB(db *bun.DB) *DB {
	return &DB{bun: db}
}

// GetTotalRevenue sums ticket price times admitted attendees over active events
func (db *DB) GetTotalRevenue(ctx context.Context) (float64, error) {
	var total models.Money
	err := db.bun.NewSelect().
		Model((*models.Event)(nil)).
		ColumnExpr("COALESCE(SUM(e.ticket_price * e.current_attendees), 0)").
		Where("e.current_status = ?", models.StatusActive).
		Scan(ctx, &total)

	return float64(total), err
}

// GetActiveEventsByCategory counts active events per category, including
// categories that have none
func (db *DB) GetActiveEventsByCategory(ctx context.Context) ([]models.CategoryCount, error) {
	counts := make([]models.CategoryCount, 0)
	err := db.bun.NewRaw(`
		SELECT
			c.category_name AS category_name,
			COUNT(e.event_id) AS event_count
		FROM
			categories c
		LEFT JOIN
			events e ON e.category_id = c.category_id AND e.current_status = ?
		GROUP BY
			c.category_name
		ORDER BY
			event_count DESC, c.category_name ASC
	`, models.StatusActive).Scan(ctx, &counts)

	return counts, err
}
