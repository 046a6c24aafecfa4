package models

import (
	"database/sql/driver"
	"fmt"
	"strconv"
)

// Money is a ticket price or revenue amount. Drivers disagree on how a
// DECIMAL comes back: SQLite returns whole values as integers, MySQL and
// Postgres return text.
type Money float64

func (m Money) Value() (driver.Value, error) {
	return float64(m), nil
}

func (m *Money) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = 0
	case float64:
		*m = Money(v)
	case float32:
		*m = Money(v)
	case int64:
		*m = Money(v)
	case []byte:
		return m.parse(string(v))
	case string:
		return m.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into Money", src)
	}
	return nil
}

func (m *Money) parse(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("cannot scan %q into Money: %w", s, err)
	}
	*m = Money(f)
	return nil
}
