// Package database opens the bun handle for the configured driver and owns the
// schema used outside of the SQL migrations (tests, sqlite deployments).
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-charity/internal/config"
	"ms-charity/internal/logger"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// DSN composes a driver specific connection string unless cfg.DSN is set.
func DSN(cfg config.DatabaseConfig) (string, error) {
	switch cfg.Driver {
	case DriverPostgres:
		if cfg.DSN != "" {
			return cfg.DSN, nil
		}
		return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
			cfg.Username, cfg.Password, net.JoinHostPort(cfg.Host, cfg.Port), cfg.Database), nil
	case DriverMySQL:
		var mc *mysql.Config
		if cfg.DSN != "" {
			parsed, err := mysql.ParseDSN(cfg.DSN)
			if err != nil {
				return "", fmt.Errorf("parse mysql dsn: %w", err)
			}
			mc = parsed
		} else {
			mc = mysql.NewConfig()
			mc.User = cfg.Username
			mc.Passwd = cfg.Password
			mc.Net = "tcp"
			mc.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
			mc.DBName = cfg.Database
		}
		mc.ParseTime = true
		// UPDATE must report matched rows, not changed rows, for NotFound detection.
		mc.ClientFoundRows = true
		return mc.FormatDSN(), nil
	case DriverSQLite:
		if cfg.DSN != "" {
			return cfg.DSN, nil
		}
		return "file:charity.db?_pragma=busy_timeout(5000)", nil
	default:
		return "", fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}

// Open connects with up to five attempts, two seconds apart.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	driverName := cfg.Driver
	if driverName == DriverSQLite {
		driverName = sqliteshim.ShimName
	}

	var sqldb *sql.DB
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Connecting to %s (attempt %d/%d)", cfg.Driver, i+1, maxRetries))
		sqldb, err = sql.Open(driverName, dsn)
		if err == nil {
			err = sqldb.PingContext(ctx)
			if err == nil {
				break
			}
			sqldb.Close()
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to %s: %v", cfg.Driver, err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to %s after %d attempts: %w", cfg.Driver, maxRetries, err)
	}

	db, err := Wrap(sqldb, cfg.Driver)
	if err != nil {
		sqldb.Close()
		return nil, err
	}

	if cfg.Driver != DriverSQLite {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
		sqldb.SetConnMaxLifetime(cfg.MaxLifetime)
	}

	log.Info("DATABASE", fmt.Sprintf("✅ %s connection successful", cfg.Driver))
	return db, nil
}

// Wrap pairs an open *sql.DB with the bun dialect for driver.
func Wrap(sqldb *sql.DB, driver string) (*bun.DB, error) {
	switch driver {
	case DriverPostgres:
		return bun.NewDB(sqldb, pgdialect.New()), nil
	case DriverMySQL:
		return bun.NewDB(sqldb, mysqldialect.New()), nil
	case DriverSQLite:
		// SQLite allows a single writer; one connection also keeps :memory: databases alive.
		sqldb.SetMaxOpenConns(1)
		sqldb.SetMaxIdleConns(1)
		sqldb.SetConnMaxLifetime(0)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// OpenSQLiteMemory returns an empty in-memory database with the schema applied.
func OpenSQLiteMemory(ctx context.Context) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		return nil, err
	}
	db, err := Wrap(sqldb, DriverSQLite)
	if err != nil {
		return nil, err
	}
	if err := CreateSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// ForUpdate adds a row lock to q. SQLite has no FOR UPDATE; its writers are
// already serialised, so the clause is skipped there.
func ForUpdate(q *bun.SelectQuery) *bun.SelectQuery {
	if q.Dialect().Name() == dialect.SQLite {
		return q
	}
	return q.For("UPDATE")
}

// IsNoRows reports whether err means the row does not exist.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
