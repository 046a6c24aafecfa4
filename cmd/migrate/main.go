// Command migrate prepares the database: versioned SQL migrations on Postgres,
// the bun schema on MySQL and SQLite, and optional demo data.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"ms-charity/internal/config"
	"ms-charity/internal/database"
	"ms-charity/internal/database/migrations"
	"ms-charity/internal/logger"
)

func main() {
	down := flag.Bool("down", false, "roll back every migration (drops all tables)")
	seed := flag.Bool("seed", false, "insert demo categories and events after migrating")
	dir := flag.String("dir", migrations.DefaultDir, "directory holding the SQL migrations (postgres only)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.NewLoggerWithWriter(os.Stdout)
	ctx := context.Background()

	db, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer db.Close()

	if cfg.Database.Driver == database.DriverPostgres {
		runner := migrations.NewRunner(db, *dir, log)
		defer runner.Close()
		if *down {
			err = runner.MigrateDown()
		} else {
			err = runner.MigrateUp()
		}
	} else {
		log.Info("MIGRATE", fmt.Sprintf("Using bun schema for %s", cfg.Database.Driver))
		if *down {
			err = database.DropSchema(ctx, db)
		} else {
			err = database.CreateSchema(ctx, db)
		}
	}
	if err != nil {
		log.Fatal("MIGRATE", err.Error())
	}

	if *seed && !*down {
		log.Info("MIGRATE", "Seeding sample data...")
		if err := database.Seed(ctx, db); err != nil {
			log.Fatal("MIGRATE", fmt.Sprintf("seed failed: %v", err))
		}
	}

	log.Info("MIGRATE", "✅ Done.")
}
