package migrations

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"ms-charity/internal/database"
	"ms-charity/internal/logger"
	"ms-charity/internal/models"
)

func TestRunnerMissingDirectory(t *testing.T) {
	bunDB, err := database.OpenSQLiteMemory(context.Background())
	require.NoError(t, err)
	defer bunDB.Close()

	r := NewRunner(bunDB, t.TempDir()+"/missing", logger.NewLoggerWithWriter(&bytes.Buffer{}))
	assert.Error(t, r.MigrateUp())
	assert.NoError(t, r.Close())
}

func TestPostgresMigrations(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Postgres integration test in short mode")
	}

	ctx := context.Background()
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "charity_user",
				"POSTGRES_PASSWORD": "charity_pass",
				"POSTGRES_DB":       "charityevents_db",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Postgres container: %v", err)
	}
	defer pgContainer.Terminate(ctx)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://charity_user:charity_pass@%s:%s/charityevents_db?sslmode=disable", host, port.Port())
	sqldb, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	bunDB, err := database.Wrap(sqldb, database.DriverPostgres)
	require.NoError(t, err)

	r := NewRunner(bunDB, "../../../migrations", logger.NewLoggerWithWriter(&bytes.Buffer{}))
	defer r.Close()
	require.NoError(t, r.MigrateUp())
	require.NoError(t, r.MigrateUp(), "second run is a no-op")

	require.NoError(t, database.Seed(ctx, bunDB))

	var event models.Event
	require.NoError(t, bunDB.NewSelect().Model(&event).Where("event_name = ?", "Community Coding Workshop").Scan(ctx))
	assert.Equal(t, 48, event.CurrentAttendees)

	_, err = bunDB.NewUpdate().Model((*models.Event)(nil)).
		Set("current_attendees = goal_attendees + 1").
		Where("event_id = ?", event.EventID).
		Exec(ctx)
	assert.Error(t, err, "the capacity check constraint refuses overselling")

	require.NoError(t, r.MigrateDown())
	exists, err := tableExists(ctx, sqldb, "events")
	require.NoError(t, err)
	assert.False(t, exists)
}

func tableExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)", name).Scan(&exists)
	return exists, err
}
