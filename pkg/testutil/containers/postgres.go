//go:build integration

package containers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers Postgres instance seeded with the
// name reference schema.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

const referenceSchema = `
CREATE TABLE IF NOT EXISTS name_affixes (affix TEXT PRIMARY KEY);
CREATE TABLE IF NOT EXISTS name_titles (title TEXT PRIMARY KEY);
CREATE TABLE IF NOT EXISTS firstname_genders (firstname TEXT PRIMARY KEY, gender TEXT NOT NULL);
CREATE TABLE IF NOT EXISTS surname_occurrences (surname TEXT, occurrence INT NOT NULL);
CREATE TABLE IF NOT EXISTS lastname_occurrences (
	lastname TEXT PRIMARY KEY,
	regular_count INT NOT NULL,
	fuzzy_count INT NOT NULL,
	regular_proportion DOUBLE PRECISION NOT NULL,
	fuzzy_proportion DOUBLE PRECISION NOT NULL
);
CREATE TABLE IF NOT EXISTS initials_occurrences (initials TEXT PRIMARY KEY, proportion DOUBLE PRECISION NOT NULL);
CREATE TABLE IF NOT EXISTS firstname_occurrences (firstname TEXT PRIMARY KEY, count INT NOT NULL);
`

// NewPostgresContainer starts a Postgres container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("personmatch"),
		tcpostgres.WithUsername("personmatch"),
		tcpostgres.WithPassword("personmatch"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres: %v", err)
	}
	if _, err := db.ExecContext(ctx, referenceSchema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
		_ = container.Terminate(context.Background())
	})

	return &PostgresContainer{Container: container, DSN: dsn, DB: db}
}
