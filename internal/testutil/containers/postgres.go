//go:build integration

package containers

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/thistle/pkg/database"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

const postgresDatabase = "thistle"

// PostgresContainer is a migrated postgres instance.
type PostgresContainer struct {
	Container *tcpostgres.PostgresContainer
	DB        database.DB
	SQLX      *sqlx.DB
}

// NewPostgresContainer starts postgres and applies every migration in db/pg.
func NewPostgresContainer(t *testing.T, logger ectologger.Logger) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase(postgresDatabase),
		tcpostgres.WithUsername("thistle"),
		tcpostgres.WithPassword("thistle"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	testcontainers.CleanupContainer(t, container)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to connect to postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: MigrationsPath(),
	})
	if err := migrations.Migrate(postgresDatabase, db.DB); err != nil {
		t.Fatalf("failed to migrate postgres: %v", err)
	}

	return &PostgresContainer{
		Container: container,
		DB:        database.NewDatabaseInstance(db, logger),
		SQLX:      db,
	}
}

// Truncate empties every table the engine writes, keeping reference data.
func (p *PostgresContainer) Truncate(t *testing.T) {
	t.Helper()
	_, err := p.SQLX.Exec(`TRUNCATE prisoner_contact_restriction, prisoner_contact, prisoner_domestic_status,
		prisoner_number_of_children, prisoner_restrictions, contact CASCADE`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

// MigrationsPath is the absolute path of db/pg.
func MigrationsPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "db", "pg")
}
