package migration

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	apperrors "github.com/skillsenselab/reskit/errors"
	"github.com/skillsenselab/reskit/logger"
)

// Runner applies pending versioned migrations in a single blocking pass.
type Runner struct {
	log *logger.Logger
}

// NewRunner creates a migration runner.
func NewRunner(log *logger.Logger) *Runner {
	return &Runner{log: log.WithComponent("migration")}
}

// Run opens a dedicated connection for the plan, applies every pending
// migration and releases the connection. Any failure (connectivity, script
// error, checksum mismatch against applied history) returns a
// MIGRATION_FAILED error; nothing is retried.
func (r *Runner) Run(ctx context.Context, plan Plan) error {
	driverName, err := plan.DriverName()
	if err != nil {
		return err
	}
	dsn, err := plan.DSN()
	if err != nil {
		return err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return apperrors.Migration(err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return apperrors.Migration(err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: plan.Table(),
	})
	if err != nil {
		db.Close()
		return apperrors.Migration(err)
	}

	m, err := migrate.NewWithDatabaseInstance(plan.SourceURL(), driverName, driver)
	if err != nil {
		db.Close()
		return apperrors.Migration(err)
	}

	r.log.Info("Applying pending migrations", logger.Fields("source", plan.SourceURL()))

	upErr := m.Up()
	if upErr != nil && !stderrors.Is(upErr, migrate.ErrNoChange) {
		m.Close()
		return apperrors.Migration(upErr)
	}

	version, dirty, verErr := m.Version()
	if verErr == nil {
		r.log.Info("Migrations up to date", logger.Fields("version", version, "dirty", dirty))
	}

	srcErr, dbErr := m.Close()
	if closeErr := stderrors.Join(srcErr, dbErr); closeErr != nil {
		return apperrors.Migration(closeErr)
	}
	return nil
}
