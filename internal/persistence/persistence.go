package persistence

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/schema"

	"github.com/goliatone/go-storefront/internal/config"
)

const migrationsRoot = "migrations"

//go:embed migrations
var migrationsFS embed.FS

// GetMigrationsFS returns the SQL migrations for every supported dialect
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

// Open connects to the configured store and applies pending migrations
func Open(ctx context.Context, cfg config.DB, logger glog.Logger) (*bun.DB, error) {
	var (
		sqldb   *sql.DB
		dialect schema.Dialect
		err     error
	)

	switch cfg.Driver {
	case config.DriverSQLite, "":
		sqldb, err = sql.Open(sqliteshim.ShimName, cfg.DSN)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to open sqlite")
		}
		// sqlite serializes writers
		sqldb.SetMaxOpenConns(1)
		dialect = sqlitedialect.New()
	case config.DriverPostgres:
		sqldb, err = sql.Open("pgx", cfg.DSN)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to open postgres")
		}
		dialect = pgdialect.New()
	default:
		return nil, errors.New(fmt.Sprintf("unsupported db driver %q", cfg.Driver), errors.CategoryValidation).
			WithTextCode("UNSUPPORTED_DRIVER")
	}

	db, err := Setup(ctx, cfg, sqldb, dialect, logger)
	if err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return db, nil
}

// Setup wraps an open connection in a persistence client, validates the
// bundled migrations against every dialect and migrates the store.
func Setup(ctx context.Context, cfg config.DB, sqldb *sql.DB, dialect schema.Dialect, logger glog.Logger) (*bun.DB, error) {
	client, err := persistence.New(cfg, sqldb, dialect)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to reach database")
	}
	client.SetLogger(logger)

	migrations, err := fs.Sub(migrationsFS, migrationsRoot)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load migrations")
	}

	client.RegisterDialectMigrations(
		migrations,
		persistence.WithDialectSourceLabel("internal/persistence/migrations"),
		persistence.WithValidationTargets(config.DriverPostgres, config.DriverSQLite),
	)

	if err := client.ValidateDialects(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "migrations do not cover every dialect")
	}

	if err := client.Migrate(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to apply migrations")
	}

	if report := client.Report(); report != nil && !report.IsZero() {
		logger.Info("migrations applied", "report", report.String())
	}

	db := client.DB()
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
		))
	}

	return db, nil
}
