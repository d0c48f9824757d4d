// Package persistencetest provides an in memory sqlite store for tests.
package persistencetest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/goliatone/go-logger/glog"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-storefront/internal/config"
	"github.com/goliatone/go-storefront/internal/persistence"
)

// Config is the store configuration used by New
func Config() config.DB {
	return config.DB{
		Driver:      config.DriverSQLite,
		DSN:         ":memory:",
		PingTimeout: config.DefaultPingTimeout,
	}
}

// Logger returns the logger handed to the persistence client
func Logger() glog.Logger {
	return glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("test"),
		glog.WithAddSource(false),
	).GetLogger("persistence")
}

// New returns a migrated in memory database closed when the test ends
func New(t testing.TB) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db, err := persistence.Setup(context.Background(), Config(), sqldb, sqlitedialect.New(), Logger())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}
