package persistence_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-storefront/internal/config"
	"github.com/goliatone/go-storefront/internal/persistence"
	"github.com/goliatone/go-storefront/internal/persistence/persistencetest"
)

func setup(t *testing.T, sqldb *sql.DB) *bun.DB {
	t.Helper()
	db, err := persistence.Setup(context.Background(), persistencetest.Config(), sqldb, sqlitedialect.New(), persistencetest.Logger())
	require.NoError(t, err)
	return db
}

func openMemory(t *testing.T) *sql.DB {
	sqldb, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqldb.Close() })
	return sqldb
}

func tableExists(t *testing.T, db *bun.DB, table string) bool {
	t.Helper()
	var count int
	err := db.NewSelect().
		TableExpr("sqlite_master").
		ColumnExpr("COUNT(*)").
		Where("type = 'table' AND name = ?", table).
		Scan(context.Background(), &count)
	require.NoError(t, err)
	return count == 1
}

func TestSetup_AppliesMigrationsOnce(t *testing.T) {
	sqldb := openMemory(t)

	db := setup(t, sqldb)
	for _, table := range []string{"users", "products", "orders", "issues"} {
		assert.True(t, tableExists(t, db, table), table)
	}
	assert.False(t, tableExists(t, db, "schema_migrations"))

	// already applied migrations are skipped
	db = setup(t, sqldb)
	assert.True(t, tableExists(t, db, "users"))
}

func TestSetup_EmailIsUnique(t *testing.T) {
	ctx := context.Background()
	db := setup(t, openMemory(t))

	insert := "INSERT INTO users (id, name, email, password_hash, role) VALUES (?, ?, ?, ?, ?)"
	_, err := db.ExecContext(ctx, insert, "a", "Ann", "ann@example.com", "x", "customer")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, insert, "b", "Ann", "ann@example.com", "x", "customer")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNIQUE constraint failed")
}

func TestMigrations_CoverEveryDialect(t *testing.T) {
	fsys := persistence.GetMigrationsFS()
	for _, dialect := range []string{config.DriverSQLite, config.DriverPostgres} {
		entries, err := fsys.ReadDir("migrations/" + dialect)
		require.NoError(t, err, dialect)
		assert.Len(t, entries, 8, dialect)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := persistence.Open(context.Background(), config.DB{Driver: "mysql"}, persistencetest.Logger())
	require.Error(t, err)
}

func TestOpen_SQLiteMemory(t *testing.T) {
	db, err := persistence.Open(context.Background(), config.DB{
		Driver: config.DriverSQLite,
		DSN:    "file::memory:?cache=shared",
	}, persistencetest.Logger())
	require.NoError(t, err)
	defer db.Close()

	assert.True(t, tableExists(t, db, "orders"))
}

func TestDB_PingTimeoutDefault(t *testing.T) {
	assert.Equal(t, config.DefaultPingTimeout, config.DB{}.GetPingTimeout())
	assert.Equal(t, "file:x.db", config.DB{DSN: "file:x.db"}.GetServer())
}
