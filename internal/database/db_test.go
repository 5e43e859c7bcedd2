package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T, name string, profile DatabaseProfile) *DB {
	t.Helper()
	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), "nested", name+".db"),
		Profile: profile,
		Name:    name,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *DB, table string) bool {
	t.Helper()
	var name string
	err := db.Conn().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	require.NoError(t, err)
	return true
}

func TestBuildConnectionString(t *testing.T) {
	tests := []struct {
		profile  DatabaseProfile
		contains []string
	}{
		{ProfileLedger, []string{"synchronous(FULL)", "auto_vacuum(NONE)"}},
		{ProfileStandard, []string{"synchronous(NORMAL)", "auto_vacuum(INCREMENTAL)"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.profile), func(t *testing.T) {
			connStr := buildConnectionString("/tmp/x.db", tt.profile)
			assert.Contains(t, connStr, "/tmp/x.db?_pragma=journal_mode(WAL)")
			assert.Contains(t, connStr, "&_pragma=busy_timeout(5000)")
			assert.Equal(t, 1, strings.Count(connStr, "?"))
			for _, c := range tt.contains {
				assert.Contains(t, connStr, c)
			}
		})
	}
}

func TestNew_PoolFollowsProfile(t *testing.T) {
	tests := []struct {
		profile DatabaseProfile
		maxOpen int
	}{
		{ProfileLedger, 4},
		{ProfileStandard, 8},
	}

	for _, tt := range tests {
		t.Run(string(tt.profile), func(t *testing.T) {
			db := openTestDB(t, "pool", tt.profile)
			assert.Equal(t, tt.maxOpen, db.Conn().Stats().MaxOpenConnections)
		})
	}
}

func TestNew_UnknownProfile(t *testing.T) {
	_, err := New(Config{
		Path:    filepath.Join(t.TempDir(), "x.db"),
		Profile: "cache",
		Name:    "x",
	})
	assert.ErrorContains(t, err, `unknown profile "cache"`)
}

func TestNew_CreatesDirectoryAndDefaultsProfile(t *testing.T) {
	db := openTestDB(t, "scratch", "")

	assert.Equal(t, ProfileStandard, db.Profile())
	assert.Equal(t, "scratch", db.Name())
	assert.True(t, filepath.IsAbs(db.Path()))
	require.NoError(t, db.QuickCheck(context.Background()))
}

func TestMigrate_AppliesEmbeddedSchemas(t *testing.T) {
	tests := []struct {
		name   string
		tables []string
	}{
		{"history", []string{"deposit_history", "avoid_values"}},
		{"plans", []string{"plans"}},
		{"config", []string{"settings"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openTestDB(t, tt.name, ProfileStandard)

			require.NoError(t, db.Migrate())
			require.NoError(t, db.Migrate(), "migrations must be idempotent")

			for _, table := range tt.tables {
				assert.True(t, tableExists(t, db, table), "missing table %s", table)
			}
		})
	}
}

func TestMigrate_UnknownDatabaseIsNoop(t *testing.T) {
	db := openTestDB(t, "unknown", ProfileStandard)

	require.NoError(t, db.Migrate())
	assert.False(t, tableExists(t, db, "settings"))
}

func TestWithTransaction(t *testing.T) {
	db := openTestDB(t, "config", ProfileStandard)
	require.NoError(t, db.Migrate())

	insert := func(tx *sql.Tx, key string) error {
		_, err := tx.Exec("INSERT INTO settings (key, value, updated_at) VALUES (?, 'v', 0)", key)
		return err
	}
	count := func() int {
		var n int
		require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM settings").Scan(&n))
		return n
	}

	require.NoError(t, WithTransaction(db.Conn(), func(tx *sql.Tx) error { return insert(tx, "a") }))
	assert.Equal(t, 1, count())

	boom := errors.New("boom")
	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		require.NoError(t, insert(tx, "b"))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, count(), "failed transaction must roll back")

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		require.NoError(t, insert(tx, "c"))
		panic("kaboom")
	})
	assert.ErrorContains(t, err, "panic in transaction")
	assert.Equal(t, 1, count())

	assert.Error(t, WithTransaction(nil, func(*sql.Tx) error { return nil }))
}

func TestMaintenanceOperations(t *testing.T) {
	db := openTestDB(t, "plans", ProfileStandard)
	require.NoError(t, db.Migrate())
	ctx := context.Background()

	require.NoError(t, db.HealthCheck(ctx))
	require.NoError(t, db.WALCheckpoint(""))
	require.NoError(t, db.WALCheckpoint("PASSIVE"))
	require.NoError(t, db.Vacuum())

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Greater(t, stats.PageCount, int64(0))
	assert.Greater(t, stats.PageSize, int64(0))
	assert.Greater(t, stats.SizeBytes, int64(0))
}
