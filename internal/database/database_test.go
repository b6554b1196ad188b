package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/chatmerge/internal/config"
)

func TestBuildSQLiteDSN(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.DatabaseConfig
		contains []string
		exact    string
	}{
		{
			name:  "in memory is passed through",
			cfg:   config.DatabaseConfig{Path: ":memory:"},
			exact: ":memory:",
		},
		{
			name: "file with pragmas",
			cfg: config.DatabaseConfig{
				Path:            "/tmp/chatmerge.db",
				BusyTimeout:     5000,
				JournalMode:     "WAL",
				SynchronousMode: "NORMAL",
				ForeignKeys:     true,
			},
			contains: []string{"file:/tmp/chatmerge.db?", "_busy_timeout=5000", "_journal_mode=WAL", "_synchronous=NORMAL", "_foreign_keys=true"},
		},
		{
			name:     "empty pragmas are omitted",
			cfg:      config.DatabaseConfig{Path: "db.sqlite", BusyTimeout: 100},
			contains: []string{"_busy_timeout=100", "_foreign_keys=false"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn := buildSQLiteDSN(&tt.cfg)
			if tt.exact != "" {
				assert.Equal(t, tt.exact, dsn)
				return
			}
			for _, s := range tt.contains {
				assert.Contains(t, dsn, s)
			}
			if tt.cfg.JournalMode == "" {
				assert.NotContains(t, dsn, "_journal_mode")
			}
		})
	}
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.New()
	cfg.Database = config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "history.db"),
		BusyTimeout: 5000,
		JournalMode: "WAL",
		ForeignKeys: true,
		ConnMaxLife: time.Minute,
	}
	return cfg
}

func TestMigrationsRoundTrip(t *testing.T) {
	require.NoError(t, InitDB(testConfig(t)))
	t.Cleanup(func() { _ = CloseDB() })

	require.NoError(t, RunMigrations())
	// applying twice is a no-op
	require.NoError(t, RunMigrations())

	conn, err := DB()
	require.NoError(t, err)

	var name string
	err = conn.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'merge_sessions'").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "merge_sessions", name)

	require.NoError(t, RevertMigrations(1))
	err = conn.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'merge_sessions'").Scan(&name)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	assert.Error(t, RevertMigrations(0))
}

func TestWithTransaction(t *testing.T) {
	require.NoError(t, InitDB(testConfig(t)))
	t.Cleanup(func() { _ = CloseDB() })

	conn, err := DB()
	require.NoError(t, err)
	ctx := context.Background()

	_, err = conn.ExecContext(ctx, "CREATE TABLE kv (k TEXT PRIMARY KEY)")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = WithTransaction(ctx, conn, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO kv (k) VALUES ('a')"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM kv").Scan(&count))
	assert.Zero(t, count)

	require.NoError(t, WithTransaction(ctx, conn, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO kv (k) VALUES ('b')")
		return err
	}))
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM kv").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestNotInitialized(t *testing.T) {
	require.NoError(t, CloseDB())

	_, err := DB()
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, RunMigrations(), ErrNotInitialized)
}
