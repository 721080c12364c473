package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlbase/internal/shared"
)

func TestDefaultDBOptions(t *testing.T) {
	opts := DefaultDBOptions()

	assert.Equal(t, 5*time.Second, opts.PingTimeout)
	assert.True(t, opts.WALMode)
	assert.True(t, opts.ForeignKeys)
	assert.Equal(t, 5*time.Second, opts.BusyTimeout)
	assert.Equal(t, TxLockDeferred, opts.TxLockMode)
	assert.Equal(t, AccessModeReadWrite, opts.AccessMode)
	assert.Nil(t, opts.Logger)
	assert.NotNil(t, opts.logger())
}

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name     string
		dbPath   string
		opts     DBOptions
		expected string
	}{
		{
			name:     "default options",
			dbPath:   "/tmp/test.db",
			opts:     DefaultDBOptions(),
			expected: "file:/tmp/test.db?_pragma=busy_timeout(5000)&_time_format=sqlite",
		},
		{
			name:     "without busy timeout",
			dbPath:   ":memory:",
			opts:     DBOptions{},
			expected: "file::memory:?_time_format=sqlite",
		},
		{
			name:     "read only mode",
			dbPath:   "test.db",
			opts:     DBOptions{AccessMode: AccessModeReadOnly},
			expected: "file:test.db?mode=ro&_time_format=sqlite",
		},
		{
			name:   "read write create mode with timeout",
			dbPath: "test.db",
			opts: DBOptions{
				AccessMode:  AccessModeReadWriteCreate,
				BusyTimeout: 2 * time.Second,
			},
			expected: "file:test.db?mode=rwc&_pragma=busy_timeout(2000)&_time_format=sqlite",
		},
		{
			name:     "uri characters escaped",
			dbPath:   "data/a?b#c%.db",
			opts:     DBOptions{},
			expected: "file:data/a%3fb%23c%25.db?_time_format=sqlite",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildDSN(tt.dbPath, tt.opts))
		})
	}
}

func TestOpenInMemory(t *testing.T) {
	ctx := context.Background()
	c, err := OpenInMemory(ctx)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	assert.Equal(t, MemoryPath, c.Path())
	assert.False(t, c.InTx())

	var fk int
	err = c.Run(ctx, TxJoin, func(ctx context.Context, q Querier) error {
		return q.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, fk)
}

func TestOpen_CreateDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "test.db")

	c, err := Open(context.Background(), dbPath, DefaultDBOptions())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	_, err = os.Stat(filepath.Dir(dbPath))
	assert.NoError(t, err)
	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestOpen_WALMode(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "wal.db")

	c, err := Open(context.Background(), dbPath, DefaultDBOptions())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	var mode string
	err = c.Run(context.Background(), TxJoin, func(ctx context.Context, q Querier) error {
		return q.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode)
	})
	require.NoError(t, err)
	assert.Equal(t, "wal", mode)
}

func TestOpen_StorageUnavailable(t *testing.T) {
	dir := t.TempDir()

	notADB := filepath.Join(dir, "garbage.db")
	require.NoError(t, os.WriteFile(notADB, []byte("this is definitely not an sqlite database file, just text padding it out"), 0644))

	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	tests := []struct {
		name string
		path string
		opts DBOptions
	}{
		{"empty path", "", DefaultDBOptions()},
		{"not a database", notADB, DefaultDBOptions()},
		{"path is a directory", dir, DefaultDBOptions()},
		{"parent is a file", filepath.Join(blocker, "test.db"), DefaultDBOptions()},
		{
			name: "read only missing file",
			path: filepath.Join(dir, "missing.db"),
			opts: func() DBOptions {
				o := DefaultDBOptions()
				o.AccessMode = AccessModeReadOnly
				return o
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Open(context.Background(), tt.path, tt.opts)
			require.Error(t, err)
			assert.Nil(t, c)
			assert.True(t, shared.IsStorageUnavailable(err), "got %v", err)
		})
	}
}

func TestOpen_ReadOnly(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "ro.db")

	rwOpts := DefaultDBOptions()
	rwOpts.WALMode = false // read-only открытие WAL файла требует -shm
	rw, err := Open(ctx, dbPath, rwOpts)
	require.NoError(t, err)
	err = rw.Run(ctx, TxJoin, func(ctx context.Context, q Querier) error {
		_, err := q.ExecContext(ctx, "CREATE TABLE t (id INTEGER PRIMARY KEY)")
		return err
	})
	require.NoError(t, err)
	require.NoError(t, rw.Close())

	opts := DefaultDBOptions()
	opts.AccessMode = AccessModeReadOnly
	ro, err := Open(ctx, dbPath, opts)
	require.NoError(t, err)
	defer func() { _ = ro.Close() }()

	err = ro.Run(ctx, TxBegin, func(ctx context.Context, q Querier) error {
		_, err := q.ExecContext(ctx, "INSERT INTO t (id) VALUES (1)")
		return err
	})
	require.Error(t, err)
	assert.True(t, shared.IsStorageUnavailable(ClassifyError(err)), "got %v", err)
}
