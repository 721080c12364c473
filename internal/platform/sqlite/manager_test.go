package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlbase/internal/shared"
)

func TestManager_AcquireReturnsCanonicalConn(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	m := NewManager(DefaultDBOptions())
	t.Cleanup(func() { _ = m.Shutdown() })

	dbPath := filepath.Join(dir, "shared.db")
	first, err := m.Acquire(ctx, dbPath)
	require.NoError(t, err)

	// Другая запись того же пути даёт то же соединение
	second, err := m.Acquire(ctx, filepath.Join(dir, ".", "sub", "..", "shared.db"))
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := m.Acquire(ctx, filepath.Join(dir, "other.db"))
	require.NoError(t, err)
	assert.NotSame(t, first, other)

	assert.Len(t, m.Paths(), 2)
}

func TestManager_RelativePath(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	t.Chdir(dir)

	m := NewManager(DefaultDBOptions())
	t.Cleanup(func() { _ = m.Shutdown() })

	rel, err := m.Acquire(ctx, "tutorial.db")
	require.NoError(t, err)
	abs, err := m.Acquire(ctx, filepath.Join(dir, "tutorial.db"))
	require.NoError(t, err)
	assert.Same(t, rel, abs)
}

func TestManager_PendingChangesVisibleAcrossAcquire(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "visible.db")
	m := NewManager(DefaultDBOptions())
	t.Cleanup(func() { _ = m.Shutdown() })

	first, err := m.Acquire(ctx, dbPath)
	require.NoError(t, err)
	tc := &TestConn{Conn: first, Path: dbPath}
	tc.Exec(t, "CREATE TABLE test (id INTEGER PRIMARY KEY, value TEXT)")
	require.NoError(t, insertValue(ctx, first, "pending"))

	again, err := m.Acquire(ctx, dbPath)
	require.NoError(t, err)
	assert.True(t, again.InTx())
	assert.Equal(t, 1, (&TestConn{Conn: again, Path: dbPath}).CountRows(t, "test"))
}

func TestManager_CloseDeregisters(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "closed.db")
	m := NewManager(DefaultDBOptions())
	t.Cleanup(func() { _ = m.Shutdown() })

	first, err := m.Acquire(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, first.Close())
	assert.Empty(t, m.Paths())

	// Новый Acquire открывает свежее соединение
	second, err := m.Acquire(ctx, dbPath)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.False(t, second.Closed())

	// Закрытие старого дескриптора не трогает новый
	assert.True(t, shared.IsUseAfterClose(first.Close()))
	assert.Len(t, m.Paths(), 1)
}

func TestManager_Shutdown(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	m := NewManager(DefaultDBOptions())

	a, err := m.Acquire(ctx, filepath.Join(dir, "a.db"))
	require.NoError(t, err)
	b, err := m.Acquire(ctx, filepath.Join(dir, "b.db"))
	require.NoError(t, err)
	require.NoError(t, b.Close())

	require.NoError(t, m.Shutdown())
	assert.True(t, a.Closed())
	assert.Empty(t, m.Paths())

	// Повторный Shutdown безопасен
	assert.NoError(t, m.Shutdown())
}

func TestManager_AcquireErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	m := NewManager(DefaultDBOptions())
	t.Cleanup(func() { _ = m.Shutdown() })

	_, err := m.Acquire(ctx, "")
	assert.True(t, shared.IsStorageUnavailable(err))

	_, err = m.Acquire(ctx, filepath.Join(blocker, "x.db"))
	assert.True(t, shared.IsStorageUnavailable(err))
	assert.Empty(t, m.Paths())
}

func TestManager_MemoryPath(t *testing.T) {
	ctx := context.Background()
	m := NewManager(DefaultDBOptions())
	t.Cleanup(func() { _ = m.Shutdown() })

	c, err := m.Acquire(ctx, MemoryPath)
	require.NoError(t, err)
	again, err := m.Acquire(ctx, MemoryPath)
	require.NoError(t, err)
	assert.Same(t, c, again)
	assert.Equal(t, []string{MemoryPath}, m.Paths())
}
