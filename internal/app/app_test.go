package app

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlbase/internal/config"
	"sqlbase/internal/platform/sqlite"
	"sqlbase/internal/rowset"
	"sqlbase/internal/statement"
)

func testConfig(t *testing.T, dbPath string) config.Config {
	t.Helper()
	var cfg config.Config
	cfg.Env = "dev"
	cfg.DB.Path = dbPath
	cfg.DB.BusyTimeout = time.Second
	cfg.DB.TxLockMode = "DEFERRED"
	cfg.DB.VerifySchema = true
	cfg.Log.ConsoleLevel = "error"
	cfg.Log.FileLevel = "debug"
	require.NoError(t, cfg.Validate())
	return cfg
}

func newTestApp(t *testing.T, dbPath string) (*App, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	cfg := testConfig(t, dbPath)
	a := New(cfg, NewLogger(cfg, io.Discard), &out)
	t.Cleanup(func() { _ = a.Close() })
	return a, &out
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "tutorial.db")
}

func tableCount(t *testing.T, dbPath, table string) int64 {
	t.Helper()
	ctx := context.Background()
	conn, err := sqlite.Open(ctx, dbPath, sqlite.DefaultDBOptions())
	require.NoError(t, err)
	defer conn.Close()

	set, err := statement.NewExecutor(conn, nil).Query(ctx,
		"SELECT COUNT(*) AS n FROM sqlite_master WHERE type = 'table' AND name = ?", table)
	require.NoError(t, err)
	n, _ := set.Records[0].Get("n")
	return n.(int64)
}

func usernames(set rowset.RowSet) []string {
	var names []string
	for _, rec := range set.Records {
		v, _ := rec.Get("username")
		names = append(names, v.(string))
	}
	return names
}

func TestBasics(t *testing.T) {
	path := tempDB(t)
	a, out := newTestApp(t, path)

	require.NoError(t, a.Basics(context.Background()))

	text := out.String()
	all := strings.Index(text, "All users")
	after := strings.Index(text, "After deleting the second user")
	require.True(t, all >= 0 && after > all, "lesson sections out of order:\n%s", text)
	assert.Contains(t, text[all:after], "(2 rows)")
	assert.Contains(t, text[after:], "(1 rows)")
	assert.Contains(t, text, "1996-02-05")
	assert.Contains(t, text, "ajay@example.com")

	assert.Zero(t, tableCount(t, path, "users"), "users must be dropped and committed")
}

func TestBasics_Repeatable(t *testing.T) {
	path := tempDB(t)
	a, _ := newTestApp(t, path)
	ctx := context.Background()

	require.NoError(t, a.Basics(ctx))
	require.NoError(t, a.Basics(ctx))
}

func TestBasics_InMemory(t *testing.T) {
	a, out := newTestApp(t, sqlite.MemoryPath)

	require.NoError(t, a.Basics(context.Background()))
	assert.Contains(t, out.String(), "(1 rows)")
}

func TestFilterResults(t *testing.T) {
	a, _ := newTestApp(t, tempDB(t))

	results, err := a.filterResults(context.Background())
	require.NoError(t, err)
	require.Len(t, results, len(lessonFilters))

	want := [][]string{
		{"ajay", "priya", "rahul"},
		{"ajay"},
		{"priya", "rahul"},
		{"ajay"},
		{"priya"},
		{"ajay", "rahul"},
	}
	for i, r := range results {
		assert.Equal(t, lessonFilters[i].title, r.title)
		assert.Equal(t, want[i], usernames(r.rows), r.title)
	}

	last := results[len(results)-1].rows
	assert.Equal(t, []string{"username", "age", "dob"}, last.ColumnNames())
	dob, _ := last.Records[0].Get("dob")
	assert.Equal(t, rowset.NewDate(1996, time.February, 5), dob)
	age, _ := last.Records[0].Get("age")
	assert.Equal(t, int64(29), age)
}

func TestFilters_SeedsOnce(t *testing.T) {
	path := tempDB(t)
	ctx := context.Background()

	a, _ := newTestApp(t, path)
	require.NoError(t, a.Filters(ctx))
	require.NoError(t, a.Close())

	b, _ := newTestApp(t, path)
	results, err := b.filterResults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, results[0].rows.Len())
}

func TestFilters_Output(t *testing.T) {
	a, out := newTestApp(t, tempDB(t))
	require.NoError(t, a.Filters(context.Background()))

	text := out.String()
	pos := 0
	for _, f := range lessonFilters {
		i := strings.Index(text[pos:], f.title)
		require.GreaterOrEqual(t, i, 0, "missing section %q", f.title)
		pos += i + len(f.title)
	}
	assert.Contains(t, text, "(3 rows)")
	assert.Contains(t, text, "priya@example.com")
}

func TestMigrate(t *testing.T) {
	path := tempDB(t)
	a, out := newTestApp(t, path)
	ctx := context.Background()

	require.NoError(t, a.Migrate(ctx))
	assert.Contains(t, out.String(), "migration version 1 (dirty: false)")
	assert.Equal(t, int64(1), tableCount(t, path, "users"))

	// The verified ensure accepts the migrated table.
	results, err := a.filterResults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, results[0].rows.Len())
}

func TestMigrate_InMemoryRejected(t *testing.T) {
	a, _ := newTestApp(t, sqlite.MemoryPath)
	assert.Error(t, a.Migrate(context.Background()))
}

func TestFormatValue(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, "NULL"},
		{true, "true"},
		{int64(29), "29"},
		{"ajay", "ajay"},
		{rowset.NewDate(1996, time.February, 5), "1996-02-05"},
		{time.Date(2024, time.March, 1, 9, 30, 0, 0, time.UTC), "2024-03-01 09:30:00"},
		{[]byte{0xca, 0xfe}, "x'cafe'"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, formatValue(c.in))
	}
}

func TestRenderRows_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderRows(&buf, "Nobody", rowset.RowSet{}))
	assert.Equal(t, "\nNobody\n(0 rows)\n", buf.String())
}
