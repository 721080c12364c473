package sqlite

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"
)

// TestConn представляет тестовое соединение с удобными хелперами.
type TestConn struct {
	Conn *Conn
	Path string // Путь к файлу БД (":memory:" для in-memory)
}

// NewTestConnInMemory создает in-memory соединение для тестов.
// Соединение автоматически закрывается после завершения теста.
func NewTestConnInMemory(t *testing.T) *TestConn {
	t.Helper()

	c, err := OpenInMemory(context.Background())
	if err != nil {
		t.Fatalf("Failed to open in-memory test DB: %v", err)
	}

	// Автоматически закрываем БД после теста (если тест не закрыл её сам)
	t.Cleanup(func() {
		if !c.Closed() {
			_ = c.Close()
		}
	})

	return &TestConn{Conn: c, Path: MemoryPath}
}

// NewTestConnFile создает файловую БД во временной директории теста.
// Файл удаляется вместе с t.TempDir().
func NewTestConnFile(t *testing.T) *TestConn {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	c, err := Open(context.Background(), path, DefaultDBOptions())
	if err != nil {
		t.Fatalf("Failed to open file test DB: %v", err)
	}

	t.Cleanup(func() {
		if !c.Closed() {
			_ = c.Close()
		}
	})

	return &TestConn{Conn: c, Path: path}
}

// Exec выполняет SQL команду в autocommit и проверяет отсутствие ошибок.
func (tc *TestConn) Exec(t *testing.T, query string, args ...any) {
	t.Helper()

	err := tc.Conn.Run(context.Background(), TxJoin, func(ctx context.Context, q Querier) error {
		_, err := q.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		t.Fatalf("Failed to execute query: %v", err)
	}
}

// CountRows возвращает количество строк в таблице.
// Видит незафиксированные изменения текущего соединения.
func (tc *TestConn) CountRows(t *testing.T, tableName string) int {
	t.Helper()

	var count int
	err := tc.Conn.Run(context.Background(), TxJoin, func(ctx context.Context, q Querier) error {
		return q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+tableName).Scan(&count)
	})
	if err != nil {
		t.Fatalf("Failed to count rows in table %s: %v", tableName, err)
	}
	return count
}

// TableExists проверяет существование таблицы.
func (tc *TestConn) TableExists(t *testing.T, tableName string) bool {
	t.Helper()

	var count int
	err := tc.Conn.Run(context.Background(), TxJoin, func(ctx context.Context, q Querier) error {
		return q.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", tableName).Scan(&count)
	})
	if err != nil {
		t.Fatalf("Failed to check table existence: %v", err)
	}
	return count > 0
}

// SchemaSQL возвращает DDL всех пользовательских таблиц в порядке имён.
// Удобно для проверки идемпотентности применения схемы.
func (tc *TestConn) SchemaSQL(t *testing.T) []string {
	t.Helper()

	var ddl []string
	err := tc.Conn.Run(context.Background(), TxJoin, func(ctx context.Context, q Querier) error {
		rows, err := q.QueryContext(ctx, "SELECT sql FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var s string
			if err := rows.Scan(&s); err != nil {
				return err
			}
			ddl = append(ddl, s)
		}
		return rows.Err()
	})
	if err != nil {
		t.Fatalf("Failed to read schema: %v", err)
	}
	return ddl
}

// ApplyTestMigrations применяет миграции из fsys к файловой тестовой БД.
func (tc *TestConn) ApplyTestMigrations(t *testing.T, fsys fs.FS, dir string) {
	t.Helper()

	if err := ApplyMigrationsFS(tc.Path, fsys, dir); err != nil {
		t.Fatalf("Failed to apply test migrations: %v", err)
	}
}
