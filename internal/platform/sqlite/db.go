package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite драйвер

	"sqlbase/internal/shared"
)

// MemoryPath - путь для in-memory базы данных
const MemoryPath = ":memory:"

// TxLockMode определяет режим блокировки транзакций SQLite
type TxLockMode string

const (
	// TxLockDeferred - откладывает блокировку до первого чтения/записи (по умолчанию SQLite)
	TxLockDeferred TxLockMode = "DEFERRED"
	// TxLockImmediate - немедленно захватывает RESERVED блокировку для избежания SQLITE_BUSY при записи
	TxLockImmediate TxLockMode = "IMMEDIATE"
	// TxLockExclusive - немедленно захватывает EXCLUSIVE блокировку
	TxLockExclusive TxLockMode = "EXCLUSIVE"
)

// AccessMode определяет режим доступа к SQLite базе данных
type AccessMode string

const (
	// AccessModeReadWrite - режим чтения и записи (по умолчанию)
	AccessModeReadWrite AccessMode = "rw"
	// AccessModeReadOnly - режим только для чтения
	AccessModeReadOnly AccessMode = "ro"
	// AccessModeReadWriteCreate - режим чтения/записи с созданием файла если не существует
	AccessModeReadWriteCreate AccessMode = "rwc"
)

// DBOptions содержит настройки для SQLite базы данных.
type DBOptions struct {
	// PingTimeout - таймаут для проверки соединения при открытии БД
	PingTimeout time.Duration
	// WALMode - использовать ли WAL режим (игнорируется для in-memory и read-only)
	WALMode bool
	// ForeignKeys - включить ли проверку внешних ключей
	ForeignKeys bool
	// BusyTimeout - таймаут ожидания при SQLITE_BUSY
	BusyTimeout time.Duration
	// TxLockMode - режим блокировки для неявных транзакций
	TxLockMode TxLockMode
	// AccessMode - режим доступа к базе данных
	AccessMode AccessMode
	// Logger - логгер жизненного цикла соединения (nil - без логов)
	Logger *slog.Logger
}

// DefaultDBOptions возвращает настройки по умолчанию, оптимизированные для embedded использования.
func DefaultDBOptions() DBOptions {
	return DBOptions{
		PingTimeout: 5 * time.Second,
		WALMode:     true,                // WAL режим для лучшей производительности
		ForeignKeys: true,                // Включаем проверку внешних ключей
		BusyTimeout: 5 * time.Second,     // 5 секунд ожидания при блокировке
		TxLockMode:  TxLockDeferred,      // По умолчанию стандартный режим для совместимости
		AccessMode:  AccessModeReadWrite, // По умолчанию чтение и запись
	}
}

// logger возвращает логгер из настроек или логгер, отбрасывающий записи.
func (o DBOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// openDB открывает *sql.DB и закрепляет за ним единственное соединение.
// Все ошибки помечаются как StorageUnavailable.
func openDB(ctx context.Context, dbPath string, opts DBOptions) (*sql.DB, *sql.Conn, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, nil, shared.Newf(shared.KindStorageUnavailable, "empty database path")
	}

	// Создаем директорию для БД если её нет
	if dbPath != MemoryPath {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, nil, shared.MarkKind(fmt.Errorf("failed to create directory %s: %w", dir, err), shared.KindStorageUnavailable)
			}
		}
	}

	db, err := sql.Open("sqlite", buildDSN(dbPath, opts))
	if err != nil {
		return nil, nil, shared.MarkKind(fmt.Errorf("failed to open sqlite database: %w", err), shared.KindStorageUnavailable)
	}

	// Один дескриптор на файл: пул из одного соединения, которое не пересоздаётся
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	// Проверяем соединение с БД с настраиваемым таймаутом
	pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, shared.MarkKind(fmt.Errorf("failed to ping sqlite database: %w", err), shared.KindStorageUnavailable)
	}

	pinned, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, nil, shared.MarkKind(fmt.Errorf("failed to acquire sqlite connection: %w", err), shared.KindStorageUnavailable)
	}

	// Применяем PRAGMA настройки после открытия соединения.
	// Повреждённый файл или не-SQLite файл обнаруживается именно здесь.
	if err := applyPragmaSettings(ctx, pinned, dbPath, opts); err != nil {
		_ = pinned.Close()
		_ = db.Close()
		return nil, nil, shared.MarkKind(fmt.Errorf("failed to apply PRAGMA settings: %w", err), shared.KindStorageUnavailable)
	}

	// SQLite открывает файл лениво, поэтому читаем схему сразу
	var tables int
	if err := pinned.QueryRowContext(ctx, "SELECT count(*) FROM sqlite_master").Scan(&tables); err != nil {
		_ = pinned.Close()
		_ = db.Close()
		return nil, nil, shared.MarkKind(fmt.Errorf("failed to read sqlite schema: %w", err), shared.KindStorageUnavailable)
	}

	return db, pinned, nil
}

// dsnPathEscaper экранирует символы, значимые для SQLite URI.
var dsnPathEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// buildDSN строит URI для драйвера modernc.org/sqlite.
// _time_format=sqlite заставляет драйвер записывать time.Time в формате,
// который SQLite понимает как TIMESTAMP.
func buildDSN(dbPath string, opts DBOptions) string {
	params := []string{}

	// Добавляем режим доступа только если он отличается от умолчания
	if opts.AccessMode != "" && opts.AccessMode != AccessModeReadWrite {
		params = append(params, fmt.Sprintf("mode=%s", opts.AccessMode))
	}

	if opts.BusyTimeout > 0 {
		params = append(params, fmt.Sprintf("_pragma=busy_timeout(%d)", opts.BusyTimeout.Milliseconds()))
	}

	params = append(params, "_time_format=sqlite")

	return "file:" + dsnPathEscaper.Replace(dbPath) + "?" + strings.Join(params, "&")
}

// applyPragmaSettings применяет PRAGMA настройки к закреплённому соединению.
func applyPragmaSettings(ctx context.Context, q Querier, dbPath string, opts DBOptions) error {
	pragmas := make([]string, 0, 4)

	// Включаем проверку внешних ключей
	if opts.ForeignKeys {
		pragmas = append(pragmas, "PRAGMA foreign_keys = ON")
	}

	// WAL не поддерживается для in-memory БД и не может быть включён в read-only
	if opts.WALMode && dbPath != MemoryPath && opts.AccessMode != AccessModeReadOnly {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}

	if opts.AccessMode != AccessModeReadOnly {
		pragmas = append(pragmas, "PRAGMA synchronous = NORMAL")
	}

	// Устанавливаем busy timeout если указан
	if opts.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA busy_timeout = %d", opts.BusyTimeout.Milliseconds()))
	}

	for _, pragma := range pragmas {
		if _, err := q.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}
