package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"sqlbase/internal/shared"
)

// Querier объединяет методы выполнения запросов закреплённого соединения.
// Функции, переданные в Conn.Run, работают только через него.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// Убедимся на этапе компиляции, что типы реализуют интерфейс
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Conn)(nil)
)

// TxMode определяет, как операция относится к неявной транзакции.
type TxMode int

const (
	// TxJoin - выполняется в текущей транзакции, если она открыта, иначе в autocommit.
	// Используется для запросов и DDL.
	TxJoin TxMode = iota
	// TxBegin - открывает неявную транзакцию, если её ещё нет.
	// Используется для INSERT/UPDATE/DELETE.
	TxBegin
)

// Conn - единственный дескриптор одного файла БД.
//
// Состояния: Open -> Open (Commit/Rollback), Open -> Closed (Close, терминальное).
// Любая операция после Close возвращает ErrUseAfterClose.
// Мьютекс сериализует Run/Commit/Rollback/Close, поэтому Conn можно
// разделять между горутинами, но операции выполняются строго по одной.
type Conn struct {
	mu       sync.Mutex
	db       *sql.DB
	conn     *sql.Conn
	path     string
	lockMode TxLockMode
	log      *slog.Logger
	inTx     bool
	closed   bool
	onClose  func(*Conn)
}

// Open открывает файл БД и возвращает соединение в состоянии Open.
// Ошибки открытия помечаются как StorageUnavailable.
func Open(ctx context.Context, dbPath string, opts DBOptions) (*Conn, error) {
	db, pinned, err := openDB(ctx, dbPath, opts)
	if err != nil {
		return nil, err
	}

	c := newConn(db, pinned, dbPath, opts)
	c.log.Info("sqlite: opened", slog.String("path", dbPath), slog.String("tx_lock", string(c.lockMode)))
	return c, nil
}

// OpenInMemory открывает in-memory БД с настройками по умолчанию.
func OpenInMemory(ctx context.Context) (*Conn, error) {
	return Open(ctx, MemoryPath, DefaultDBOptions())
}

// NewConn оборачивает уже открытый *sql.DB без применения PRAGMA.
// Удобно для тестов с go-sqlmock и для БД, открытых чужим кодом.
func NewConn(ctx context.Context, db *sql.DB, opts DBOptions) (*Conn, error) {
	pinned, err := db.Conn(ctx)
	if err != nil {
		return nil, shared.MarkKind(fmt.Errorf("failed to acquire connection: %w", err), shared.KindStorageUnavailable)
	}
	return newConn(db, pinned, "", opts), nil
}

func newConn(db *sql.DB, pinned *sql.Conn, dbPath string, opts DBOptions) *Conn {
	lockMode := opts.TxLockMode
	if lockMode == "" {
		lockMode = TxLockDeferred
	}
	return &Conn{
		db:       db,
		conn:     pinned,
		path:     dbPath,
		lockMode: lockMode,
		log:      opts.logger(),
	}
}

// Path возвращает путь к файлу БД.
func (c *Conn) Path() string {
	return c.path
}

// InTx сообщает, есть ли незафиксированные изменения.
func (c *Conn) InTx() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inTx
}

// Closed сообщает, закрыто ли соединение.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Run выполняет fn на закреплённом соединении под мьютексом.
// В режиме TxBegin перед fn открывается неявная транзакция, если её нет.
// Ошибки fn возвращаются без изменений.
func (c *Conn) Run(ctx context.Context, mode TxMode, fn func(ctx context.Context, q Querier) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return shared.Wrap(shared.ErrUseAfterClose, "run")
	}

	if mode == TxBegin && !c.inTx {
		if _, err := c.conn.ExecContext(ctx, "BEGIN "+string(c.lockMode)); err != nil {
			return shared.Wrap(ClassifyError(err), "begin implicit transaction")
		}
		c.inTx = true
		c.log.Debug("sqlite: begin", slog.String("path", c.path), slog.String("mode", string(c.lockMode)))
	}

	return fn(ctx, c.conn)
}

// Commit фиксирует все изменения с момента последнего Commit/Rollback.
// Без открытой транзакции ничего не делает.
// Отказ движка (например, отложенный внешний ключ) возвращается как TransactionError;
// в этом случае транзакция остаётся открытой и может быть откачена.
func (c *Conn) Commit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return shared.Wrap(shared.ErrUseAfterClose, "commit")
	}
	if !c.inTx {
		return nil
	}

	if _, err := c.conn.ExecContext(ctx, "COMMIT"); err != nil {
		if noActiveTx(err) {
			// SQLite уже откатил транзакцию сам (SQLITE_FULL, SQLITE_IOERR и т.п.)
			c.inTx = false
		}
		return shared.MarkKind(shared.Wrap(ClassifyError(err), "commit"), shared.KindTransaction)
	}

	c.inTx = false
	c.log.Debug("sqlite: commit", slog.String("path", c.path))
	return nil
}

// Rollback отменяет незафиксированные изменения.
// Без открытой транзакции ничего не делает.
func (c *Conn) Rollback(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return shared.Wrap(shared.ErrUseAfterClose, "rollback")
	}
	return c.rollbackLocked(ctx)
}

func (c *Conn) rollbackLocked(ctx context.Context) error {
	if !c.inTx {
		return nil
	}

	if _, err := c.conn.ExecContext(ctx, "ROLLBACK"); err != nil && !noActiveTx(err) {
		return shared.MarkKind(shared.Wrap(ClassifyError(err), "rollback"), shared.KindTransaction)
	}

	c.inTx = false
	c.log.Debug("sqlite: rollback", slog.String("path", c.path))
	return nil
}

// Close отменяет незафиксированные изменения и освобождает дескриптор.
// Повторный Close возвращает ErrUseAfterClose.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return shared.Wrap(shared.ErrUseAfterClose, "close")
	}

	var errs []error
	if c.inTx {
		c.log.Warn("sqlite: closing with uncommitted changes, rolling back", slog.String("path", c.path))
		if err := c.rollbackLocked(context.Background()); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.conn.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to release connection: %w", err))
	}
	if err := c.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}

	c.closed = true
	c.inTx = false
	if c.onClose != nil {
		c.onClose(c)
	}
	c.log.Info("sqlite: closed", slog.String("path", c.path))

	return errors.Join(errs...)
}

// WithinTx выполняет fn и фиксирует все незафиксированные изменения при успехе.
// Если fn возвращает ошибку, изменения откатываются.
// fn не должна вызывать Commit/Rollback сама.
func (c *Conn) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		if rbErr := c.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}
	return c.Commit(ctx)
}

// noActiveTx проверяет, что SQLite сообщает об отсутствии активной транзакции.
func noActiveTx(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no transaction is active")
}
