package sqlite

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"sqlbase/internal/shared"
)

// Manager владеет каноническими соединениями: не более одного открытого Conn на путь.
// Соединение создаётся при первом Acquire, переиспользуется до Close или Shutdown.
// Manager передаётся вызывающему коду явно, глобального состояния нет.
type Manager struct {
	mu    sync.Mutex
	opts  DBOptions
	conns map[string]*Conn
}

// NewManager создает Manager, открывающий соединения с указанными настройками.
func NewManager(opts DBOptions) *Manager {
	return &Manager{
		opts:  opts,
		conns: make(map[string]*Conn),
	}
}

// Acquire возвращает открытое соединение для пути или открывает новое.
func (m *Manager) Acquire(ctx context.Context, dbPath string) (*Conn, error) {
	key, err := canonicalPath(dbPath)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.conns[key]; ok {
		return c, nil
	}

	c, err := Open(ctx, dbPath, m.opts)
	if err != nil {
		return nil, err
	}
	c.onClose = func(closed *Conn) { m.forget(key, closed) }
	m.conns[key] = c

	m.opts.logger().Debug("sqlite: acquired", slog.String("path", key))
	return c, nil
}

// Paths возвращает отсортированный список путей с открытыми соединениями.
func (m *Manager) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	paths := make([]string, 0, len(m.conns))
	for p := range m.conns {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Shutdown закрывает все соединения. Незафиксированные изменения откатываются.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	conns := make([]*Conn, 0, len(m.conns))
	for _, c := range m.conns {
		conns = append(conns, c)
	}
	m.conns = make(map[string]*Conn)
	m.mu.Unlock()

	var errs []error
	for _, c := range conns {
		if err := c.Close(); err != nil && !shared.IsUseAfterClose(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// forget удаляет закрытое соединение, если оно всё ещё каноническое для key.
func (m *Manager) forget(key string, c *Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conns[key] == c {
		delete(m.conns, key)
	}
}

// canonicalPath приводит путь к абсолютному виду для использования как ключ.
func canonicalPath(dbPath string) (string, error) {
	if dbPath == MemoryPath {
		return dbPath, nil
	}
	if dbPath == "" {
		return "", shared.Newf(shared.KindStorageUnavailable, "empty database path")
	}
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return "", shared.MarkKind(err, shared.KindStorageUnavailable)
	}
	return filepath.Clean(abs), nil
}
