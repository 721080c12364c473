package sqlite

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"

	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"sqlbase/internal/shared"
)

// BuildMigrateURL строит корректный URL для golang-migrate с учётом особенностей ОС.
// На Windows для путей вида "C:\..." создаёт "sqlite:///C:/...",
// на Unix для "/..." создаёт "sqlite:///...".
func BuildMigrateURL(dbPath string) (string, error) {
	if dbPath == MemoryPath {
		// Миграции открывают собственное соединение, in-memory БД им не видна
		return "", shared.Newf(shared.KindStorageUnavailable, "migrations require a database file")
	}

	absPath, err := filepath.Abs(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	// Нормализуем слеши для URL
	urlPath := filepath.ToSlash(absPath)

	// На Windows добавляем дополнительный слеш перед диском
	if runtime.GOOS == "windows" && len(urlPath) >= 2 && urlPath[1] == ':' {
		urlPath = "/" + urlPath
	}

	// Убеждаемся что путь начинается с /
	if !strings.HasPrefix(urlPath, "/") {
		urlPath = "/" + urlPath
	}

	return "sqlite://" + urlPath, nil
}

// ApplyMigrations применяет все доступные миграции из источника по URL
// (например, "file://migrations/sqlite"). Повторный вызов безопасен:
// migrate.ErrNoChange не считается ошибкой.
func ApplyMigrations(dbPath, migrationsURL string) error {
	m, err := newMigrate(dbPath, func(databaseURL string) (*migrate.Migrate, error) {
		return migrate.New(migrationsURL, databaseURL)
	})
	if err != nil {
		return err
	}
	defer closeMigrate(m)

	return up(m)
}

// ApplyMigrationsFS применяет миграции из fs.FS (обычно embed.FS) из каталога dir.
func ApplyMigrationsFS(dbPath string, fsys fs.FS, dir string) error {
	m, err := newMigrateFS(dbPath, fsys, dir)
	if err != nil {
		return err
	}
	defer closeMigrate(m)

	return up(m)
}

// MigrationVersionFS возвращает текущую версию миграций и флаг dirty.
// Если миграции еще не применялись, возвращает 0 без ошибки.
func MigrationVersionFS(dbPath string, fsys fs.FS, dir string) (uint, bool, error) {
	m, err := newMigrateFS(dbPath, fsys, dir)
	if err != nil {
		return 0, false, err
	}
	defer closeMigrate(m)

	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}

	return version, dirty, nil
}

// ResetMigrationsFS откатывает все миграции (опасная операция!).
func ResetMigrationsFS(dbPath string, fsys fs.FS, dir string) error {
	m, err := newMigrateFS(dbPath, fsys, dir)
	if err != nil {
		return err
	}
	defer closeMigrate(m)

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to reset migrations: %w", err)
	}

	return nil
}

func newMigrateFS(dbPath string, fsys fs.FS, dir string) (*migrate.Migrate, error) {
	return newMigrate(dbPath, func(databaseURL string) (*migrate.Migrate, error) {
		src, err := iofs.New(fsys, dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open migrations source: %w", err)
		}
		return migrate.NewWithSourceInstance("iofs", src, databaseURL)
	})
}

// newMigrate создаёт экземпляр migrate с отдельным соединением к БД;
// golang-migrate может безопасно закрыть его сам.
func newMigrate(dbPath string, build func(databaseURL string) (*migrate.Migrate, error)) (*migrate.Migrate, error) {
	databaseURL, err := BuildMigrateURL(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to build database URL: %w", err)
	}

	m, err := build(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

func up(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func closeMigrate(m *migrate.Migrate) {
	// Закрываем ресурсы migrate, игнорируя ошибки закрытия
	_, _ = m.Close()
}
