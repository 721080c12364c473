// Package sqlite предоставляет управление соединением со встроенной базой SQLite.
//
// Основные возможности:
// - Один канонический дескриптор на файл (Manager)
// - Неявные транзакции: первая мутация открывает транзакцию, Commit/Rollback её завершают
// - Сериализация операций мьютексом
// - Классификация ошибок драйвера по таксономии shared
// - Миграции golang-migrate из каталога или embed.FS
// - Тестовые хелперы
//
// # Быстрый старт
//
//	ctx := context.Background()
//	manager := sqlite.NewManager(sqlite.DefaultDBOptions())
//	defer manager.Shutdown()
//
//	conn, err := manager.Acquire(ctx, "tutorial.db")
//	if err != nil {
//		return err // shared.ErrStorageUnavailable
//	}
//
// # Транзакции
//
// Операции записи выполняются через Run с TxBegin, что открывает транзакцию,
// если её нет. Изменения видны этому соединению сразу, но сохраняются только
// после Commit:
//
//	err = conn.Run(ctx, sqlite.TxBegin, func(ctx context.Context, q sqlite.Querier) error {
//		_, err := q.ExecContext(ctx, "INSERT INTO users (username) VALUES (?)", "ajay")
//		return err
//	})
//	err = conn.Commit(ctx)
//
// Close без Commit откатывает изменения. После Close любая операция
// возвращает shared.ErrUseAfterClose.
//
// Помощник для "всё или ничего":
//
//	err = conn.WithinTx(ctx, func(ctx context.Context) error { ... })
//
// # Режим блокировки
//
//	opts := sqlite.DefaultDBOptions()
//	opts.TxLockMode = sqlite.TxLockImmediate  // Ранний захват блокировок
//
// # Ограничения
//
// Доступ к одному файлу из нескольких процессов регулируется блокировками
// самого SQLite. Повторных попыток нет: SQLITE_BUSY возвращается вызывающему
// коду как StorageUnavailable.
//
// # Миграции
//
//	err = sqlite.ApplyMigrationsFS("tutorial.db", migrations.FS, migrations.Dir)
//
// # Тестирование
//
//	func TestSomething(t *testing.T) {
//		tc := sqlite.NewTestConnInMemory(t)
//		tc.Exec(t, "CREATE TABLE test (id INTEGER PRIMARY KEY)")
//	}
package sqlite
