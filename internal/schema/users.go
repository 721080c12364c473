package schema

// UsersTable - имя встроенной таблицы пользователей.
const UsersTable = "users"

// Users возвращает определение таблицы пользователей.
//
// deleted_at объявлена NOT NULL DEFAULT CURRENT_TIMESTAMP, поэтому каждая
// строка выглядит удалённой в момент вставки и признак мягкого удаления
// по ней не построить. Форма сохранена как внешний контракт таблицы.
func Users() Definition {
	return Definition{Tables: []Table{{
		Name: UsersTable,
		Columns: []Column{
			{Name: "id", Type: "INTEGER", PrimaryKey: true, AutoIncrement: true},
			{Name: "username", Type: "TEXT"},
			{Name: "age", Type: "INTEGER"},
			{Name: "dob", Type: "DATE"},
			{Name: "password", Type: "TEXT"},
			{Name: "email", Type: "TEXT"},
			{Name: "is_admin", Type: "BOOLEAN", NotNull: true, Default: Str("FALSE")},
			{Name: "is_active", Type: "BOOLEAN", NotNull: true, Default: Str("FALSE")},
			{Name: "is_verified", Type: "BOOLEAN", NotNull: true, Default: Str("FALSE")},
			{Name: "created_at", Type: "TIMESTAMP", NotNull: true, Default: Str("CURRENT_TIMESTAMP")},
			{Name: "updated_at", Type: "TIMESTAMP", NotNull: true, Default: Str("CURRENT_TIMESTAMP")},
			{Name: "deleted_at", Type: "TIMESTAMP", NotNull: true, Default: Str("CURRENT_TIMESTAMP")},
			{Name: "last_login", Type: "TIMESTAMP"},
		},
	}}}
}
