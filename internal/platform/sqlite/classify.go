package sqlite

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"sqlbase/internal/shared"
)

// constraintDatatype - расширенный код SQLITE_CONSTRAINT_DATATYPE (STRICT таблицы)
const constraintDatatype = sqlite3.SQLITE_CONSTRAINT | 12<<8

// ClassifyError помечает ошибку драйвера видом из таксономии shared.
// Уже классифицированные ошибки (в том числе отмена контекста) возвращаются как есть,
// нераспознанные - без изменений.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	if shared.KindOf(err) != shared.KindUnknown {
		return err
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		if kind := kindOfCode(sqliteErr.Code()); kind != shared.KindUnknown {
			return shared.MarkKind(err, kind)
		}
	}

	// Запасной вариант: драйвер мог обернуть ошибку без сохранения кода
	return shared.MarkKind(err, kindOfMessage(err.Error()))
}

// kindOfCode сопоставляет (расширенный) код результата SQLite виду ошибки.
func kindOfCode(code int) shared.Kind {
	if code == constraintDatatype {
		return shared.KindTypeMismatch
	}

	switch code & 0xff {
	case sqlite3.SQLITE_CONSTRAINT:
		return shared.KindConstraintViolation
	case sqlite3.SQLITE_MISMATCH:
		return shared.KindTypeMismatch
	case sqlite3.SQLITE_ERROR, sqlite3.SQLITE_RANGE:
		// SQLite сообщает все ошибки подготовки запроса как SQLITE_ERROR:
		// синтаксис, неизвестная таблица или колонка
		return shared.KindSyntax
	case sqlite3.SQLITE_CANTOPEN,
		sqlite3.SQLITE_NOTADB,
		sqlite3.SQLITE_CORRUPT,
		sqlite3.SQLITE_FULL,
		sqlite3.SQLITE_PERM,
		sqlite3.SQLITE_READONLY,
		sqlite3.SQLITE_IOERR,
		sqlite3.SQLITE_BUSY,
		sqlite3.SQLITE_LOCKED:
		return shared.KindStorageUnavailable
	default:
		return shared.KindUnknown
	}
}

// kindOfMessage классифицирует ошибку по тексту сообщения.
func kindOfMessage(msg string) shared.Kind {
	switch {
	case strings.Contains(msg, "datatype mismatch"),
		strings.Contains(msg, "cannot store"):
		return shared.KindTypeMismatch
	case strings.Contains(msg, "constraint failed"):
		return shared.KindConstraintViolation
	case strings.Contains(msg, "syntax error"),
		strings.Contains(msg, "incomplete input"),
		strings.Contains(msg, "no such table"),
		strings.Contains(msg, "no such column"):
		return shared.KindSyntax
	case strings.Contains(msg, "unable to open database file"),
		strings.Contains(msg, "file is not a database"),
		strings.Contains(msg, "database disk image is malformed"),
		strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "SQLITE_BUSY"),
		strings.Contains(msg, "attempt to write a readonly database"):
		return shared.KindStorageUnavailable
	default:
		return shared.KindUnknown
	}
}
