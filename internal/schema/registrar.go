package schema

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"sqlbase/internal/rowset"
	"sqlbase/internal/shared"
	"sqlbase/internal/statement"
)

// Executor - то, что Registrar использует для выполнения DDL и чтения каталога.
// *statement.Executor реализует его.
type Executor interface {
	Mutate(ctx context.Context, query string, args ...any) (statement.MutationResult, error)
	Query(ctx context.Context, query string, args ...any) (rowset.RowSet, error)
}

var _ Executor = (*statement.Executor)(nil)

// ColumnInfo - колонка существующей таблицы из каталога SQLite.
type ColumnInfo struct {
	Name string
	Type string
}

// Registrar применяет определения схемы.
type Registrar struct {
	exec Executor
	log  *slog.Logger
}

// NewRegistrar создает Registrar поверх исполнителя запросов.
func NewRegistrar(exec Executor, log *slog.Logger) *Registrar {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registrar{exec: exec, log: log}
}

type ensureOptions struct {
	verify bool
}

// EnsureOption настраивает Ensure.
type EnsureOption func(*ensureOptions)

// WithVerify включает сверку колонок существующих таблиц с определением.
// Расхождение имён или объявленных типов даёт SchemaConflict.
func WithVerify() EnsureOption {
	return func(o *ensureOptions) { o.verify = true }
}

// Ensure создаёт отсутствующие таблицы в порядке определения.
//
// Без WithVerify проверяется только существование: таблица с тем же именем,
// но другой структурой, принимается молча, как и в CREATE TABLE IF NOT EXISTS.
func (r *Registrar) Ensure(ctx context.Context, def Definition, opts ...EnsureOption) error {
	var o ensureOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := def.Validate(); err != nil {
		return err
	}

	for _, t := range def.Tables {
		if _, err := r.exec.Mutate(ctx, t.CreateSQL()); err != nil {
			return shared.Wrapf(err, "ensure table %q", t.Name)
		}
		r.log.Debug("schema: table ensured", slog.String("table", t.Name))
	}

	if o.verify {
		for _, t := range def.Tables {
			if err := r.verify(ctx, t); err != nil {
				return err
			}
		}
	}

	r.log.Info("schema: ensured", slog.Int("tables", len(def.Tables)), slog.Bool("verified", o.verify))
	return nil
}

// Drop удаляет таблицы определения в обратном порядке.
func (r *Registrar) Drop(ctx context.Context, def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	for i := len(def.Tables) - 1; i >= 0; i-- {
		t := def.Tables[i]
		if _, err := r.exec.Mutate(ctx, t.DropSQL()); err != nil {
			return shared.Wrapf(err, "drop table %q", t.Name)
		}
		r.log.Debug("schema: table dropped", slog.String("table", t.Name))
	}

	r.log.Info("schema: dropped", slog.Int("tables", len(def.Tables)))
	return nil
}

// Columns возвращает колонки существующей таблицы в порядке объявления.
// Для отсутствующей таблицы возвращает пустой список.
func (r *Registrar) Columns(ctx context.Context, table string) ([]ColumnInfo, error) {
	set, err := r.exec.Query(ctx, "SELECT name, type FROM pragma_table_info(?) ORDER BY cid", table)
	if err != nil {
		return nil, shared.Wrapf(err, "table info %q", table)
	}

	cols := make([]ColumnInfo, 0, set.Len())
	for _, rec := range set.Records {
		name, _ := rec.Get("name")
		typ, _ := rec.Get("type")
		cols = append(cols, ColumnInfo{Name: fmt.Sprint(name), Type: fmt.Sprint(typ)})
	}
	return cols, nil
}

func (r *Registrar) verify(ctx context.Context, t Table) error {
	existing, err := r.Columns(ctx, t.Name)
	if err != nil {
		return err
	}

	have := make(map[string]string, len(existing))
	for _, c := range existing {
		have[strings.ToLower(c.Name)] = normalizeType(c.Type)
	}

	var problems []string
	for _, c := range t.Columns {
		key := strings.ToLower(c.Name)
		typ, ok := have[key]
		if !ok {
			problems = append(problems, fmt.Sprintf("missing column %q", c.Name))
			continue
		}
		if want := normalizeType(c.Type); typ != want {
			problems = append(problems, fmt.Sprintf("column %q is %s, want %s", c.Name, typ, want))
		}
		delete(have, key)
	}
	for _, c := range existing {
		if _, extra := have[strings.ToLower(c.Name)]; extra {
			problems = append(problems, fmt.Sprintf("unexpected column %q", c.Name))
		}
	}

	if len(problems) > 0 {
		r.log.Warn("schema: conflict", slog.String("table", t.Name), slog.Int("problems", len(problems)))
		return shared.Newf(shared.KindSchemaConflict, "table %q: %s", t.Name, strings.Join(problems, "; "))
	}
	return nil
}

var typeSpacing = regexp.MustCompile(`\s*([(),])\s*`)

// normalizeType приводит объявленный тип к сравнимому виду: varchar ( 10 ) -> VARCHAR(10).
func normalizeType(t string) string {
	return typeSpacing.ReplaceAllString(strings.ToUpper(strings.Join(strings.Fields(t), " ")), "$1")
}
