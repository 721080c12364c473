// Package schema описывает таблицы декларативно и создаёт их в SQLite.
//
// Определение (Definition) - упорядоченный список таблиц; порядок задаёт
// порядок создания, поэтому таблицы, на которые ссылаются внешние ключи,
// должны идти раньше. Повторное применение того же определения ничего не меняет.
package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"sqlbase/internal/shared"
)

// Definition - упорядоченный набор таблиц.
type Definition struct {
	Tables []Table `yaml:"tables" validate:"required,min=1,dive"`
}

// Table - таблица с упорядоченными колонками.
type Table struct {
	Name    string   `yaml:"name" validate:"required,sqlident"`
	Columns []Column `yaml:"columns" validate:"required,min=1,dive"`
}

// Column описывает колонку и её ограничения.
// Default - SQL литерал: число, строка в одинарных кавычках,
// TRUE/FALSE/NULL или CURRENT_TIMESTAMP/CURRENT_DATE/CURRENT_TIME.
type Column struct {
	Name          string     `yaml:"name" validate:"required,sqlident"`
	Type          string     `yaml:"type" validate:"required,sqltype"`
	PrimaryKey    bool       `yaml:"primary_key"`
	AutoIncrement bool       `yaml:"autoincrement"`
	Unique        bool       `yaml:"unique"`
	NotNull       bool       `yaml:"not_null"`
	Default       *string    `yaml:"default"`
	References    *Reference `yaml:"references"`
}

// Reference - внешний ключ на колонку другой таблицы.
type Reference struct {
	Table  string `yaml:"table" validate:"required,sqlident"`
	Column string `yaml:"column" validate:"required,sqlident"`
}

var (
	identPattern   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	typePattern    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*( [A-Za-z_][A-Za-z0-9_]*)*(\(\s*\d+\s*(,\s*\d+\s*)?\))?$`)
	numberPattern  = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
	keywordLiteral = map[string]struct{}{
		"TRUE":              {},
		"FALSE":             {},
		"NULL":              {},
		"CURRENT_TIMESTAMP": {},
		"CURRENT_DATE":      {},
		"CURRENT_TIME":      {},
	}
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("sqlident", func(fl validator.FieldLevel) bool {
		return identPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("sqltype", func(fl validator.FieldLevel) bool {
		return typePattern.MatchString(fl.Field().String())
	})
	return v
}

// Str возвращает указатель на s; удобно для Column.Default.
func Str(s string) *string {
	return &s
}

// Validate проверяет определение до обращения к хранилищу.
// Ошибки имеют вид SyntaxError.
func (d Definition) Validate() error {
	if err := validate.Struct(d); err != nil {
		return shared.MarkKind(describeValidation(err), shared.KindSyntax)
	}

	tables := make(map[string]struct{}, len(d.Tables))
	for _, t := range d.Tables {
		key := strings.ToLower(t.Name)
		if _, dup := tables[key]; dup {
			return shared.Newf(shared.KindSyntax, "table %q defined twice", t.Name)
		}
		tables[key] = struct{}{}

		if err := t.validate(); err != nil {
			return shared.Wrapf(err, "table %q", t.Name)
		}
	}
	return nil
}

func (t Table) validate() error {
	columns := make(map[string]struct{}, len(t.Columns))
	primaryKeys := 0
	for _, c := range t.Columns {
		key := strings.ToLower(c.Name)
		if _, dup := columns[key]; dup {
			return shared.Newf(shared.KindSyntax, "column %q defined twice", c.Name)
		}
		columns[key] = struct{}{}

		if c.PrimaryKey {
			primaryKeys++
		}
		if c.AutoIncrement && (!c.PrimaryKey || !strings.EqualFold(c.Type, "INTEGER")) {
			return shared.Newf(shared.KindSyntax, "column %q: AUTOINCREMENT requires INTEGER PRIMARY KEY", c.Name)
		}
		if c.Default != nil && !IsLiteral(*c.Default) {
			return shared.Newf(shared.KindSyntax, "column %q: default %q is not a literal", c.Name, *c.Default)
		}
	}
	if primaryKeys > 1 {
		return shared.Newf(shared.KindSyntax, "more than one primary key column")
	}
	return nil
}

// IsLiteral сообщает, является ли выражение допустимым литералом по умолчанию.
func IsLiteral(expr string) bool {
	e := strings.TrimSpace(expr)
	if e == "" {
		return false
	}
	if _, ok := keywordLiteral[strings.ToUpper(e)]; ok {
		return true
	}
	if numberPattern.MatchString(e) {
		return true
	}
	return isQuotedString(e)
}

// isQuotedString проверяет 'текст' с удвоенными кавычками внутри.
func isQuotedString(s string) bool {
	if len(s) < 2 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return false
	}
	body := s[1 : len(s)-1]
	for i := 0; i < len(body); i++ {
		if body[i] != '\'' {
			continue
		}
		if i+1 >= len(body) || body[i+1] != '\'' {
			return false
		}
		i++
	}
	return true
}

// describeValidation превращает ошибки validator в читаемое сообщение.
func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %q)", fe.Namespace(), fe.Tag(), fmt.Sprint(fe.Value())))
	}
	return errors.New("invalid schema definition: " + strings.Join(msgs, "; "))
}
