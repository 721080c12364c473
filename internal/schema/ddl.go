package schema

import (
	"strings"
)

// CreateSQL возвращает CREATE TABLE IF NOT EXISTS для таблицы.
// Имена берутся в двойные кавычки; определение должно быть проверено Validate.
func (t Table) CreateSQL() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(quoteIdent(t.Name))
	b.WriteString(" (\n")
	for i, c := range t.Columns {
		b.WriteString("\t")
		b.WriteString(c.definitionSQL())
		if i < len(t.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")")
	return b.String()
}

// DropSQL возвращает DROP TABLE IF EXISTS для таблицы.
func (t Table) DropSQL() string {
	return "DROP TABLE IF EXISTS " + quoteIdent(t.Name)
}

func (c Column) definitionSQL() string {
	parts := []string{quoteIdent(c.Name), c.Type}
	if c.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
		if c.AutoIncrement {
			parts = append(parts, "AUTOINCREMENT")
		}
	}
	if c.Unique {
		parts = append(parts, "UNIQUE")
	}
	if c.NotNull {
		parts = append(parts, "NOT NULL")
	}
	if c.Default != nil {
		parts = append(parts, "DEFAULT", strings.TrimSpace(*c.Default))
	}
	if c.References != nil {
		parts = append(parts, "REFERENCES", quoteIdent(c.References.Table)+"("+quoteIdent(c.References.Column)+")")
	}
	return strings.Join(parts, " ")
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
