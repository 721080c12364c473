// Package rowset shapes raw driver tuples into named, typed records.
package rowset

import (
	"fmt"
	"strings"
)

// Column describes one result column as reported by the driver.
type Column struct {
	// Name is the column label, e.g. "username" or "COUNT(*)".
	Name string
	// DeclType is the declared type of the source column ("" for expressions).
	DeclType string
}

// Record is one projected row. Fields keep the column order of the query;
// duplicate names are allowed and Get returns the first match.
type Record struct {
	columns []string
	values  []any
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.values)
}

// Columns returns the field names in column order.
func (r Record) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// Values returns the field values in column order.
func (r Record) Values() []any {
	out := make([]any, len(r.values))
	copy(out, r.values)
	return out
}

// Get returns the value of the named field. Names match exactly first,
// then case-insensitively, as SQLite identifiers do.
func (r Record) Get(name string) (any, bool) {
	for i, c := range r.columns {
		if c == name {
			return r.values[i], true
		}
	}
	for i, c := range r.columns {
		if strings.EqualFold(c, name) {
			return r.values[i], true
		}
	}
	return nil, false
}

// Map returns the record as a map. For duplicate names the first field wins.
func (r Record) Map() map[string]any {
	m := make(map[string]any, len(r.columns))
	for i, c := range r.columns {
		if _, dup := m[c]; dup {
			continue
		}
		m[c] = r.values[i]
	}
	return m
}

// String renders the record as {name:value, ...} in column order.
func (r Record) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, c := range r.columns {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s:%v", c, r.values[i])
	}
	b.WriteByte('}')
	return b.String()
}

// RowSet is the ordered result of a query-class statement.
type RowSet struct {
	Columns []Column
	Records []Record
}

// Len returns the number of records.
func (s RowSet) Len() int {
	return len(s.Records)
}

// ColumnNames returns the column labels in order.
func (s RowSet) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}
