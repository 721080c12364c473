// Package statement executes parameterized SQL against a sqlite.Conn.
//
// Text and values travel separately: values are only ever bound to
// placeholders, never spliced into the SQL. Placeholder and value checks run
// before the connection is touched, so a malformed statement has no effect
// on storage.
package statement

import (
	"database/sql"
	"sort"

	"sqlbase/internal/rowset"
)

// Statement is a SQL template with its bound values.
// Args are positional values for ?/?NNN/$NNN placeholders or sql.NamedArg
// values for :name, @name and $name.
//
// Bind rowset.Date or time.Time to DATE columns. A plain string is stored
// as given: locale text such as "05-02-1996" is accepted by the engine and
// projects back as that string, not as a rowset.Date. Use rowset.ParseDate
// to turn caller input into a Date first.
type Statement struct {
	SQL  string
	Args []any
}

// New returns a statement with positional or sql.Named values.
func New(query string, args ...any) Statement {
	return Statement{SQL: query, Args: args}
}

// NewNamed returns a statement binding params by name. Names carry no prefix.
func NewNamed(query string, params map[string]any) Statement {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	args := make([]any, 0, len(names))
	for _, name := range names {
		args = append(args, sql.Named(name, params[name]))
	}
	return Statement{SQL: query, Args: args}
}

// MutationResult reports the effect of a data-changing statement.
type MutationResult struct {
	RowsAffected int64
	// LastInsertID is the rowid of the last inserted row; valid only when HasID.
	LastInsertID int64
	HasID        bool
}

// Result is the outcome of Execute. Rows is set for queries, Mutation otherwise.
type Result struct {
	Class    Class
	Rows     rowset.RowSet
	Mutation MutationResult
}
