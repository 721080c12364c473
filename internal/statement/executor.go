package statement

import (
	"context"
	"io"
	"log/slog"

	"sqlbase/internal/platform/sqlite"
	"sqlbase/internal/rowset"
	"sqlbase/internal/shared"
)

// Runner runs fn on a serialized connection. *sqlite.Conn implements it.
type Runner interface {
	Run(ctx context.Context, mode sqlite.TxMode, fn func(ctx context.Context, q sqlite.Querier) error) error
}

var _ Runner = (*sqlite.Conn)(nil)

// Executor runs statements on one connection.
type Executor struct {
	runner Runner
	log    *slog.Logger
}

// NewExecutor returns an executor bound to r. A nil logger discards output.
func NewExecutor(r Runner, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Executor{runner: r, log: log}
}

// Execute validates stmt and runs it. Queries return their rows; mutations
// open the connection's implicit transaction and report affected rows;
// definitions run in the pending transaction, if any, and report zero rows.
//
// Placeholder mismatches fail with SyntaxError and unsupported values with
// TypeMismatch before any storage access.
func (e *Executor) Execute(ctx context.Context, stmt Statement) (Result, error) {
	a, err := analyze(stmt.SQL)
	if err != nil {
		return Result{}, err
	}
	if err := checkArgs(a, stmt.Args); err != nil {
		return Result{}, err
	}

	e.log.Debug("statement: execute",
		slog.String("class", a.class.String()),
		slog.String("verb", a.verb),
		slog.String("sql", stmt.SQL),
		slog.Int("args", len(stmt.Args)),
	)

	switch a.class {
	case ClassQuery:
		rows, err := e.query(ctx, stmt)
		if err != nil {
			return Result{}, err
		}
		return Result{Class: ClassQuery, Rows: rows}, nil
	case ClassMutation:
		res, err := e.mutate(ctx, stmt, a.returns)
		if err != nil {
			return Result{}, err
		}
		return Result{Class: ClassMutation, Mutation: res}, nil
	default:
		if err := e.define(ctx, stmt); err != nil {
			return Result{}, err
		}
		return Result{Class: ClassDefinition}, nil
	}
}

// Query runs a statement that returns rows.
func (e *Executor) Query(ctx context.Context, query string, args ...any) (rowset.RowSet, error) {
	a, err := analyze(query)
	if err != nil {
		return rowset.RowSet{}, err
	}
	if a.class != ClassQuery {
		return rowset.RowSet{}, shared.Newf(shared.KindSyntax, "%s is not a query", a.verb)
	}

	res, err := e.Execute(ctx, New(query, args...))
	if err != nil {
		return rowset.RowSet{}, err
	}
	return res.Rows, nil
}

// Mutate runs a data-changing or schema-changing statement.
func (e *Executor) Mutate(ctx context.Context, query string, args ...any) (MutationResult, error) {
	a, err := analyze(query)
	if err != nil {
		return MutationResult{}, err
	}
	if a.class == ClassQuery {
		return MutationResult{}, shared.Newf(shared.KindSyntax, "%s is a query, use Query", a.verb)
	}

	res, err := e.Execute(ctx, New(query, args...))
	if err != nil {
		return MutationResult{}, err
	}
	return res.Mutation, nil
}

func (e *Executor) query(ctx context.Context, stmt Statement) (rowset.RowSet, error) {
	var (
		columns []rowset.Column
		tuples  [][]any
	)

	err := e.runner.Run(ctx, sqlite.TxJoin, func(ctx context.Context, q sqlite.Querier) error {
		rows, err := q.QueryContext(ctx, stmt.SQL, stmt.Args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		types, err := rows.ColumnTypes()
		if err != nil {
			return err
		}
		columns = make([]rowset.Column, len(types))
		for i, ct := range types {
			columns[i] = rowset.Column{Name: ct.Name(), DeclType: ct.DatabaseTypeName()}
		}

		for rows.Next() {
			values := make([]any, len(columns))
			dest := make([]any, len(columns))
			for i := range values {
				dest[i] = &values[i]
			}
			if err := rows.Scan(dest...); err != nil {
				return err
			}
			tuples = append(tuples, values)
		}
		return rows.Err()
	})
	if err != nil {
		return rowset.RowSet{}, shared.Wrap(sqlite.ClassifyError(err), "query")
	}

	return rowset.Project(tuples, columns)
}

func (e *Executor) mutate(ctx context.Context, stmt Statement, inserts bool) (MutationResult, error) {
	var res MutationResult

	err := e.runner.Run(ctx, sqlite.TxBegin, func(ctx context.Context, q sqlite.Querier) error {
		r, err := q.ExecContext(ctx, stmt.SQL, stmt.Args...)
		if err != nil {
			return err
		}
		if res.RowsAffected, err = r.RowsAffected(); err != nil {
			return err
		}
		if inserts && res.RowsAffected > 0 {
			if res.LastInsertID, err = r.LastInsertId(); err != nil {
				return err
			}
			res.HasID = true
		}
		return nil
	})
	if err != nil {
		return MutationResult{}, shared.Wrap(sqlite.ClassifyError(err), "mutation")
	}

	e.log.Debug("statement: mutated", slog.Int64("rows_affected", res.RowsAffected))
	return res, nil
}

func (e *Executor) define(ctx context.Context, stmt Statement) error {
	err := e.runner.Run(ctx, sqlite.TxJoin, func(ctx context.Context, q sqlite.Querier) error {
		_, err := q.ExecContext(ctx, stmt.SQL, stmt.Args...)
		return err
	})
	if err != nil {
		return shared.Wrap(sqlite.ClassifyError(err), "definition")
	}
	return nil
}
