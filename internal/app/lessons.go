package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"sqlbase/internal/platform/sqlite"
	"sqlbase/internal/rowset"
	"sqlbase/internal/schema"
	"sqlbase/internal/shared"
	"sqlbase/migrations"
)

const insertUser = `INSERT INTO users (username, age, dob, password, email, is_admin, is_active)
VALUES (?, ?, ?, ?, ?, ?, ?)`

// Basics creates the users table, changes a few rows and drops the table again.
func (a *App) Basics(ctx context.Context) error {
	s, err := a.open(ctx)
	if err != nil {
		return err
	}

	if err := s.reg.Ensure(ctx, schema.Users(), a.ensureOptions()...); err != nil {
		return err
	}

	dob := rowset.NewDate(1996, time.February, 5)
	if _, err := s.exec.Mutate(ctx, insertUser, "ajay", 29, dob, "pass@1234", "ajay@example.com", true, true); err != nil {
		return err
	}
	second, err := s.exec.Mutate(ctx, insertUser, "ajay", 29, dob, "pass@1234", "ajay@example.com", true, false)
	if err != nil {
		return err
	}
	if err := shared.Invariant(second.HasID, "insert reported no row id"); err != nil {
		return err
	}

	if _, err := s.exec.Mutate(ctx, "UPDATE users SET is_admin = ?, last_login = ? WHERE id = ?",
		true, time.Now().UTC(), second.LastInsertID); err != nil {
		return err
	}
	if err := a.show(ctx, s, "All users", "SELECT * FROM users"); err != nil {
		return err
	}

	if _, err := s.exec.Mutate(ctx, "DELETE FROM users WHERE id = ?", second.LastInsertID); err != nil {
		return err
	}
	if err := a.show(ctx, s, "After deleting the second user", "SELECT * FROM users"); err != nil {
		return err
	}

	if err := s.reg.Drop(ctx, schema.Users()); err != nil {
		return err
	}
	if err := s.conn.Commit(ctx); err != nil {
		return err
	}
	return s.conn.Close()
}

type filter struct {
	title string
	query string
	args  []any
}

var lessonFilters = []filter{
	{"All users", "SELECT * FROM users", nil},
	{"Users who are active AND verified",
		"SELECT username, email FROM users WHERE is_active = ? AND is_verified = ?", []any{true, true}},
	{"Users who are NOT admins",
		"SELECT username, email FROM users WHERE NOT is_admin = ?", []any{true}},
	{"Users where username is 'Ajay' OR is_admin is True",
		"SELECT username, email FROM users WHERE username = ? OR is_admin = ?", []any{"Ajay", true}},
	{"Users who are NOT verified",
		"SELECT username, email FROM users WHERE NOT is_verified", nil},
	{"Usernames, age, and DOB where age > 25",
		"SELECT username, age, dob FROM users WHERE age > ?", []any{25}},
}

type seedUser struct {
	username string
	age      int
	dob      rowset.Date
	email    string
	admin    bool
	active   bool
	verified bool
}

var seedUsers = []seedUser{
	{"ajay", 29, rowset.NewDate(1996, time.February, 5), "ajay@example.com", true, true, true},
	{"priya", 24, rowset.NewDate(2001, time.July, 14), "priya@example.com", false, true, false},
	{"rahul", 31, rowset.NewDate(1994, time.November, 30), "rahul@example.com", false, false, true},
}

type filterResult struct {
	title string
	rows  rowset.RowSet
}

// Filters seeds the users table when it is empty and prints the filtered selects.
func (a *App) Filters(ctx context.Context) error {
	results, err := a.filterResults(ctx)
	if err != nil {
		return err
	}
	for _, r := range results {
		if err := renderRows(a.out, r.title, r.rows); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) filterResults(ctx context.Context) ([]filterResult, error) {
	s, err := a.open(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.reg.Ensure(ctx, schema.Users(), a.ensureOptions()...); err != nil {
		return nil, err
	}
	if err := a.seed(ctx, s); err != nil {
		return nil, err
	}

	results := make([]filterResult, 0, len(lessonFilters))
	for _, f := range lessonFilters {
		set, err := s.exec.Query(ctx, f.query, f.args...)
		if err != nil {
			return nil, shared.Wrapf(err, "filter %q", f.title)
		}
		results = append(results, filterResult{title: f.title, rows: set})
	}
	return results, nil
}

func (a *App) seed(ctx context.Context, s *session) error {
	set, err := s.exec.Query(ctx, "SELECT COUNT(*) AS n FROM users")
	if err != nil {
		return err
	}
	if n, _ := set.Records[0].Get("n"); n != int64(0) {
		return nil
	}

	const insert = `INSERT INTO users (username, age, dob, password, email, is_admin, is_active, is_verified)
VALUES (:username, :age, :dob, :password, :email, :admin, :active, :verified)`

	err = s.conn.WithinTx(ctx, func(ctx context.Context) error {
		for _, u := range seedUsers {
			if _, err := s.exec.Mutate(ctx, insert,
				sql.Named("username", u.username), sql.Named("age", u.age), sql.Named("dob", u.dob),
				sql.Named("password", "pass@1234"), sql.Named("email", u.email),
				sql.Named("admin", u.admin), sql.Named("active", u.active), sql.Named("verified", u.verified),
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	a.log.Info("tutorial: users seeded", slog.Int("count", len(seedUsers)))
	return nil
}

// Migrate applies the embedded migrations to the configured database.
func (a *App) Migrate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := sqlite.ApplyMigrationsFS(a.cfg.DB.Path, migrations.FS, migrations.Dir); err != nil {
		return err
	}
	version, dirty, err := sqlite.MigrationVersionFS(a.cfg.DB.Path, migrations.FS, migrations.Dir)
	if err != nil {
		return err
	}
	a.log.Info("tutorial: migrated", slog.String("path", a.cfg.DB.Path), slog.Uint64("version", uint64(version)))
	_, err = fmt.Fprintf(a.out, "%s is at migration version %d (dirty: %t)\n", a.cfg.DB.Path, version, dirty)
	return err
}

func (a *App) show(ctx context.Context, s *session, title, query string, args ...any) error {
	set, err := s.exec.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	return renderRows(a.out, title, set)
}
