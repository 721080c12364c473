package app

import (
	"context"
	"io"
	"log/slog"

	"sqlbase/internal/config"
	"sqlbase/internal/platform/logger"
	"sqlbase/internal/platform/sqlite"
	"sqlbase/internal/schema"
	"sqlbase/internal/statement"
)

// App wires application components.
type App struct {
	cfg config.Config
	log *slog.Logger
	dbs *sqlite.Manager
	out io.Writer
}

// New creates an App writing lesson output to out.
func New(cfg config.Config, log *slog.Logger, out io.Writer) *App {
	opts := cfg.DBOptions()
	opts.Logger = log
	return &App{
		cfg: cfg,
		log: log,
		dbs: sqlite.NewManager(opts),
		out: out,
	}
}

// NewLogger builds the application logger from configuration.
func NewLogger(cfg config.Config, console io.Writer) *slog.Logger {
	return logger.New(logger.Options{
		Env:          cfg.Env,
		ConsoleLevel: cfg.Log.ConsoleLevel,
		FileLevel:    cfg.Log.FileLevel,
		File:         cfg.Log.File,
		App:          "sqlbase-tutorial",
		Console:      console,
	})
}

// Close closes every connection the App opened and flushes the logger.
func (a *App) Close() error {
	err := a.dbs.Shutdown()
	if cerr := logger.Close(a.log); err == nil {
		err = cerr
	}
	return err
}

// session is the set of components one lesson works with.
type session struct {
	conn *sqlite.Conn
	exec *statement.Executor
	reg  *schema.Registrar
}

func (a *App) open(ctx context.Context) (*session, error) {
	conn, err := a.dbs.Acquire(ctx, a.cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	exec := statement.NewExecutor(conn, a.log)
	return &session{
		conn: conn,
		exec: exec,
		reg:  schema.NewRegistrar(exec, a.log),
	}, nil
}

func (a *App) ensureOptions() []schema.EnsureOption {
	if a.cfg.DB.VerifySchema {
		return []schema.EnsureOption{schema.WithVerify()}
	}
	return nil
}
