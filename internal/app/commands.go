package app

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"sqlbase/internal/config"
	"sqlbase/internal/shared"
)

// NewRootCmd creates the tutorial command tree.
func NewRootCmd() *cobra.Command {
	var dbPath string

	rootCmd := &cobra.Command{
		Use:   "tutorial",
		Short: "SQLite foundations, one lesson per command",
		Long: `tutorial replays the SQL foundations lessons against a SQLite file.

The database path comes from DB_PATH (default tutorial.db) unless --db is given.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the SQLite database (overrides DB_PATH)")

	lesson := func(use, short string, run func(*App, context.Context) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := setup(cmd, dbPath)
				if err != nil {
					return err
				}
				defer func() { _ = a.Close() }()

				if err := run(a, cmd.Context()); err != nil {
					a.log.Error("tutorial: lesson failed", failureAttrs(use, err)...)
					return err
				}
				return nil
			},
		}
	}

	rootCmd.AddCommand(
		lesson("basics", "Create, insert, update, select, delete and drop", (*App).Basics),
		lesson("filters", "Filter users with WHERE, AND, OR and NOT", (*App).Filters),
		lesson("migrate", "Apply the embedded migrations", (*App).Migrate),
	)
	return rootCmd
}

func failureAttrs(lesson string, err error) []any {
	return []any{
		slog.String("lesson", lesson),
		slog.String("kind", shared.KindOf(err).String()),
		slog.Any("err", err),
		slog.String("cause", shared.Cause(err).Error()),
	}
}

func setup(cmd *cobra.Command, dbPath string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DB.Path = dbPath
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	log := NewLogger(cfg, cmd.ErrOrStderr())
	return New(cfg, log, cmd.OutOrStdout()), nil
}
