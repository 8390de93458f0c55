package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

var steps int

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Apply or roll back the embedded PostgreSQL schema migrations.`,
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		Long:  `Rollback a specified number of database migrations.`,
		RunE:  runMigrateDown,
	}
	down.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Run all pending migrations",
			Long:  `Apply all pending database migrations to bring the database schema up to date.`,
			RunE:  runMigrateUp,
		},
		down,
	)
	return cmd
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	return withDatabase(cmd.Context(), func(ctx context.Context, pg *persistence.Postgres, logger *zap.Logger) error {
		return persistence.RunMigrations(ctx, pg.PoolHandle(), logger)
	})
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	return withDatabase(cmd.Context(), func(ctx context.Context, pg *persistence.Postgres, logger *zap.Logger) error {
		return persistence.RollbackMigrations(ctx, pg.PoolHandle(), steps, logger)
	})
}

func withDatabase(ctx context.Context, fn func(context.Context, *persistence.Postgres, *zap.Logger) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect postgres", zap.Error(err))
		return err
	}
	defer pg.Close()

	if err := fn(ctx, pg, logger); err != nil {
		logger.Error("migration failed", zap.Error(err))
		return err
	}
	return nil
}
