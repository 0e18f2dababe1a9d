package main

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	meta "github.com/sir_venger/vidshelf/internal/repo"
)

const migrateTimeout = 30 * time.Second

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply Postgres schema migrations for the metadata store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if scheme := dsnScheme(cfg.MetaDSN); scheme != "postgres" && scheme != "postgresql" {
				logger.Info("meta store has no migrations, skipping")
				return nil
			}

			migrateCtx, cancel := context.WithTimeout(cmd.Context(), migrateTimeout)
			defer cancel()

			if err := meta.ApplyMigrations(migrateCtx, cfg.MetaDSN); err != nil {
				return err
			}

			logger.Info("migrations applied")
			return nil
		},
	}
}

// dsnScheme возвращает схему DSN без "://"; в логи не попадают учётные данные.
func dsnScheme(dsn string) string {
	scheme, _, _ := strings.Cut(dsn, "://")
	return scheme
}
