package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/farmstore/v1/database"
	"github.com/Aleph-Alpha/farmstore/v1/farm"
	"github.com/Aleph-Alpha/farmstore/v1/logger"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the farm tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(cmd)
			log := logger.NewLoggerClient(cfg.Logger)
			defer func() { _ = log.Zap.Sync() }()

			db, err := database.NewDatabase(cfg.Database, log)
			if err != nil {
				return err
			}
			defer func() { _ = db.GracefulShutdown() }()

			models := farm.Models()
			if err := db.Migrate(cmd.Context(), models...); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			log.Info("migration complete", nil, map[string]interface{}{
				"type":   db.Type(),
				"tables": len(models),
			})
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "migrated %d tables\n", len(models))
			return err
		},
	}
}
