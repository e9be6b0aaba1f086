package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/farmstore/v1/database"
	"github.com/Aleph-Alpha/farmstore/v1/farm"
	"github.com/Aleph-Alpha/farmstore/v1/logger"
	"github.com/Aleph-Alpha/farmstore/v1/store"
)

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count the rows of every farm table",
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

			facade := store.NewFacade(store.New(db.Engine(), cfg.Store).WithLogger(log), farm.Schema())

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TABLE\tROWS")
			for _, table := range facade.Schema().Tables() {
				n, err := facade.Count(cmd.Context(), table, nil)
				if err != nil {
					return fmt.Errorf("count %s: %w", table, err)
				}
				fmt.Fprintf(w, "%s\t%d\n", table, n)
			}
			return w.Flush()
		},
	}
}
