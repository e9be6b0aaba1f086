package main

import (
	"context"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/farmstore/internal/config"
	"github.com/Aleph-Alpha/farmstore/v1/database"
	"github.com/Aleph-Alpha/farmstore/v1/farm"
	"github.com/Aleph-Alpha/farmstore/v1/logger"
	"github.com/Aleph-Alpha/farmstore/v1/metrics"
	"github.com/Aleph-Alpha/farmstore/v1/store"
	"github.com/Aleph-Alpha/farmstore/v1/tracer"
)

// tableRowsInterval is how often the table_rows gauge is refreshed.
const tableRowsInterval = 30 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the store with metrics, tracing and connection monitoring until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := newApp(configFrom(cmd))

			startCtx, cancel := context.WithTimeout(cmd.Context(), fx.DefaultTimeout)
			defer cancel()
			if err := app.Start(startCtx); err != nil {
				return err
			}

			select {
			case <-app.Done():
			case <-cmd.Context().Done():
			}

			stopCtx, cancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
			defer cancel()
			return app.Stop(stopCtx)
		},
	}
}

func newApp(cfg *config.Config) *fx.App {
	return fx.New(appOptions(cfg)...)
}

// appOptions assembles the service graph.
func appOptions(cfg *config.Config) []fx.Option {
	return []fx.Option{
		fx.NopLogger,
		fx.Supply(cfg.Logger, cfg.Metrics, cfg.Tracer, cfg.Database, cfg.Store),
		logger.FXModule,
		fx.Provide(
			func(l *logger.Logger) store.Logger { return l },
			func(l *logger.Logger) database.Logger { return l },
			func(l *logger.Logger) metrics.Logger { return l },
			func(l *logger.Logger) tracer.Logger { return l },
			func(l *logger.Logger) farm.Logger { return l },
			func(t *tracer.Tracer) store.Tracer {
				if t == nil {
					return nil
				}
				return t
			},
		),
		metrics.FXModule,
		tracer.FXModule,
		database.FXModule,
		store.FXModule,
		farm.FXModule,
		fx.Invoke(registerTableRowsGauge),
	}
}

type tableRowsParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Metrics   metrics.MetricsCollector
	Facade    *store.Facade
	Logger    *logger.Logger
}

// registerTableRowsGauge keeps farmstore_table_rows{table} current while the
// application runs.
func registerTableRowsGauge(p tableRowsParams) {
	gauge := p.Metrics.CreateGauge("table_rows", "Number of rows per farm table", []string{"table"})

	refresh := func(ctx context.Context) {
		for _, table := range p.Facade.Schema().Tables() {
			n, err := p.Facade.Count(ctx, table, nil)
			if err != nil {
				p.Logger.Warn("table row count failed", err, map[string]interface{}{"table": table})
				continue
			}
			gauge.WithLabelValues(table).Set(float64(n))
		}
	}

	var wg sync.WaitGroup
	runCtx, cancel := context.WithCancel(context.Background())

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ticker := time.NewTicker(tableRowsInterval)
				defer ticker.Stop()

				refresh(runCtx)
				for {
					select {
					case <-runCtx.Done():
						return
					case <-ticker.C:
						refresh(runCtx)
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			wg.Wait()
			return nil
		},
	})
}
