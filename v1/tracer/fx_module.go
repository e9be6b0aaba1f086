package tracer

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides *Tracer and flushes it when the application stops.
//
//	app := fx.New(
//	    tracer.FXModule,
//	    fx.Provide(func() tracer.Config { return tracer.Config{ServiceName: "farmstore"} }),
//	)
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewTracerWithDI,
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// TracerParams groups the dependencies of NewTracerWithDI.
type TracerParams struct {
	fx.In

	Config Config
	Logger Logger `optional:"true"`
}

// NewTracerWithDI is the fx constructor for *Tracer.
func NewTracerWithDI(p TracerParams) *Tracer {
	return NewClient(p.Config, p.Logger)
}

// RegisterTracerLifecycle shuts the tracer provider down on application stop,
// flushing spans still held by the batcher.
func RegisterTracerLifecycle(lc fx.Lifecycle, tracer *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if tracer == nil || tracer.tracer == nil {
				return nil
			}
			if tracer.logger != nil {
				tracer.logger.Info("shutting down tracer", nil, nil)
			}
			return tracer.Shutdown(ctx)
		},
	})
}
