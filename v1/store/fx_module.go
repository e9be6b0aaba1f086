package store

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/farmstore/v1/engine"
	"github.com/Aleph-Alpha/farmstore/v1/observability"
)

// FXModule is an fx.Module that provides the *Store.
//
// The module expects an engine.Engine and a Config in the graph; a Logger,
// an observability.Observer and a Tracer are picked up when present.
//
// Usage:
//
//	app := fx.New(
//	    database.FXModule, // provides engine.Engine
//	    store.FXModule,
//	    fx.Provide(func() store.Config { return store.Config{} }),
//	)
var FXModule = fx.Module("store",
	fx.Provide(NewStoreWithDI),
)

// StoreParams groups the dependencies needed to create a Store.
type StoreParams struct {
	fx.In

	Engine   engine.Engine
	Config   Config
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`
	Tracer   Tracer                 `optional:"true"`
}

// NewStoreWithDI creates a Store from injected dependencies, attaching the
// optional logger, observer and tracer when they are provided.
func NewStoreWithDI(params StoreParams) *Store {
	s := New(params.Engine, params.Config)
	if params.Logger != nil {
		s.WithLogger(params.Logger)
	}
	if params.Observer != nil {
		s.WithObserver(params.Observer)
	}
	if params.Tracer != nil {
		s.WithTracer(params.Tracer)
	}
	return s
}
