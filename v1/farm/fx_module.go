package farm

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/farmstore/v1/store"
)

// FXModule provides the farm schema, a *store.Facade restricted to it and
// the *Repositories. It expects a *store.Store in the graph.
//
//	app := fx.New(
//	    database.FXModule,
//	    store.FXModule,
//	    farm.FXModule,
//	)
var FXModule = fx.Module("farm",
	fx.Provide(
		Schema,
		store.NewFacade,
		NewRepositoriesWithDI,
	),
)

// RepositoriesParams groups the dependencies of NewRepositoriesWithDI.
type RepositoriesParams struct {
	fx.In

	Facade *store.Facade
	Logger Logger `optional:"true"`
}

// NewRepositoriesWithDI is the fx constructor for *Repositories.
func NewRepositoriesWithDI(p RepositoriesParams) *Repositories {
	return NewRepositories(p.Facade, p.Logger)
}
