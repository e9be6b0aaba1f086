// Package farm holds the farm management domain on top of the store: the
// gorm models used for migration, the table whitelist with its dependency
// rules, and repositories adding joins, aggregates and multi-row writes to
// the generic CRUD facade.
//
// Writes spanning several rows (creating a farm with its owner membership
// and statistics row, deleting it again, adjusting inventory with its
// ledger line) are submitted as one store transaction.
//
//	db, _ := sqlite.Open(sqlite.Config{Connection: sqlite.Connection{Path: "farm.db"}})
//	_ = db.AutoMigrate(farm.Models()...)
//
//	s := store.New(engine.NewGormEngine(func() *gorm.DB { return db }), store.Config{})
//	repos := farm.NewRepositories(store.NewFacade(s, farm.Schema()), log)
//
//	acme, err := repos.Farms.Create(ctx, "u1", map[string]any{"name": "Acme"})
package farm
