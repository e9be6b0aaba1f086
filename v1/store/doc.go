// Package store is the guarded database access layer of farmstore.
//
// Every statement goes through the same pipeline before it reaches the
// storage engine: per-actor rate limiting, structural validation of the query
// text, sanitization of the bound parameters, a timeout race per attempt and
// bounded retries with exponential backoff for transient engine errors.
// Metrics, a slow query log, structured logs, an optional observer and an
// optional tracing span are updated on every call.
//
// # Architecture
//
//   - Store: ExecuteQuery and ExecuteTransaction over an engine.Engine
//   - Facade: CRUD over a whitelisted Schema, built on Store
//   - RateLimiter, RetryPolicy, QueryValidator: the individual guards
//   - Error: the single error type, branch on Error.Code or use errors.Is
//     with the sentinels (ErrRateLimitExceeded, ErrQueryTimeout, ...)
//
// # Direct Usage (Without FX)
//
//	db, err := sqlite.Open(sqlite.Config{Connection: sqlite.Connection{Path: "farm.db"}})
//	if err != nil {
//		return err
//	}
//	s := store.New(engine.NewGormEngine(func() *gorm.DB { return db }), store.Config{}).
//		WithLogger(log)
//
//	ctx = store.WithActor(ctx, userID)
//	res, err := s.ExecuteQuery(ctx, "SELECT * FROM farms WHERE owner_id = ?", []any{userID},
//		store.QueryOptions{Table: "farms"})
//	if errors.Is(err, store.ErrRateLimitExceeded) {
//		// back off
//	}
//
// # Facade
//
//	f := store.NewFacade(s, farm.Schema())
//	row, err := f.Create(ctx, "farms", map[string]any{"name": "Acme", "owner_id": userID})
//	rows, err := f.FindMany(ctx, "animals", store.Filters{
//		"farm_id": row["id"],
//		"species": store.Condition{Operator: "IN", Value: []string{"cow", "goat"}},
//	}, store.FindOptions{OrderBy: "name", Limit: 50})
//	_, err = f.DeleteByID(ctx, "farms", row["id"]) // DEPENDENCY_VIOLATION while animals exist
//
// # FX Module Integration
//
//	app := fx.New(
//	    logger.FXModule,
//	    database.FXModule,
//	    store.FXModule,
//	)
//
// # Thread Safety
//
// A Store is safe for concurrent use. The rate limiter windows and the metrics
// are guarded by mutexes that are never held across an engine call. Rate
// limits are per process.
package store
