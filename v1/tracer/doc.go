// Package tracer provides OpenTelemetry tracing for farmstore.
//
// A Tracer is handed to store.WithTracer; every query and transaction then
// runs inside a "store.<operation>" span carrying db.operation, db.table,
// db.statement (redacted), db.attempts and db.rows.
//
//	t := tracer.NewClient(tracer.Config{
//		ServiceName:  "farmstore",
//		AppEnv:       "production",
//		EnableExport: true,
//	}, log)
//	defer t.Shutdown(context.Background())
//
//	s := store.New(eng, store.Config{}).WithTracer(t)
//
// Trace context crosses process boundaries as W3C headers:
//
//	headers := t.GetCarrier(ctx)
//	...
//	ctx = t.SetCarrierOnContext(ctx, headers)
package tracer
