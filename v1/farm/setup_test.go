package farm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Aleph-Alpha/farmstore/v1/engine"
	"github.com/Aleph-Alpha/farmstore/v1/sqlite"
	"github.com/Aleph-Alpha/farmstore/v1/store"
)

type testEnv struct {
	db     *gorm.DB
	store  *store.Store
	facade *store.Facade
	repos  *Repositories
	logs   *recordingLogger
}

// newTestEnv migrates a fresh in-memory SQLite database and builds the
// store, facade and repositories on top of it.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.Open(sqlite.Config{Connection: sqlite.Connection{Path: ":memory:"}})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(Models()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	s := store.New(engine.NewGormEngine(func() *gorm.DB { return db }), store.Config{
		DefaultTimeout: 5 * time.Second,
	})
	f := store.NewFacade(s, Schema())
	logs := &recordingLogger{}

	return &testEnv{
		db:     db,
		store:  s,
		facade: f,
		repos:  NewRepositories(f, logs),
		logs:   logs,
	}
}

func (e *testEnv) create(t *testing.T, table string, data map[string]any) string {
	t.Helper()
	row, err := e.facade.Create(context.Background(), table, data)
	require.NoError(t, err)
	require.NotNil(t, row)
	return toString(row["id"])
}

func (e *testEnv) count(t *testing.T, table string, filters store.Filters) int64 {
	t.Helper()
	n, err := e.facade.Count(context.Background(), table, filters)
	require.NoError(t, err)
	return n
}

func decimalOf(t *testing.T, v any) decimal.Decimal {
	t.Helper()
	d, err := toDecimal(v)
	require.NoError(t, err)
	return d
}

func ids(rows []engine.Row) []string {
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = toString(row["id"])
	}
	return out
}

type logEntry struct {
	msg    string
	err    error
	fields map[string]interface{}
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) Warn(msg string, err error, fields ...map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := logEntry{msg: msg, err: err}
	if len(fields) > 0 {
		entry.fields = fields[0]
	}
	l.entries = append(l.entries, entry)
}

func (l *recordingLogger) all() []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]logEntry(nil), l.entries...)
}
