package farm

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Aleph-Alpha/farmstore/v1/engine"
	"github.com/Aleph-Alpha/farmstore/v1/store"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	dateLayout      = "2006-01-02"
)

// Logger is the logging surface of the repositories.
type Logger interface {
	Warn(msg string, err error, fields ...map[string]interface{})
}

// Repository is the CRUD surface of one table. Domain repositories embed it
// and add their joins and aggregates.
type Repository struct {
	facade *store.Facade
	table  string
	now    func() time.Time
}

// NewRepository creates a repository for table.
func NewRepository(f *store.Facade, table string) Repository {
	return Repository{facade: f, table: table, now: time.Now}
}

// Table returns the table name.
func (r Repository) Table() string { return r.table }

// FindByID returns the row with id, or nil when it does not exist.
func (r Repository) FindByID(ctx context.Context, id string, columns ...string) (engine.Row, error) {
	return r.facade.FindByID(ctx, r.table, id, columns...)
}

// FindMany returns the rows matching filters.
func (r Repository) FindMany(ctx context.Context, filters store.Filters, opts store.FindOptions) ([]engine.Row, error) {
	return r.facade.FindMany(ctx, r.table, filters, opts)
}

// Count returns the number of rows matching filters.
func (r Repository) Count(ctx context.Context, filters store.Filters) (int64, error) {
	return r.facade.Count(ctx, r.table, filters)
}

// Create inserts data and returns the stored row.
func (r Repository) Create(ctx context.Context, data map[string]any) (engine.Row, error) {
	return r.facade.Create(ctx, r.table, data)
}

// Update applies data to the row with id and returns it.
func (r Repository) Update(ctx context.Context, id string, data map[string]any) (engine.Row, error) {
	return r.facade.UpdateByID(ctx, r.table, id, data)
}

// Delete removes the row with id unless another table still references it.
func (r Repository) Delete(ctx context.Context, id string) (*store.DeleteResult, error) {
	return r.facade.DeleteByID(ctx, r.table, id)
}

// query runs a repository specific statement against the store.
func (r Repository) query(ctx context.Context, op store.OperationKind, sql string, args ...any) (*store.ExecutionResult, error) {
	return r.facade.Store().ExecuteQuery(ctx, sql, args, store.QueryOptions{Operation: op, Table: r.table})
}

// rows returns the rows of res, never nil.
func rows(res *store.ExecutionResult) []engine.Row {
	if res == nil || res.Rows == nil {
		return []engine.Row{}
	}
	return res.Rows
}

// Timestamp formats t the way CURRENT_TIMESTAMP renders, so stored times
// compare correctly as text on SQLite.
func Timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// Date formats the calendar day of t.
func Date(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return n, nil
	case int64:
		return decimal.NewFromInt(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case float64:
		return decimal.NewFromFloat(n), nil
	case string:
		return decimal.NewFromString(n)
	case []byte:
		return decimal.NewFromString(string(n))
	}
	return decimal.Zero, fmt.Errorf("unexpected numeric value of type %T", v)
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	}
	return fmt.Sprint(v)
}

func copyPayload(data map[string]any) map[string]any {
	out := make(map[string]any, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	return out
}

func invalid(message string, details map[string]any) error {
	return store.NewError(store.CodeInvalidParameter, message, details, nil)
}
