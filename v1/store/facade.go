package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Aleph-Alpha/farmstore/v1/engine"
)

// protectedColumns are never taken from caller payloads.
var protectedColumns = map[string]struct{}{
	"id":         {},
	"created_at": {},
	"updated_at": {},
}

// FindOptions shapes a FindMany call.
type FindOptions struct {
	Columns  []string
	OrderBy  string
	OrderDir string
	// Limit 0 means the configured default; any value is clamped to [1, MaxLimit].
	Limit  int
	Offset int
}

// DeleteResult reports the outcome of DeleteByID.
type DeleteResult struct {
	Success bool
	Changes int64
}

// Facade is the CRUD surface over whitelisted tables. Every call goes through
// Store.ExecuteQuery or Store.ExecuteTransaction. Table names come from the
// schema, column names must be identifiers and values are always bound.
//
// Follow-up reads issued on behalf of a call (re-fetching a created row,
// counting dependents) skip the rate limiter, so one facade call counts once.
type Facade struct {
	store  *Store
	schema *Schema
	newID  func() string
}

// NewFacade creates a facade over store restricted to schema.
func NewFacade(store *Store, schema *Schema) *Facade {
	return &Facade{
		store:  store,
		schema: schema,
		newID:  uuid.NewString,
	}
}

// Store returns the underlying store.
func (f *Facade) Store() *Store { return f.store }

// Schema returns the whitelist the facade enforces.
func (f *Facade) Schema() *Schema { return f.schema }

// NewID returns a fresh row id, for rows inserted with hand-written SQL.
func (f *Facade) NewID() string { return f.newID() }

// FindByID returns the row with the given id, or nil when there is none.
func (f *Facade) FindByID(ctx context.Context, table string, id any, columns ...string) (engine.Row, error) {
	return f.findByID(ctx, table, id, false, columns...)
}

func (f *Facade) findByID(ctx context.Context, table string, id any, followUp bool, columns ...string) (engine.Row, error) {
	t, err := f.schema.Table(table)
	if err != nil {
		return nil, err
	}
	cols, err := columnList(columns)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1", cols, t.Name)
	res, err := f.store.ExecuteQuery(ctx, query, []any{id}, QueryOptions{
		Operation:     OpFirst,
		Table:         t.Name,
		SkipRateLimit: followUp,
	})
	if err != nil {
		return nil, err
	}
	return res.First(), nil
}

// FindMany returns the rows matching all filters.
func (f *Facade) FindMany(ctx context.Context, table string, filters Filters, opts FindOptions) ([]engine.Row, error) {
	t, err := f.schema.Table(table)
	if err != nil {
		return nil, err
	}
	query, args, err := f.selectQuery(t, filters, opts)
	if err != nil {
		return nil, err
	}

	res, err := f.store.ExecuteQuery(ctx, query, args, QueryOptions{Operation: OpQuery, Table: t.Name})
	if err != nil {
		return nil, err
	}
	if res.Rows == nil {
		return []engine.Row{}, nil
	}
	return res.Rows, nil
}

func (f *Facade) selectQuery(t Table, filters Filters, opts FindOptions) (string, []any, error) {
	cols, err := columnList(opts.Columns)
	if err != nil {
		return "", nil, err
	}
	where, args, err := whereClause(filters)
	if err != nil {
		return "", nil, err
	}
	order, err := orderClause(opts.OrderBy, opts.OrderDir)
	if err != nil {
		return "", nil, err
	}

	limit := f.ClampLimit(opts.Limit)
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s%s%s LIMIT ?", cols, t.Name, where, order)
	args = append(args, limit)
	if offset > 0 {
		b.WriteString(" OFFSET ?")
		args = append(args, offset)
	}
	return b.String(), args, nil
}

// ClampLimit applies the configured default and maximum page size to limit.
func (f *Facade) ClampLimit(limit int) int {
	cfg := f.store.Config()
	return clampLimit(limit, cfg.DefaultLimit, cfg.MaxLimit)
}

// Count returns the number of rows matching all filters.
func (f *Facade) Count(ctx context.Context, table string, filters Filters) (int64, error) {
	return f.count(ctx, table, filters, false)
}

func (f *Facade) count(ctx context.Context, table string, filters Filters, followUp bool) (int64, error) {
	t, err := f.schema.Table(table)
	if err != nil {
		return 0, err
	}
	where, args, err := whereClause(filters)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf("SELECT COUNT(*) AS count FROM %s%s", t.Name, where)
	res, err := f.store.ExecuteQuery(ctx, query, args, QueryOptions{
		Operation:     OpFirst,
		Table:         t.Name,
		SkipRateLimit: followUp,
	})
	if err != nil {
		return 0, err
	}
	return ToInt64(res.First()["count"])
}

// Create inserts data with a generated id and returns the stored row.
// Protected columns in data are ignored; timestamps are set by the database.
// When the row cannot be read back, data merged with the id is returned.
func (f *Facade) Create(ctx context.Context, table string, data map[string]any) (engine.Row, error) {
	op, id, err := f.InsertOperation(table, data)
	if err != nil {
		return nil, err
	}

	if _, err := f.store.ExecuteQuery(ctx, op.Query, op.Params, QueryOptions{Operation: OpRun, Table: op.Table}); err != nil {
		f.store.logger.Debug("create failed", err, map[string]interface{}{
			"table":   table,
			"payload": redactPayload(data),
		})
		return nil, err
	}

	row, err := f.findByID(ctx, table, id, true)
	if err != nil {
		return nil, err
	}
	if row != nil {
		return row, nil
	}

	merged := make(engine.Row, len(data)+1)
	for k, v := range writable(data) {
		merged[k] = v
	}
	merged["id"] = id
	return merged, nil
}

// UpdateByID updates the given columns and returns the row after the update.
// A missing row fails NOT_FOUND.
func (f *Facade) UpdateByID(ctx context.Context, table string, id any, data map[string]any) (engine.Row, error) {
	op, err := f.UpdateOperation(table, id, data)
	if err != nil {
		return nil, err
	}

	if _, err := f.store.ExecuteQuery(ctx, op.Query, op.Params, QueryOptions{Operation: OpRun, Table: op.Table}); err != nil {
		f.store.logger.Debug("update failed", err, map[string]interface{}{
			"table":   table,
			"payload": redactPayload(data),
		})
		return nil, err
	}

	row, err := f.findByID(ctx, table, id, true)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, newError(CodeNotFound, "row not found", map[string]any{"table": table, "id": id}, nil)
	}
	return row, nil
}

// DeleteByID deletes a row unless a dependency rule still references it.
func (f *Facade) DeleteByID(ctx context.Context, table string, id any) (*DeleteResult, error) {
	if err := f.CheckDependencies(ctx, table, id); err != nil {
		return nil, err
	}
	op, err := f.DeleteOperation(table, id)
	if err != nil {
		return nil, err
	}

	res, err := f.store.ExecuteQuery(ctx, op.Query, op.Params, QueryOptions{Operation: OpRun, Table: op.Table})
	if err != nil {
		return nil, err
	}
	if res.Changes == 0 {
		// A dependent inserted after the check makes the guarded delete a no-op.
		if err := f.CheckDependencies(ctx, table, id); err != nil {
			return nil, err
		}
	}
	return &DeleteResult{Success: true, Changes: res.Changes}, nil
}

// CheckDependencies fails DEPENDENCY_VIOLATION naming the first dependent table
// that still references id.
func (f *Facade) CheckDependencies(ctx context.Context, table string, id any) error {
	if _, err := f.schema.Table(table); err != nil {
		return err
	}
	for _, rule := range f.schema.Dependents(table) {
		n, err := f.count(ctx, rule.ChildTable, Filters{rule.ForeignKeyColumn: id}, true)
		if err != nil {
			return err
		}
		if n > 0 {
			return newError(CodeDependencyViolation, "row is still referenced", map[string]any{
				"table":           table,
				"id":              id,
				"dependent_table": rule.ChildTable,
				"foreign_key":     rule.ForeignKeyColumn,
				"count":           n,
			}, nil)
		}
	}
	return nil
}

// InsertOperation builds the insert for Create and returns it with the
// generated id, so callers can combine it with other writes in one
// transaction.
func (f *Facade) InsertOperation(table string, data map[string]any) (Operation, string, error) {
	t, err := f.schema.Table(table)
	if err != nil {
		return Operation{}, "", err
	}
	fields, err := validatePayload(writable(data))
	if err != nil {
		return Operation{}, "", err
	}

	id := f.newID()
	columns := append([]string{"id"}, fields...)
	placeholders := make([]string, len(columns))
	params := make([]any, len(columns))
	params[0] = id
	placeholders[0] = "?"
	for i, col := range fields {
		placeholders[i+1] = "?"
		params[i+1] = data[col]
	}
	if t.Timestamps {
		columns = append(columns, "created_at", "updated_at")
		placeholders = append(placeholders, "CURRENT_TIMESTAMP", "CURRENT_TIMESTAMP")
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.Name, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	return Operation{Query: query, Params: params, Operation: OpRun, Table: t.Name}, id, nil
}

// UpdateOperation builds the update for UpdateByID.
func (f *Facade) UpdateOperation(table string, id any, data map[string]any) (Operation, error) {
	t, err := f.schema.Table(table)
	if err != nil {
		return Operation{}, err
	}
	fields, err := validatePayload(writable(data))
	if err != nil {
		return Operation{}, err
	}
	if len(fields) == 0 {
		return Operation{}, newError(CodeInvalidParameter, "no updatable fields", map[string]any{"table": table}, nil)
	}

	sets := make([]string, 0, len(fields)+1)
	params := make([]any, 0, len(fields)+1)
	for _, col := range fields {
		sets = append(sets, col+" = ?")
		params = append(params, data[col])
	}
	if t.Timestamps {
		sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	}
	params = append(params, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", t.Name, strings.Join(sets, ", "))
	return Operation{Query: query, Params: params, Operation: OpRun, Table: t.Name}, nil
}

// DeleteOperation builds a delete by id that only removes the row when no
// dependency rule references it at execution time.
func (f *Facade) DeleteOperation(table string, id any) (Operation, error) {
	t, err := f.schema.Table(table)
	if err != nil {
		return Operation{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "DELETE FROM %s WHERE id = ?", t.Name)
	params := []any{id}
	for _, rule := range f.schema.Dependents(table) {
		fmt.Fprintf(&b, " AND NOT EXISTS (SELECT 1 FROM %s WHERE %s = ?)", rule.ChildTable, rule.ForeignKeyColumn)
		params = append(params, id)
	}
	return Operation{Query: b.String(), Params: params, Operation: OpRun, Table: t.Name}, nil
}

// DeleteWhereOperation builds a delete of every row matching filters. Empty
// filters are rejected.
func (f *Facade) DeleteWhereOperation(table string, filters Filters) (Operation, error) {
	t, err := f.schema.Table(table)
	if err != nil {
		return Operation{}, err
	}
	if len(filters) == 0 {
		return Operation{}, newError(CodeInvalidParameter, "delete requires at least one filter", map[string]any{"table": table}, nil)
	}
	where, args, err := whereClause(filters)
	if err != nil {
		return Operation{}, err
	}
	return Operation{Query: "DELETE FROM " + t.Name + where, Params: args, Operation: OpRun, Table: t.Name}, nil
}

// Transaction executes ops atomically.
func (f *Facade) Transaction(ctx context.Context, ops ...Operation) ([]*ExecutionResult, error) {
	return f.store.ExecuteTransaction(ctx, ops)
}

// writable drops protected columns.
func writable(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if _, skip := protectedColumns[k]; skip {
			continue
		}
		out[k] = v
	}
	return out
}

// validatePayload checks column names and string sizes and returns the
// columns in sorted order.
func validatePayload(data map[string]any) ([]string, error) {
	columns := make([]string, 0, len(data))
	for col, v := range data {
		if !IsIdentifier(col) {
			return nil, newError(CodeInvalidColumns, "invalid column name", map[string]any{"column": col}, nil)
		}
		if s, ok := v.(string); ok && utf8.RuneCountInString(s) > MaxStringLength {
			return nil, newError(CodeInvalidParameter, "field exceeds the maximum string length", map[string]any{
				"field":  col,
				"length": utf8.RuneCountInString(s),
				"max":    MaxStringLength,
			}, nil)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns, nil
}

// ToInt64 converts an integer column value as returned by any supported
// driver (int64, float64, decimal text) to int64.
func ToInt64(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, newError(CodeDatabaseError, "unexpected count value", map[string]any{"value": n}, err)
		}
		return i, nil
	}
	return 0, newError(CodeDatabaseError, "unexpected count type", map[string]any{"type": fmt.Sprintf("%T", v)}, nil)
}
