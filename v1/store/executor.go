package store

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/farmstore/v1/engine"
	"github.com/Aleph-Alpha/farmstore/v1/observability"
)

// OperationKind selects how a statement is executed and how its result is shaped.
type OperationKind string

const (
	// OpQuery returns all rows.
	OpQuery OperationKind = "query"
	// OpRun executes a statement that modifies data and reports changes.
	OpRun OperationKind = "run"
	// OpFirst returns at most one row.
	OpFirst OperationKind = "first"
	// OpRaw returns rows as positional value arrays.
	OpRaw OperationKind = "raw"

	opTransaction OperationKind = "transaction"
)

func (k OperationKind) valid() bool {
	switch k {
	case OpQuery, OpRun, OpFirst, OpRaw:
		return true
	}
	return false
}

// QueryOptions tunes a single ExecuteQuery call.
type QueryOptions struct {
	// Operation defaults to OpQuery.
	Operation OperationKind
	// Table labels logs, metrics and errors.
	Table string
	// Retries is the number of attempts; 0 means the configured maximum and
	// larger values are capped to it.
	Retries int
	// Timeout bounds each attempt; 0 means Config.DefaultTimeout.
	Timeout time.Duration
	// ActorID is rate limited; when empty the actor from the context is used.
	ActorID       string
	SkipRateLimit bool
}

// ExecutionResult is the outcome of one executed statement.
type ExecutionResult struct {
	Success      bool
	Rows         []engine.Row
	Columns      []string
	Values       [][]any
	Changes      int64
	LastInsertID any
	Duration     time.Duration
	Operation    OperationKind
	Table        string
	Attempts     int
}

// First returns the first row, or nil.
func (r *ExecutionResult) First() engine.Row {
	if r == nil || len(r.Rows) == 0 {
		return nil
	}
	return r.Rows[0]
}

// Data returns the payload in the shape implied by the operation kind: all
// rows for OpQuery, a single row or nil for OpFirst, value arrays for OpRaw and
// nil for OpRun.
func (r *ExecutionResult) Data() any {
	if r == nil {
		return nil
	}
	switch r.Operation {
	case OpFirst:
		if row := r.First(); row != nil {
			return row
		}
		return nil
	case OpRaw:
		return r.Values
	case OpRun:
		return nil
	}
	return r.Rows
}

func newExecutionResult(out *engine.Result, op OperationKind, table string, attempts int) *ExecutionResult {
	res := &ExecutionResult{Success: true, Operation: op, Table: table, Attempts: attempts}
	if out == nil {
		return res
	}
	res.Columns = out.Columns
	res.Changes = out.Changes
	res.LastInsertID = out.LastInsertID
	switch op {
	case OpFirst:
		if row := out.First(); row != nil {
			res.Rows = []engine.Row{row}
		}
	case OpRaw:
		res.Values = out.Values
	default:
		res.Rows = out.Rows
	}
	return res
}

// ExecuteQuery validates, sanitizes and executes one statement.
//
// The actor is rate limited first, so a throttled call never reaches the
// engine. Each attempt races opts.Timeout; an attempt that times out fails the
// call with QUERY_TIMEOUT and is not retried. Other failures are retried while
// their engine kind is retryable and attempts remain, then reported as
// DATABASE_ERROR. Metrics, logs and the observer are updated on every path.
func (s *Store) ExecuteQuery(ctx context.Context, query string, params []any, opts QueryOptions) (res *ExecutionResult, err error) {
	if opts.Operation == "" {
		opts.Operation = OpQuery
	}
	if opts.Timeout <= 0 {
		opts.Timeout = s.cfg.DefaultTimeout
	}

	start := s.now()
	attempts := 0
	ctx, span := s.startSpan(ctx, opts.Operation, opts.Table, query)
	defer func() {
		s.complete(span, completion{
			statement: query,
			params:    params,
			operation: opts.Operation,
			table:     opts.Table,
			start:     start,
			attempts:  attempts,
			result:    res,
			err:       err,
		})
	}()

	if !opts.Operation.valid() {
		return nil, newError(CodeInvalidParameter, "unknown operation kind", map[string]any{
			"operation": string(opts.Operation),
		}, nil)
	}

	if actor := s.actor(ctx, opts.ActorID); actor != "" && !opts.SkipRateLimit {
		if err = s.limiter.Check(actor); err != nil {
			return nil, err
		}
	}

	if err = s.validator.Validate(query); err != nil {
		return nil, err
	}
	sanitized, err := SanitizeParams(params)
	if err != nil {
		return nil, err
	}

	stmt := s.engine.Prepare(query).Bind(sanitized...)
	out, attempts, err := retryCall(s, ctx, opts.Retries, opts.Timeout, func(ctx context.Context) (*engine.Result, error) {
		return dispatch(ctx, stmt, opts.Operation)
	})
	if err != nil {
		return nil, s.failure(CodeDatabaseError, err, opts.Operation, opts.Table, attempts, opts.Timeout)
	}

	return newExecutionResult(out, opts.Operation, opts.Table, attempts), nil
}

func dispatch(ctx context.Context, stmt engine.BoundStatement, op OperationKind) (*engine.Result, error) {
	switch op {
	case OpRun:
		return stmt.Run(ctx)
	case OpFirst:
		row, err := stmt.First(ctx)
		if err != nil {
			return nil, err
		}
		res := &engine.Result{}
		if row != nil {
			res.Rows = []engine.Row{row}
		}
		return res, nil
	case OpRaw:
		return stmt.Raw(ctx)
	default:
		return stmt.All(ctx)
	}
}

// retryCall runs call under the timeout race, retrying retryable failures with
// backoff. It returns the number of attempts made.
func retryCall[T any](s *Store, ctx context.Context, requested int, timeout time.Duration, call func(context.Context) (T, error)) (T, int, error) {
	var zero T
	maxAttempts := s.retry.Attempts(requested)
	b := s.retry.Backoff()

	for attempt := 1; ; attempt++ {
		out, err := raceCall(s.race, ctx, timeout, call)
		if err == nil {
			return out, attempt, nil
		}
		if errors.Is(err, errAttemptTimeout) || ctx.Err() != nil {
			return zero, attempt, err
		}
		if attempt >= maxAttempts || !s.retry.Retryable(err) {
			return zero, attempt, err
		}

		delay := b.NextBackOff()
		s.logger.Warn("retrying after transient database error", err, map[string]interface{}{
			"attempt":  attempt,
			"max":      maxAttempts,
			"kind":     string(engine.KindOf(err)),
			"delay_ms": delay.Milliseconds(),
		})
		if err := s.sleep(ctx, delay); err != nil {
			return zero, attempt, err
		}
	}
}

// failure converts an execution error into the store's error type. Attempt
// and parent deadlines become QUERY_TIMEOUT; everything else becomes code.
func (s *Store) failure(code Code, err error, op OperationKind, table string, attempts int, timeout time.Duration) *Error {
	details := map[string]any{
		"table":     table,
		"operation": string(op),
		"attempts":  attempts,
	}

	if errors.Is(err, errAttemptTimeout) || errors.Is(err, context.DeadlineExceeded) {
		details["timeout_ms"] = timeout.Milliseconds()
		timeoutErr := newError(CodeQueryTimeout, "query exceeded its deadline", details, err)
		if code == CodeDatabaseError {
			return timeoutErr
		}
		return newError(code, "transaction exceeded its deadline", details, timeoutErr)
	}

	details["message"] = truncate(err.Error(), maxDetailMessage)
	if kind := engine.KindOf(err); kind != "" {
		details["kind"] = string(kind)
	}
	msg := "query failed"
	if code == CodeTransactionError {
		msg = "transaction failed"
	}
	return newError(code, msg, details, err)
}

func (s *Store) actor(ctx context.Context, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return ActorFromContext(ctx)
}

type completion struct {
	statement string
	params    []any
	operation OperationKind
	table     string
	start     time.Time
	attempts  int
	result    *ExecutionResult
	results   []*ExecutionResult
	err       error
}

// complete records metrics, logs, notifies the observer and ends the span.
func (s *Store) complete(span trace.Span, c completion) {
	d := s.now().Sub(c.start)
	failed := c.err != nil

	var size int64
	if c.result != nil {
		c.result.Duration = d
		size = resultSize(c.result)
	}
	for _, r := range c.results {
		r.Duration = d
		size += resultSize(r)
	}

	s.stats.record(d, failed)

	redacted := RedactQuery(c.statement)
	fields := map[string]interface{}{
		"query":    redacted,
		"attempts": c.attempts,
	}
	if len(c.params) > 0 {
		fields["params"] = RedactParams(c.statement, c.params)
	}

	if d > s.cfg.SlowQueryThreshold {
		s.stats.recordSlow(SlowQuery{
			Query:     redacted,
			Table:     c.table,
			Operation: c.operation,
			Duration:  d,
			At:        c.start,
		})
		s.logger.Warn("slow query detected", nil, map[string]interface{}{
			"query":       redacted,
			"table":       c.table,
			"operation":   string(c.operation),
			"duration_ms": d.Milliseconds(),
		})
	}

	var code Code
	if failed {
		code = CodeOf(c.err)
		fields["code"] = string(code)
		s.logger.Error("database operation failed", c.err, fields)
	}
	s.logger.LogDatabase(string(c.operation), c.table, d, !failed, fields)

	if s.observer != nil {
		s.observer.ObserveOperation(observability.OperationContext{
			Component:   "store",
			Operation:   string(c.operation),
			Resource:    c.table,
			SubResource: string(code),
			Duration:    d,
			Error:       c.err,
			Size:        size,
			Metadata: map[string]interface{}{
				"attempts": c.attempts,
			},
		})
	}

	s.endSpan(span, c.attempts, size, c.err)
}

func resultSize(r *ExecutionResult) int64 {
	switch {
	case r.Operation == OpRun:
		return r.Changes
	case r.Values != nil:
		return int64(len(r.Values))
	}
	return int64(len(r.Rows))
}

func (s *Store) startSpan(ctx context.Context, op OperationKind, table, query string) (context.Context, trace.Span) {
	if s.tracer == nil {
		return ctx, nil
	}
	ctx, span := s.tracer.StartSpan(ctx, "store."+string(op))
	s.tracer.SetAttributes(span, map[string]interface{}{
		"db.operation": string(op),
		"db.table":     table,
		"db.statement": RedactQuery(query),
	})
	return ctx, span
}

func (s *Store) endSpan(span trace.Span, attempts int, size int64, err error) {
	if span == nil {
		return
	}
	s.tracer.SetAttributes(span, map[string]interface{}{
		"db.attempts": attempts,
		"db.rows":     size,
	})
	if err != nil {
		s.tracer.RecordErrorOnSpan(span, err)
	}
	span.End()
}
