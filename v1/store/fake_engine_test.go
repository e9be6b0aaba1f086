package store

import (
	"context"
	"sync"
	"time"

	"github.com/Aleph-Alpha/farmstore/v1/engine"
)

type fakeCall struct {
	Op   string
	SQL  string
	Args []any
}

// fakeEngine records every call and answers through handler and batch.
type fakeEngine struct {
	mu      sync.Mutex
	calls   []fakeCall
	batches [][]fakeCall

	handler func(ctx context.Context, call fakeCall) (*engine.Result, error)
	batch   func(ctx context.Context, calls []fakeCall) ([]*engine.Result, error)
}

func (e *fakeEngine) Prepare(query string) engine.Statement {
	return fakeStatement{engine: e, sql: query}
}

func (e *fakeEngine) Batch(ctx context.Context, statements []engine.BoundStatement) ([]*engine.Result, error) {
	calls := make([]fakeCall, len(statements))
	for i, st := range statements {
		calls[i] = fakeCall{Op: "batch", SQL: st.SQL(), Args: st.Args()}
	}
	e.mu.Lock()
	e.batches = append(e.batches, calls)
	e.mu.Unlock()

	if e.batch == nil {
		results := make([]*engine.Result, len(calls))
		for i := range results {
			results[i] = &engine.Result{Changes: 1}
		}
		return results, nil
	}
	return e.batch(ctx, calls)
}

func (e *fakeEngine) call(ctx context.Context, c fakeCall) (*engine.Result, error) {
	e.mu.Lock()
	e.calls = append(e.calls, c)
	e.mu.Unlock()

	if e.handler == nil {
		return &engine.Result{}, nil
	}
	return e.handler(ctx, c)
}

func (e *fakeEngine) recorded() []fakeCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]fakeCall(nil), e.calls...)
}

func (e *fakeEngine) batchCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.batches)
}

type fakeStatement struct {
	engine *fakeEngine
	sql    string
}

func (s fakeStatement) SQL() string { return s.sql }

func (s fakeStatement) Bind(params ...any) engine.BoundStatement {
	return fakeBound{engine: s.engine, sql: s.sql, args: params}
}

type fakeBound struct {
	engine *fakeEngine
	sql    string
	args   []any
}

func (b fakeBound) SQL() string { return b.sql }
func (b fakeBound) Args() []any { return b.args }

func (b fakeBound) Run(ctx context.Context) (*engine.Result, error) {
	return b.engine.call(ctx, fakeCall{Op: "run", SQL: b.sql, Args: b.args})
}

func (b fakeBound) First(ctx context.Context) (engine.Row, error) {
	res, err := b.engine.call(ctx, fakeCall{Op: "first", SQL: b.sql, Args: b.args})
	if err != nil {
		return nil, err
	}
	return res.First(), nil
}

func (b fakeBound) All(ctx context.Context) (*engine.Result, error) {
	return b.engine.call(ctx, fakeCall{Op: "all", SQL: b.sql, Args: b.args})
}

func (b fakeBound) Raw(ctx context.Context) (*engine.Result, error) {
	return b.engine.call(ctx, fakeCall{Op: "raw", SQL: b.sql, Args: b.args})
}

// newTestStore returns a store whose backoff waits are recorded instead of slept.
func newTestStore(eng engine.Engine, cfg Config) (*Store, *[]time.Duration) {
	s := New(eng, cfg)
	delays := &[]time.Duration{}
	var mu sync.Mutex
	s.sleep = func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		*delays = append(*delays, d)
		mu.Unlock()
		return ctx.Err()
	}
	return s, delays
}
