package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/Aleph-Alpha/farmstore/v1/engine"
)

// Operation is one statement of a transaction batch.
type Operation struct {
	Query     string
	Params    []any
	Operation OperationKind
	Table     string
}

// ExecuteTransaction runs ops atomically through Engine.Batch.
//
// Every operation is validated and sanitized before the engine is touched. The
// batch is retried as a whole while its failure is retryable. On failure the
// returned error is TRANSACTION_ERROR and, once the batch reached the engine,
// one unsuccessful result per operation is returned alongside it.
func (s *Store) ExecuteTransaction(ctx context.Context, ops []Operation) (results []*ExecutionResult, err error) {
	start := s.now()
	attempts := 0
	table := batchTables(ops)

	ctx, span := s.startSpan(ctx, opTransaction, table, "")
	defer func() {
		s.complete(span, completion{
			statement: fmt.Sprintf("transaction of %d operations", len(ops)),
			operation: opTransaction,
			table:     table,
			start:     start,
			attempts:  attempts,
			results:   results,
			err:       err,
		})
	}()

	if len(ops) == 0 {
		return nil, newError(CodeTransactionError, "transaction has no operations", nil, nil)
	}
	if len(ops) > s.cfg.MaxBatchSize {
		return nil, newError(CodeTransactionError, "transaction exceeds the maximum batch size", map[string]any{
			"operations": len(ops),
			"max":        s.cfg.MaxBatchSize,
		}, nil)
	}

	if actor := ActorFromContext(ctx); actor != "" {
		if err = s.limiter.Check(actor); err != nil {
			return nil, err
		}
	}

	statements := make([]engine.BoundStatement, len(ops))
	for i, op := range ops {
		stmt, prepErr := s.prepareOperation(op)
		if prepErr != nil {
			return nil, newError(CodeTransactionError, "invalid operation in transaction", map[string]any{
				"index": i,
				"table": op.Table,
				"code":  string(CodeOf(prepErr)),
			}, prepErr)
		}
		statements[i] = stmt
	}

	out, attempts, err := retryCall(s, ctx, 0, s.cfg.DefaultTimeout, func(ctx context.Context) ([]*engine.Result, error) {
		return s.engine.Batch(ctx, statements)
	})
	if err != nil {
		failed := make([]*ExecutionResult, len(ops))
		for i, op := range ops {
			failed[i] = &ExecutionResult{Operation: op.kind(), Table: op.Table, Attempts: attempts}
		}
		return failed, s.failure(CodeTransactionError, err, opTransaction, table, attempts, s.cfg.DefaultTimeout)
	}

	results = make([]*ExecutionResult, len(ops))
	for i, op := range ops {
		var r *engine.Result
		if i < len(out) {
			r = out[i]
		}
		results[i] = newExecutionResult(r, op.kind(), op.Table, attempts)
	}
	return results, nil
}

func (s *Store) prepareOperation(op Operation) (engine.BoundStatement, error) {
	if !op.kind().valid() {
		return nil, newError(CodeInvalidParameter, "unknown operation kind", map[string]any{
			"operation": string(op.Operation),
		}, nil)
	}
	if err := s.validator.Validate(op.Query); err != nil {
		return nil, err
	}
	params, err := SanitizeParams(op.Params)
	if err != nil {
		return nil, err
	}
	return s.engine.Prepare(op.Query).Bind(params...), nil
}

func (op Operation) kind() OperationKind {
	if op.Operation == "" {
		return OpRun
	}
	return op.Operation
}

// batchTables labels a batch with the distinct tables it touches, in order.
func batchTables(ops []Operation) string {
	seen := make(map[string]struct{}, len(ops))
	tables := make([]string, 0, len(ops))
	for _, op := range ops {
		if op.Table == "" {
			continue
		}
		if _, ok := seen[op.Table]; ok {
			continue
		}
		seen[op.Table] = struct{}{}
		tables = append(tables, op.Table)
	}
	return strings.Join(tables, ",")
}
