// Package observability defines the hook through which components report
// completed operations to metrics, tracing or audit backends without
// depending on them.
package observability

import "time"

// OperationContext describes one completed operation.
type OperationContext struct {
	// Component is the reporting package, e.g. "store".
	Component string

	// Operation is the operation kind, e.g. "query", "run", "transaction".
	Operation string

	// Resource is the primary target, e.g. a table name.
	Resource string

	// SubResource narrows the target further; the store puts the error code here.
	SubResource string

	Duration time.Duration

	// Error is nil on success.
	Error error

	// Size is the number of rows returned or changed.
	Size int64

	Metadata map[string]interface{}
}

// Observer receives operation notifications. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx OperationContext)

// ObserveOperation calls f(ctx).
func (f ObserverFunc) ObserveOperation(ctx OperationContext) {
	f(ctx)
}
