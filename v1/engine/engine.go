package engine

import "context"

// Row is a single record keyed by column name.
type Row map[string]any

// Result is what a bound statement or a batch entry produces.
//
// Statements that return rows fill Columns together with Rows (map form) and
// Values (positional form). Statements that modify data fill Changes and, when
// the driver reports one, LastInsertID.
type Result struct {
	Columns      []string
	Rows         []Row
	Values       [][]any
	Changes      int64
	LastInsertID any
}

// First returns the first row of the result, or nil when there is none.
func (r *Result) First() Row {
	if r == nil || len(r.Rows) == 0 {
		return nil
	}
	return r.Rows[0]
}

// Engine is the storage boundary consumed by the store package.
//
// Prepare never touches the database; it only captures the query text.
// Batch executes all statements atomically: either every statement is applied
// or none is, and results are returned in submission order.
type Engine interface {
	Prepare(query string) Statement
	Batch(ctx context.Context, statements []BoundStatement) ([]*Result, error)
}

// Statement is a prepared query waiting for its parameters.
type Statement interface {
	SQL() string
	Bind(params ...any) BoundStatement
}

// BoundStatement is a statement with its positional parameters bound.
//
// Run is meant for statements that modify data, All and First for reads and
// Raw for reads that want positional column arrays instead of maps.
// Every error returned is already classified, see Classify.
type BoundStatement interface {
	SQL() string
	Args() []any
	Run(ctx context.Context) (*Result, error)
	First(ctx context.Context) (Row, error)
	All(ctx context.Context) (*Result, error)
	Raw(ctx context.Context) (*Result, error)
}
