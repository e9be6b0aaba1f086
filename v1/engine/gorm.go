package engine

import (
	"context"
	"fmt"
	"regexp"

	"gorm.io/gorm"
)

// rowReturning matches statements that produce a result set.
var rowReturning = regexp.MustCompile(`(?is)^\s*(SELECT|WITH|VALUES|PRAGMA|EXPLAIN)\b|\bRETURNING\b`)

// GormEngine implements Engine on top of gorm.
//
// The connection is obtained from a provider on every call, so a pool swapped
// by a reconnect loop is picked up without rebuilding the engine.
type GormEngine struct {
	db func() *gorm.DB
}

// NewGormEngine creates an engine reading its connection from provider.
func NewGormEngine(provider func() *gorm.DB) *GormEngine {
	return &GormEngine{db: provider}
}

// Prepare captures the query text. Bind variables use the `?` placeholder and
// are rewritten to the dialect's syntax by gorm.
func (e *GormEngine) Prepare(query string) Statement {
	return &gormStatement{engine: e, query: query}
}

// Batch executes the statements in one transaction, in order. The first failure
// rolls the whole transaction back and is returned classified.
func (e *GormEngine) Batch(ctx context.Context, statements []BoundStatement) ([]*Result, error) {
	db, err := e.conn()
	if err != nil {
		return nil, err
	}

	results := make([]*Result, 0, len(statements))
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, statement := range statements {
			var (
				res     *Result
				stmtErr error
			)
			if ReturnsRows(statement.SQL()) {
				res, stmtErr = queryRows(ctx, tx, statement.SQL(), statement.Args())
			} else {
				res, stmtErr = execStatement(ctx, tx, statement.SQL(), statement.Args())
			}
			if stmtErr != nil {
				return fmt.Errorf("batch statement %d: %w", i, stmtErr)
			}
			results = append(results, res)
		}
		return nil
	})
	if err != nil {
		return nil, Classify(err)
	}
	return results, nil
}

func (e *GormEngine) conn() (*gorm.DB, error) {
	db := e.db()
	if db == nil {
		return nil, Classify(ErrNoConnection)
	}
	return db, nil
}

// ReturnsRows reports whether query produces a result set.
func ReturnsRows(query string) bool {
	return rowReturning.MatchString(query)
}

type gormStatement struct {
	engine *GormEngine
	query  string
}

func (s *gormStatement) SQL() string {
	return s.query
}

func (s *gormStatement) Bind(params ...any) BoundStatement {
	args := make([]any, len(params))
	copy(args, params)
	return &gormBoundStatement{engine: s.engine, query: s.query, args: args}
}

type gormBoundStatement struct {
	engine *GormEngine
	query  string
	args   []any
}

func (b *gormBoundStatement) SQL() string {
	return b.query
}

func (b *gormBoundStatement) Args() []any {
	return b.args
}

func (b *gormBoundStatement) Run(ctx context.Context) (*Result, error) {
	db, err := b.engine.conn()
	if err != nil {
		return nil, err
	}
	return execStatement(ctx, db, b.query, b.args)
}

func (b *gormBoundStatement) First(ctx context.Context) (Row, error) {
	res, err := b.All(ctx)
	if err != nil {
		return nil, err
	}
	return res.First(), nil
}

func (b *gormBoundStatement) All(ctx context.Context) (*Result, error) {
	db, err := b.engine.conn()
	if err != nil {
		return nil, err
	}
	res, err := queryRows(ctx, db, b.query, b.args)
	if err != nil {
		return nil, err
	}
	res.Values = nil
	return res, nil
}

func (b *gormBoundStatement) Raw(ctx context.Context) (*Result, error) {
	db, err := b.engine.conn()
	if err != nil {
		return nil, err
	}
	res, err := queryRows(ctx, db, b.query, b.args)
	if err != nil {
		return nil, err
	}
	res.Rows = nil
	return res, nil
}

// execStatement renders the statement with gorm (dry run) and executes it on the
// underlying pool or transaction so the driver's sql.Result is available.
func execStatement(ctx context.Context, db *gorm.DB, query string, args []any) (*Result, error) {
	rendered := db.Session(&gorm.Session{DryRun: true, NewDB: true}).Exec(query, args...)
	if rendered.Error != nil {
		return nil, Classify(rendered.Error)
	}

	out, err := db.Statement.ConnPool.ExecContext(ctx, rendered.Statement.SQL.String(), rendered.Statement.Vars...)
	if err != nil {
		return nil, Classify(err)
	}

	res := &Result{}
	if res.Changes, err = out.RowsAffected(); err != nil {
		res.Changes = 0
	}
	// Postgres drivers do not support LastInsertId; that is not an error here.
	if id, idErr := out.LastInsertId(); idErr == nil && id != 0 {
		res.LastInsertID = id
	}
	return res, nil
}

func queryRows(ctx context.Context, db *gorm.DB, query string, args []any) (*Result, error) {
	rows, err := db.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, Classify(err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, Classify(err)
	}

	res := &Result{Columns: columns, Rows: []Row{}, Values: [][]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, Classify(err)
		}

		row := make(Row, len(columns))
		for i, column := range columns {
			values[i] = normalize(values[i])
			row[column] = values[i]
		}
		res.Rows = append(res.Rows, row)
		res.Values = append(res.Values, values)
	}
	if err := rows.Err(); err != nil {
		return nil, Classify(err)
	}
	return res, nil
}

// normalize turns driver byte slices into strings. MySQL returns most text
// columns as []byte when scanning into interface values.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
