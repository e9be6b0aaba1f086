package engine

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// Kind is the structured classification of an engine failure.
// Retry decisions are made on the Kind only, never on error text.
type Kind string

const (
	KindBusy          Kind = "busy"
	KindLocked        Kind = "locked"
	KindTimeout       Kind = "timeout"
	KindDeadlock      Kind = "deadlock"
	KindSerialization Kind = "serialization"
	KindConstraint    Kind = "constraint"
	KindSyntax        Kind = "syntax"
	KindCanceled      Kind = "canceled"
	KindConnection    Kind = "connection"
	KindUnknown       Kind = "unknown"
)

// ErrNoConnection is returned when the connection provider has no active pool.
var ErrNoConnection = errors.New("no active database connection")

// Error wraps a driver error together with its classification.
// Code carries the driver specific code (SQLSTATE, MySQL error number or
// SQLite extended code) when one is available.
type Error struct {
	Kind Kind
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s [%s]: %v", e.Kind, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Classify converts a driver, gorm or context error into an *Error.
// Errors that already carry a classification are returned unchanged, so
// Classify is safe to call more than once on the same error chain.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	kind, code := classify(err)
	return &Error{Kind: kind, Code: code, Err: err}
}

// KindOf reports the classification of err. It returns an empty Kind for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	kind, _ := classify(err)
	return kind
}

func classify(err error) (Kind, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout, ""
	case errors.Is(err, context.Canceled):
		return KindCanceled, ""
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return KindConstraint, ""
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone), errors.Is(err, ErrNoConnection):
		return KindConnection, ""
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return classifySQLite(sqliteErr)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyPostgres(pgErr), pgErr.Code
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return classifyMySQL(myErr.Number), strconv.Itoa(int(myErr.Number))
	}

	return classifyMessage(err.Error()), ""
}

func classifySQLite(err sqlite3.Error) (Kind, string) {
	code := strconv.Itoa(int(err.ExtendedCode))
	switch err.Code {
	case sqlite3.ErrBusy:
		return KindBusy, code
	case sqlite3.ErrLocked:
		return KindLocked, code
	case sqlite3.ErrConstraint:
		return KindConstraint, code
	case sqlite3.ErrInterrupt:
		return KindCanceled, code
	case sqlite3.ErrCantOpen, sqlite3.ErrIoErr:
		return KindConnection, code
	case sqlite3.ErrError:
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "syntax error") || strings.Contains(msg, "no such") {
			return KindSyntax, code
		}
	}
	return KindUnknown, code
}

func classifyPostgres(err *pgconn.PgError) Kind {
	switch err.Code {
	case "40001":
		return KindSerialization
	case "40P01":
		return KindDeadlock
	case "55P03":
		return KindLocked
	case "57014":
		return KindTimeout
	case "53300":
		return KindBusy
	case "57P01", "57P02", "57P03":
		return KindConnection
	}
	switch {
	case strings.HasPrefix(err.Code, "23"):
		return KindConstraint
	case strings.HasPrefix(err.Code, "42"):
		return KindSyntax
	case strings.HasPrefix(err.Code, "08"):
		return KindConnection
	}
	return KindUnknown
}

func classifyMySQL(number uint16) Kind {
	switch number {
	case 1205:
		return KindLocked
	case 1213:
		return KindDeadlock
	case 3024, 1969:
		return KindTimeout
	case 1040:
		return KindBusy
	case 1062, 1216, 1217, 1451, 1452, 3819:
		return KindConstraint
	case 1054, 1064, 1146:
		return KindSyntax
	case 2006, 2013:
		return KindConnection
	}
	return KindUnknown
}

// classifyMessage is the fallback for drivers that do not expose typed errors.
func classifyMessage(msg string) Kind {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "lock wait"):
		return KindLocked
	case strings.Contains(msg, "busy"):
		return KindBusy
	case strings.Contains(msg, "deadlock"):
		return KindDeadlock
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return KindTimeout
	case strings.Contains(msg, "syntax error"):
		return KindSyntax
	case strings.Contains(msg, "constraint"):
		return KindConstraint
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "bad connection"):
		return KindConnection
	}
	return KindUnknown
}
