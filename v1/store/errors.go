package store

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies the kind of a store failure. Callers branch on the code,
// never on the message.
type Code string

const (
	CodeInvalidTable        Code = "INVALID_TABLE"
	CodeInvalidColumns      Code = "INVALID_COLUMNS"
	CodeInvalidJoin         Code = "INVALID_JOIN"
	CodeInvalidGroupBy      Code = "INVALID_GROUP_BY"
	CodeInvalidHaving       Code = "INVALID_HAVING"
	CodeInvalidOrderBy      Code = "INVALID_ORDER_BY"
	CodeInvalidParameter    Code = "INVALID_PARAMETER"
	CodeQueryTimeout        Code = "QUERY_TIMEOUT"
	CodeRateLimitExceeded   Code = "RATE_LIMIT_EXCEEDED"
	CodeSuspiciousActivity  Code = "SUSPICIOUS_ACTIVITY"
	CodeDependencyViolation Code = "DEPENDENCY_VIOLATION"
	CodeTransactionError    Code = "TRANSACTION_ERROR"
	CodeDatabaseError       Code = "DATABASE_ERROR"
	CodeNotFound            Code = "NOT_FOUND"
	CodeUnknown             Code = "UNKNOWN"
)

// maxDetailMessage bounds underlying error messages copied into Details.
const maxDetailMessage = 200

// Sentinel errors, one per code. errors.Is matches any *Error carrying the
// same code, so callers can write errors.Is(err, store.ErrRateLimitExceeded).
var (
	ErrInvalidTable        = &Error{Code: CodeInvalidTable}
	ErrInvalidColumns      = &Error{Code: CodeInvalidColumns}
	ErrInvalidJoin         = &Error{Code: CodeInvalidJoin}
	ErrInvalidGroupBy      = &Error{Code: CodeInvalidGroupBy}
	ErrInvalidHaving       = &Error{Code: CodeInvalidHaving}
	ErrInvalidOrderBy      = &Error{Code: CodeInvalidOrderBy}
	ErrInvalidParameter    = &Error{Code: CodeInvalidParameter}
	ErrQueryTimeout        = &Error{Code: CodeQueryTimeout}
	ErrRateLimitExceeded   = &Error{Code: CodeRateLimitExceeded}
	ErrSuspiciousActivity  = &Error{Code: CodeSuspiciousActivity}
	ErrDependencyViolation = &Error{Code: CodeDependencyViolation}
	ErrTransaction         = &Error{Code: CodeTransactionError}
	ErrDatabase            = &Error{Code: CodeDatabaseError}
	ErrNotFound            = &Error{Code: CodeNotFound}
	ErrUnknown             = &Error{Code: CodeUnknown}
)

// Error is the single error type surfaced by the store.
//
// Details carries structured context (table, operation, attempts, counts).
// Err, when set, is the underlying cause and is reachable through errors.As.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	Err     error
}

func newError(code Code, message string, details map[string]any, cause error) *Error {
	return &Error{Code: code, Message: message, Details: details, Err: cause}
}

// NewError creates an *Error for callers building on the store, such as
// domain repositories rejecting a request before it reaches the engine.
func NewError(code Code, message string, details map[string]any, cause error) *Error {
	return newError(code, message, details, cause)
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Code, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the code of the first *Error in err's chain, or CodeUnknown.
func CodeOf(err error) Code {
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Code
	}
	return CodeUnknown
}

// DetailsOf returns the details of the first *Error in err's chain.
func DetailsOf(err error) map[string]any {
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Details
	}
	return nil
}

// HTTPStatus maps a code to the status an HTTP layer should answer with.
func HTTPStatus(code Code) int {
	switch code {
	case CodeInvalidTable, CodeInvalidColumns, CodeInvalidJoin, CodeInvalidGroupBy,
		CodeInvalidHaving, CodeInvalidOrderBy, CodeInvalidParameter, CodeSuspiciousActivity:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDependencyViolation:
		return http.StatusConflict
	case CodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case CodeQueryTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
