package store

import (
	"reflect"
	"regexp"
	"sort"
	"strings"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdentifier reports whether s may be interpolated into SQL as a column name.
func IsIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// Operators accepted in a Condition.
const (
	OpEq    = "="
	OpNe    = "!="
	OpGt    = ">"
	OpLt    = "<"
	OpGte   = ">="
	OpLte   = "<="
	OpLike  = "LIKE"
	OpIn    = "IN"
	OpNotIn = "NOT IN"
)

var allowedOperators = map[string]struct{}{
	OpEq: {}, OpNe: {}, OpGt: {}, OpLt: {}, OpGte: {}, OpLte: {}, OpLike: {}, OpIn: {}, OpNotIn: {},
}

// Condition is a filter value with an explicit operator. Operators outside the
// allow-list fall back to "=".
type Condition struct {
	Operator string
	Value    any
}

// Filters maps column names to a scalar (equality) or a Condition. Filters are
// combined with AND.
type Filters map[string]any

// whereClause renders filters as " WHERE ..." plus bound arguments. Columns are
// rendered in sorted order so the same filters always produce the same SQL.
func whereClause(filters Filters) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	columns := make([]string, 0, len(filters))
	for col := range filters {
		if !IsIdentifier(col) {
			return "", nil, newError(CodeInvalidColumns, "invalid filter column", map[string]any{"column": col}, nil)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	parts := make([]string, 0, len(columns))
	var args []any
	for _, col := range columns {
		op, value := OpEq, filters[col]
		switch c := value.(type) {
		case Condition:
			op, value = normalizeOperator(c.Operator), c.Value
		case *Condition:
			if c != nil {
				op, value = normalizeOperator(c.Operator), c.Value
			}
		}

		clause, clauseArgs := condition(col, op, value)
		parts = append(parts, clause)
		args = append(args, clauseArgs...)
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

func normalizeOperator(op string) string {
	op = strings.ToUpper(strings.Join(strings.Fields(op), " "))
	if _, ok := allowedOperators[op]; ok {
		return op
	}
	return OpEq
}

func condition(col, op string, value any) (string, []any) {
	switch op {
	case OpIn, OpNotIn:
		items := listValues(value)
		if len(items) == 0 {
			if op == OpIn {
				return "1 = 0", nil
			}
			return "1 = 1", nil
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(items)), ", ")
		return col + " " + op + " (" + placeholders + ")", items
	case OpEq, OpNe:
		if isNil(value) {
			if op == OpEq {
				return col + " IS NULL", nil
			}
			return col + " IS NOT NULL", nil
		}
	}
	return col + " " + op + " ?", []any{value}
}

// listValues flattens a slice or array; a scalar becomes a one-element list.
func listValues(value any) []any {
	if value == nil {
		return nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{value}
	}
	// []byte is a scalar blob, not a list.
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return []any{value}
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// columnList renders a projection; no columns means "*".
func columnList(columns []string) (string, error) {
	if len(columns) == 0 {
		return "*", nil
	}
	for _, c := range columns {
		if !IsIdentifier(c) {
			return "", newError(CodeInvalidColumns, "invalid column name", map[string]any{"column": c}, nil)
		}
	}
	return strings.Join(columns, ", "), nil
}

func orderClause(column, direction string) (string, error) {
	if column == "" {
		return "", nil
	}
	if !IsIdentifier(column) {
		return "", newError(CodeInvalidOrderBy, "invalid order by column", map[string]any{"column": column}, nil)
	}
	dir := strings.ToUpper(strings.TrimSpace(direction))
	switch dir {
	case "":
		dir = "ASC"
	case "ASC", "DESC":
	default:
		return "", newError(CodeInvalidOrderBy, "invalid order direction", map[string]any{"direction": direction}, nil)
	}
	return " ORDER BY " + column + " " + dir, nil
}

// clampLimit applies the default for 0 and clamps to [1, max].
func clampLimit(limit, def, max int) int {
	if limit == 0 {
		limit = def
	}
	if limit < 1 {
		return 1
	}
	if limit > max {
		return max
	}
	return limit
}
