package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhereClause(t *testing.T) {
	tests := []struct {
		name    string
		filters Filters
		sql     string
		args    []any
	}{
		{
			name: "empty",
		},
		{
			name:    "scalars sorted by column",
			filters: Filters{"species": "cow", "farm_id": "f1"},
			sql:     " WHERE farm_id = ? AND species = ?",
			args:    []any{"f1", "cow"},
		},
		{
			name:    "comparison",
			filters: Filters{"weight": Condition{Operator: ">=", Value: 300}},
			sql:     " WHERE weight >= ?",
			args:    []any{300},
		},
		{
			name:    "unknown operator falls back to equality",
			filters: Filters{"name": Condition{Operator: "; DELETE", Value: "x"}},
			sql:     " WHERE name = ?",
			args:    []any{"x"},
		},
		{
			name:    "operator is case and space insensitive",
			filters: Filters{"name": &Condition{Operator: " not   in ", Value: []string{"a", "b"}}},
			sql:     " WHERE name NOT IN (?, ?)",
			args:    []any{"a", "b"},
		},
		{
			name:    "in",
			filters: Filters{"status": Condition{Operator: "IN", Value: []any{"open", "late", "done"}}},
			sql:     " WHERE status IN (?, ?, ?)",
			args:    []any{"open", "late", "done"},
		},
		{
			name:    "empty in matches nothing",
			filters: Filters{"status": Condition{Operator: "IN", Value: []string{}}},
			sql:     " WHERE 1 = 0",
		},
		{
			name:    "empty not in matches everything",
			filters: Filters{"status": Condition{Operator: "NOT IN", Value: nil}},
			sql:     " WHERE 1 = 1",
		},
		{
			name:    "null equality",
			filters: Filters{"location_id": nil, "completed_at": Condition{Operator: "!=", Value: nil}},
			sql:     " WHERE completed_at IS NOT NULL AND location_id IS NULL",
		},
		{
			name:    "like",
			filters: Filters{"name": Condition{Operator: "like", Value: "Ac%"}},
			sql:     " WHERE name LIKE ?",
			args:    []any{"Ac%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := whereClause(tt.filters)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestWhereClauseRejectsBadColumns(t *testing.T) {
	_, _, err := whereClause(Filters{"name = name OR 1": "x"})
	assert.Equal(t, CodeInvalidColumns, CodeOf(err))
}

func TestOrderClause(t *testing.T) {
	sql, err := orderClause("", "DESC")
	require.NoError(t, err)
	assert.Empty(t, sql)

	sql, err = orderClause("created_at", "")
	require.NoError(t, err)
	assert.Equal(t, " ORDER BY created_at ASC", sql)

	sql, err = orderClause("name", "desc")
	require.NoError(t, err)
	assert.Equal(t, " ORDER BY name DESC", sql)

	_, err = orderClause("name; DROP", "ASC")
	assert.Equal(t, CodeInvalidOrderBy, CodeOf(err))

	_, err = orderClause("name", "SIDEWAYS")
	assert.Equal(t, CodeInvalidOrderBy, CodeOf(err))
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 100, clampLimit(0, 100, 1000))
	assert.Equal(t, 1, clampLimit(-5, 100, 1000))
	assert.Equal(t, 25, clampLimit(25, 100, 1000))
	assert.Equal(t, 1000, clampLimit(999999, 100, 1000))
}

func TestIsIdentifier(t *testing.T) {
	assert.True(t, IsIdentifier("farm_id"))
	assert.True(t, IsIdentifier("_x1"))
	assert.False(t, IsIdentifier("1abc"))
	assert.False(t, IsIdentifier("a.b"))
	assert.False(t, IsIdentifier(""))
	assert.False(t, IsIdentifier("name desc"))
}
