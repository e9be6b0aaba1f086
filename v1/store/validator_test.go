package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		query   string
		code    Code
		pattern string
	}{
		{query: "SELECT * FROM farms WHERE id = ?"},
		{query: "INSERT INTO farms (id, name, created_at) VALUES (?, ?, CURRENT_TIMESTAMP)"},
		{query: "SELECT COUNT(*) AS count FROM animals WHERE farm_id = ?"},
		{query: "UPDATE crops SET dropped_at = ? WHERE id = ?"},
		{query: "SELECT * FROM farms WHERE id = 1; DROP TABLE x", code: CodeSuspiciousActivity, pattern: "ddl_keyword"},
		{query: "select * from farms union select * from users", code: CodeSuspiciousActivity, pattern: "ddl_keyword"},
		{query: "ALTER TABLE farms ADD COLUMN x", code: CodeSuspiciousActivity, pattern: "ddl_keyword"},
		{query: "SELECT * FROM farms -- trailing", code: CodeSuspiciousActivity, pattern: "inline_comment"},
		{query: "SELECT /* hint */ * FROM farms", code: CodeSuspiciousActivity, pattern: "inline_comment"},
		{query: "SELECT 1; select * from users", code: CodeSuspiciousActivity, pattern: "stacked_statement"},
		{query: "SELECT 1;\n  DELETE FROM farms", code: CodeSuspiciousActivity, pattern: "stacked_statement"},
		{query: "", code: CodeInvalidParameter},
		{query: "   \n\t", code: CodeInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			err := ValidateQuery(tt.query)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeOf(err))
			if tt.pattern != "" {
				assert.Equal(t, tt.pattern, DetailsOf(err)["pattern"])
			}
		})
	}
}

func TestQueryValidatorLogsSecurityEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := NewMockLogger(ctrl)

	var fields map[string]interface{}
	log.EXPECT().Security("suspicious query rejected", gomock.Any()).
		Do(func(_ string, f ...map[string]interface{}) { fields = f[0] }).
		Times(1)

	v := NewQueryValidator(log)
	err := v.Validate("SELECT * FROM users WHERE token = 'abc123'; DROP TABLE users")
	require.Error(t, err)

	require.NotNil(t, fields)
	assert.Equal(t, "ddl_keyword", fields["pattern"])
	assert.NotContains(t, fields["query"], "abc123")

	// Empty text is a caller error, not a security event.
	assert.Equal(t, CodeInvalidParameter, CodeOf(v.Validate("")))
	assert.NoError(t, v.Validate("SELECT * FROM farms WHERE id = ?"))
}
