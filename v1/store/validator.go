package store

import (
	"regexp"
	"strings"
)

type queryPattern struct {
	name string
	re   *regexp.Regexp
}

// Blacklisted query shapes. Values are always bound, so none of these can
// appear in a legitimate query built by this package.
var suspiciousPatterns = []queryPattern{
	{name: "ddl_keyword", re: regexp.MustCompile(`(?i)\b(DROP|ALTER|CREATE|TRUNCATE|UNION)\b`)},
	{name: "inline_comment", re: regexp.MustCompile(`--|/\*|\*/`)},
	{name: "stacked_statement", re: regexp.MustCompile(`(?i);\s*(SELECT|INSERT|UPDATE|DELETE)\b`)},
}

// ValidateQuery checks query text against the blacklist without logging.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return newError(CodeInvalidParameter, "query text is empty", nil, nil)
	}
	for _, p := range suspiciousPatterns {
		if loc := p.re.FindStringIndex(query); loc != nil {
			return newError(CodeSuspiciousActivity, "query rejected by structure validation", map[string]any{
				"pattern": p.name,
				"match":   query[loc[0]:loc[1]],
			}, nil)
		}
	}
	return nil
}

// QueryValidator validates query text and reports violations as security events.
type QueryValidator struct {
	logger Logger
}

// NewQueryValidator creates a validator logging to log.
func NewQueryValidator(log Logger) *QueryValidator {
	return &QueryValidator{logger: log}
}

// Validate fails SUSPICIOUS_ACTIVITY for blacklisted patterns and
// INVALID_PARAMETER for empty text. Violations are logged with the query redacted.
func (v *QueryValidator) Validate(query string) error {
	err := ValidateQuery(query)
	if err == nil || CodeOf(err) != CodeSuspiciousActivity {
		return err
	}
	if v.logger != nil {
		v.logger.Security("suspicious query rejected", map[string]interface{}{
			"query":   RedactQuery(truncate(query, 500)),
			"pattern": DetailsOf(err)["pattern"],
		})
	}
	return err
}
