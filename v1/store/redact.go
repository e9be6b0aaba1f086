package store

import (
	"fmt"
	"regexp"
	"strings"
)

// maxLoggedParam bounds string parameters copied into log lines.
const maxLoggedParam = 64

var (
	reSecretAssign = regexp.MustCompile(`(?i)\b(password|passwd|pwd|secret|token|api_?key|access_?key|auth)(\s*(?:=|:)\s*)('[^']*'|"[^"]*"|[^\s,;)?][^\s,;)]*)`)
	reBearer       = regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9._~+/=-]+)`)
	reDSNPass      = regexp.MustCompile(`(?i)(://)([^:/\s]+):([^@\s]+)(@)`)
	reJWT          = regexp.MustCompile(`\beyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\b`)
	reSecretColumn = regexp.MustCompile(`(?i)(password|passwd|pwd|secret|token|api_?key|access_?key|auth)`)

	// reBoundColumn matches the column a trailing placeholder is compared
	// with or assigned to, including later elements of an IN list.
	reBoundColumn   = regexp.MustCompile("(?i)([A-Za-z_][A-Za-z0-9_]*)[\"`]?\\s*(?:<=|>=|<>|!=|=|<|>|\\bLIKE|\\bNOT\\s+IN\\s*\\(|\\bIN\\s*\\()\\s*(?:\\?\\s*,\\s*)*$")
	reInsertColumns = regexp.MustCompile("(?is)\\bINSERT\\s+INTO\\s+[A-Za-z0-9_.\"`]+\\s*\\(([^)]*)\\)\\s*VALUES\\s*\\(")
)

// RedactQuery masks credential-like substrings in query text before it is logged.
func RedactQuery(query string) string {
	out := reSecretAssign.ReplaceAllString(query, "$1$2***")
	out = reBearer.ReplaceAllString(out, "$1***")
	out = reDSNPass.ReplaceAllString(out, "$1$2:***$4")
	out = reJWT.ReplaceAllString(out, "***")
	return out
}

// RedactParams returns a loggable copy of the params bound to query. Values
// bound to secret-looking columns are masked by position, strings that look
// like credentials are masked wherever they appear, long strings are truncated
// and binary values are replaced by their size.
func RedactParams(query string, params []any) []any {
	secret := secretParams(query)
	out := make([]any, len(params))
	for i, p := range params {
		if i < len(secret) && secret[i] && p != nil {
			out[i] = "***"
			continue
		}
		switch v := p.(type) {
		case string:
			out[i] = redactString(v)
		case []byte:
			out[i] = fmt.Sprintf("<%d bytes>", len(v))
		default:
			out[i] = p
		}
	}
	return out
}

func redactString(s string) string {
	if reJWT.MatchString(s) || reBearer.MatchString(s) || reDSNPass.MatchString(s) || reSecretAssign.MatchString(s) {
		return "***"
	}
	if len([]rune(s)) > maxLoggedParam {
		return truncate(s, maxLoggedParam) + "..."
	}
	return s
}

// secretParams reports for every placeholder of query, in order, whether it
// binds a secret-looking column. Placeholders inside quoted literals are not
// counted. Values of an INSERT column list are matched by position.
func secretParams(query string) []bool {
	var insertColumns []string
	valuesFrom := -1
	if m := reInsertColumns.FindStringSubmatchIndex(query); m != nil {
		for _, c := range strings.Split(query[m[2]:m[3]], ",") {
			insertColumns = append(insertColumns, strings.Trim(strings.TrimSpace(c), "\"`"))
		}
		valuesFrom = m[1]
	}

	var (
		secret []bool
		quote  rune
		item   int
		depth  int
	)
	inValues := func(i int) bool { return valuesFrom >= 0 && i >= valuesFrom }

	for i, r := range query {
		if quote != 0 {
			if r == quote {
				quote = 0
			}
			continue
		}
		switch r {
		case '\'', '"', '`':
			quote = r
		case '(':
			if inValues(i) {
				depth++
			}
		case ')':
			if inValues(i) {
				if depth == 0 {
					valuesFrom = -1
				} else {
					depth--
				}
			}
		case ',':
			if inValues(i) && depth == 0 {
				item++
			}
		case '?':
			var column string
			if inValues(i) {
				if item < len(insertColumns) {
					column = insertColumns[item]
				}
			} else if m := reBoundColumn.FindStringSubmatch(query[:i]); m != nil {
				column = m[1]
			}
			secret = append(secret, column != "" && reSecretColumn.MatchString(column))
		}
	}
	return secret
}

// redactPayload masks values of secret-looking columns in a write payload.
func redactPayload(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if reSecretColumn.MatchString(k) {
			out[k] = "***"
			continue
		}
		out[k] = v
	}
	return out
}
