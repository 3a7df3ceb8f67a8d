// Package redact scrubs secrets and infrastructure details from strings
// before they are logged. Errors bubbling up from the database driver, the
// config loader and the token service routinely embed connection strings,
// SQL text, file paths and bearer tokens; String and Error replace those
// fragments with fixed placeholders.
package redact

import "regexp"

// Placeholders substituted for redacted fragments.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedJWTPlaceholder        = "[REDACTED_JWT]"
	RedactedTokenPlaceholder      = "[REDACTED_TOKEN]"
	RedactedSQLPlaceholder        = "[REDACTED_SQL]"
	RedactedHostPlaceholder       = "[REDACTED_HOST]"
	RedactedStackPlaceholder      = "[STACK_TRACE_REDACTED]"
)

// rule replaces every match of pattern with replacement, which may refer to
// capture groups.
type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// rules run in order; later rules see the output of earlier ones.
var rules = []rule{
	// Everything from a panic or goroutine dump onwards.
	{regexp.MustCompile(`(?:panic:|goroutine \d+ \[)[\s\S]*`), RedactedStackPlaceholder},

	// user:password@ in connection URLs
	{
		regexp.MustCompile(`(?i)\b(postgres(?:ql)?|mysql|redis|amqp)://[^/@\s]+@`),
		"${1}://" + RedactedCredentialPlaceholder + "@",
	},

	// password=... in keyword/value DSNs and config dumps
	{
		regexp.MustCompile(`(?i)\b(password|passwd|pwd)\s*[=:]\s*('[^']*'|"[^"]*"|\S+)`),
		"${1}=" + RedactedCredentialPlaceholder,
	},

	{regexp.MustCompile(`\beyJ[\w-]+\.eyJ[\w-]+\.[\w-]+`), RedactedJWTPlaceholder},
	{regexp.MustCompile(`(?i)\bbearer\s+[\w.~+/-]+=*`), "Bearer " + RedactedTokenPlaceholder},

	// SECRET=..., api_key: ..., token=... including prefixed env names
	{
		regexp.MustCompile(`(?i)(secret|api[_-]?key|token)(\s*[=:]\s*)\S{8,}`),
		"${1}${2}" + RedactedKeyPlaceholder,
	},

	// Statements echoed by the driver. Upper case only so that prose such as
	// "failed to update priority" survives.
	{
		regexp.MustCompile(`\b(?:SELECT|INSERT|UPDATE|DELETE|WITH)\s[^;"]*?\b(?:FROM|INTO|SET|RETURNING)\b[^;"]*`),
		RedactedSQLPlaceholder,
	},

	// Postgres error details quote row values.
	{regexp.MustCompile(`DETAIL:[^\n]*`), "DETAIL: " + RedactionPlaceholder},

	{regexp.MustCompile(`(?:/[\w.-]+){2,}`), RedactedPathPlaceholder},
	{regexp.MustCompile(`[A-Za-z]:\\[^\\\s]+(?:\\[^\\\s]+)+`), RedactedPathPlaceholder},

	{
		regexp.MustCompile(`\b(?:localhost|(?:[a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}|\d{1,3}(?:\.\d{1,3}){3}):\d{1,5}\b`),
		RedactedHostPlaceholder,
	},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.replacement)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
