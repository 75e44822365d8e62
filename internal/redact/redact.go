// Package redact scrubs credentials from text before it is shown and caps its length.
package redact

import "regexp"

// DefaultMaxLength is the display cap applied by the hook.
const DefaultMaxLength = 200

// Category names a kind of secret and doubles as its placeholder text.
type Category string

const (
	CategoryGeneric     Category = "[REDACTED]"
	CategoryAWS         Category = "[AWS_KEY]"
	CategoryGitHubToken Category = "[GITHUB_TOKEN]"
	CategoryGitHubPAT   Category = "[GITHUB_PAT]"
)

type pattern struct {
	re          *regexp.Regexp
	replacement string
}

// Applied in order. URL credentials keep the scheme separator.
var patterns = []pattern{
	{regexp.MustCompile(`(?i)(api[_-]?key|token|secret|password|passwd|pwd)[=:]\s*['"]?[\w\-]{8,}['"]?`), string(CategoryGeneric)},
	{regexp.MustCompile(`(?i)aws[_-]?(access[_-]?key[_-]?id|secret[_-]?access[_-]?key)[=:]\s*[\w/+=]{16,}`), string(CategoryAWS)},
	{regexp.MustCompile(`ghp_[a-zA-Z0-9]{36}`), string(CategoryGitHubToken)},
	{regexp.MustCompile(`gho_[a-zA-Z0-9]{36}`), string(CategoryGitHubToken)},
	{regexp.MustCompile(`github_pat_[a-zA-Z0-9_]{22,}`), string(CategoryGitHubPAT)},
	{regexp.MustCompile(`ghs_[a-zA-Z0-9]{36}`), string(CategoryGitHubToken)},
	{regexp.MustCompile(`://[^:]+:[^@]+@`), "://[CREDENTIALS]@"},
}

// Secrets replaces every known credential pattern with its placeholder.
func Secrets(text string) string {
	for _, p := range patterns {
		text = p.re.ReplaceAllLiteralString(text, p.replacement)
	}
	return text
}

// Truncate cuts text to maxLen runes and appends "...". A maxLen of zero or
// less leaves text unchanged.
func Truncate(text string, maxLen int) string {
	if maxLen <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + "..."
}

// Sanitize redacts secrets and then truncates, so a cut can never expose part
// of a credential.
func Sanitize(text string, maxLen int) string {
	return Truncate(Secrets(text), maxLen)
}

// Sanitizer adapts Sanitize to a fixed length cap.
type Sanitizer struct {
	MaxLength int
}

// Sanitize implements the hook's sanitizer contract.
func (s Sanitizer) Sanitize(text string) string {
	return Sanitize(text, s.MaxLength)
}
