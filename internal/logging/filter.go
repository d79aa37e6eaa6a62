// Package logging provides zerolog helpers that keep provider credentials out
// of nemo's logs. Prompts and model replies are logged at debug level, and the
// environment they come from routinely holds API keys, so every sink that
// reaches disk goes through a FilteringWriter.
package logging

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// RedactedValue is the replacement string for sensitive data.
const RedactedValue = "[REDACTED]"

// minLiteralSecretLen is the shortest configured secret redacted verbatim.
// Shorter values would redact ordinary words.
const minLiteralSecretLen = 8

// sensitivePatterns match credential formats used by the supported providers.
var sensitivePatterns = []*regexp.Regexp{ //nolint:gochecknoglobals // Package-level patterns for reuse
	// Anthropic API keys (sk-ant-api03-...)
	regexp.MustCompile(`sk-ant-[a-zA-Z0-9_-]{10,}`),

	// OpenAI API keys, including project keys (sk-proj-...)
	regexp.MustCompile(`sk-(?:proj-)?[a-zA-Z0-9_-]{20,}`),

	// Groq API keys (gsk_...)
	regexp.MustCompile(`gsk_[a-zA-Z0-9]{20,}`),

	// key=value or key: value assignments of api keys
	regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[:=]\s*["']?([a-zA-Z0-9_-]{16,})["']?`),

	// Bearer tokens
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9_.-]{20,}`),

	// Authorization headers with tokens
	regexp.MustCompile(`(?i)authorization\s*[:=]\s*["']?[a-zA-Z0-9_-]{20,}["']?`),

	// Generic secret assignments
	regexp.MustCompile(`(?i)(secret|password|passwd|token)\s*[:=]\s*["']?[^\s"']{8,}["']?`),
}

// sensitiveFieldNames are substrings of field names whose values are always redacted.
var sensitiveFieldNames = []string{ //nolint:gochecknoglobals // Package-level patterns for reuse
	"api_key",
	"apikey",
	"api-key",
	"token",
	"password",
	"passwd",
	"secret",
	"credential",
	"authorization",
}

// SensitiveDataHook flags log events whose message looks like it carries a
// credential. zerolog does not allow a hook to rewrite the message, so the
// actual redaction happens in FilteringWriter.
type SensitiveDataHook struct{}

// NewSensitiveDataHook creates a new SensitiveDataHook.
func NewSensitiveDataHook() *SensitiveDataHook {
	return &SensitiveDataHook{}
}

// Run implements the zerolog.Hook interface.
func (h *SensitiveDataHook) Run(e *zerolog.Event, _ zerolog.Level, msg string) {
	if ContainsSensitiveData(msg) {
		e.Bool("contains_filtered_data", true)
	}
}

// ContainsSensitiveData reports whether s matches any credential pattern.
func ContainsSensitiveData(s string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

// FilterSensitiveValue replaces every credential pattern match in value with [REDACTED].
func FilterSensitiveValue(value string) string {
	result := value
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, RedactedValue)
	}
	return result
}

// IsSensitiveFieldName reports whether a configuration or log field name
// indicates a secret value.
func IsSensitiveFieldName(fieldName string) bool {
	lowerName := strings.ToLower(fieldName)
	for _, sensitive := range sensitiveFieldNames {
		if strings.Contains(lowerName, sensitive) {
			return true
		}
	}
	return false
}

// RedactIfSensitive returns [REDACTED] for a non-empty value of a sensitive
// field, and the pattern-filtered value otherwise.
func RedactIfSensitive(fieldName, value string) string {
	if value != "" && IsSensitiveFieldName(fieldName) {
		return RedactedValue
	}
	return FilterSensitiveValue(value)
}

// FilteringWriter wraps an io.Writer and filters sensitive data from output.
// Besides the built-in patterns it redacts the literal secrets it was created
// with, which catches keys that do not follow a known format.
type FilteringWriter struct {
	w       io.Writer
	secrets [][]byte
}

// NewFilteringWriter creates a FilteringWriter. Secrets shorter than eight
// bytes are ignored.
func NewFilteringWriter(w io.Writer, secrets ...string) *FilteringWriter {
	fw := &FilteringWriter{w: w}
	for _, s := range secrets {
		if len(s) >= minLiteralSecretLen {
			fw.secrets = append(fw.secrets, []byte(s))
		}
	}
	return fw
}

// Write implements io.Writer, filtering sensitive data before writing.
func (fw *FilteringWriter) Write(p []byte) (n int, err error) {
	filtered := p
	for _, s := range fw.secrets {
		filtered = bytes.ReplaceAll(filtered, s, []byte(RedactedValue))
	}
	out := FilterSensitiveValue(string(filtered))
	if _, err = fw.w.Write([]byte(out)); err != nil {
		return 0, err
	}
	// Report the original length so callers don't see a short write.
	return len(p), nil
}
