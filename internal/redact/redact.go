// Package redact scrubs credential-shaped text out of violation excerpts
// before they reach the append-only log.
package redact

import "regexp"

var sensitivePatterns = []*regexp.Regexp{
	// Cloud and VCS tokens
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{36}`),
	regexp.MustCompile(`xox[baprs]-[0-9]{10,13}-[0-9]{10,13}[a-zA-Z0-9-]*`),
	regexp.MustCompile(`sk_live_[0-9a-zA-Z]{24}`),

	// Key material and bearer credentials
	regexp.MustCompile(`-----BEGIN (RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY-----`),
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_.-]{20,}`),

	// Credentials embedded in URLs
	regexp.MustCompile(`https?://[^:/\s]+:[^@\s]+@`),

	// Generic assignments: api_key=..., password: "..."
	regexp.MustCompile(`(?i)(api[_-]?key|secret[_-]?key|access[_-]?token|auth[_-]?token|password|passwd)\s*[=:]\s*['"]?[^\s'"]{8,}['"]?`),
}

const placeholder = "[REDACTED]"

// Scrub replaces anything credential-shaped with a placeholder.
func Scrub(input string) string {
	out := input
	for _, p := range sensitivePatterns {
		out = p.ReplaceAllString(out, placeholder)
	}
	return out
}
