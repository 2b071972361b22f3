package session

import (
	"regexp"
	"strings"
)

// directiveMarker matches the inline override request a user can place in a
// prompt, e.g. "@railguard:allow no-eval-usage,no-debug-logging".
var directiveMarker = regexp.MustCompile(`@railguard:allow\s+([A-Za-z0-9_-]+(?:\s*,\s*[A-Za-z0-9_-]+)*)`)

// ParseDirective extracts constraint ids from an override marker in prompt
// text. Returns nil when no marker is present.
func ParseDirective(prompt string) []string {
	match := directiveMarker.FindStringSubmatch(prompt)
	if match == nil {
		return nil
	}

	var ids []string
	for _, part := range strings.Split(match[1], ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
