package enforce

import (
	"fmt"
	"strings"

	"github.com/railguard/railguard/internal/evaluate"
)

// buildMessage renders the remediation text for a denied action: one
// itemized entry per blocking violation with its severity, pattern, and
// suggested fix, readable by both the agent and the user.
func buildMessage(blocking []evaluate.Violation) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Blocked by railguard: %d constraint violation(s).\n", len(blocking))
	for _, v := range blocking {
		fmt.Fprintf(&sb, "  - %s [%s]: %s\n", v.ConstraintID, v.Severity, v.Message)
		fmt.Fprintf(&sb, "    pattern: %s (matched %d time(s))\n", v.Pattern, v.Matches)
		if v.Suggestion != "" {
			fmt.Fprintf(&sb, "    suggestion: %s\n", v.Suggestion)
		}
	}
	sb.WriteString("Fix the content or ask the user to override with @railguard:allow <id>.")

	return sb.String()
}
