package constraint

import "regexp"

const (
	defaultOverrideTTLMinutes = 10
	defaultOverrideMaxPrompts = 3
	defaultSkillTTLMinutes    = 30
	defaultTimeoutSeconds     = 5
	defaultEscalateCount      = 5
)

// DefaultPolicy returns the enforcement policy used when no file exists or
// a file leaves knobs unset.
func DefaultPolicy() Policy {
	return Policy{
		BlockingLevels: []Severity{SeverityCritical, SeverityError},
		WarningLevels:  []Severity{SeverityWarning},
		InfoLevels:     []Severity{SeverityInfo},
		TimeoutSeconds: defaultTimeoutSeconds,
		Scoring: Scoring{
			Weights: map[Severity]float64{
				SeverityInfo:     0.25,
				SeverityWarning:  1.0,
				SeverityError:    3.0,
				SeverityCritical: 5.0,
			},
			EscalateCount: defaultEscalateCount,
		},
		Override: OverridePolicy{
			TTLMinutes: defaultOverrideTTLMinutes,
			MaxPrompts: defaultOverrideMaxPrompts,
		},
	}
}

// DefaultFile is the built-in constraint set, active until the user writes
// their own. Patterns here are compiled at init and must stay valid.
func DefaultFile() *File {
	return &File{
		Version: "1",
		Policy:  DefaultPolicy(),
		Constraints: compiled([]Constraint{
			{
				ID:         "no-eval-usage",
				Pattern:    `\beval\s*\(`,
				Severity:   SeverityCritical,
				Message:    "eval() executes arbitrary strings as code.",
				Suggestion: "Parse the input instead of evaluating it.",
				GroupID:    "code-safety",
			},
			{
				ID:         "no-pipe-to-shell",
				Pattern:    `(curl|wget)[^|\n]*\|\s*(sh|bash|zsh)\b`,
				Severity:   SeverityCritical,
				Message:    "Piping a download straight into a shell runs unreviewed code.",
				Suggestion: "Download the script, inspect it, then run it.",
				GroupID:    "code-safety",
			},
			{
				ID:         "no-hardcoded-secret",
				Pattern:    `(?i)(api[_-]?key|secret[_-]?key|password)\s*[=:]\s*['"][^'"]{8,}['"]`,
				Severity:   SeverityError,
				Message:    "Credential literal embedded in content.",
				Suggestion: "Read secrets from the environment or a secret manager.",
				GroupID:    "secrets",
			},
			{
				ID:         "no-debug-logging",
				Pattern:    `\bconsole\.log\s*\(`,
				Severity:   SeverityWarning,
				Message:    "Leftover console.log call.",
				Suggestion: "Use the project logger or remove the call.",
				GroupID:    "hygiene",
			},
			{
				ID:         "no-env-file-write",
				Pattern:    `.`,
				Severity:   SeverityError,
				Message:    "Writing to a dotenv file.",
				Suggestion: "Keep local secrets out of agent-managed edits.",
				GroupID:    "secrets",
				Paths:      []string{"**/.env", "**/.env.*"},
			},
			{
				ID:         "todo-marker",
				Pattern:    `\bTODO\b`,
				Severity:   SeverityInfo,
				Message:    "TODO marker in submitted content.",
				GroupID:    "hygiene",
			},
		}),
	}
}

// compiled attaches compiled regexps to built-in constraints. Panics on an
// invalid built-in pattern, which is a programming error caught by tests.
func compiled(rules []Constraint) []Constraint {
	for i := range rules {
		rules[i].re = regexp.MustCompile(rules[i].Pattern)
	}
	return rules
}
