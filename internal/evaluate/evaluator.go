// Package evaluate scores a content payload against a rule set. Evaluation
// is a pure function over its inputs: no I/O, no shared state, safe to call
// from any number of concurrent enforcement cycles.
package evaluate

import (
	"fmt"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/railguard/railguard/internal/constraint"
)

// EvaluationError wraps a defect recovered from the evaluation path. It is
// always recovered locally: the cycle proceeds as if zero violations were
// found, and the error is logged rather than surfaced as a block.
type EvaluationError struct {
	Cause any
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation failed: %v", e.Cause)
}

// Violation records that one constraint matched a content payload. One
// violation per matching rule, carrying the total non-overlapping match
// count, never one violation per match.
type Violation struct {
	ConstraintID  string              `json:"constraint_id"`
	Severity      constraint.Severity `json:"severity"`
	Message       string              `json:"message"`
	Suggestion    string              `json:"suggestion,omitempty"`
	Pattern       string              `json:"pattern"`
	Matches       int                 `json:"matches"`
	ContentLength int                 `json:"content_length"`

	// Excerpt is the first matched span, truncated. Consumers that persist
	// it are expected to redact it first.
	Excerpt   string    `json:"excerpt,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const maxExcerptLen = 120

// Report is the full result of evaluating one payload.
type Report struct {
	Violations      []Violation
	ComplianceScore float64
	Risk            Risk
}

// Evaluate matches every active rule against content and returns the
// violation list in rule declaration order, plus the aggregate compliance
// score and risk level. filePath scopes path-restricted rules; it may be
// empty. Empty content trivially yields a clean report.
func Evaluate(content, filePath string, rules *constraint.RuleSet, sc constraint.Scoring) Report {
	now := time.Now().UTC()
	var violations []Violation

	if content != "" {
		for _, rule := range rules.Rules() {
			if !pathApplies(&rule, filePath) {
				continue
			}
			matches := rule.Regexp().FindAllStringIndex(content, -1)
			if len(matches) == 0 {
				continue
			}
			violations = append(violations, Violation{
				ConstraintID:  rule.ID,
				Severity:      rule.Severity,
				Message:       rule.Message,
				Suggestion:    rule.Suggestion,
				Pattern:       rule.Pattern,
				Matches:       len(matches),
				ContentLength: len(content),
				Excerpt:       excerpt(content, matches[0]),
				Timestamp:     now,
			})
		}
	}

	return Report{
		Violations:      violations,
		ComplianceScore: Score(violations, sc),
		Risk:            Classify(violations, sc),
	}
}

func excerpt(content string, span []int) string {
	s := content[span[0]:span[1]]
	if len(s) > maxExcerptLen {
		s = s[:maxExcerptLen]
	}
	return s
}

// pathApplies reports whether a rule's path scope admits filePath. Rules
// without a path scope apply to everything, including pathless prompts.
func pathApplies(rule *constraint.Constraint, filePath string) bool {
	if len(rule.Paths) == 0 {
		return true
	}
	if filePath == "" {
		return false
	}
	for _, glob := range rule.Paths {
		if ok, err := doublestar.Match(glob, filePath); err == nil && ok {
			return true
		}
	}
	return false
}
