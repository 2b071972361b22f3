package enforce

import (
	"time"

	"github.com/railguard/railguard/internal/constraint"
	"github.com/railguard/railguard/internal/evaluate"
)

// Request is one enforcement question: should this content, for this
// session, be allowed through?
type Request struct {
	SessionID string
	Content   string
	FilePath  string

	// ExplicitOverrides are constraint ids the caller already parsed out of
	// the triggering prompt, honored in addition to any stored directive.
	ExplicitOverrides []string
}

// Verdict is the tagged result of one enforcement decision. The deny case
// travels here as a value, never as an error: error returns are reserved
// for genuine failures, which the coordinator converts to fail-open allows
// before they reach the caller.
type Verdict struct {
	Allowed            bool
	BlockingViolations []evaluate.Violation
	Violations         []evaluate.Violation
	ComplianceScore    float64
	Risk               evaluate.Risk

	// Message is the remediation text, built only when not allowed.
	Message string
}

// Record is the append-only violation log entry handed to the sink
// collaborator. Detection and blocking are independent: non-blocking
// violations are recorded too.
type Record struct {
	SessionID     string              `json:"session_id"`
	ConstraintID  string              `json:"constraint_id"`
	Severity      constraint.Severity `json:"severity"`
	Message       string              `json:"message"`
	Matches       int                 `json:"matches"`
	ContentLength int                 `json:"content_length"`
	Excerpt       string              `json:"excerpt,omitempty"`
	FilePath      string              `json:"file_path,omitempty"`
	Blocked       bool                `json:"blocked"`
	Timestamp     time.Time           `json:"timestamp"`
}

// Snapshot carries the latest compliance numbers to the status aggregator.
type Snapshot struct {
	SessionID       string        `json:"session_id"`
	ComplianceScore float64       `json:"compliance_score"`
	Risk            evaluate.Risk `json:"risk"`
	ViolationCount  int           `json:"violation_count"`
	Blocked         bool          `json:"blocked"`
	Timestamp       time.Time     `json:"timestamp"`
}

// Sink receives detected violations. Writes are best-effort; a sink failure
// never changes an already-decided verdict.
type Sink interface {
	Record(Record) error
}

// StatusFeed receives the per-cycle compliance snapshot, also best-effort.
type StatusFeed interface {
	Update(Snapshot) error
}
