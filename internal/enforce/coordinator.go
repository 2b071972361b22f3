// Package enforce orchestrates one enforcement decision: resolve the
// suppressed-rule set, evaluate, apply the blocking policy, and emit a
// verdict. Detection defects degrade to allow; only a successful detection
// of a blocking-severity violation can deny.
package enforce

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/railguard/railguard/internal/constraint"
	"github.com/railguard/railguard/internal/evaluate"
	"github.com/railguard/railguard/internal/session"
)

type evalFunc func(content, filePath string, rules *constraint.RuleSet, sc constraint.Scoring) evaluate.Report

// Coordinator holds everything one enforcement cycle needs. Construct one
// per process and pass it to every hook entry point; there is no ambient
// global instance.
type Coordinator struct {
	rules    *constraint.RuleSet
	policy   constraint.Policy
	sessions *session.Manager

	sink   Sink
	status StatusFeed

	evaluate evalFunc
	warnf    func(format string, args ...any)
}

// New builds a coordinator over a loaded rule set and session manager.
func New(rules *constraint.RuleSet, policy constraint.Policy, sessions *session.Manager) *Coordinator {
	return &Coordinator{
		rules:    rules,
		policy:   policy,
		sessions: sessions,
		evaluate: evaluate.Evaluate,
		warnf: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "[railguard] warning: "+format+"\n", args...)
		},
	}
}

// SetSink attaches the violation log collaborator.
func (c *Coordinator) SetSink(s Sink) {
	c.sink = s
}

// SetStatusFeed attaches the status aggregator collaborator.
func (c *Coordinator) SetStatusFeed(f StatusFeed) {
	c.status = f
}

// Enforce runs one decision cycle. It never returns an error: internal
// failures during suppression resolution or evaluation are converted to an
// allow when the policy fails open, which is the default.
func (c *Coordinator) Enforce(ctx context.Context, req Request) (v Verdict) {
	defer func() {
		if r := recover(); r != nil {
			c.warnf("failing open: %v", &evaluate.EvaluationError{Cause: r})
			v = c.failedVerdict()
		}
	}()

	if !c.policy.IsEnabled() {
		return allowAll()
	}
	if ctx.Err() != nil {
		c.warnf("enforcement cancelled: %v", ctx.Err())
		return c.failedVerdict()
	}

	suppressed := c.suppressedSet(req)
	active := c.rules.Active(suppressed)
	report := c.evaluate(req.Content, req.FilePath, active, c.policy.Scoring)

	var blocking []evaluate.Violation
	for _, viol := range report.Violations {
		if c.policy.Blocking(viol.Severity) {
			blocking = append(blocking, viol)
		}
	}

	v = Verdict{
		Allowed:            len(blocking) == 0,
		BlockingViolations: blocking,
		Violations:         report.Violations,
		ComplianceScore:    report.ComplianceScore,
		Risk:               report.Risk,
	}
	if !v.Allowed {
		v.Message = buildMessage(blocking)
	}

	// Every detected violation is forwarded before returning, blocking or
	// not; compliance tracking is independent of the allow/deny outcome.
	c.publish(req, v)

	return v
}

// suppressedSet unions the caller-supplied override, the session's stored
// directive, and constraints exempted by active skill grants. State store
// failures degrade to "nothing suppressed for that source".
func (c *Coordinator) suppressedSet(req Request) map[string]bool {
	suppressed := make(map[string]bool)
	for _, id := range req.ExplicitOverrides {
		suppressed[id] = true
	}

	if c.sessions == nil || req.SessionID == "" {
		return suppressed
	}

	ids, err := c.sessions.ReadOverride(req.SessionID)
	if err != nil {
		c.warnf("override read failed: %v", err)
	}
	for _, id := range ids {
		suppressed[id] = true
	}

	skills, err := c.sessions.ActiveSkills(req.SessionID)
	if err != nil {
		c.warnf("skill read failed: %v", err)
	}
	for _, name := range skills {
		for _, id := range c.policy.Skills[name].Exempt {
			suppressed[id] = true
		}
	}

	return suppressed
}

func (c *Coordinator) publish(req Request, v Verdict) {
	if c.sink != nil {
		for _, viol := range v.Violations {
			rec := Record{
				SessionID:     req.SessionID,
				ConstraintID:  viol.ConstraintID,
				Severity:      viol.Severity,
				Message:       viol.Message,
				Matches:       viol.Matches,
				ContentLength: viol.ContentLength,
				Excerpt:       viol.Excerpt,
				FilePath:      req.FilePath,
				Blocked:       c.policy.Blocking(viol.Severity),
				Timestamp:     viol.Timestamp,
			}
			if err := c.sink.Record(rec); err != nil {
				c.warnf("violation log write failed: %v", err)
			}
		}
	}

	if c.status != nil {
		snap := Snapshot{
			SessionID:       req.SessionID,
			ComplianceScore: v.ComplianceScore,
			Risk:            v.Risk,
			ViolationCount:  len(v.Violations),
			Blocked:         !v.Allowed,
			Timestamp:       time.Now().UTC(),
		}
		if err := c.status.Update(snap); err != nil {
			c.warnf("status update failed: %v", err)
		}
	}
}

// failedVerdict is the outcome for an internal defect. Fail-open yields a
// silent allow; a deployment that opts out of fail-open gets a deny that
// says the checker itself broke, so the failure is visible.
func (c *Coordinator) failedVerdict() Verdict {
	if c.policy.IsFailOpen() {
		return allowAll()
	}
	return Verdict{
		Allowed:         false,
		ComplianceScore: evaluate.Score(nil, c.policy.Scoring),
		Risk:            evaluate.RiskLow,
		Message:         "railguard could not complete the constraint check and fail-open is disabled.",
	}
}

func allowAll() Verdict {
	return Verdict{
		Allowed:         true,
		ComplianceScore: 10.0,
		Risk:            evaluate.RiskLow,
	}
}
