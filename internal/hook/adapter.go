package hook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/railguard/railguard/internal/constraint"
	"github.com/railguard/railguard/internal/enforce"
	"github.com/railguard/railguard/internal/session"
)

// Outcome is one of the three exit conditions of a hook invocation. Callers
// distinguish them by exit code, not by text: 0 allows silently, 2 blocks
// (the remediation message travels on stdout for the agent to read), and 3
// allows with informational text on stderr. Under the agent hook
// convention, any non-2 code is non-blocking, so a crash in this process
// can never deny an action by accident.
type Outcome int

const (
	OutcomeAllowSilent Outcome = iota
	OutcomeAllowDiagnostic
	OutcomeBlocked
)

// ExitCode maps the outcome to its process exit code.
func (o Outcome) ExitCode() int {
	switch o {
	case OutcomeBlocked:
		return 2
	case OutcomeAllowDiagnostic:
		return 3
	default:
		return 0
	}
}

// Result is what one invocation hands back to the process boundary.
type Result struct {
	Outcome Outcome
	Stdout  string
	Stderr  string
}

const maxInputBytes = 1 << 20

// Adapter drives one hook invocation end to end.
type Adapter struct {
	Coordinator *enforce.Coordinator
	Sessions    *session.Manager
	Policy      constraint.Policy

	// enforceFn replaces the coordinator call in tests. Nil means use
	// Coordinator.Enforce.
	enforceFn func(context.Context, enforce.Request) enforce.Verdict
}

// Run executes the invocation state machine over the given input channel:
// awaiting input -> parsing -> enforcing -> responding -> terminated.
// Transitions only move forward, every early exit terminates with an allow,
// and no error path escapes as an error.
func (a *Adapter) Run(ctx context.Context, stdin io.Reader) Result {
	// Awaiting input: one bounded read to completion. No payload means
	// nothing to check.
	data, err := io.ReadAll(io.LimitReader(stdin, maxInputBytes))
	if err != nil {
		return allowDiagnostic(fmt.Sprintf("could not read hook input: %v", err))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Result{Outcome: OutcomeAllowSilent}
	}

	// Parsing. Blocking on a parse error would be worse than a missed
	// check, so malformed payloads allow with a diagnostic.
	req, err := Normalize(data)
	if err != nil {
		return allowDiagnostic(err.Error())
	}

	// Enforcing.
	switch req.Kind {
	case KindUnknown:
		return Result{Outcome: OutcomeAllowSilent}

	case KindSkill:
		if req.SkillName != "" && req.SessionID != "" && a.Sessions != nil {
			ttl := a.Policy.SkillTTL(req.SkillName)
			if err := a.Sessions.RecordSkill(req.SessionID, req.SkillName, ttl); err != nil {
				return allowDiagnostic(fmt.Sprintf("skill grant not recorded: %v", err))
			}
		}
		return Result{Outcome: OutcomeAllowSilent}
	}

	enfReq := a.buildEnforceRequest(req)

	verdict, timedOut := a.enforceWithDeadline(ctx, enfReq)
	if timedOut {
		// Timeout-to-fail-open: terminate with an allow rather than hang
		// the calling agent.
		return allowDiagnostic("constraint check timed out, allowing")
	}

	// Responding.
	return respond(a.Policy, verdict)
}

// buildEnforceRequest extracts the actionable text. Prompts are checked as
// written, and any override directive in them is both stored for later
// cycles and honored immediately. Tool calls check the content being
// written concatenated with the affected path, so path-based patterns can
// match, while the path also scopes path-restricted rules.
func (a *Adapter) buildEnforceRequest(req *Request) enforce.Request {
	out := enforce.Request{SessionID: req.SessionID}

	switch req.Kind {
	case KindPrompt:
		out.Content = req.Prompt
		if ids := session.ParseDirective(req.Prompt); len(ids) > 0 {
			out.ExplicitOverrides = ids
			if a.Sessions != nil && req.SessionID != "" {
				err := a.Sessions.WriteOverride(req.SessionID, ids,
					a.Policy.OverrideTTL(), a.Policy.OverrideMaxPrompts())
				if err != nil {
					// The explicit override still applies to this cycle.
					fmt.Fprintf(os.Stderr, "[railguard] warning: override not stored: %v\n", err)
				}
			}
		}

	case KindTool:
		out.Content = req.Content
		out.FilePath = req.FilePath
		if req.FilePath != "" {
			out.Content = req.Content + "\n" + req.FilePath
		}
	}

	return out
}

// enforceWithDeadline bounds the whole coordinator call. The goroutine may
// finish after the deadline fires; its verdict is then discarded.
func (a *Adapter) enforceWithDeadline(ctx context.Context, req enforce.Request) (enforce.Verdict, bool) {
	ctx, cancel := context.WithTimeout(ctx, a.Policy.Timeout())
	defer cancel()

	call := a.enforceFn
	if call == nil {
		call = a.Coordinator.Enforce
	}

	done := make(chan enforce.Verdict, 1)
	go func() {
		done <- call(ctx, req)
	}()

	select {
	case v := <-done:
		return v, false
	case <-ctx.Done():
		return enforce.Verdict{}, true
	}
}

// respond translates the verdict into the three-way exit contract.
func respond(policy constraint.Policy, v enforce.Verdict) Result {
	if !v.Allowed {
		return Result{Outcome: OutcomeBlocked, Stdout: v.Message}
	}

	// Allowed actions are silent unless a detected violation sits at a
	// configured diagnostic level.
	var notes []string
	for _, viol := range v.Violations {
		if policy.Warning(viol.Severity) {
			notes = append(notes, fmt.Sprintf("%s [%s]: %s", viol.ConstraintID, viol.Severity, viol.Message))
		}
	}
	if len(notes) == 0 {
		return Result{Outcome: OutcomeAllowSilent}
	}

	return Result{
		Outcome: OutcomeAllowDiagnostic,
		Stderr: fmt.Sprintf("[railguard] allowed with %d advisory violation(s):\n  %s",
			len(notes), strings.Join(notes, "\n  ")),
	}
}

func allowDiagnostic(msg string) Result {
	return Result{
		Outcome: OutcomeAllowDiagnostic,
		Stderr:  "[railguard] warning: " + msg,
	}
}
