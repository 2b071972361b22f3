package constraint

import (
	"regexp"
	"time"
)

// Severity orders constraint violations from informational to critical.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Rank returns a numeric position for severity comparison.
// Higher number = more severe. Unknown severities rank below info.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Valid reports whether s is one of the four known severity levels.
func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// Constraint is a named content rule checked against text an agent is about
// to submit or write. The compiled pattern is attached at load time; a
// pattern that does not compile is a load-time error, never an
// evaluation-time one.
type Constraint struct {
	ID         string   `yaml:"id"`
	Pattern    string   `yaml:"pattern"`
	Message    string   `yaml:"message"`
	Severity   Severity `yaml:"severity"`
	Enabled    *bool    `yaml:"enabled,omitempty"`
	GroupID    string   `yaml:"group,omitempty"`
	Suggestion string   `yaml:"suggestion,omitempty"`

	// Paths restricts the rule to requests whose file path matches one of
	// these doublestar globs. Empty means the rule applies everywhere.
	Paths []string `yaml:"paths,omitempty"`

	re *regexp.Regexp
}

// IsEnabled treats an absent enabled flag as true, so a rule opts out
// explicitly rather than by omission.
func (c *Constraint) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Compile attaches the compiled pattern to the constraint. Load does this
// for every file-sourced rule; hand-built constraints must call it before
// evaluation.
func (c *Constraint) Compile() error {
	re, err := regexp.Compile(c.Pattern)
	if err != nil {
		return err
	}
	c.re = re
	return nil
}

// Regexp returns the pattern compiled at load time.
func (c *Constraint) Regexp() *regexp.Regexp {
	return c.re
}

// RuleSet is an ordered, immutable collection of constraints. Order follows
// declaration order in the source file and drives the ordering of emitted
// violations.
type RuleSet struct {
	rules []Constraint
}

// NewRuleSet wraps already-validated constraints. Use Load for untrusted
// sources.
func NewRuleSet(rules []Constraint) *RuleSet {
	return &RuleSet{rules: rules}
}

// Rules returns the constraints in declaration order.
func (rs *RuleSet) Rules() []Constraint {
	return rs.rules
}

// Len returns the number of constraints, enabled or not.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// Active returns the subset of rules that are enabled and not suppressed,
// preserving declaration order. The receiver is never mutated; concurrent
// evaluations each work from their own filtered view.
func (rs *RuleSet) Active(suppressed map[string]bool) *RuleSet {
	active := make([]Constraint, 0, len(rs.rules))
	for _, r := range rs.rules {
		if !r.IsEnabled() {
			continue
		}
		if suppressed[r.ID] {
			continue
		}
		active = append(active, r)
	}
	return &RuleSet{rules: active}
}

// Policy holds the enforcement knobs loaded alongside the constraint set.
// Enabled and FailOpen are pointers so that omitting them means true rather
// than false.
type Policy struct {
	Enabled        *bool      `yaml:"enabled,omitempty"`
	BlockingLevels []Severity `yaml:"blocking_levels"`
	WarningLevels  []Severity `yaml:"warning_levels,omitempty"`
	InfoLevels     []Severity `yaml:"info_levels,omitempty"`
	FailOpen       *bool      `yaml:"fail_open,omitempty"`

	// TimeoutSeconds bounds one whole enforcement cycle at the hook
	// boundary. Expiry means silent allow, never a hang.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`

	Scoring  Scoring                `yaml:"scoring,omitempty"`
	Override OverridePolicy         `yaml:"override,omitempty"`
	Skills   map[string]SkillPolicy `yaml:"skills,omitempty"`
}

// Scoring controls the compliance score penalties and the risk escalation
// threshold. Weights must be monotonic with severity rank; Load rejects
// configurations that are not.
type Scoring struct {
	Weights       map[Severity]float64 `yaml:"weights,omitempty"`
	EscalateCount int                  `yaml:"escalate_count,omitempty"`
}

// OverridePolicy bounds user-requested rule overrides.
type OverridePolicy struct {
	TTLMinutes int `yaml:"ttl_minutes,omitempty"`
	MaxPrompts int `yaml:"max_prompts,omitempty"`
}

// SkillPolicy maps a skill name to the constraints it exempts while active.
type SkillPolicy struct {
	TTLMinutes int      `yaml:"ttl_minutes,omitempty"`
	Exempt     []string `yaml:"exempt,omitempty"`
}

// IsEnabled reports whether enforcement is on. Absent means on.
func (p *Policy) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// IsFailOpen reports whether internal failures degrade to allow. Absent
// means they do.
func (p *Policy) IsFailOpen() bool {
	return p.FailOpen == nil || *p.FailOpen
}

// Blocking reports whether s is in the configured blocking set.
func (p *Policy) Blocking(s Severity) bool {
	for _, lvl := range p.BlockingLevels {
		if lvl == s {
			return true
		}
	}
	return false
}

// SkillTTL returns how long a grant for the named skill stays active.
func (p *Policy) SkillTTL(name string) time.Duration {
	if sk, ok := p.Skills[name]; ok && sk.TTLMinutes > 0 {
		return time.Duration(sk.TTLMinutes) * time.Minute
	}
	return defaultSkillTTLMinutes * time.Minute
}

// OverrideTTL returns the wall-clock lifetime of an override directive.
func (p *Policy) OverrideTTL() time.Duration {
	if p.Override.TTLMinutes > 0 {
		return time.Duration(p.Override.TTLMinutes) * time.Minute
	}
	return defaultOverrideTTLMinutes * time.Minute
}

// OverrideMaxPrompts returns the directive usage cap.
func (p *Policy) OverrideMaxPrompts() int {
	if p.Override.MaxPrompts > 0 {
		return p.Override.MaxPrompts
	}
	return defaultOverrideMaxPrompts
}

// Timeout returns the hard processing bound for one enforcement cycle.
func (p *Policy) Timeout() time.Duration {
	if p.TimeoutSeconds > 0 {
		return time.Duration(p.TimeoutSeconds) * time.Second
	}
	return defaultTimeoutSeconds * time.Second
}

// Warning reports whether s is in the configured diagnostic set: allowed
// actions stay silent unless a detected violation sits at one of these
// levels.
func (p *Policy) Warning(s Severity) bool {
	for _, lvl := range p.WarningLevels {
		if lvl == s {
			return true
		}
	}
	return false
}

// File is the full on-disk configuration: policy plus the ordered
// constraint list.
type File struct {
	Version     string       `yaml:"version"`
	Policy      Policy       `yaml:"policy"`
	Constraints []Constraint `yaml:"constraints"`
}
