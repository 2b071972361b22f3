package constraint

import (
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// ConfigError marks a constraint source that is missing, malformed, or
// internally inconsistent. Callers holding a previously loaded set should
// keep operating on it when a reload returns this.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("constraint config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Load reads and validates a constraint file. Every pattern is compiled
// here so evaluation never sees a compile failure. A missing file falls
// back to the built-in default set; any other problem is a ConfigError.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultFile(), nil
		}
		return nil, &ConfigError{Path: path, Err: err}
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	applyPolicyDefaults(&file.Policy)

	if err := validate(&file); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	return &file, nil
}

// RuleSet returns the file's constraints as an immutable rule set.
func (f *File) RuleSet() *RuleSet {
	return NewRuleSet(f.Constraints)
}

func validate(file *File) error {
	seen := make(map[string]bool, len(file.Constraints))

	for i := range file.Constraints {
		c := &file.Constraints[i]

		if c.ID == "" {
			return fmt.Errorf("constraint %d: missing id", i)
		}
		if seen[c.ID] {
			return fmt.Errorf("duplicate constraint id %q", c.ID)
		}
		seen[c.ID] = true

		if c.Pattern == "" {
			return fmt.Errorf("constraint %q: missing pattern", c.ID)
		}
		if err := c.Compile(); err != nil {
			return fmt.Errorf("constraint %q: invalid pattern: %w", c.ID, err)
		}

		if !c.Severity.Valid() {
			return fmt.Errorf("constraint %q: unknown severity %q", c.ID, c.Severity)
		}

		for _, glob := range c.Paths {
			if !doublestar.ValidatePattern(glob) {
				return fmt.Errorf("constraint %q: invalid path glob %q", c.ID, glob)
			}
		}
	}

	for _, lvl := range file.Policy.BlockingLevels {
		if !lvl.Valid() {
			return fmt.Errorf("policy: unknown blocking level %q", lvl)
		}
	}

	return validateScoring(file.Policy.Scoring)
}

// validateScoring enforces the monotonicity invariant: a more severe level
// must never carry a smaller penalty than a less severe one.
func validateScoring(sc Scoring) error {
	order := []Severity{SeverityInfo, SeverityWarning, SeverityError, SeverityCritical}
	prev := 0.0
	for _, lvl := range order {
		w, ok := sc.Weights[lvl]
		if !ok {
			continue
		}
		if w < 0 {
			return fmt.Errorf("policy: negative score weight for %q", lvl)
		}
		if w < prev {
			return fmt.Errorf("policy: score weight for %q is below a less severe level", lvl)
		}
		prev = w
	}
	return nil
}

func applyPolicyDefaults(p *Policy) {
	def := DefaultPolicy()
	if len(p.BlockingLevels) == 0 {
		p.BlockingLevels = def.BlockingLevels
	}
	if len(p.WarningLevels) == 0 {
		p.WarningLevels = def.WarningLevels
	}
	if len(p.InfoLevels) == 0 {
		p.InfoLevels = def.InfoLevels
	}
	if p.TimeoutSeconds <= 0 {
		p.TimeoutSeconds = def.TimeoutSeconds
	}
	if p.Scoring.Weights == nil {
		p.Scoring.Weights = def.Scoring.Weights
	} else {
		// Fill unset levels so monotonicity is validated over the full
		// table, not just the keys the user wrote.
		for lvl, w := range def.Scoring.Weights {
			if _, ok := p.Scoring.Weights[lvl]; !ok {
				p.Scoring.Weights[lvl] = w
			}
		}
	}
	if p.Scoring.EscalateCount <= 0 {
		p.Scoring.EscalateCount = def.Scoring.EscalateCount
	}
	if p.Override.TTLMinutes <= 0 {
		p.Override.TTLMinutes = def.Override.TTLMinutes
	}
	if p.Override.MaxPrompts <= 0 {
		p.Override.MaxPrompts = def.Override.MaxPrompts
	}
	for name, sk := range p.Skills {
		if sk.TTLMinutes <= 0 {
			sk.TTLMinutes = defaultSkillTTLMinutes
			p.Skills[name] = sk
		}
	}
}
