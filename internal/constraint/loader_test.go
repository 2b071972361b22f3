package constraint

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "railguard.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad_ValidFile(t *testing.T) {
	path := writeTemp(t, `
version: "1"
policy:
  blocking_levels: [critical]
constraints:
  - id: no-eval-usage
    pattern: '\beval\s*\('
    severity: critical
    message: eval is not allowed
  - id: no-debug-logging
    pattern: 'console\.log'
    severity: warning
    message: leftover debug logging
`)

	file, err := Load(path)
	if err != nil {
		t.Fatalf("expected valid load, got %v", err)
	}
	if file.RuleSet().Len() != 2 {
		t.Fatalf("expected 2 constraints, got %d", file.RuleSet().Len())
	}
	if !file.Policy.Blocking(SeverityCritical) {
		t.Error("expected critical to be blocking")
	}
	if file.Policy.Blocking(SeverityError) {
		t.Error("error should not block with blocking_levels [critical]")
	}

	for _, c := range file.Constraints {
		if c.Regexp() == nil {
			t.Errorf("constraint %q: pattern not compiled at load", c.ID)
		}
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	file, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults, got %v", err)
	}
	if file.RuleSet().Len() == 0 {
		t.Fatal("default constraint set is empty")
	}
	if !file.Policy.IsEnabled() || !file.Policy.IsFailOpen() {
		t.Error("defaults must be enabled and fail-open")
	}
}

func TestLoad_ConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "duplicate id",
			content: `
constraints:
  - {id: dup, pattern: a, severity: info, message: m}
  - {id: dup, pattern: b, severity: info, message: m}
`,
			wantErr: "duplicate constraint id",
		},
		{
			name: "invalid pattern",
			content: `
constraints:
  - {id: bad, pattern: '([', severity: info, message: m}
`,
			wantErr: "invalid pattern",
		},
		{
			name: "unknown severity",
			content: `
constraints:
  - {id: x, pattern: a, severity: fatal, message: m}
`,
			wantErr: "unknown severity",
		},
		{
			name: "missing id",
			content: `
constraints:
  - {pattern: a, severity: info, message: m}
`,
			wantErr: "missing id",
		},
		{
			name:    "not yaml",
			content: "{{{{",
			wantErr: "",
		},
		{
			name: "non-monotonic weights",
			content: `
policy:
  scoring:
    weights: {warning: 4.0, error: 2.0}
constraints: []
`,
			wantErr: "below a less severe level",
		},
		{
			name: "bad path glob",
			content: `
constraints:
  - {id: p, pattern: a, severity: info, message: m, paths: ['[']}
`,
			wantErr: "invalid path glob",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeTemp(t, tt.content))
			if err == nil {
				t.Fatal("expected ConfigError, got nil")
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %T", err)
			}
			if tt.wantErr != "" && !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestActive_FiltersDisabledAndSuppressed(t *testing.T) {
	off := false
	rs := NewRuleSet([]Constraint{
		{ID: "a", Severity: SeverityError},
		{ID: "b", Severity: SeverityError, Enabled: &off},
		{ID: "c", Severity: SeverityError},
	})

	active := rs.Active(map[string]bool{"c": true})
	if active.Len() != 1 {
		t.Fatalf("expected 1 active rule, got %d", active.Len())
	}
	if active.Rules()[0].ID != "a" {
		t.Errorf("expected rule a, got %s", active.Rules()[0].ID)
	}
}

func TestActive_PreservesDeclarationOrder(t *testing.T) {
	rs := NewRuleSet([]Constraint{
		{ID: "z"}, {ID: "a"}, {ID: "m"},
	})
	active := rs.Active(nil)
	got := []string{}
	for _, r := range active.Rules() {
		got = append(got, r.ID)
	}
	want := []string{"z", "a", "m"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order changed: got %v, want %v", got, want)
		}
	}
}

func TestLoad_PolicyDefaultsFilled(t *testing.T) {
	path := writeTemp(t, `
policy:
  scoring:
    weights: {critical: 8.0}
constraints: []
`)

	file, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	p := file.Policy

	if len(p.BlockingLevels) == 0 {
		t.Error("blocking levels not defaulted")
	}
	if p.Scoring.Weights[SeverityWarning] == 0 {
		t.Error("unset weight levels should be filled from defaults")
	}
	if p.Scoring.Weights[SeverityCritical] != 8.0 {
		t.Error("explicit weight overridden by defaults")
	}
	if p.Override.MaxPrompts != defaultOverrideMaxPrompts {
		t.Errorf("override cap not defaulted, got %d", p.Override.MaxPrompts)
	}
	if p.Timeout().Seconds() != defaultTimeoutSeconds {
		t.Errorf("timeout not defaulted, got %v", p.Timeout())
	}
}

func TestSeverityRank_Ordering(t *testing.T) {
	if !(SeverityInfo.Rank() < SeverityWarning.Rank() &&
		SeverityWarning.Rank() < SeverityError.Rank() &&
		SeverityError.Rank() < SeverityCritical.Rank()) {
		t.Fatal("severity ranks are not strictly ordered")
	}
	if Severity("bogus").Valid() {
		t.Error("unknown severity must not be valid")
	}
}

func TestDefaultFile_PatternsCompile(t *testing.T) {
	for _, c := range DefaultFile().Constraints {
		if c.Regexp() == nil {
			t.Errorf("built-in constraint %q has no compiled pattern", c.ID)
		}
		if !c.Severity.Valid() {
			t.Errorf("built-in constraint %q has invalid severity", c.ID)
		}
	}
}
