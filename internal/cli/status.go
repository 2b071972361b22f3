package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/railguard/railguard/internal/config"
	"github.com/railguard/railguard/internal/constraint"
	"github.com/railguard/railguard/internal/status"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show railguard status: hook, constraints, latest compliance score",
	RunE:  statusCommand,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// marks picks plain markers when stdout is not a terminal so scripted
// callers get stable output.
func marks() (ok, warn, off string) {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return "✅", "⚠ ", "⬚ "
	}
	return "[ok]", "[!!]", "[--]"
}

func statusCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(constraintsPath, logPath, stateDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	ok, warn, off := marks()

	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Println("  railguard status")
	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Println()

	binPath, err := os.Executable()
	if err != nil {
		binPath = "unknown"
	}
	fmt.Printf("  Binary:  %s (%s)\n", binPath, Version)
	fmt.Printf("  Config:  %s\n", cfg.ConfigDir)
	fmt.Println()

	fmt.Println("─── Hook ──────────────────────────────────────────────")
	settingsPath := filepath.Join(os.Getenv("HOME"), ".claude", "settings.json")
	if data, err := os.ReadFile(settingsPath); err != nil {
		fmt.Printf("  %s Claude Code: not configured\n", off)
	} else if strings.Contains(string(data), "railguard hook") {
		fmt.Printf("  %s Claude Code: hook active (%s)\n", ok, settingsPath)
	} else {
		fmt.Printf("  %s Claude Code: settings.json exists but no railguard hook\n", off)
	}
	fmt.Println()

	fmt.Println("─── Constraints ───────────────────────────────────────")
	file, err := constraint.Load(cfg.ConstraintsPath)
	if err != nil {
		fmt.Printf("  %s constraint file invalid: %v\n", warn, err)
	} else {
		enabled := 0
		for _, c := range file.Constraints {
			if c.IsEnabled() {
				enabled++
			}
		}
		source := cfg.ConstraintsPath
		if _, statErr := os.Stat(cfg.ConstraintsPath); statErr != nil {
			source = "built-in defaults"
		}
		fmt.Printf("  %s %d constraint(s), %d enabled (%s)\n", ok, len(file.Constraints), enabled, source)
		fmt.Printf("     blocking levels: %s\n", severityList(file.Policy.BlockingLevels))
		if !file.Policy.IsEnabled() {
			fmt.Printf("  %s enforcement is disabled in policy\n", warn)
		}
	}
	fmt.Println()

	fmt.Println("─── Last cycle ────────────────────────────────────────")
	snap, err := status.Read(cfg.StatusPath)
	switch {
	case err != nil:
		fmt.Printf("  %s status file unreadable: %v\n", warn, err)
	case snap == nil:
		fmt.Printf("  %s no enforcement cycle recorded yet\n", off)
	default:
		fmt.Printf("  %s score %.1f/10, risk %s, %d violation(s)",
			ok, snap.ComplianceScore, snap.Risk, snap.ViolationCount)
		if snap.Blocked {
			fmt.Print(" (blocked)")
		}
		fmt.Printf("\n     at %s\n", snap.Timestamp.Local().Format(time.DateTime))
	}
	fmt.Println()

	fmt.Println("─── Violation log ─────────────────────────────────────")
	if info, err := os.Stat(cfg.LogPath); err != nil {
		fmt.Printf("  %s %s (will start on first violation)\n", off, cfg.LogPath)
	} else {
		fmt.Printf("  %s %s (%d KB)\n", ok, cfg.LogPath, info.Size()/1024)
	}
	fmt.Println()

	return nil
}

func severityList(levels []constraint.Severity) string {
	parts := make([]string, len(levels))
	for i, lvl := range levels {
		parts[i] = string(lvl)
	}
	return strings.Join(parts, ", ")
}
