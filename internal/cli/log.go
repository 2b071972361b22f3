package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/railguard/railguard/internal/audit"
	"github.com/railguard/railguard/internal/config"
)

var (
	logFilterSeverity string
	logFilterSession  string
	logFilterBlocked  bool
	logLast           int
	logSummary        bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View and filter the violation log",
	Long: `View the railguard violation log with filtering and summary options.

Examples:
  railguard log                     # show all entries
  railguard log --last 20           # show last 20 entries
  railguard log --severity critical # show only critical violations
  railguard log --session abc123    # show one session
  railguard log --blocked           # show only blocking violations
  railguard log --summary           # show summary statistics`,
	RunE: logCommand,
}

func init() {
	logCmd.Flags().StringVar(&logFilterSeverity, "severity", "", "Filter by severity (info, warning, error, critical)")
	logCmd.Flags().StringVar(&logFilterSession, "session", "", "Filter by session id")
	logCmd.Flags().BoolVar(&logFilterBlocked, "blocked", false, "Show only blocking violations")
	logCmd.Flags().IntVar(&logLast, "last", 0, "Show last N entries")
	logCmd.Flags().BoolVar(&logSummary, "summary", false, "Show summary statistics")
	rootCmd.AddCommand(logCmd)
}

func logCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(constraintsPath, logPath, stateDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	entries, err := audit.ReadAll(cfg.LogPath)
	if err != nil {
		return fmt.Errorf("failed to read violation log: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("No violations recorded.")
		return nil
	}

	filtered := filterEntries(entries)
	if logLast > 0 && logLast < len(filtered) {
		filtered = filtered[len(filtered)-logLast:]
	}

	if logSummary {
		printSummary(entries)
		return nil
	}

	printEntries(filtered)
	return nil
}

func filterEntries(entries []audit.Entry) []audit.Entry {
	if logFilterSeverity == "" && logFilterSession == "" && !logFilterBlocked {
		return entries
	}

	var filtered []audit.Entry
	for _, e := range entries {
		if logFilterSeverity != "" && !strings.EqualFold(e.Severity, logFilterSeverity) {
			continue
		}
		if logFilterSession != "" && e.SessionID != logFilterSession {
			continue
		}
		if logFilterBlocked && !e.Blocked {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}

func printEntries(entries []audit.Entry) {
	for _, e := range entries {
		marker := " "
		if e.Blocked {
			marker = "X"
		}
		fmt.Printf("[%s] %s %-8s %s (%d match(es))\n",
			marker, formatTimestamp(e.Timestamp), e.Severity, e.ConstraintID, e.Matches)
		fmt.Printf("      %s\n", e.Message)
		if e.FilePath != "" {
			fmt.Printf("      file: %s\n", e.FilePath)
		}
		if e.Excerpt != "" {
			fmt.Printf("      match: %s\n", e.Excerpt)
		}
		if e.SessionID != "" {
			fmt.Printf("      session: %s\n", e.SessionID)
		}
		fmt.Println()
	}
}

func printSummary(entries []audit.Entry) {
	counts := map[string]int{}
	byConstraint := map[string]int{}
	blocked := 0
	for _, e := range entries {
		counts[e.Severity]++
		byConstraint[e.ConstraintID]++
		if e.Blocked {
			blocked++
		}
	}

	fmt.Println("═══════════════════════════════════════════")
	fmt.Println("  railguard violation summary")
	fmt.Println("═══════════════════════════════════════════")
	fmt.Printf("  Total violations: %d\n", len(entries))
	fmt.Printf("  critical:         %d\n", counts["critical"])
	fmt.Printf("  error:            %d\n", counts["error"])
	fmt.Printf("  warning:          %d\n", counts["warning"])
	fmt.Printf("  info:             %d\n", counts["info"])
	fmt.Printf("  Blocking:         %d\n", blocked)
	fmt.Println("═══════════════════════════════════════════")

	if len(entries) > 0 {
		fmt.Printf("  First: %s\n", formatTimestamp(entries[0].Timestamp))
		fmt.Printf("  Last:  %s\n", formatTimestamp(entries[len(entries)-1].Timestamp))
	}

	if len(byConstraint) > 0 {
		ids := make([]string, 0, len(byConstraint))
		for id := range byConstraint {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		fmt.Println()
		fmt.Println("  By constraint:")
		for _, id := range ids {
			fmt.Printf("    %-30s %d\n", id, byConstraint[id])
		}
	}
	fmt.Println()
}

func formatTimestamp(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
