package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/railguard/railguard/internal/audit"
	"github.com/railguard/railguard/internal/config"
	"github.com/railguard/railguard/internal/constraint"
	"github.com/railguard/railguard/internal/enforce"
	"github.com/railguard/railguard/internal/hook"
	"github.com/railguard/railguard/internal/session"
	"github.com/railguard/railguard/internal/status"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Agent hook handler: reads a hook payload from stdin and enforces constraints",
	Long: `Reads an agent hook JSON payload from stdin, evaluates the actionable
text against the constraint set, and responds through the exit code:

  0  allowed, nothing to report
  2  blocked; the remediation message is printed to stdout for the agent
  3  allowed with an advisory diagnostic on stderr

Any internal failure, malformed payload, or timeout allows the action
(fail open). Set RAILGUARD_BYPASS=1 to allow everything.

Setup:
  railguard setup claude-code`,
	RunE: hookCommand,
}

func init() {
	rootCmd.AddCommand(hookCmd)
}

func hookCommand(cmd *cobra.Command, args []string) error {
	if os.Getenv("RAILGUARD_BYPASS") == "1" {
		_, _ = io.Copy(io.Discard, os.Stdin)
		return nil
	}

	result := runHook(cmd.Context(), os.Stdin)

	if result.Stderr != "" {
		fmt.Fprintln(os.Stderr, result.Stderr)
	}
	if result.Stdout != "" {
		fmt.Println(result.Stdout)
	}
	if code := result.Outcome.ExitCode(); code != 0 {
		os.Exit(code)
	}
	return nil
}

// runHook wires one enforcement cycle: config, constraint set, session
// store, collaborators, adapter. Construction failures degrade to an allow
// with a diagnostic; only a successful blocking detection exits 2.
func runHook(ctx context.Context, stdin io.Reader) hook.Result {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(constraintsPath, logPath, stateDir)
	if err != nil {
		return allowWithWarning(fmt.Sprintf("config load failed: %v", err))
	}

	file, err := constraint.Load(cfg.ConstraintsPath)
	if err != nil {
		// No prior set to fall back on in a one-shot invocation, so a bad
		// constraint file cannot be allowed to block the agent.
		return allowWithWarning(fmt.Sprintf("constraint load failed: %v", err))
	}

	var sessions *session.Manager
	if store, err := session.NewFileStore(cfg.StateDir); err != nil {
		fmt.Fprintf(os.Stderr, "[railguard] warning: session store unavailable: %v\n", err)
	} else {
		sessions = session.NewManager(store)
	}

	coord := enforce.New(file.RuleSet(), file.Policy, sessions)

	if sink, err := audit.Open(cfg.LogPath); err != nil {
		fmt.Fprintf(os.Stderr, "[railguard] warning: violation log unavailable: %v\n", err)
	} else {
		defer func() { _ = sink.Close() }()
		coord.SetSink(sink)
	}
	coord.SetStatusFeed(status.NewWriter(cfg.StatusPath))

	adapter := &hook.Adapter{
		Coordinator: coord,
		Sessions:    sessions,
		Policy:      file.Policy,
	}
	return adapter.Run(ctx, stdin)
}

func allowWithWarning(msg string) hook.Result {
	return hook.Result{
		Outcome: hook.OutcomeAllowDiagnostic,
		Stderr:  "[railguard] warning: " + msg,
	}
}
