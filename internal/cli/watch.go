package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/railguard/railguard/internal/config"
	"github.com/railguard/railguard/internal/constraint"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the constraint file and validate it on every change",
	Long: `Watch the constraint file and re-validate it whenever it is written.
A broken edit is reported immediately; hook invocations keep working off the
last valid set (a one-shot hook that finds a broken file fails open).

Runs until interrupted.`,
	RunE: watchCommand,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func watchCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(constraintsPath, logPath, stateDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if _, err := os.Stat(cfg.ConstraintsPath); err != nil {
		return fmt.Errorf("nothing to watch: %s does not exist (try: railguard rules --init)", cfg.ConstraintsPath)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(cfg.ConstraintsPath); err != nil {
		return fmt.Errorf("failed to watch %q: %w", cfg.ConstraintsPath, err)
	}

	validateConstraints(cfg.ConstraintsPath)
	fmt.Printf("Watching %s (Ctrl-C to stop)\n", cfg.ConstraintsPath)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Debounce: editors fire several events per save.
	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, func() {
					validateConstraints(cfg.ConstraintsPath)
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "[railguard] warning: file watcher error: %v\n", err)
		}
	}
}

func validateConstraints(path string) {
	file, err := constraint.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[railguard] warning: %v\n", err)
		return
	}
	fmt.Printf("%s valid: %d constraint(s)\n", time.Now().Format("15:04:05"), file.RuleSet().Len())
}
