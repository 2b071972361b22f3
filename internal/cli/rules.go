package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/railguard/railguard/internal/config"
	"github.com/railguard/railguard/internal/constraint"
)

var rulesInit bool

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the active constraint set",
	Long: `List the constraints railguard enforces, in evaluation order.

  railguard rules          # list constraints
  railguard rules --init   # write the built-in defaults to the config file`,
	RunE: rulesCommand,
}

func init() {
	rulesCmd.Flags().BoolVar(&rulesInit, "init", false, "Write the built-in constraint set to the config file for editing")
	rootCmd.AddCommand(rulesCmd)
}

func rulesCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(constraintsPath, logPath, stateDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if rulesInit {
		return writeDefaults(cfg.ConstraintsPath)
	}

	file, err := constraint.Load(cfg.ConstraintsPath)
	if err != nil {
		return err
	}

	for _, c := range file.Constraints {
		state := "enabled"
		if !c.IsEnabled() {
			state = "disabled"
		}
		blocking := ""
		if file.Policy.Blocking(c.Severity) {
			blocking = " [blocking]"
		}
		fmt.Printf("%-26s %-8s %s%s\n", c.ID, c.Severity, state, blocking)
		fmt.Printf("    pattern: %s\n", c.Pattern)
		if len(c.Paths) > 0 {
			fmt.Printf("    paths:   %v\n", c.Paths)
		}
		fmt.Printf("    %s\n", c.Message)
	}
	fmt.Printf("\n%d constraint(s), blocking levels: %s\n",
		file.RuleSet().Len(), severityList(file.Policy.BlockingLevels))
	return nil
}

func writeDefaults(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists, refusing to overwrite", path)
	}

	data, err := yaml.Marshal(constraint.DefaultFile())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	fmt.Printf("Wrote default constraint set to %s\n", path)
	return nil
}
