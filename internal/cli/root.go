package cli

import (
	"github.com/spf13/cobra"
)

var (
	constraintsPath string
	logPath         string
	stateDir        string
)

var rootCmd = &cobra.Command{
	Use:   "railguard",
	Short: "railguard - real-time constraint enforcement for AI coding agents",
	Long: `railguard intercepts actions an AI coding agent is about to perform
(submitting a prompt, writing a file, running a tool) and checks them against
a configured constraint set in real time. Blocking-severity violations stop
the action with a corrective message; everything else passes through and
feeds a compliance score. Internal failures always fail open.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&constraintsPath, "constraints", "", "Path to constraint YAML file (default: ~/.railguard/railguard.yaml)")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "Path to violation log file (default: ~/.railguard/violations.jsonl)")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "Directory for per-session state files (default: temp dir)")
}

func Execute() error {
	return rootCmd.Execute()
}
