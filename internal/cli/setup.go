package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var setupDisable bool

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Set up railguard for your agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Available integrations:")
		fmt.Println("  railguard setup claude-code             # install hooks")
		fmt.Println("  railguard setup claude-code --disable   # remove hooks")
		return nil
	},
}

var setupClaudeCodeCmd = &cobra.Command{
	Use:   "claude-code",
	Short: "Install railguard hooks into Claude Code settings",
	Long: `Install UserPromptSubmit and PreToolUse hooks so every prompt and every
Write/Edit tool call is checked against the constraint set before it runs.

  railguard setup claude-code             # enable hooks
  railguard setup claude-code --disable   # disable hooks`,
	RunE: setupClaudeCodeCommand,
}

func init() {
	setupClaudeCodeCmd.Flags().BoolVar(&setupDisable, "disable", false, "Remove railguard hooks")
	setupCmd.AddCommand(setupClaudeCodeCmd)
	rootCmd.AddCommand(setupCmd)
}

const hookCommandLine = "railguard hook"

// hookEvents are the Claude Code events railguard subscribes to. The tool
// matcher covers content-producing tools; prompts have no matcher.
var hookEvents = map[string]string{
	"UserPromptSubmit": "",
	"PreToolUse":       "Write|Edit|MultiEdit",
}

func setupClaudeCodeCommand(cmd *cobra.Command, args []string) error {
	settingsPath := filepath.Join(os.Getenv("HOME"), ".claude", "settings.json")

	if setupDisable {
		return disableClaudeCodeHooks(settingsPath)
	}

	settings, err := readSettings(settingsPath)
	if err != nil {
		return err
	}

	hooks := getOrCreateMap(settings, "hooks")
	installed := 0
	for event, matcher := range hookEvents {
		entries, _ := hooks[event].([]interface{})
		if containsRailguardEntry(entries) {
			continue
		}
		entry := map[string]interface{}{
			"hooks": []interface{}{
				map[string]interface{}{"type": "command", "command": hookCommandLine},
			},
		}
		if matcher != "" {
			entry["matcher"] = matcher
		}
		hooks[event] = append(entries, entry)
		installed++
	}
	settings["hooks"] = hooks

	if installed == 0 {
		fmt.Printf("railguard hooks already configured: %s\n", settingsPath)
		return nil
	}

	if err := writeSettings(settingsPath, settings); err != nil {
		return err
	}

	fmt.Printf("Installed railguard hooks: %s\n", settingsPath)
	fmt.Println()
	fmt.Println("Every prompt and Write/Edit tool call is now checked against the")
	fmt.Println("constraint set. Blocked actions return the violation list to the agent.")
	fmt.Println()
	fmt.Println("To disable: railguard setup claude-code --disable")
	return nil
}

func disableClaudeCodeHooks(settingsPath string) error {
	settings, err := readSettings(settingsPath)
	if err != nil || len(settings) == 0 {
		fmt.Println("No Claude Code settings found, nothing to disable.")
		return nil
	}

	hooks, ok := settings["hooks"].(map[string]interface{})
	if !ok {
		fmt.Println("No hooks configured, nothing to disable.")
		return nil
	}

	removed := false
	for event := range hookEvents {
		entries, _ := hooks[event].([]interface{})
		var kept []interface{}
		for _, e := range entries {
			if isRailguardEntry(e) {
				removed = true
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(hooks, event)
		} else {
			hooks[event] = kept
		}
	}

	if !removed {
		fmt.Println("railguard hooks not found, nothing to disable.")
		return nil
	}

	if len(hooks) == 0 {
		delete(settings, "hooks")
	} else {
		settings["hooks"] = hooks
	}

	if err := writeSettings(settingsPath, settings); err != nil {
		return err
	}
	fmt.Printf("railguard hooks removed from %s\n", settingsPath)
	return nil
}

func readSettings(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]interface{}{}, nil
		}
		return nil, err
	}
	var settings map[string]interface{}
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", path, err)
	}
	return settings, nil
}

func writeSettings(path string, settings map[string]interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func getOrCreateMap(m map[string]interface{}, key string) map[string]interface{} {
	if existing, ok := m[key].(map[string]interface{}); ok {
		return existing
	}
	return map[string]interface{}{}
}

func containsRailguardEntry(entries []interface{}) bool {
	for _, e := range entries {
		if isRailguardEntry(e) {
			return true
		}
	}
	return false
}

func isRailguardEntry(entry interface{}) bool {
	m, ok := entry.(map[string]interface{})
	if !ok {
		return false
	}
	subHooks, _ := m["hooks"].([]interface{})
	for _, h := range subHooks {
		hm, ok := h.(map[string]interface{})
		if !ok {
			continue
		}
		if cmdStr, _ := hm["command"].(string); cmdStr == hookCommandLine {
			return true
		}
	}
	return false
}
