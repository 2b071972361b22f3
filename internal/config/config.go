package config

import (
	"os"
	"path/filepath"

	"github.com/railguard/railguard/internal/session"
)

const (
	DefaultConfigDir       = ".railguard"
	DefaultConstraintsFile = "railguard.yaml"
	DefaultLogFile         = "violations.jsonl"
	DefaultStatusFile      = "status.json"
)

// Config resolves the filesystem layout for one process. Flag values win
// over the defaults under ~/.railguard.
type Config struct {
	ConfigDir       string
	ConstraintsPath string
	LogPath         string
	StatusPath      string
	StateDir        string
}

// Load resolves paths, creating the config directory if needed.
func Load(constraintsPath, logPath, stateDir string) (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	configDir := filepath.Join(homeDir, DefaultConfigDir)
	if err := ensureDir(configDir); err != nil {
		return nil, err
	}

	cfg := &Config{
		ConfigDir:       configDir,
		ConstraintsPath: filepath.Join(configDir, DefaultConstraintsFile),
		LogPath:         filepath.Join(configDir, DefaultLogFile),
		StatusPath:      filepath.Join(configDir, DefaultStatusFile),
		StateDir:        session.DefaultDir(),
	}

	if constraintsPath != "" {
		cfg.ConstraintsPath = constraintsPath
	}
	if logPath != "" {
		cfg.LogPath = logPath
	}
	if stateDir != "" {
		cfg.StateDir = stateDir
	}

	return cfg, nil
}

func ensureDir(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, 0o700)
	}
	return nil
}
