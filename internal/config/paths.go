package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrz1836/nemo/internal/constants"
	"github.com/mrz1836/nemo/internal/errors"
)

// GlobalConfigDir returns the path to the nemo home directory, typically ~/.nemo.
//
// Returns an error if the home directory cannot be determined.
func GlobalConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, constants.NemoHome), nil
}

// GlobalConfigPath returns the full path to the global configuration file.
func GlobalConfigPath() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", fmt.Errorf("get global config path: %w", err)
	}
	return filepath.Join(dir, constants.GlobalConfigName), nil
}

// ProjectConfigPaths returns the project config files looked up in dir, in
// order of preference.
func ProjectConfigPaths(dir string) []string {
	return []string{
		filepath.Join(dir, constants.ProjectConfigName),
		filepath.Join(dir, constants.LegacyConfigName),
	}
}

// LogFilePath returns the log file path for cfg.
func LogFilePath(cfg *Config) (string, error) {
	if cfg != nil && cfg.Log.File != "" {
		return cfg.Log.File, nil
	}
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.LogsDir, constants.CLILogFileName), nil
}
