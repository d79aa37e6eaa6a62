package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Marshal renders cfg as YAML with a generated header.
func Marshal(cfg *Config, now time.Time) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	header := fmt.Sprintf("# nemo configuration\n# Generated by nemo config init on %s\n"+
		"# API keys are read from the environment variables named in llm.api_key_env_vars.\n\n",
		now.Format(time.RFC3339))
	return append([]byte(header), data...), nil
}

// Save writes cfg to path as YAML. An existing file is only replaced when
// force is set; the previous content is kept next to it with a .bak suffix.
func Save(path string, cfg *Config, force bool) error {
	if fileExists(path) {
		if !force {
			return fmt.Errorf("%w: %s already exists", os.ErrExist, path)
		}
		if err := copyFile(path, path+".bak"); err != nil {
			return fmt.Errorf("failed to back up %s: %w", path, err)
		}
	}

	data, err := Marshal(cfg, time.Now())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src) //nolint:gosec // Source is config file
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o600)
}
