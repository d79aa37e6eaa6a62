// Package config provides configuration management for nemo with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (passed via LoadWithOverrides)
//  2. Environment variables (NEMO_* prefix, "." replaced by "_")
//  3. The file given with --config, or the project config in the working
//     directory (.nemo.yaml, then config.json)
//  4. Global config (~/.nemo/config.yaml)
//  5. Built-in defaults
//
// The top-level threshold keys keep their historical names, so an existing
// config.json loads unchanged.
//
// IMPORTANT: This package may import internal/constants, internal/errors and
// the leaf packages whose defaults it exposes (internal/quality,
// internal/project), but MUST NOT import internal/orchestrator or internal/cli.
package config

import (
	"os"
	"strings"
	"time"
)

// Config is the root configuration structure for nemo.
type Config struct {
	// MaxImprovementAttempts bounds each refinement loop. Default: 3
	MaxImprovementAttempts int `yaml:"max_improvement_attempts" mapstructure:"max_improvement_attempts" json:"max_improvement_attempts"`

	// PylintThreshold is the lint score a solution must reach. Default: 7.0
	PylintThreshold float64 `yaml:"pylint_threshold" mapstructure:"pylint_threshold" json:"pylint_threshold"`

	// ComplexipyThreshold is the cognitive complexity a solution must stay under. Default: 15
	ComplexipyThreshold int `yaml:"complexipy_threshold" mapstructure:"complexipy_threshold" json:"complexipy_threshold"`

	// CoverageThreshold is the minimum test coverage percentage. Default: 80
	CoverageThreshold int `yaml:"coverage_threshold" mapstructure:"coverage_threshold" json:"coverage_threshold"`

	// MaxWriteAttempts is the number of durable write attempts per file. Default: 3
	MaxWriteAttempts int `yaml:"max_write_attempts" mapstructure:"max_write_attempts" json:"max_write_attempts"`

	// WriteRetryDelay is the pause between write attempts, in seconds. Default: 1.0
	WriteRetryDelay float64 `yaml:"write_retry_delay" mapstructure:"write_retry_delay" json:"write_retry_delay"`

	// LockTimeout is how long a write waits for its file lock, in seconds. Default: 30
	LockTimeout float64 `yaml:"lock_timeout" mapstructure:"lock_timeout" json:"lock_timeout"`

	// LLM configures the language model provider.
	LLM LLMConfig `yaml:"llm" mapstructure:"llm" json:"llm"`

	// Tools configures the quality tool commands.
	Tools ToolsConfig `yaml:"tools" mapstructure:"tools" json:"tools"`

	// Project configures project creation.
	Project ProjectConfig `yaml:"project" mapstructure:"project" json:"project"`

	// Log configures the rotating log file.
	Log LogConfig `yaml:"log" mapstructure:"log" json:"log"`
}

// LLMConfig contains settings for the language model provider.
type LLMConfig struct {
	// Provider is one of ollama, claude, openai, groq. Default: ollama
	Provider string `yaml:"provider" mapstructure:"provider" json:"provider"`

	// Model is the provider's model name. Default: mistral-nemo
	Model string `yaml:"model" mapstructure:"model" json:"model"`

	// BaseURL overrides the provider endpoint. Empty uses the provider default.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" json:"base_url"`

	// APIKeyEnvVars maps provider names to the environment variable holding
	// their API key. Keys are never read from config files.
	APIKeyEnvVars map[string]string `yaml:"api_key_env_vars" mapstructure:"api_key_env_vars" json:"api_key_env_vars"`

	// Temperature is the sampling temperature. Default: 0.2
	Temperature float64 `yaml:"temperature" mapstructure:"temperature" json:"temperature"`

	// MaxTokens caps the completion length. Zero uses the provider default.
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens" json:"max_tokens"`

	// Timeout bounds one model request. Zero means no limit. Default: 10m
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" json:"timeout"`

	// RequestsPerMinute throttles requests. Zero disables throttling.
	RequestsPerMinute float64 `yaml:"requests_per_minute" mapstructure:"requests_per_minute" json:"requests_per_minute"`

	// Stream echoes model output to the terminal as it arrives.
	Stream bool `yaml:"stream" mapstructure:"stream" json:"stream"`
}

// APIKeyEnvVar returns the environment variable that holds provider's API key,
// or "" when the provider needs none.
func (c LLMConfig) APIKeyEnvVar(provider string) string {
	if name, ok := c.APIKeyEnvVars[provider]; ok {
		return name
	}
	return defaultAPIKeyEnvVars()[provider]
}

// APIKey resolves the API key for the configured provider from the environment.
func (c LLMConfig) APIKey() string {
	name := c.APIKeyEnvVar(c.Provider)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(name))
}

// ToolsConfig contains the argv of each quality tool.
type ToolsConfig struct {
	Format     []string `yaml:"format" mapstructure:"format" json:"format"`
	Lint       []string `yaml:"lint" mapstructure:"lint" json:"lint"`
	Complexity []string `yaml:"complexity" mapstructure:"complexity" json:"complexity"`
	Test       []string `yaml:"test" mapstructure:"test" json:"test"`

	// Timeout bounds one tool invocation. Zero means no limit. Default: 5m
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" json:"timeout"`
}

// ProjectConfig contains settings for project creation.
type ProjectConfig struct {
	// BaseDir is where project directories are created. Default: current directory
	BaseDir string `yaml:"base_dir" mapstructure:"base_dir" json:"base_dir"`

	// Dependencies are installed into every new project.
	Dependencies []string `yaml:"dependencies" mapstructure:"dependencies" json:"dependencies"`

	// InstallUV installs uv with pip when it is missing. Default: true
	InstallUV bool `yaml:"install_uv" mapstructure:"install_uv" json:"install_uv"`

	// InitAttempts is how many times the initial implementation is requested. Default: 3
	InitAttempts int `yaml:"init_attempts" mapstructure:"init_attempts" json:"init_attempts"`
}

// LogConfig contains settings for the log file.
type LogConfig struct {
	// Level is the minimum level written to the log file. Default: debug
	Level string `yaml:"level" mapstructure:"level" json:"level"`

	// File overrides the log file path. Empty uses ~/.nemo/logs/nemo.log.
	File string `yaml:"file" mapstructure:"file" json:"file"`

	// MaxSizeMB is the size at which the log file rotates.
	MaxSizeMB int `yaml:"max_size_mb" mapstructure:"max_size_mb" json:"max_size_mb"`

	// MaxBackups is the number of rotated files kept.
	MaxBackups int `yaml:"max_backups" mapstructure:"max_backups" json:"max_backups"`

	// MaxAgeDays is how long rotated files are kept.
	MaxAgeDays int `yaml:"max_age_days" mapstructure:"max_age_days" json:"max_age_days"`
}
