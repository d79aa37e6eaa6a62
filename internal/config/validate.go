package config

import (
	"github.com/rs/zerolog"

	"github.com/mrz1836/nemo/internal/errors"
)

// Upper bounds of the threshold ranges.
const (
	maxPylintScore = 10.0
	maxCoverage    = 100
	maxTemperature = 2.0
)

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - max_improvement_attempts and project.init_attempts must be at least 1
//   - pylint_threshold must be between 0 and 10, coverage_threshold between 0 and 100
//   - complexipy_threshold must not be negative
//   - max_write_attempts must be at least 1, delays and lock_timeout must not be negative
//   - llm.provider and llm.model must be set
//   - every tool command must be set
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if err := validateThresholds(cfg); err != nil {
		return err
	}
	if err := validateWrite(cfg); err != nil {
		return err
	}
	if err := validateLLMConfig(&cfg.LLM); err != nil {
		return err
	}
	if err := validateToolsConfig(&cfg.Tools); err != nil {
		return err
	}
	return validateLogConfig(&cfg.Log)
}

func validateThresholds(cfg *Config) error {
	if cfg.MaxImprovementAttempts < 1 {
		return errors.Wrapf(errors.ErrConfigInvalidThreshold,
			"max_improvement_attempts must be at least 1, got %d", cfg.MaxImprovementAttempts)
	}
	if cfg.PylintThreshold < 0 || cfg.PylintThreshold > maxPylintScore {
		return errors.Wrapf(errors.ErrConfigInvalidThreshold,
			"pylint_threshold must be between 0 and %.0f, got %.2f", maxPylintScore, cfg.PylintThreshold)
	}
	if cfg.ComplexipyThreshold < 0 {
		return errors.Wrapf(errors.ErrConfigInvalidThreshold,
			"complexipy_threshold cannot be negative, got %d", cfg.ComplexipyThreshold)
	}
	if cfg.CoverageThreshold < 0 || cfg.CoverageThreshold > maxCoverage {
		return errors.Wrapf(errors.ErrConfigInvalidThreshold,
			"coverage_threshold must be between 0 and %d, got %d", maxCoverage, cfg.CoverageThreshold)
	}
	if cfg.Project.InitAttempts < 1 {
		return errors.Wrapf(errors.ErrConfigInvalidThreshold,
			"project.init_attempts must be at least 1, got %d", cfg.Project.InitAttempts)
	}
	return nil
}

func validateWrite(cfg *Config) error {
	if cfg.MaxWriteAttempts < 1 {
		return errors.Wrapf(errors.ErrConfigInvalidWrite,
			"max_write_attempts must be at least 1, got %d", cfg.MaxWriteAttempts)
	}
	if cfg.WriteRetryDelay < 0 {
		return errors.Wrapf(errors.ErrConfigInvalidWrite,
			"write_retry_delay cannot be negative, got %g", cfg.WriteRetryDelay)
	}
	if cfg.LockTimeout < 0 {
		return errors.Wrapf(errors.ErrConfigInvalidWrite,
			"lock_timeout cannot be negative, got %g", cfg.LockTimeout)
	}
	return nil
}

func validateLLMConfig(cfg *LLMConfig) error {
	if cfg.Provider == "" {
		return errors.Wrap(errors.ErrConfigInvalidLLM, "llm.provider must not be empty")
	}
	if cfg.Model == "" {
		return errors.Wrap(errors.ErrConfigInvalidLLM, "llm.model must not be empty")
	}
	if cfg.Temperature < 0 || cfg.Temperature > maxTemperature {
		return errors.Wrapf(errors.ErrConfigInvalidLLM,
			"llm.temperature must be between 0 and %.0f, got %g", maxTemperature, cfg.Temperature)
	}
	if cfg.MaxTokens < 0 {
		return errors.Wrapf(errors.ErrConfigInvalidLLM, "llm.max_tokens cannot be negative, got %d", cfg.MaxTokens)
	}
	if cfg.Timeout < 0 {
		return errors.Wrapf(errors.ErrConfigInvalidLLM, "llm.timeout cannot be negative, got %s", cfg.Timeout)
	}
	if cfg.RequestsPerMinute < 0 {
		return errors.Wrapf(errors.ErrConfigInvalidLLM,
			"llm.requests_per_minute cannot be negative, got %g", cfg.RequestsPerMinute)
	}
	return nil
}

func validateToolsConfig(cfg *ToolsConfig) error {
	commands := []struct {
		key  string
		argv []string
	}{
		{"tools.format", cfg.Format},
		{"tools.lint", cfg.Lint},
		{"tools.complexity", cfg.Complexity},
		{"tools.test", cfg.Test},
	}
	for _, c := range commands {
		if len(c.argv) == 0 || c.argv[0] == "" {
			return errors.Wrapf(errors.ErrConfigInvalidTools, "%s must not be empty", c.key)
		}
	}
	if cfg.Timeout < 0 {
		return errors.Wrapf(errors.ErrConfigInvalidTools, "tools.timeout cannot be negative, got %s", cfg.Timeout)
	}
	return nil
}

func validateLogConfig(cfg *LogConfig) error {
	if cfg.Level == "" {
		return nil
	}
	if _, err := zerolog.ParseLevel(cfg.Level); err != nil {
		return errors.Wrapf(errors.ErrValueOutOfRange, "log.level %q", cfg.Level)
	}
	return nil
}
