package config

import (
	"time"

	"github.com/mrz1836/nemo/internal/constants"
	"github.com/mrz1836/nemo/internal/project"
	"github.com/mrz1836/nemo/internal/quality"
)

// Default timeouts.
const (
	defaultLLMTimeout  = 10 * time.Minute
	defaultToolTimeout = 5 * time.Minute
	defaultTemperature = 0.2
	defaultLogLevel    = "debug"
)

func defaultAPIKeyEnvVars() map[string]string {
	return map[string]string{
		"claude": "ANTHROPIC_API_KEY",
		"openai": "OPENAI_API_KEY",
		"groq":   "GROQ_API_KEY",
	}
}

// DefaultConfig returns a new Config with the built-in defaults.
func DefaultConfig() *Config {
	tools := quality.DefaultTools()
	return &Config{
		MaxImprovementAttempts: constants.DefaultMaxImprovementAttempts,
		PylintThreshold:        constants.DefaultPylintThreshold,
		ComplexipyThreshold:    constants.DefaultComplexipyThreshold,
		CoverageThreshold:      constants.DefaultCoverageThreshold,
		MaxWriteAttempts:       constants.DefaultMaxWriteAttempts,
		WriteRetryDelay:        constants.DefaultWriteRetryDelay,
		LockTimeout:            constants.DefaultLockTimeout,
		LLM: LLMConfig{
			Provider:      constants.DefaultProvider,
			Model:         constants.DefaultModel,
			APIKeyEnvVars: defaultAPIKeyEnvVars(),
			Temperature:   defaultTemperature,
			Timeout:       defaultLLMTimeout,
		},
		Tools: ToolsConfig{
			Format:     tools.Format,
			Lint:       tools.Lint,
			Complexity: tools.Complexity,
			Test:       tools.Test,
			Timeout:    defaultToolTimeout,
		},
		Project: ProjectConfig{
			BaseDir:      ".",
			Dependencies: project.DefaultDependencies(),
			InstallUV:    true,
			InitAttempts: constants.DefaultInitAttempts,
		},
		Log: LogConfig{
			Level:      defaultLogLevel,
			MaxSizeMB:  constants.LogMaxSizeMB,
			MaxBackups: constants.LogMaxBackups,
			MaxAgeDays: constants.LogMaxAgeDays,
		},
	}
}
