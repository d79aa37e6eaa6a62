package config

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mrz1836/nemo/internal/errors"
)

// envPrefix is the prefix of every environment override, e.g. NEMO_LLM_MODEL.
const envPrefix = "NEMO"

// newViperInstance creates a Viper instance with nemo's defaults and
// environment handling.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file not found error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// unmarshalAndValidate unmarshals viper config into Config struct and validates it.
func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Load reads configuration from all available sources with proper precedence.
// When path is non-empty it replaces the project config lookup and must exist.
//
// Missing global or project config files are not an error.
func Load(ctx context.Context, path string) (*Config, error) {
	v := newViperInstance()
	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()

	if global, ok := getGlobalConfigPathIfExists(); ok {
		if err := mergeFile(v, global); err != nil {
			return nil, errors.Wrap(err, "failed to read global config file")
		}
		logger.Debug().Str("path", global).Msg("loaded global config")
	}

	projectPath, err := resolveProjectConfig(path)
	if err != nil {
		return nil, err
	}
	if projectPath != "" {
		if err := mergeFile(v, projectPath); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", projectPath)
		}
		logger.Debug().Str("path", projectPath).Msg("loaded project config")
	}

	cfg, err := unmarshalAndValidate(v)
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("llm.provider", cfg.LLM.Provider).
		Str("llm.model", cfg.LLM.Model).
		Int("max_improvement_attempts", cfg.MaxImprovementAttempts).
		Msg("configuration loaded")
	return cfg, nil
}

// LoadWithOverrides loads configuration and applies CLI flag overrides.
// Only non-zero values in overrides are applied.
func LoadWithOverrides(ctx context.Context, path string, overrides *Config) (*Config, error) {
	cfg, err := Load(ctx, path)
	if err != nil {
		return nil, err
	}

	if overrides != nil {
		applyOverrides(cfg, overrides)
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration after overrides")
	}
	return cfg, nil
}

// LoadFromPaths loads configuration from specific files, lowest precedence
// first. Paths that do not exist are skipped. Environment overrides still apply.
func LoadFromPaths(_ context.Context, paths ...string) (*Config, error) {
	v := newViperInstance()
	for _, p := range paths {
		if p == "" || !fileExists(p) {
			continue
		}
		if err := mergeFile(v, p); err != nil {
			return nil, errors.Wrapf(err, "failed to read config: %s", p)
		}
	}
	return unmarshalAndValidate(v)
}

// resolveProjectConfig returns the explicit path if given, otherwise the
// first project config present in the working directory, otherwise "".
func resolveProjectConfig(explicit string) (string, error) {
	if explicit != "" {
		if !fileExists(explicit) {
			return "", errors.Wrapf(os.ErrNotExist, "config file %s", explicit)
		}
		return explicit, nil
	}
	for _, p := range ProjectConfigPaths(".") {
		if fileExists(p) {
			return p, nil
		}
	}
	return "", nil
}

// getGlobalConfigPathIfExists returns the global config path if it exists.
func getGlobalConfigPathIfExists() (string, bool) {
	p, err := GlobalConfigPath()
	if err != nil || !fileExists(p) {
		return "", false
	}
	return p, true
}

func mergeFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
		return err
	}
	return nil
}

// fileExists returns true if the file at path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// setDefaults configures all default values on the Viper instance.
// Keys must match the mapstructure tag names exactly.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("max_improvement_attempts", d.MaxImprovementAttempts)
	v.SetDefault("pylint_threshold", d.PylintThreshold)
	v.SetDefault("complexipy_threshold", d.ComplexipyThreshold)
	v.SetDefault("coverage_threshold", d.CoverageThreshold)
	v.SetDefault("max_write_attempts", d.MaxWriteAttempts)
	v.SetDefault("write_retry_delay", d.WriteRetryDelay)
	v.SetDefault("lock_timeout", d.LockTimeout)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.api_key_env_vars", d.LLM.APIKeyEnvVars)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.timeout", d.LLM.Timeout.String())
	v.SetDefault("llm.requests_per_minute", d.LLM.RequestsPerMinute)
	v.SetDefault("llm.stream", d.LLM.Stream)

	v.SetDefault("tools.format", d.Tools.Format)
	v.SetDefault("tools.lint", d.Tools.Lint)
	v.SetDefault("tools.complexity", d.Tools.Complexity)
	v.SetDefault("tools.test", d.Tools.Test)
	v.SetDefault("tools.timeout", d.Tools.Timeout.String())

	v.SetDefault("project.base_dir", d.Project.BaseDir)
	v.SetDefault("project.dependencies", d.Project.Dependencies)
	v.SetDefault("project.install_uv", d.Project.InstallUV)
	v.SetDefault("project.init_attempts", d.Project.InitAttempts)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
}

// applyOverrides merges non-zero override values into the config.
//
// Boolean fields can only be switched on here; the CLI sets them explicitly
// when a flag was changed.
func applyOverrides(cfg, overrides *Config) {
	if overrides.LLM.Provider != "" {
		cfg.LLM.Provider = overrides.LLM.Provider
	}
	if overrides.LLM.Model != "" {
		cfg.LLM.Model = overrides.LLM.Model
	}
	if overrides.LLM.BaseURL != "" {
		cfg.LLM.BaseURL = overrides.LLM.BaseURL
	}
	if overrides.LLM.Stream {
		cfg.LLM.Stream = true
	}
	if overrides.MaxImprovementAttempts != 0 {
		cfg.MaxImprovementAttempts = overrides.MaxImprovementAttempts
	}
	if overrides.Project.BaseDir != "" {
		cfg.Project.BaseDir = overrides.Project.BaseDir
	}
}

// viperDecoderOption returns the decoder options for Viper unmarshal. Durations
// decode from strings and lists from comma-separated environment values.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	)
}
