package cli

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/nemo/internal/config"
	"github.com/mrz1836/nemo/internal/constants"
	"github.com/mrz1836/nemo/internal/errors"
	"github.com/mrz1836/nemo/internal/logging"
)

// newConfigCommand creates the config command group.
func newConfigCommand(flags *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create nemo configuration",
		Long: `Configuration is layered: built-in defaults, then ~/.nemo/config.yaml, then
.nemo.yaml (or config.json) in the current directory or the file given with
--config, then NEMO_* environment variables, then command-line flags.`,
	}
	cmd.AddCommand(newConfigShowCommand(flags), newConfigInitCommand())
	return cmd
}

// apiKeyStatus is the resolved API key state for one provider.
type apiKeyStatus struct {
	Provider string `json:"provider"`
	EnvVar   string `json:"env_var"`
	Value    string `json:"value"`
}

// newConfigShowCommand creates the config show command.
func newConfigShowCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context(), flags.ConfigPath)
			if err != nil {
				return errors.NewExitCode2Error(err)
			}
			return showConfig(cmd.OutOrStdout(), cfg, flags.Output)
		},
	}
}

// showConfig writes cfg with API keys redacted. Keys never live in config
// files, so only their environment variables and presence are shown.
func showConfig(w io.Writer, cfg *config.Config, format string) error {
	keys := resolveAPIKeys(cfg)

	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Config  *config.Config `json:"config"`
			APIKeys []apiKeyStatus `json:"api_keys"`
		}{cfg, keys})
	}

	data, err := config.Marshal(cfg, time.Now())
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, logging.FilterSensitiveValue(string(data))); err != nil {
		return err
	}

	s := newOutputStyles()
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, s.dim.Render("# API keys (read from the environment)"))
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "# %s: %s=%s\n", k.Provider, k.EnvVar, k.Value)
	}
	return nil
}

// resolveAPIKeys lists every provider that needs a key, with the value redacted.
func resolveAPIKeys(cfg *config.Config) []apiKeyStatus {
	providers := slices.Clone(knownProviders)
	for p := range cfg.LLM.APIKeyEnvVars {
		if !slices.Contains(providers, p) {
			providers = append(providers, p)
		}
	}
	slices.Sort(providers)

	keys := make([]apiKeyStatus, 0, len(providers))
	for _, p := range providers {
		envVar := cfg.LLM.APIKeyEnvVar(p)
		value := "(not set)"
		if v := os.Getenv(envVar); v != "" {
			value = logging.RedactIfSensitive("api_key", v)
		}
		keys = append(keys, apiKeyStatus{Provider: p, EnvVar: envVar, Value: value})
	}
	return keys
}

// configInitOptions holds the flags of the config init command.
type configInitOptions struct {
	global bool
	force  bool
	path   string
}

// newConfigInitCommand creates the config init command.
func newConfigInitCommand() *cobra.Command {
	opts := &configInitOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default values",
		Example: `  nemo config init
  nemo config init --global
  nemo config init --path ./team.nemo.yaml --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.global, "global", false, "write ~/.nemo/config.yaml instead of ./.nemo.yaml")
	cmd.Flags().BoolVar(&opts.force, "force", false, "overwrite an existing file (a .bak copy is kept)")
	cmd.Flags().StringVar(&opts.path, "path", "", "write to this file")
	cmd.MarkFlagsMutuallyExclusive("global", "path")

	return cmd
}

func initConfig(w io.Writer, opts *configInitOptions) error {
	path, err := configInitPath(opts)
	if err != nil {
		return err
	}

	if err := config.Save(path, config.DefaultConfig(), opts.force); err != nil {
		if stderrors.Is(err, os.ErrExist) {
			return errors.NewExitCode2Error(fmt.Errorf("%s already exists, use --force to overwrite: %w", path, err))
		}
		return err
	}

	logger := GetLogger()
	logger.Info().Str("path", path).Msg("configuration written")
	s := newOutputStyles()
	_, _ = fmt.Fprintln(w, s.success.Render("✓ Wrote "+path))
	return nil
}

func configInitPath(opts *configInitOptions) (string, error) {
	switch {
	case opts.path != "":
		return opts.path, nil
	case opts.global:
		return config.GlobalConfigPath()
	default:
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(wd, constants.ProjectConfigName), nil
	}
}
