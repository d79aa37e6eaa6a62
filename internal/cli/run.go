package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mrz1836/nemo/internal/config"
	"github.com/mrz1836/nemo/internal/constants"
	"github.com/mrz1836/nemo/internal/errors"
	"github.com/mrz1836/nemo/internal/metrics"
	"github.com/mrz1836/nemo/internal/orchestrator"
	"github.com/mrz1836/nemo/internal/project"
	"github.com/mrz1836/nemo/internal/signal"
)

// runOptions holds the flags of the run command.
type runOptions struct {
	file        string
	provider    string
	model       string
	baseDir     string
	zip         string
	metricsFile string
	stream      bool
	maxAttempts int
}

// stdinIsTerminal reports whether the task may be prompted for interactively.
//
//nolint:gochecknoglobals // Test injection point
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// promptForTask asks for the task with an interactive form.
//
//nolint:gochecknoglobals // Test injection point
var promptForTask = func(ctx context.Context) (string, error) {
	var task string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("What should nemo build?").
				Description("Describe the program to generate.").
				Value(&task).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.ErrTaskRequired
					}
					return nil
				}),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		return "", err
	}
	return task, nil
}

// newRunCommand creates the run command.
func newRunCommand(flags *GlobalFlags) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [task]",
		Short: "Generate, check and refine a Python project for a task",
		Long: `Run asks the language model for an implementation of the task, writes it into
a fresh uv project, then refines the code against pylint and complexipy and the
tests against pytest coverage until the thresholds are met or the attempts run out.

The task can be given as arguments, read from a file with --file, or typed
interactively when no task is given on a terminal.`,
		Example: `  nemo run "Create a CLI that converts CSV to JSON"
  nemo run --file task.md --provider claude --zip result.zip
  nemo run -o json --metrics-file nemo.prom "Implement a bank account class"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(cmd, flags, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "read the task from a file")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "language model provider (ollama|claude|openai|groq)")
	cmd.Flags().StringVar(&opts.model, "model", "", "model name for the provider")
	cmd.Flags().StringVar(&opts.baseDir, "dir", "", "directory the project is created in")
	cmd.Flags().StringVar(&opts.zip, "zip", "", "archive the project to this zip file and remove the directory")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "write run metrics in Prometheus text format")
	cmd.Flags().BoolVar(&opts.stream, "stream", false, "stream model output to stderr")
	cmd.Flags().IntVar(&opts.maxAttempts, "max-attempts", 0, "override max_improvement_attempts")

	return cmd
}

// runTask executes one run and reports its outcome.
func runTask(cmd *cobra.Command, flags *GlobalFlags, opts *runOptions, args []string) error {
	logger := GetLogger()
	ctx := logger.WithContext(cmd.Context())
	out := cmd.OutOrStdout()

	task, err := resolveTask(ctx, args, opts.file)
	if err != nil {
		return err
	}

	overrides := &config.Config{
		MaxImprovementAttempts: opts.maxAttempts,
		LLM: config.LLMConfig{
			Provider: opts.provider,
			Model:    opts.model,
			Stream:   opts.stream,
		},
		Project: config.ProjectConfig{BaseDir: opts.baseDir},
	}
	cfg, err := config.LoadWithOverrides(ctx, flags.ConfigPath, overrides)
	if err != nil {
		return errors.NewExitCode2Error(err)
	}

	m := metrics.New()
	runner, err := newTaskRunner(cfg, logger, m, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	sig := signal.NewHandler(ctx)
	defer sig.Stop()

	logger.Info().
		Str("provider", cfg.LLM.Provider).
		Str("model", cfg.LLM.Model).
		Int("max_improvement_attempts", cfg.MaxImprovementAttempts).
		Msg("starting run")

	res := runner.Run(sig.Context(), task)
	if sig.WasInterrupted() {
		logger.Warn().Str("run_id", res.RunID).Msg("run interrupted")
	}

	archive := packageResult(res, opts.zip, logger)

	if opts.metricsFile != "" {
		if err := m.WriteToTextfile(opts.metricsFile); err != nil {
			logger.Warn().Err(err).Str("path", opts.metricsFile).Msg("failed to write metrics file")
		}
	}

	if flags.Output == OutputJSON {
		if err := writeSummaryJSON(out, res, archive); err != nil {
			return fmt.Errorf("failed to encode summary: %w", err)
		}
	} else {
		writeSummaryText(out, res, thresholds(cfg), archive)
	}

	switch res.Status {
	case constants.RunStatusFailed:
		if res.Err == nil {
			return errors.ErrRunFailed
		}
		return fmt.Errorf("%w: %w", errors.ErrRunFailed, res.Err)
	case constants.RunStatusPartial:
		logger.Warn().Str("run_id", res.RunID).Msg("run finished below the quality thresholds")
	case constants.RunStatusSucceeded:
		logger.Info().Str("run_id", res.RunID).Dur("duration", res.Duration()).Msg("run succeeded")
	}
	return nil
}

// resolveTask returns the task from args, the task file, or an interactive
// prompt, in that order.
func resolveTask(ctx context.Context, args []string, file string) (string, error) {
	if file != "" {
		if len(args) > 0 {
			return "", errors.NewExitCode2Error(fmt.Errorf("%w: give the task as arguments or with --file, not both", errors.ErrTaskRequired))
		}
		data, err := os.ReadFile(file) //#nosec G304 -- user-supplied task file
		if err != nil {
			return "", fmt.Errorf("failed to read task file: %w", err)
		}
		return requireTask(string(data))
	}

	if len(args) > 0 {
		return requireTask(strings.Join(args, " "))
	}

	if !stdinIsTerminal() {
		return "", errors.NewExitCode2Error(errors.ErrTaskRequired)
	}
	task, err := promptForTask(ctx)
	if err != nil {
		return "", err
	}
	return requireTask(task)
}

func requireTask(task string) (string, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return "", errors.NewExitCode2Error(errors.ErrTaskRequired)
	}
	return task, nil
}

// packageResult archives the project when zipPath is set and the run did not
// fail. It returns the archive path, or "" when nothing was archived.
func packageResult(res *orchestrator.Result, zipPath string, logger zerolog.Logger) string {
	if zipPath == "" || res.Project == nil || res.Status == constants.RunStatusFailed {
		return ""
	}
	if err := project.Package(res.Project, zipPath); err != nil {
		logger.Error().Err(err).Str("zip", zipPath).Msg("failed to package project")
		return ""
	}
	logger.Info().Str("zip", zipPath).Str("project", res.Project.Name).Msg("project packaged")
	return zipPath
}
