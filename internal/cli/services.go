package cli

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/nemo/internal/command"
	"github.com/mrz1836/nemo/internal/config"
	"github.com/mrz1836/nemo/internal/fileio"
	"github.com/mrz1836/nemo/internal/flock"
	"github.com/mrz1836/nemo/internal/llm"
	"github.com/mrz1836/nemo/internal/metrics"
	"github.com/mrz1836/nemo/internal/orchestrator"
	"github.com/mrz1836/nemo/internal/project"
	"github.com/mrz1836/nemo/internal/quality"
	"github.com/mrz1836/nemo/internal/solution"
	"github.com/mrz1836/nemo/internal/syntax"
	"github.com/mrz1836/nemo/internal/validator"
)

// taskRunner runs one task to completion. Satisfied by *orchestrator.Orchestrator.
type taskRunner interface {
	Run(ctx context.Context, task string) *orchestrator.Result
}

// newTaskRunner builds the runner for a run command.
// Tests replace it to avoid real providers and external tools.
//
//nolint:gochecknoglobals // Test injection point
var newTaskRunner = buildOrchestrator

// buildOrchestrator wires every component from cfg. stream receives model
// output as it arrives when cfg.LLM.Stream is set.
func buildOrchestrator(cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics, stream io.Writer) (taskRunner, error) {
	llmCfg := llm.Config{
		Provider:          cfg.LLM.Provider,
		Model:             cfg.LLM.Model,
		BaseURL:           cfg.LLM.BaseURL,
		APIKey:            cfg.LLM.APIKey(),
		Temperature:       cfg.LLM.Temperature,
		MaxTokens:         cfg.LLM.MaxTokens,
		Timeout:           cfg.LLM.Timeout,
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
	}
	if cfg.LLM.Stream {
		llmCfg.Stream = stream
	}
	model, err := llm.New(llmCfg, logger, m)
	if err != nil {
		return nil, err
	}

	runner := &command.ExecRunner{}
	writer := fileio.NewWriter(
		flock.NewManager(logger),
		logger,
		writeOptions(cfg),
		fileio.WithMetrics(m),
	)

	tools := quality.Tools{
		Format:     cfg.Tools.Format,
		Lint:       cfg.Tools.Lint,
		Complexity: cfg.Tools.Complexity,
		Test:       cfg.Tools.Test,
		Timeout:    cfg.Tools.Timeout,
	}

	deps := orchestrator.Deps{
		Projects: project.NewCreator(runner, writer, logger, project.Options{
			BaseDir:      cfg.Project.BaseDir,
			Dependencies: cfg.Project.Dependencies,
			InstallUV:    cfg.Project.InstallUV,
		}),
		Model:     model,
		Validator: validator.New(model, logger),
		Content:   solution.NewValidator(syntax.NewChecker(), logger),
		Writer:    writer,
		Quality:   quality.NewGate(runner, tools, logger, m),
		Tests:     quality.NewTestGate(runner, writer, tools, logger, m),
		Metrics:   m,
	}

	return orchestrator.New(deps, thresholds(cfg), logger), nil
}

// writeOptions converts the configured second values into writer options.
func writeOptions(cfg *config.Config) fileio.Options {
	return fileio.Options{
		MaxAttempts: cfg.MaxWriteAttempts,
		RetryDelay:  seconds(cfg.WriteRetryDelay),
		LockTimeout: seconds(cfg.LockTimeout),
	}
}

// thresholds maps the configured quality gates onto orchestrator thresholds.
func thresholds(cfg *config.Config) orchestrator.Thresholds {
	return orchestrator.Thresholds{
		MaxImprovementAttempts: cfg.MaxImprovementAttempts,
		PylintThreshold:        cfg.PylintThreshold,
		ComplexipyThreshold:    cfg.ComplexipyThreshold,
		CoverageThreshold:      cfg.CoverageThreshold,
		InitAttempts:           cfg.Project.InitAttempts,
	}
}

func seconds(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}
