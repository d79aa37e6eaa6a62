package quality

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/nemo/internal/command"
	"github.com/mrz1836/nemo/internal/metrics"
)

// Gate measures lint score and cognitive complexity for a source file.
type Gate struct {
	runner  command.Runner
	tools   Tools
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewGate creates a Gate. A nil metrics disables instrumentation.
func NewGate(runner command.Runner, tools Tools, logger zerolog.Logger, m *metrics.Metrics) *Gate {
	return &Gate{
		runner:  runner,
		tools:   tools,
		logger:  logger.With().Str("component", "quality").Logger(),
		metrics: m,
	}
}

// RunQualityChecks formats file in place, then runs the linter and the
// complexity analyzer concurrently. Tool failures are logged and reflected in
// the report (score 0, complexity unknown); this method never fails.
func (g *Gate) RunQualityChecks(ctx context.Context, dir, file string) Report {
	if _, err := run(ctx, g.runner, g.tools.Timeout, dir, withArgs(g.tools.Format, file), g.metrics, "format"); err != nil {
		g.logger.Warn().Err(err).Str("file", file).Msg("formatter failed")
	}

	var lint, complexity command.Result
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		res, err := run(egCtx, g.runner, g.tools.Timeout, dir, withArgs(g.tools.Lint, file), g.metrics, "lint")
		if err != nil {
			// pylint exits non-zero whenever it reports messages.
			g.logger.Debug().Err(err).Int("exit_code", res.ExitCode).Msg("linter exited with findings")
		}
		lint = res
		return nil
	})
	eg.Go(func() error {
		res, err := run(egCtx, g.runner, g.tools.Timeout, dir, withArgs(g.tools.Complexity, file), g.metrics, "complexity")
		if err != nil {
			g.logger.Debug().Err(err).Int("exit_code", res.ExitCode).Msg("complexity analyzer exited non-zero")
		}
		complexity = res
		return nil
	})
	_ = eg.Wait()

	report := Report{
		Score:            ParseLintScore(lint.Output()),
		LintOutput:       lint.Output(),
		ComplexityOutput: complexity.Output(),
	}
	report.Complexity, report.ComplexityKnown = ParseComplexity(report.ComplexityOutput, file)
	if !report.ComplexityKnown && filepath.Base(file) != file {
		report.Complexity, report.ComplexityKnown = ParseComplexity(report.ComplexityOutput, filepath.Base(file))
	}

	event := g.logger.Info().Str("file", file).Float64("lint_score", report.Score)
	if report.ComplexityKnown {
		event = event.Int("complexity", report.Complexity)
	} else {
		event = event.Str("complexity", "unknown")
	}
	event.Msg("code quality measured")

	return report
}

// run executes one tool with an optional timeout and records its duration.
func run(ctx context.Context, runner command.Runner, timeout time.Duration, dir string, argv []string, m *metrics.Metrics, tool string) (command.Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	res, err := runner.Run(ctx, dir, argv)
	m.ToolRun(tool, time.Since(start))
	return res, err
}
