package quality

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrz1836/nemo/internal/command"
	"github.com/mrz1836/nemo/internal/constants"
	"github.com/mrz1836/nemo/internal/metrics"
)

// FileWriter persists a file. Satisfied by *fileio.Writer.
type FileWriter interface {
	Write(ctx context.Context, path, content string) error
}

// coverageRC is the coverage.py configuration written before every test run.
const coverageRC = `[run]
source = %s
omit =
    */__init__.py
    tests/*
    **/test_*.py

[report]
exclude_lines =
    pragma: no cover
    def __repr__
    if self.debug:
    if __name__ == .__main__.:
    raise NotImplementedError
    pass
    except ImportError:
    def main
`

// CoverageRC renders the coverage configuration for a project.
func CoverageRC(projectName string) string {
	return fmt.Sprintf(coverageRC, projectName)
}

// TestGate runs the project's tests with coverage.
type TestGate struct {
	runner  command.Runner
	writer  FileWriter
	tools   Tools
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewTestGate creates a TestGate that writes its coverage config through writer.
func NewTestGate(runner command.Runner, writer FileWriter, tools Tools, logger zerolog.Logger, m *metrics.Metrics) *TestGate {
	return &TestGate{
		runner:  runner,
		writer:  writer,
		tools:   tools,
		logger:  logger.With().Str("component", "tests").Logger(),
		metrics: m,
	}
}

// RunTests writes .coveragerc into dir and runs the test command with
// coverage for dir. Failures to write or run are logged and reported as a
// failed TestReport; this method never fails.
func (g *TestGate) RunTests(ctx context.Context, dir string) TestReport {
	rcPath := filepath.Join(dir, constants.CoverageRCFileName)
	if err := g.writer.Write(ctx, rcPath, CoverageRC(filepath.Base(dir))); err != nil {
		g.logger.Error().Err(err).Str("path", rcPath).Msg("failed to write coverage config")
	}

	res, err := run(ctx, g.runner, g.tools.Timeout, dir, withArgs(g.tools.Test, "--cov="+dir), g.metrics, "test")
	if err != nil && res.ExitCode < 0 {
		g.logger.Error().Err(err).Msg("test runner could not be started")
		return TestReport{Passed: false, Coverage: 0, Output: strings.TrimSpace(res.Output() + "\n" + err.Error())}
	}

	report := ParseTestOutput(res.Output(), res.ExitCode)

	g.logger.Info().
		Bool("passed", report.Passed).
		Int("coverage", report.Coverage).
		Int("exit_code", res.ExitCode).
		Msg("tests finished")
	g.logger.Debug().Str("output", report.Output).Msg("pytest output")

	return report
}
