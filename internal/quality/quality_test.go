package quality

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/nemo/internal/command"
	nemoerrors "github.com/mrz1836/nemo/internal/errors"
	"github.com/mrz1836/nemo/internal/metrics"
	"github.com/mrz1836/nemo/internal/testutil"
)

// fakeRunner returns canned results keyed by the tool name (argv[2]).
type fakeRunner struct {
	mu      sync.Mutex
	results map[string]command.Result
	errs    map[string]error
	calls   [][]string
}

func (f *fakeRunner) Run(_ context.Context, _ string, argv []string) (command.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, argv)
	tool := argv[2]
	return f.results[tool], f.errs[tool]
}

func (f *fakeRunner) toolOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c[2]
	}
	return out
}

// memWriter records writes in memory.
type memWriter struct {
	mu    sync.Mutex
	files map[string]string
	err   error
}

func (w *memWriter) Write(_ context.Context, path, content string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	if w.files == nil {
		w.files = make(map[string]string)
	}
	w.files[path] = content
	return nil
}

func TestParseLintScore(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 8.75, ParseLintScore("-----\nYour code has been rated at 8.75/10 (previous run: 7.50/10, +1.25)\n"), 0.0001)
	assert.InDelta(t, 10.0, ParseLintScore("Your code has been rated at 10.00/10"), 0.0001)
	assert.InDelta(t, 0.0, ParseLintScore("pylint: error: no such file"), 0.0001)
}

func TestParseComplexity(t *testing.T) {
	t.Parallel()

	n, ok := ParseComplexity("🧠 Total Cognitive Complexity in main.py: 12\n", "main.py")
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	n, ok = ParseComplexity("Total Cognitive Complexity in\n  /tmp/p/main.py:  31", "/tmp/p/main.py")
	assert.True(t, ok)
	assert.Equal(t, 31, n)

	_, ok = ParseComplexity("🧠 Total Cognitive Complexity in other.py: 4", "main.py")
	assert.False(t, ok)

	_, ok = ParseComplexity("", "main.py")
	assert.False(t, ok)
}

func TestParseTestOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		output   string
		exit     int
		passed   bool
		coverage int
	}{
		{
			name:     "all passed with coverage",
			output:   "tests/test_main.py::test_add PASSED\nTOTAL                 42      3    93%\n===== 3 passed in 0.12s =====",
			passed:   true,
			coverage: 93,
		},
		{
			name:     "failure reported in output",
			output:   "tests/test_main.py::test_add FAILED\nTOTAL  10  5  50%\n1 failed, 2 passed",
			exit:     1,
			passed:   false,
			coverage: 50,
		},
		{
			name:     "non-zero exit without failure text",
			output:   "ERROR collecting tests/test_main.py\nTOTAL  10  0  100%",
			exit:     2,
			passed:   false,
			coverage: 100,
		},
		{
			name:     "no coverage data forces failure",
			output:   "3 passed\nNo data to report.\n",
			passed:   false,
			coverage: 0,
		},
		{
			name:     "missing total row",
			output:   "5 passed",
			passed:   true,
			coverage: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ParseTestOutput(tc.output, tc.exit)
			assert.Equal(t, tc.passed, got.Passed)
			assert.Equal(t, tc.coverage, got.Coverage)
			assert.Equal(t, tc.output, got.Output)
		})
	}
}

func TestReport_NeedsImprovement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		report Report
		want   bool
	}{
		{name: "low score and high complexity", report: Report{Score: 7.5, Complexity: 20, ComplexityKnown: true}, want: true},
		{name: "high score and low complexity", report: Report{Score: 9.0, Complexity: 10, ComplexityKnown: true}, want: false},
		{name: "low score but low complexity", report: Report{Score: 5.0, Complexity: 3, ComplexityKnown: true}, want: false},
		{name: "high score but high complexity", report: Report{Score: 9.5, Complexity: 40, ComplexityKnown: true}, want: false},
		{name: "unknown complexity", report: Report{Score: 0}, want: false},
		{name: "complexity at threshold", report: Report{Score: 1, Complexity: 15, ComplexityKnown: true}, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.report.NeedsImprovement(8.0, 15))
		})
	}
}

func TestTestReport_NeedsImprovement(t *testing.T) {
	t.Parallel()

	assert.False(t, TestReport{Passed: true, Coverage: 80}.NeedsImprovement(80))
	assert.True(t, TestReport{Passed: true, Coverage: 79}.NeedsImprovement(80))
	assert.True(t, TestReport{Passed: false, Coverage: 100}.NeedsImprovement(80))
}

func TestGate_RunQualityChecks(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{
		results: map[string]command.Result{
			"pylint":     {Stdout: "main.py:1:0: C0114\nYour code has been rated at 7.50/10\n", ExitCode: 16},
			"complexipy": {Stdout: "🧠 Total Cognitive Complexity in main.py: 20\n"},
		},
		errs: map[string]error{
			"pylint": fmt.Errorf("%w: uv: exit status 16", nemoerrors.ErrCommandFailed),
		},
	}
	m := metrics.New()
	gate := NewGate(runner, DefaultTools(), zerolog.Nop(), m)

	report := gate.RunQualityChecks(context.Background(), t.TempDir(), "main.py")

	assert.InDelta(t, 7.5, report.Score, 0.0001)
	assert.InDelta(t, 0, testutil.GaugeValue(t, m.Registry(), "lint_score"), 0.0001, "gauges are owned by the run")
	assert.True(t, report.ComplexityKnown)
	assert.Equal(t, 20, report.Complexity)
	assert.Contains(t, report.LintOutput, "C0114")

	order := runner.toolOrder()
	require.Len(t, order, 3)
	assert.Equal(t, "autopep8", order[0], "formatter runs before the analyzers")
	assert.ElementsMatch(t, []string{"pylint", "complexipy"}, order[1:])
	for _, call := range runner.calls {
		assert.Equal(t, "main.py", call[len(call)-1])
	}
}

func TestGate_ToolsMissing(t *testing.T) {
	t.Parallel()

	notFound := testutil.ErrMockExecutableNotFound
	runner := &fakeRunner{
		results: map[string]command.Result{},
		errs:    map[string]error{"autopep8": notFound, "pylint": notFound, "complexipy": notFound},
	}

	report := NewGate(runner, DefaultTools(), zerolog.Nop(), nil).RunQualityChecks(context.Background(), t.TempDir(), "main.py")
	assert.InDelta(t, 0.0, report.Score, 0.0001)
	assert.False(t, report.ComplexityKnown)
}

func TestTestGate_RunTests(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "project_ab12cd34")
	runner := &fakeRunner{results: map[string]command.Result{
		"pytest": {Stdout: "TOTAL   20   2   90%\n4 passed\n"},
	}}
	writer := &memWriter{}

	m := metrics.New()
	report := NewTestGate(runner, writer, DefaultTools(), zerolog.Nop(), m).RunTests(context.Background(), dir)

	assert.True(t, report.Passed)
	assert.Equal(t, 90, report.Coverage)
	assert.InDelta(t, 0, testutil.GaugeValue(t, m.Registry(), "coverage_percent"), 0.0001, "gauges are owned by the run")

	rc, ok := writer.files[filepath.Join(dir, ".coveragerc")]
	require.True(t, ok)
	assert.Contains(t, rc, "source = project_ab12cd34")

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "--cov="+dir, runner.calls[0][len(runner.calls[0])-1])
}

func TestTestGate_RunnerNotStarted(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{
		results: map[string]command.Result{"pytest": {ExitCode: -1}},
		errs:    map[string]error{"pytest": os.ErrNotExist},
	}
	writer := &memWriter{err: testutil.ErrMockDiskFull}

	report := NewTestGate(runner, writer, DefaultTools(), zerolog.Nop(), nil).RunTests(context.Background(), t.TempDir())
	assert.False(t, report.Passed)
	assert.Equal(t, 0, report.Coverage)
	assert.Contains(t, report.Output, os.ErrNotExist.Error())
}
