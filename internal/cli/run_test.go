package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/nemo/internal/config"
	"github.com/mrz1836/nemo/internal/constants"
	"github.com/mrz1836/nemo/internal/errors"
	"github.com/mrz1836/nemo/internal/metrics"
	"github.com/mrz1836/nemo/internal/orchestrator"
	"github.com/mrz1836/nemo/internal/project"
	"github.com/mrz1836/nemo/internal/quality"
)

// fakeRunner returns a canned result and records what it was asked to do.
type fakeRunner struct {
	res  *orchestrator.Result
	task string
	cfg  *config.Config
}

func (f *fakeRunner) Run(_ context.Context, task string) *orchestrator.Result {
	f.task = task
	return f.res
}

// useRunner swaps the orchestrator factory for the duration of the test.
func useRunner(t *testing.T, r *fakeRunner) {
	t.Helper()
	orig := newTaskRunner
	newTaskRunner = func(cfg *config.Config, _ zerolog.Logger, m *metrics.Metrics, _ io.Writer) (taskRunner, error) {
		r.cfg = cfg
		m.RunFinished(string(r.res.Status), r.res.Duration())
		return r, nil
	}
	t.Cleanup(func() { newTaskRunner = orig })
}

// executeRoot runs the root command with an isolated home directory and a
// default configuration file.
func executeRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")

	cfgPath := filepath.Join(t.TempDir(), constants.ProjectConfigName)
	require.NoError(t, config.Save(cfgPath, config.DefaultConfig(), false))

	cmd := newRootCmd(&GlobalFlags{}, BuildInfo{Version: "1.2.3"})
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))

	err := cmd.ExecuteContext(context.Background())
	CloseLogFile()
	return stdout.String(), stderr.String(), err
}

func resultWith(status constants.RunStatus) *orchestrator.Result {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	res := &orchestrator.Result{
		RunID:                 "run-1",
		Status:                status,
		Stage:                 constants.StageDone,
		InitialImplementation: true,
		Code:                  quality.Report{Score: 9.1, Complexity: 4, ComplexityKnown: true},
		Tests:                 quality.TestReport{Passed: true, Coverage: 92},
		StartedAt:             start,
		CompletedAt:           start.Add(90 * time.Second),
	}
	if status == constants.RunStatusFailed {
		res.Stage = constants.StageFailed
		res.FailedStage = constants.StageInitialImplementation
		res.Err = errors.ErrLLMUnavailable
	}
	return res
}

func TestRunCommand_Succeeded(t *testing.T) {
	r := &fakeRunner{res: resultWith(constants.RunStatusSucceeded)}
	useRunner(t, r)

	stdout, _, err := executeRoot(t, "run", "Build", "a", "calculator")
	require.NoError(t, err)

	assert.Equal(t, "Build a calculator", r.task)
	assert.Contains(t, stdout, "succeeded")
	assert.Contains(t, stdout, "9.10/10")
	assert.Contains(t, stdout, "92%")
}

func TestRunCommand_FlagOverrides(t *testing.T) {
	r := &fakeRunner{res: resultWith(constants.RunStatusSucceeded)}
	useRunner(t, r)

	_, _, err := executeRoot(t, "run", "--provider", "groq", "--model", "llama-3.3-70b", "--max-attempts", "5", "task")
	require.NoError(t, err)

	require.NotNil(t, r.cfg)
	assert.Equal(t, "groq", r.cfg.LLM.Provider)
	assert.Equal(t, "llama-3.3-70b", r.cfg.LLM.Model)
	assert.Equal(t, 5, r.cfg.MaxImprovementAttempts)
}

func TestRunCommand_PartialIsNotAnError(t *testing.T) {
	res := resultWith(constants.RunStatusPartial)
	res.Tests = quality.TestReport{Passed: false, Coverage: 40}
	useRunner(t, &fakeRunner{res: res})

	stdout, _, err := executeRoot(t, "run", "task")
	require.NoError(t, err)
	assert.Contains(t, stdout, "partial")
	assert.Equal(t, ExitSuccess, ExitCodeForError(err))
}

func TestRunCommand_FailedReturnsRunFailed(t *testing.T) {
	useRunner(t, &fakeRunner{res: resultWith(constants.RunStatusFailed)})

	stdout, _, err := executeRoot(t, "run", "task")
	require.Error(t, err)
	require.ErrorIs(t, err, errors.ErrRunFailed)
	require.ErrorIs(t, err, errors.ErrLLMUnavailable)
	assert.Equal(t, ExitError, ExitCodeForError(err))
	assert.Contains(t, stdout, "initial_implementation")
}

func TestRunCommand_JSONOutput(t *testing.T) {
	useRunner(t, &fakeRunner{res: resultWith(constants.RunStatusFailed)})

	stdout, _, err := executeRoot(t, "-o", "json", "run", "task")
	require.ErrorIs(t, err, errors.ErrRunFailed)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, "run-1", got["run_id"])
	assert.Equal(t, "failed", got["status"])
	assert.Equal(t, "initial_implementation", got["failed_stage"])
	assert.Equal(t, errors.ErrLLMUnavailable.Error(), got["error"])
	assert.InDelta(t, 90000, got["duration_ms"], 0.1)
}

func TestRunCommand_TaskFromFile(t *testing.T) {
	r := &fakeRunner{res: resultWith(constants.RunStatusSucceeded)}
	useRunner(t, r)

	taskFile := filepath.Join(t.TempDir(), "task.md")
	require.NoError(t, os.WriteFile(taskFile, []byte("  Write a todo app\n"), 0o600))

	_, _, err := executeRoot(t, "run", "--file", taskFile)
	require.NoError(t, err)
	assert.Equal(t, "Write a todo app", r.task)
}

func TestRunCommand_NoTaskWithoutTerminal(t *testing.T) {
	useRunner(t, &fakeRunner{res: resultWith(constants.RunStatusSucceeded)})
	origTTY := stdinIsTerminal
	stdinIsTerminal = func() bool { return false }
	t.Cleanup(func() { stdinIsTerminal = origTTY })

	_, _, err := executeRoot(t, "run")
	require.ErrorIs(t, err, errors.ErrTaskRequired)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestRunCommand_PromptsOnTerminal(t *testing.T) {
	r := &fakeRunner{res: resultWith(constants.RunStatusSucceeded)}
	useRunner(t, r)
	origTTY, origPrompt := stdinIsTerminal, promptForTask
	stdinIsTerminal = func() bool { return true }
	promptForTask = func(context.Context) (string, error) { return "prompted task", nil }
	t.Cleanup(func() { stdinIsTerminal, promptForTask = origTTY, origPrompt })

	_, _, err := executeRoot(t, "run")
	require.NoError(t, err)
	assert.Equal(t, "prompted task", r.task)
}

func TestRunCommand_WritesMetricsFile(t *testing.T) {
	useRunner(t, &fakeRunner{res: resultWith(constants.RunStatusSucceeded)})
	metricsFile := filepath.Join(t.TempDir(), "nemo.prom")

	_, _, err := executeRoot(t, "run", "--metrics-file", metricsFile, "task")
	require.NoError(t, err)

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "nemo_")
}

func TestRunCommand_ZipPackagesProject(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "project_0123abcd")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte("print('hi')\n"), 0o600))

	res := resultWith(constants.RunStatusSucceeded)
	res.Project = &project.Project{Name: "project_0123abcd", Dir: dir}
	useRunner(t, &fakeRunner{res: res})

	zipPath := filepath.Join(t.TempDir(), "out.zip")
	stdout, _, err := executeRoot(t, "run", "--zip", zipPath, "task")
	require.NoError(t, err)

	assert.FileExists(t, zipPath)
	assert.NoDirExists(t, dir)
	assert.Contains(t, stdout, zipPath)
}

func TestRunCommand_ZipSkippedOnFailure(t *testing.T) {
	dir := t.TempDir()
	res := resultWith(constants.RunStatusFailed)
	res.Project = &project.Project{Name: "project_0123abcd", Dir: dir}
	useRunner(t, &fakeRunner{res: res})

	zipPath := filepath.Join(t.TempDir(), "out.zip")
	_, _, err := executeRoot(t, "run", "--zip", zipPath, "task")
	require.ErrorIs(t, err, errors.ErrRunFailed)

	assert.NoFileExists(t, zipPath)
	assert.DirExists(t, dir)
}

func TestResolveTask(t *testing.T) {
	ctx := context.Background()

	task, err := resolveTask(ctx, []string{"  do", "it  "}, "")
	require.NoError(t, err)
	assert.Equal(t, "do it", task)

	_, err = resolveTask(ctx, []string{"   "}, "")
	require.ErrorIs(t, err, errors.ErrTaskRequired)

	_, err = resolveTask(ctx, []string{"x"}, "task.md")
	require.ErrorIs(t, err, errors.ErrTaskRequired)

	_, err = resolveTask(ctx, nil, filepath.Join(t.TempDir(), "missing.md"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := executeRoot(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "nemo 1.2.3 (commit: none, built: unknown)")
}

func TestRootCommand_InvalidOutput(t *testing.T) {
	_, _, err := executeRoot(t, "-o", "xml", "version")
	require.ErrorIs(t, err, errors.ErrInvalidOutputFormat)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}
