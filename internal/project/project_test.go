package project

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/nemo/internal/command"
	nemoerrors "github.com/mrz1836/nemo/internal/errors"
	"github.com/mrz1836/nemo/internal/testutil"
)

// scriptedRunner fails commands whose joined argv has a prefix in fail, and
// emulates `uv init` by creating the project directory with a placeholder.
type scriptedRunner struct {
	mu    sync.Mutex
	fail  []string
	calls []string
}

func (r *scriptedRunner) Run(_ context.Context, workDir string, argv []string) (command.Result, error) {
	line := strings.Join(argv, " ")
	r.mu.Lock()
	r.calls = append(r.calls, line)
	r.mu.Unlock()

	for _, prefix := range r.fail {
		if strings.HasPrefix(line, prefix) {
			return command.Result{ExitCode: -1}, testutil.ErrMockExecutableNotFound
		}
	}
	if len(argv) >= 3 && argv[0] == "uv" && argv[1] == "init" {
		dir := filepath.Join(workDir, argv[2])
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return command.Result{ExitCode: 1}, err
		}
		if err := os.WriteFile(filepath.Join(dir, "hello.py"), []byte("print('hi')\n"), 0o600); err != nil {
			return command.Result{ExitCode: 1}, err
		}
	}
	return command.Result{Stdout: "uv 0.5.0\n"}, nil
}

// osWriter writes directly to disk.
type osWriter struct{}

func (osWriter) Write(_ context.Context, path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o600)
}

func TestNewName(t *testing.T) {
	t.Parallel()

	pattern := regexp.MustCompile(`^project_[0-9a-f]{8}$`)
	a, b := NewName(), NewName()
	assert.Regexp(t, pattern, a)
	assert.Regexp(t, pattern, b)
	assert.NotEqual(t, a, b)
}

func TestCreator_Create(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	runner := &scriptedRunner{}
	c := NewCreator(runner, osWriter{}, zerolog.Nop(), Options{BaseDir: base, Dependencies: DefaultDependencies()})
	c.newName = func() string { return "project_0badcafe" }

	p, err := c.Create(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "project_0badcafe", p.Name)
	assert.Equal(t, filepath.Join(base, "project_0badcafe"), p.Dir)
	assert.FileExists(t, filepath.Join(p.Dir, "tests", "__init__.py"))
	assert.NoFileExists(t, filepath.Join(p.Dir, "hello.py"))
	assert.Equal(t, []string{
		"uv --version",
		"uv init project_0badcafe --no-workspace",
		"uv add pytest pylint autopep8 pytest-cov complexipy",
	}, runner.calls)
}

func TestCreator_InstallsUV(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{fail: []string{"uv --version"}}
	c := NewCreator(runner, osWriter{}, zerolog.Nop(), Options{BaseDir: t.TempDir(), InstallUV: true})

	_, err := c.Create(context.Background())
	require.NoError(t, err)
	assert.Contains(t, runner.calls, "pip install uv")
}

func TestCreator_SetupFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fail []string
		opts Options
	}{
		{name: "uv missing without install", fail: []string{"uv --version"}},
		{name: "pip install fails", fail: []string{"uv --version", "pip install"}, opts: Options{InstallUV: true}},
		{name: "uv init fails", fail: []string{"uv init"}},
		{name: "dependency install fails", fail: []string{"uv add"}, opts: Options{Dependencies: []string{"pytest"}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			opts := tc.opts
			opts.BaseDir = t.TempDir()
			c := NewCreator(&scriptedRunner{fail: tc.fail}, osWriter{}, zerolog.Nop(), opts)

			p, err := c.Create(context.Background())
			require.ErrorIs(t, err, nemoerrors.ErrProjectSetup)
			assert.Nil(t, p)
		})
	}
}

func TestCreator_AddDependencies(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{fail: []string{"uv add broken"}}
	c := NewCreator(runner, osWriter{}, zerolog.Nop(), Options{})
	p := &Project{Name: "project_x", Dir: t.TempDir()}

	err := c.AddDependencies(context.Background(), p, []string{
		"uv add flask",
		"uv add broken-pkg",
		"uv add",
		"uv remove flask",
		"uv add requests httpx",
	})
	require.Error(t, err)
	assert.Equal(t, []string{"uv add flask", "uv add broken-pkg", "uv add requests httpx"}, runner.calls)
}

func TestPackage(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "project_12345678")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tests"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte("print(1)\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tests", "test_main.py"), []byte("import main\n"), 0o600))

	zipPath := filepath.Join(t.TempDir(), "out.zip")
	require.NoError(t, Package(&Project{Name: "project_12345678", Dir: dir}, zipPath))

	assert.NoDirExists(t, dir)

	zr, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer func() { _ = zr.Close() }()

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"main.py", "tests/test_main.py"}, names)
	assert.False(t, slices.ContainsFunc(names, filepath.IsAbs))
}

func TestPackage_KeepsDirectoryOnFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	err := Package(&Project{Dir: dir}, filepath.Join(dir, "missing", "out.zip"))
	require.Error(t, err)
	assert.DirExists(t, dir)
}
