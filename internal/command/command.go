// Package command executes external tools for nemo.
//
// SECURITY NOTE: Commands come from configuration (tool commands) or from
// model output (`uv add` lines, which callers restrict to uv). They are run
// as argv lists without a shell, so file names and package names are never
// interpreted by sh.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	nemoerrors "github.com/mrz1836/nemo/internal/errors"
)

// Result is the captured outcome of one tool invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Output returns stdout followed by stderr.
func (r Result) Output() string {
	return r.Stdout + r.Stderr
}

// Runner defines the interface for executing commands.
// This allows for testing by injecting mock implementations.
type Runner interface {
	// Run executes argv in workDir. A non-zero exit is reported through
	// ExitCode and a wrapped errors.ErrCommandFailed.
	Run(ctx context.Context, workDir string, argv []string) (Result, error)
}

// ExecRunner implements Runner using os/exec.
type ExecRunner struct {
	// LiveOut, when set, receives output as it is produced.
	LiveOut io.Writer
}

// Run executes argv directly, without a shell.
func (r *ExecRunner) Run(ctx context.Context, workDir string, argv []string) (Result, error) {
	if len(argv) == 0 || argv[0] == "" {
		return Result{ExitCode: -1}, nemoerrors.ErrCommandNotConfigured
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //#nosec G204 -- tool commands come from trusted configuration
	cmd.Dir = workDir

	var outBuf, errBuf bytes.Buffer
	if r.LiveOut != nil {
		cmd.Stdout = io.MultiWriter(&outBuf, r.LiveOut)
		cmd.Stderr = io.MultiWriter(&errBuf, r.LiveOut)
	} else {
		cmd.Stdout = &outBuf
		cmd.Stderr = &errBuf
	}

	start := time.Now()
	err := cmd.Run()
	result := Result{
		Stdout:   outBuf.String(),
		Stderr:   errBuf.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
		return result, fmt.Errorf("%w: %s: %w", nemoerrors.ErrCommandFailed, argv[0], err)
	}

	return result, nil
}

// Ensure ExecRunner implements Runner.
var _ Runner = (*ExecRunner)(nil)
