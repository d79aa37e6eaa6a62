// Package quality runs the external code quality tools against a generated
// project and reduces their output to the numbers the orchestrator gates on.
package quality

import "time"

// Tools holds the argv prefix of each quality tool. The target file (or the
// --cov flag for tests) is appended at run time.
type Tools struct {
	Format     []string
	Lint       []string
	Complexity []string
	Test       []string
	// Timeout bounds one tool invocation. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// DefaultTools returns the uv-based Python toolchain.
func DefaultTools() Tools {
	return Tools{
		Format: []string{"uv", "run", "autopep8", "--in-place", "--aggressive"},
		Lint: []string{
			"uv", "run", "pylint",
			"--disable=missing-function-docstring,missing-module-docstring",
			"--max-line-length=120",
		},
		Complexity: []string{"uv", "run", "complexipy"},
		Test: []string{
			"uv", "run", "pytest",
			"--cov-config=.coveragerc",
			"--cov-report=term-missing",
			"-vv",
		},
	}
}

// withArgs returns a fresh argv so callers never share the configured slice.
func withArgs(base []string, args ...string) []string {
	out := make([]string, 0, len(base)+len(args))
	out = append(out, base...)
	return append(out, args...)
}
