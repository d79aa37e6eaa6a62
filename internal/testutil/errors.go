// Package testutil provides testing utilities for nemo.
//
// This package contains mock errors used across test files to simulate
// failures of the external world: missing executables, full disks and
// unreachable model providers. It should only be imported by test files.
package testutil

import "errors"

// Mock errors for testing purposes.
var (
	// ErrMockExecutableNotFound simulates a tool missing from PATH.
	ErrMockExecutableNotFound = errors.New(`exec: "uv": executable file not found in $PATH`)

	// ErrMockExitStatus simulates a command that exited non-zero.
	ErrMockExitStatus = errors.New("exit status 1")

	// ErrMockDiskFull simulates a write to a full filesystem.
	ErrMockDiskFull = errors.New("disk full")

	// ErrMockConnectionRefused simulates an unreachable model provider.
	ErrMockConnectionRefused = errors.New("dial tcp 127.0.0.1:11434: connect: connection refused")

	// ErrMockProvider simulates a provider returning an error instead of a completion.
	ErrMockProvider = errors.New("provider error")
)
