// Package errors provides centralized error handling for nemo.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrLockTimeout indicates a file lock could not be acquired within the timeout period.
	// The durable writer consumes it as a failed, retryable write attempt.
	ErrLockTimeout = errors.New("lock acquisition timeout")

	// ErrTransientIO indicates a write-level I/O failure that is eligible for retry.
	ErrTransientIO = errors.New("transient I/O failure")

	// ErrFatalIO indicates a write-level failure that must not be retried
	// (permission denied, read-only filesystem, path is a directory).
	ErrFatalIO = errors.New("fatal I/O failure")

	// ErrWriteFailed indicates a durable write exhausted all of its attempts.
	ErrWriteFailed = errors.New("write failed")

	// ErrSyntaxValidation indicates generated source content failed to parse.
	ErrSyntaxValidation = errors.New("syntax validation failed")

	// ErrLLMUnavailable indicates the language model could not be reached
	// or returned an error instead of a completion.
	ErrLLMUnavailable = errors.New("language model unavailable")

	// ErrValidationRejected indicates the validator rejected a proposed change.
	// This is a normal loop outcome, not a run failure.
	ErrValidationRejected = errors.New("proposal rejected by validator")

	// ErrProjectSetup indicates the project skeleton could not be created.
	ErrProjectSetup = errors.New("project setup failed")

	// ErrNoFilesWritten indicates a model response produced no writable files.
	ErrNoFilesWritten = errors.New("no files written")

	// ErrProviderNotFound indicates the requested language model provider is not registered.
	ErrProviderNotFound = errors.New("llm provider not found")

	// ErrMissingAPIKey indicates the API key environment variable for a provider is unset.
	ErrMissingAPIKey = errors.New("api key not set")

	// ErrCommandFailed indicates that a command execution failed.
	ErrCommandFailed = errors.New("command failed")

	// ErrCommandNotConfigured indicates that a tool command is empty in configuration.
	ErrCommandNotConfigured = errors.New("command not configured")

	// ErrUnsupportedLanguage indicates no syntax grammar is available for a language.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalidThreshold indicates an invalid quality threshold value.
	ErrConfigInvalidThreshold = errors.New("invalid threshold configuration")

	// ErrConfigInvalidWrite indicates an invalid write/lock configuration value.
	ErrConfigInvalidWrite = errors.New("invalid write configuration")

	// ErrConfigInvalidLLM indicates an invalid language model configuration value.
	ErrConfigInvalidLLM = errors.New("invalid LLM configuration")

	// ErrConfigInvalidTools indicates an invalid tool command configuration value.
	ErrConfigInvalidTools = errors.New("invalid tools configuration")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrValueOutOfRange indicates that a value is outside the allowed range.
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrTaskRequired indicates no task was given and none could be prompted for.
	ErrTaskRequired = errors.New("task description required")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrRunFailed indicates an orchestrator run ended with status failed.
	ErrRunFailed = errors.New("run failed")

	// ErrToolsMissing indicates a required external tool is missing or outdated.
	ErrToolsMissing = errors.New("required tools missing")

	// ErrPathTraversal indicates a generated file path escapes the project directory.
	ErrPathTraversal = errors.New("path traversal detected")
)

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}
