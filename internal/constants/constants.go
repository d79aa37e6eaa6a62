// Package constants provides centralized constant values used throughout nemo.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// Directory names and paths used by nemo for organizing data.
const (
	// NemoHome is the hidden directory name where nemo stores global config and logs.
	// This directory is created in the user's home directory.
	NemoHome = ".nemo"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"

	// TestsDir is the directory inside a generated project that holds test files.
	TestsDir = "tests"
)

// Files inside a generated project.
const (
	// CodeFileName is the implementation file the model is asked to produce.
	CodeFileName = "main.py"

	// TestFileName is the test file the model is asked to produce, relative to the project.
	TestFileName = "tests/test_main.py"

	// TestsInitFileName marks the tests directory as a Python package.
	TestsInitFileName = "__init__.py"

	// CoverageRCFileName is the coverage.py configuration written before each test run.
	CoverageRCFileName = ".coveragerc"

	// UVPlaceholderFileName is the sample file `uv init` creates and nemo removes.
	UVPlaceholderFileName = "hello.py"

	// LockSuffix is appended to a target path to name its lock sentinel.
	LockSuffix = ".lock"

	// ProjectNamePrefix prefixes every generated project directory name.
	ProjectNamePrefix = "project_"
)

// File-block wire format markers used in model responses.
const (
	// BlockOpen starts a path marker: <<<relative/path>>>.
	BlockOpen = "<<<"

	// BlockClose ends a path marker.
	BlockClose = ">>>"

	// BlockEnd terminates a file block.
	BlockEnd = "<<<end>>>"
)

// Validator reply tokens.
const (
	// AcceptToken is the word a validator reply must contain to accept a proposal.
	AcceptToken = "VALID"

	// RejectToken is the word that marks a validator reply as a rejection.
	RejectToken = "INVALID"
)

// Defaults for the orchestrator and persistence layer.
const (
	// DefaultMaxImprovementAttempts bounds both refinement loops.
	DefaultMaxImprovementAttempts = 3

	// DefaultPylintThreshold is the lint score lower bound.
	DefaultPylintThreshold = 7.0

	// DefaultComplexipyThreshold is the cognitive complexity upper bound.
	DefaultComplexipyThreshold = 15

	// DefaultCoverageThreshold is the coverage percentage lower bound.
	DefaultCoverageThreshold = 80

	// DefaultMaxWriteAttempts is the number of durable write attempts.
	DefaultMaxWriteAttempts = 3

	// DefaultWriteRetryDelay is the pause between durable write attempts, in seconds.
	DefaultWriteRetryDelay = 1.0

	// DefaultLockTimeout is how long a writer waits for a file lock, in seconds.
	DefaultLockTimeout = 30.0

	// LockPollInterval is how often a blocked lock acquisition retries.
	LockPollInterval = 100 * time.Millisecond

	// DefaultInitAttempts is how many times the initial implementation is requested.
	DefaultInitAttempts = 3
)

// Language model defaults.
const (
	// DefaultProvider is the provider used when none is configured.
	DefaultProvider = "ollama"

	// DefaultModel is the model used when none is configured.
	DefaultModel = "mistral-nemo"

	// DefaultOllamaURL is the local Ollama server address.
	DefaultOllamaURL = "http://localhost:11434"

	// DefaultGroqURL is Groq's OpenAI-compatible endpoint.
	DefaultGroqURL = "https://api.groq.com/openai/v1"
)

// Log rotation settings for the global log file.
const (
	// LogMaxSizeMB is the size at which the log file is rotated.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated log files to keep.
	LogMaxBackups = 3

	// LogMaxAgeDays is the number of days rotated logs are kept.
	LogMaxAgeDays = 28

	// LogCompress enables gzip compression of rotated logs.
	LogCompress = true
)
