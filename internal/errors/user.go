package errors

import "errors"

// ErrorInfo holds user-facing message and suggested action for an error.
type ErrorInfo struct {
	// Message is the user-friendly error description.
	Message string
	// Action is a suggested action to resolve the issue (empty if none).
	Action string
}

// errorEntry pairs a sentinel error with its user-facing info.
type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries maps sentinel errors to their user-facing messages.
// A slice (not a map) because errors.Is() needs to walk wrapped chains in order.
//
//nolint:gochecknoglobals // Pre-built mapping for efficiency
var errorInfoEntries = []errorEntry{
	// ===================
	// Language model
	// ===================
	{
		err: ErrLLMUnavailable,
		info: ErrorInfo{
			Message: "Could not get a response from the language model.",
			Action:  "Check that the provider is running (e.g. 'ollama serve') or that your API key and network are working.",
		},
	},
	{
		err: ErrMissingAPIKey,
		info: ErrorInfo{
			Message: "The API key for the selected provider is not set.",
			Action:  "Export the key named in llm.api_key_env_vars, or switch to --provider ollama.",
		},
	},
	{
		err: ErrProviderNotFound,
		info: ErrorInfo{
			Message: "The selected language model provider is not supported.",
			Action:  "Use one of: ollama, claude, openai, groq.",
		},
	},

	// ===================
	// Project & files
	// ===================
	{
		err: ErrProjectSetup,
		info: ErrorInfo{
			Message: "The project skeleton could not be created.",
			Action:  "Make sure 'uv' is installed and the working directory is writable.",
		},
	},
	{
		err: ErrLockTimeout,
		info: ErrorInfo{
			Message: "Timed out waiting for a file lock.",
			Action:  "Another nemo run may be writing the same file. Wait for it to finish or raise lock_timeout.",
		},
	},
	{
		err: ErrFatalIO,
		info: ErrorInfo{
			Message: "A file could not be written.",
			Action:  "Check permissions and free space in the project directory.",
		},
	},
	{
		err: ErrWriteFailed,
		info: ErrorInfo{
			Message: "A file could not be written after several attempts.",
			Action:  "Raise max_write_attempts or write_retry_delay if the filesystem is busy.",
		},
	},

	// ===================
	// Configuration
	// ===================
	{
		err: ErrConfigInvalidThreshold,
		info: ErrorInfo{
			Message: "A quality threshold in the configuration is invalid.",
			Action:  "Run 'nemo config show' and fix the reported value.",
		},
	},
	{
		err: ErrConfigInvalidWrite,
		info: ErrorInfo{
			Message: "The write retry configuration is invalid.",
			Action:  "max_write_attempts must be at least 1 and delays must not be negative.",
		},
	},
	{
		err: ErrConfigInvalidLLM,
		info: ErrorInfo{
			Message: "The language model configuration is invalid.",
			Action:  "Check the llm section of your configuration.",
		},
	},
	{
		err: ErrConfigInvalidTools,
		info: ErrorInfo{
			Message: "A quality tool command is missing from the configuration.",
			Action:  "Check the tools section of your configuration or run 'nemo config init'.",
		},
	},

	// ===================
	// User input
	// ===================
	{
		err: ErrTaskRequired,
		info: ErrorInfo{
			Message: "No task was provided.",
			Action:  "Pass the task as an argument or use --file task.md.",
		},
	},
	{
		err: ErrToolsMissing,
		info: ErrorInfo{
			Message: "A required tool is missing or outdated.",
			Action:  "Run 'nemo doctor' for install hints.",
		},
	},
	{
		err: ErrRunFailed,
		info: ErrorInfo{
			Message: "The run did not complete.",
			Action:  "Check the log file for the failing stage, fix the cause and run again.",
		},
	},
	{
		err: ErrInvalidOutputFormat,
		info: ErrorInfo{
			Message: "Invalid output format specified.",
			Action:  "Use --output text or --output json.",
		},
	},
}

// errorInfoMap provides O(1) lookup for direct sentinel error matches.
//
//nolint:gochecknoglobals // Pre-built mapping for O(1) lookup performance
var errorInfoMap = buildErrorInfoMap()

func buildErrorInfoMap() map[error]ErrorInfo {
	m := make(map[error]ErrorInfo, len(errorInfoEntries))
	for _, entry := range errorInfoEntries {
		m[entry.err] = entry.info
	}
	return m
}

// getErrorInfo looks up the ErrorInfo for a given error.
// It first tries a direct map lookup for unwrapped sentinel errors,
// then falls back to errors.Is() traversal for wrapped errors.
func getErrorInfo(err error) ErrorInfo {
	if info, ok := errorInfoMap[err]; ok {
		return info
	}

	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}

	return ErrorInfo{Message: err.Error()}
}

// UserMessage returns a user-friendly message for common errors.
// For unrecognized errors, it returns the error's original message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return getErrorInfo(err).Message
}

// Actionable returns a user-friendly error message along with a suggested
// action the user can take to resolve or work around the issue.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := getErrorInfo(err)
	return info.Message, info.Action
}
