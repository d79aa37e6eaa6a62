package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mrz1836/nemo/internal/config"
	"github.com/mrz1836/nemo/internal/constants"
	"github.com/mrz1836/nemo/internal/logging"
)

// logFileWriter holds the log file writer for cleanup purposes.
var logFileWriter io.WriteCloser //nolint:gochecknoglobals // Needed for cleanup

// zerologGlobalMu protects concurrent writes to the zerolog global logger.
// This is separate from globalLoggerMu to avoid deadlocks.
var zerologGlobalMu sync.Mutex //nolint:gochecknoglobals // Protects zerolog global

// knownProviders are the providers whose API keys are redacted from the log file.
//
//nolint:gochecknoglobals // Static list
var knownProviders = []string{"claude", "openai", "groq"}

// InitLogger creates and configures a zerolog.Logger based on verbosity flags
// and the log section of cfg.
//
// Console levels are set as follows:
//   - verbose=true: Debug level (most detailed)
//   - quiet=true: Warn level (errors and warnings only)
//   - default: Info level (normal operation)
//
// The log file receives everything at or above cfg.Log.Level, with rotation
// and with API keys and credential patterns redacted. If the log file cannot
// be created, the logger continues with console-only output.
func InitLogger(verbose, quiet bool, cfg *config.Config) zerolog.Logger {
	consoleLevel := selectLevel(verbose, quiet)
	console := &levelFilterWriter{w: selectOutput(), min: consoleLevel}

	fileLevel := fileLogLevel(cfg)
	fileWriter, err := createLogFileWriter(cfg)

	var writer io.Writer = console
	level := consoleLevel
	if err == nil {
		CloseLogFile()
		logFileWriter = fileWriter
		writer = zerolog.MultiLevelWriter(console, &levelFilterWriter{w: fileWriter, min: fileLevel})
		level = min(consoleLevel, fileLevel)
	}

	logger := zerolog.New(writer).Level(level).Hook(logging.NewSensitiveDataHook()).With().Timestamp().Logger()
	setGlobalLogger(logger)
	if err != nil {
		logger.Warn().Err(err).Msg("log file unavailable, logging to console only")
	}
	return logger
}

// InitLoggerWithWriter creates and configures a zerolog.Logger with a custom writer.
// This is primarily intended for testing purposes.
func InitLoggerWithWriter(verbose, quiet bool, w io.Writer) zerolog.Logger {
	level := selectLevel(verbose, quiet)
	logger := zerolog.New(w).Level(level).Hook(logging.NewSensitiveDataHook()).With().Timestamp().Logger()
	setGlobalLogger(logger)
	return logger
}

// setGlobalLogger configures the global zerolog logger to match the CLI logger.
// This function is safe for concurrent use.
func setGlobalLogger(cliLogger zerolog.Logger) {
	zerologGlobalMu.Lock()
	defer zerologGlobalMu.Unlock()
	log.Logger = cliLogger
}

// CloseLogFile closes the global log file writer if it was opened.
// This should be called during application shutdown.
func CloseLogFile() {
	if logFileWriter != nil {
		_ = logFileWriter.Close()
		logFileWriter = nil
	}
}

// selectLevel determines the console log level based on flags.
func selectLevel(verbose, quiet bool) zerolog.Level {
	switch {
	case verbose:
		return zerolog.DebugLevel
	case quiet:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

// fileLogLevel parses cfg.Log.Level, defaulting to debug.
func fileLogLevel(cfg *config.Config) zerolog.Level {
	if cfg == nil || cfg.Log.Level == "" {
		return zerolog.DebugLevel
	}
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.DebugLevel
	}
	return level
}

// selectOutput determines the appropriate output writer based on
// terminal capabilities and environment settings.
func selectOutput() io.Writer {
	if term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("NO_COLOR") == "" {
		return zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
		}
	}
	return os.Stderr
}

// levelFilterWriter drops entries below min so the console and the log file
// can run at different levels behind one logger.
type levelFilterWriter struct {
	w   io.Writer
	min zerolog.Level
}

// Write implements io.Writer.
func (l *levelFilterWriter) Write(p []byte) (int, error) {
	return l.w.Write(p)
}

// WriteLevel implements zerolog.LevelWriter.
func (l *levelFilterWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < l.min {
		return len(p), nil
	}
	return l.w.Write(p)
}

// filteringWriteCloser wraps a WriteCloser with sensitive data filtering.
type filteringWriteCloser struct {
	filter *logging.FilteringWriter
	closer io.Closer
}

// Write implements io.Writer by delegating to the filtering writer.
func (fwc *filteringWriteCloser) Write(p []byte) (n int, err error) {
	return fwc.filter.Write(p)
}

// Close implements io.Closer by delegating to the underlying closer.
func (fwc *filteringWriteCloser) Close() error {
	return fwc.closer.Close()
}

// createLogFileWriter creates a rotating file writer for the CLI log, wrapped
// with a filtering writer so API keys are never written to disk.
func createLogFileWriter(cfg *config.Config) (io.WriteCloser, error) {
	logPath, err := config.LogFilePath(cfg)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	lj := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    constants.LogMaxSizeMB,
		MaxBackups: constants.LogMaxBackups,
		MaxAge:     constants.LogMaxAgeDays,
		Compress:   constants.LogCompress,
	}
	if cfg != nil {
		if cfg.Log.MaxSizeMB > 0 {
			lj.MaxSize = cfg.Log.MaxSizeMB
		}
		if cfg.Log.MaxBackups > 0 {
			lj.MaxBackups = cfg.Log.MaxBackups
		}
		if cfg.Log.MaxAgeDays > 0 {
			lj.MaxAge = cfg.Log.MaxAgeDays
		}
	}

	return &filteringWriteCloser{
		filter: logging.NewFilteringWriter(lj, apiKeySecrets(cfg)...),
		closer: lj,
	}, nil
}

// apiKeySecrets returns the values of every API key variable nemo knows about.
func apiKeySecrets(cfg *config.Config) []string {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	seen := make(map[string]bool)
	var secrets []string
	add := func(envVar string) {
		if envVar == "" || seen[envVar] {
			return
		}
		seen[envVar] = true
		if v := os.Getenv(envVar); v != "" {
			secrets = append(secrets, v)
		}
	}

	for _, provider := range knownProviders {
		add(cfg.LLM.APIKeyEnvVar(provider))
	}
	for _, envVar := range cfg.LLM.APIKeyEnvVars {
		add(envVar)
	}
	return secrets
}
