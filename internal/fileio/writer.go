// Package fileio provides the durable file writer used for every file nemo
// produces. Writes take a cross-process advisory lock on the target, replace
// the file atomically, and retry transient failures a bounded number of times.
package fileio

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/nemo/internal/clock"
	"github.com/mrz1836/nemo/internal/constants"
	"github.com/mrz1836/nemo/internal/ctxutil"
	"github.com/mrz1836/nemo/internal/errors"
	"github.com/mrz1836/nemo/internal/flock"
	"github.com/mrz1836/nemo/internal/metrics"
)

const (
	// filePerm is the permission applied to written files.
	filePerm = 0o644
	// dirPerm is the permission used for created parent directories.
	dirPerm = 0o750
)

// Options bounds the writer's retry behavior.
type Options struct {
	// MaxAttempts is the total number of attempts per write (minimum 1).
	MaxAttempts int
	// RetryDelay is the sleep between failed attempts.
	RetryDelay time.Duration
	// LockTimeout bounds each lock acquisition.
	LockTimeout time.Duration
}

// DefaultOptions returns the default write options.
func DefaultOptions() Options {
	return Options{
		MaxAttempts: constants.DefaultMaxWriteAttempts,
		RetryDelay:  secondsToDuration(constants.DefaultWriteRetryDelay),
		LockTimeout: secondsToDuration(constants.DefaultLockTimeout),
	}
}

// Writer performs locked, atomic, retrying writes.
type Writer struct {
	locker  flock.Locker
	logger  zerolog.Logger
	clock   clock.Clock
	metrics *metrics.Metrics
	opts    Options
}

// Option configures a Writer.
type Option func(*Writer)

// WithClock overrides the clock used for retry sleeps.
func WithClock(c clock.Clock) Option {
	return func(w *Writer) {
		if c != nil {
			w.clock = c
		}
	}
}

// WithMetrics records write outcomes and lock waits.
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Writer) {
		w.metrics = m
	}
}

// NewWriter creates a Writer that serializes on locker.
func NewWriter(locker flock.Locker, logger zerolog.Logger, opts Options, optFns ...Option) *Writer {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	w := &Writer{
		locker: locker,
		logger: logger.With().Str("component", "fileio").Logger(),
		clock:  clock.RealClock{},
		opts:   opts,
	}
	for _, fn := range optFns {
		fn(w)
	}
	return w
}

// Write replaces path with content using the writer's configured options.
func (w *Writer) Write(ctx context.Context, path, content string) error {
	return w.WriteWith(ctx, path, content, w.opts.MaxAttempts, w.opts.RetryDelay)
}

// WriteWith replaces path with content, making at most maxAttempts attempts
// separated by retryDelay. Transient failures that exhaust the attempts are
// returned wrapped in errors.ErrWriteFailed; failures that cannot succeed on
// retry are returned immediately wrapped in errors.ErrFatalIO.
func (w *Writer) WriteWith(ctx context.Context, path, content string, maxAttempts int, retryDelay time.Duration) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if err := validatePath(path); err != nil {
		w.metrics.WriteAttempt(metrics.WriteFatal)
		w.logger.Error().Err(err).Str("path", path).Msg("refusing to write file")
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := w.attempt(ctx, path, content)
		if err == nil {
			w.metrics.WriteAttempt(metrics.WriteOK)
			w.logger.Debug().
				Str("path", path).
				Int("attempt", attempt).
				Int("bytes", len(content)).
				Msg("file written")
			return nil
		}

		if isFatal(err) {
			w.metrics.WriteAttempt(metrics.WriteFatal)
			w.logger.Error().Err(err).Str("path", path).Int("attempt", attempt).Msg("fatal error writing file")
			return fmt.Errorf("failed to write %s: %w: %w", path, errors.ErrFatalIO, err)
		}

		lastErr = err
		if attempt == maxAttempts {
			break
		}

		w.metrics.WriteAttempt(metrics.WriteRetry)
		w.logger.Warn().
			Err(err).
			Str("path", path).
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Msg("write attempt failed, retrying")

		if sleepErr := w.clock.Sleep(ctx, retryDelay); sleepErr != nil {
			w.metrics.WriteAttempt(metrics.WriteFatal)
			return fmt.Errorf("failed to write %s: %w: %w", path, errors.ErrFatalIO, sleepErr)
		}
	}

	w.metrics.WriteAttempt(metrics.WriteExhausted)
	w.logger.Error().
		Err(lastErr).
		Str("path", path).
		Int("attempts", maxAttempts).
		Msg("failed to write file after all attempts")
	return fmt.Errorf("failed to write %s after %d attempts: %w: %w", path, maxAttempts, errors.ErrWriteFailed, lastErr)
}

// attempt performs one locked write.
func (w *Writer) attempt(ctx context.Context, path, content string) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return &fs.PathError{Op: "write", Path: path, Err: syscall.EISDIR}
	}

	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	start := w.clock.Now()
	lock, err := w.locker.Acquire(ctx, path, w.opts.LockTimeout)
	if err != nil {
		return err
	}
	w.metrics.LockWait(w.clock.Now().Sub(start))
	defer func() { _ = lock.Release() }()

	return atomicWrite(path, []byte(content))
}

// atomicWrite writes data to a temp file in the target's directory, syncs it,
// and renames it over path.
func atomicWrite(path string, data []byte) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	f, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Chmod(tmpPath, filePerm); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to set file mode: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}

// validatePath rejects paths that can never be written.
func validatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: path %w", errors.ErrFatalIO, errors.ErrEmptyValue)
	}
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("%w: path contains NUL byte", errors.ErrFatalIO)
	}
	return nil
}

// isFatal reports whether err cannot be fixed by retrying.
// Lock timeouts and anything unrecognized are treated as transient.
func isFatal(err error) bool {
	switch {
	case stderrors.Is(err, context.Canceled),
		stderrors.Is(err, context.DeadlineExceeded),
		stderrors.Is(err, fs.ErrPermission),
		stderrors.Is(err, syscall.EROFS),
		stderrors.Is(err, syscall.EISDIR),
		stderrors.Is(err, syscall.ENOTDIR),
		stderrors.Is(err, syscall.ENAMETOOLONG):
		return true
	default:
		return false
	}
}

// secondsToDuration converts fractional seconds from configuration.
func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
