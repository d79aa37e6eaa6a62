package flock

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/nemo/internal/clock"
	"github.com/mrz1836/nemo/internal/constants"
	"github.com/mrz1836/nemo/internal/ctxutil"
	"github.com/mrz1836/nemo/internal/errors"
)

// sentinelPerm is the permission used for lock sentinel files.
const sentinelPerm = 0o600

// Locker acquires named, cross-process exclusive locks.
// The durable writer depends on this interface rather than on Manager so
// tests can observe acquisitions.
type Locker interface {
	// Acquire blocks until the lock for resourceID is held, timeout elapses
	// (errors.ErrLockTimeout), or ctx is done (ctx.Err()).
	Acquire(ctx context.Context, resourceID string, timeout time.Duration) (*Lock, error)
}

// Manager hands out named advisory locks backed by sentinel files.
// It holds no per-lock state and is safe for concurrent use.
type Manager struct {
	logger       zerolog.Logger
	clock        clock.Clock
	pollInterval time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithPollInterval overrides how often a blocked acquisition retries.
func WithPollInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.pollInterval = d
		}
	}
}

// WithClock overrides the clock used for deadlines and poll sleeps.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

// NewManager creates a lock manager that logs through logger.
func NewManager(logger zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		logger:       logger.With().Str("component", "flock").Logger(),
		clock:        clock.RealClock{},
		pollInterval: constants.LockPollInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SentinelPath returns the lock sentinel path for a resource.
func SentinelPath(resourceID string) string {
	return resourceID + constants.LockSuffix
}

// Acquire takes the exclusive lock for resourceID, polling until it is
// obtained or timeout elapses. A timeout of zero makes a single attempt.
func (m *Manager) Acquire(ctx context.Context, resourceID string, timeout time.Duration) (*Lock, error) {
	if resourceID == "" {
		return nil, fmt.Errorf("failed to acquire lock: resource id %w", errors.ErrEmptyValue)
	}

	start := m.clock.Now()
	deadline := start.Add(timeout)
	sentinel := SentinelPath(resourceID)

	for {
		if err := ctxutil.Canceled(ctx); err != nil {
			return nil, err
		}

		lock, err := m.tryAcquire(resourceID, sentinel)
		if err != nil {
			return nil, err
		}
		if lock != nil {
			m.logger.Debug().
				Str("resource", resourceID).
				Dur("waited", m.clock.Now().Sub(start)).
				Msg("lock acquired")
			return lock, nil
		}

		if !m.clock.Now().Before(deadline) {
			m.logger.Error().
				Str("resource", resourceID).
				Dur("timeout", timeout).
				Msg("timeout waiting for file lock")
			return nil, fmt.Errorf("failed to acquire lock on %s: %w", resourceID, errors.ErrLockTimeout)
		}

		if err := m.clock.Sleep(ctx, m.pollInterval); err != nil {
			return nil, err
		}
	}
}

// tryAcquire makes one non-blocking attempt. It returns (nil, nil) when the
// lock is held elsewhere and an error only when the sentinel cannot be opened.
func (m *Manager) tryAcquire(resourceID, sentinel string) (*Lock, error) {
	f, err := os.OpenFile(sentinel, os.O_CREATE|os.O_RDWR, sentinelPerm) //#nosec G304 -- sentinel derives from a path we are about to write
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := Exclusive(f.Fd()); err != nil {
		_ = f.Close()
		return nil, nil //nolint:nilnil // contention is not an error
	}

	// A releaser unlinks the sentinel while still holding it. If we locked
	// that orphaned inode, the name now points elsewhere (or nowhere).
	if !sameFile(f, sentinel) {
		_ = Unlock(f.Fd())
		_ = f.Close()
		return nil, nil //nolint:nilnil // retry against the current sentinel
	}

	writeOwner(f)

	return &Lock{
		resource: resourceID,
		sentinel: sentinel,
		file:     f,
		logger:   m.logger,
	}, nil
}

// sameFile reports whether the open handle is still the file named by path.
func sameFile(f *os.File, path string) bool {
	held, err := f.Stat()
	if err != nil {
		return false
	}
	onDisk, err := os.Stat(path)
	if err != nil {
		return false
	}
	return os.SameFile(held, onDisk)
}

// writeOwner records the holder's pid in the sentinel. Diagnostics only.
func writeOwner(f *os.File) {
	if err := f.Truncate(0); err != nil {
		return
	}
	_, _ = f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
}

// Lock is a held advisory lock. Release it on every exit path.
type Lock struct {
	resource string
	sentinel string
	file     *os.File
	logger   zerolog.Logger

	once sync.Once
	err  error
}

// Resource returns the resource id the lock protects.
func (l *Lock) Resource() string {
	return l.resource
}

// Release drops the OS lock, closes the sentinel handle, and removes the
// sentinel file. Removal failures are logged, not returned. Calling Release
// more than once is a no-op.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	l.once.Do(func() {
		// Unlink while still holding the lock; a waiter that already opened
		// the old inode will notice the mismatch and retry.
		if err := os.Remove(l.sentinel); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			l.logger.Warn().Err(err).Str("lock_file", l.sentinel).Msg("failed to remove lock file")
		}

		unlockErr := Unlock(l.file.Fd())
		closeErr := l.file.Close()
		if err := stderrors.Join(unlockErr, closeErr); err != nil {
			l.logger.Error().Err(err).Str("resource", l.resource).Msg("error releasing lock")
			l.err = fmt.Errorf("failed to release lock on %s: %w", l.resource, err)
			return
		}
		l.logger.Debug().Str("resource", l.resource).Msg("lock released")
	})
	return l.err
}

// Ensure Manager implements Locker.
var _ Locker = (*Manager)(nil)
