// Package flock provides cross-process advisory file locking.
//
// Exclusive and Unlock wrap the native non-blocking lock primitive of each
// platform (flock(2) on Unix, LockFileEx on Windows). Manager builds a named
// lock on top of them: a resource such as a file path maps to a sentinel file
// (path + ".lock") whose OS lock is the single source of truth. Because the
// kernel drops the lock when its holder exits, a sentinel left behind by a
// crashed process never blocks later acquisitions.
//
// Usage:
//
//	m := flock.NewManager(logger)
//	lock, err := m.Acquire(ctx, "/proj/main.py", 30*time.Second)
//	if err != nil {
//	    // errors.ErrLockTimeout, or ctx.Err()
//	}
//	defer lock.Release()
package flock
