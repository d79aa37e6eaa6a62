//go:build windows

package flock

import (
	"math"

	"golang.org/x/sys/windows"
)

// LockFileEx/UnlockFileEx parameters. The whole addressable range is
// locked so the sentinel's diagnostic contents can grow without escaping it.
const (
	lockReserved  = 0
	lockBytesLow  = math.MaxUint32
	lockBytesHigh = math.MaxUint32
)

// Exclusive acquires an exclusive non-blocking lock on the file handle.
// Returns an error if the lock cannot be acquired immediately.
func Exclusive(fd uintptr) error {
	return windows.LockFileEx(
		windows.Handle(fd),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		lockReserved,
		lockBytesLow,
		lockBytesHigh,
		&windows.Overlapped{},
	)
}

// Unlock releases the lock on the file handle.
func Unlock(fd uintptr) error {
	return windows.UnlockFileEx(
		windows.Handle(fd),
		lockReserved,
		lockBytesLow,
		lockBytesHigh,
		&windows.Overlapped{},
	)
}
