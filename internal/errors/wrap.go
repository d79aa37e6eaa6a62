package errors

import "fmt"

// Wrap adds context to errors at package boundaries.
// It returns nil if err is nil, allowing for safe inline usage:
//
//	if err := writer.Write(ctx, path, content); err != nil {
//	    return errors.Wrap(err, "failed to apply solution")
//	}
//
// The wrapped error keeps the chain intact, so callers can still test
// for sentinels:
//
//	if errors.Is(err, errors.ErrLLMUnavailable) {
//	    // abort the run
//	}
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf adds formatted context to errors at package boundaries.
// It returns nil if err is nil.
//
//	return errors.Wrapf(err, "failed to write %s", path)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", msg, err)
}
