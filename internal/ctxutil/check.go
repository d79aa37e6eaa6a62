// Package ctxutil provides context utility functions.
package ctxutil

import "context"

// Canceled returns the context error once ctx is done (Canceled or
// DeadlineExceeded) and nil otherwise. Long-running loops call it between
// steps so a canceled run stops before starting the next tool or request.
func Canceled(ctx context.Context) error {
	return ctx.Err()
}
