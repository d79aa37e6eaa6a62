// Package signal turns SIGINT and SIGTERM into context cancellation for a
// nemo run. The first signal cancels the run so the current model request or
// tool invocation can wind down; a second signal calls the force handler,
// which by default exits the process.
//
// Import rules:
//   - CAN import: std lib only
//   - MUST NOT import: internal packages (to avoid circular dependencies)
package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// ExitCodeInterrupted is the conventional exit status after SIGINT.
const ExitCodeInterrupted = 130

// Handler manages graceful shutdown by listening for interrupt signals.
type Handler struct {
	ctx         context.Context //nolint:containedctx // handler owns the run context
	cancel      context.CancelFunc
	interrupted chan struct{}
	done        chan struct{}
	sigChan     chan os.Signal
	onForce     func()

	mu       sync.Mutex
	received int
	stopOnce sync.Once
}

// Option configures a Handler.
type Option func(*Handler)

// WithForceHandler replaces the action taken on the second signal.
func WithForceHandler(fn func()) Option {
	return func(h *Handler) {
		if fn != nil {
			h.onForce = fn
		}
	}
}

// NewHandler creates a signal handler that listens for SIGINT and SIGTERM.
//
//	h := signal.NewHandler(ctx)
//	defer h.Stop()
//	result := orch.Run(h.Context(), task)
func NewHandler(parent context.Context, opts ...Option) *Handler {
	ctx, cancel := context.WithCancel(parent)
	h := &Handler{
		ctx:         ctx,
		cancel:      cancel,
		interrupted: make(chan struct{}),
		done:        make(chan struct{}),
		sigChan:     make(chan os.Signal, 1),
		onForce:     func() { os.Exit(ExitCodeInterrupted) },
	}
	for _, opt := range opts {
		opt(h)
	}

	signal.Notify(h.sigChan, syscall.SIGINT, syscall.SIGTERM)
	go h.listen()
	return h
}

// Context returns the context canceled by the first signal.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Interrupted returns a channel that closes when the first signal arrives.
func (h *Handler) Interrupted() <-chan struct{} {
	return h.interrupted
}

// WasInterrupted reports whether a signal has been received.
func (h *Handler) WasInterrupted() bool {
	select {
	case <-h.interrupted:
		return true
	default:
		return false
	}
}

// Stop stops listening for signals and cancels the context. Safe to call twice.
func (h *Handler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.sigChan)
		close(h.done)
		h.cancel()
	})
}

// handleSignal cancels on the first signal and forces on the second.
func (h *Handler) handleSignal() {
	h.mu.Lock()
	h.received++
	n := h.received
	h.mu.Unlock()

	switch n {
	case 1:
		h.cancel()
		close(h.interrupted)
	case 2:
		h.onForce()
	}
}

// listen waits for signals until Stop is called. It keeps running after the
// context is canceled so a second signal can still force an exit.
func (h *Handler) listen() {
	for {
		select {
		case <-h.done:
			return
		case <-h.sigChan:
			h.handleSignal()
		}
	}
}
