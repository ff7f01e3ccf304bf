// Package shutdown provides graceful process shutdown.
//
// Cleanup hooks are registered in startup order and executed in
// reverse on SIGINT/SIGTERM, each under a shared timeout.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Handler coordinates graceful shutdown.
type Handler struct {
	timeout   time.Duration
	hooks     []func(context.Context) error
	mu        sync.Mutex
	triggerCh chan struct{}
	once      sync.Once
	done      chan struct{}
}

// NewHandler creates a shutdown handler with the given hook timeout.
func NewHandler(timeout time.Duration) *Handler {
	return &Handler{
		timeout:   timeout,
		triggerCh: make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// OnShutdown registers a cleanup hook. Hooks run in reverse order of
// registration, mirroring startup order.
func (h *Handler) OnShutdown(hook func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// Trigger requests shutdown programmatically, as if a signal arrived.
func (h *Handler) Trigger() {
	h.once.Do(func() { close(h.triggerCh) })
}

// Wait blocks until SIGINT/SIGTERM or Trigger, then executes the
// hooks. The last hook error wins.
func (h *Handler) Wait() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
	case <-h.triggerCh:
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.mu.Lock()
	hooks := make([]func(context.Context) error, len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.Unlock()

	var lastErr error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			lastErr = err
		}
	}

	close(h.done)
	return lastErr
}

// Done returns a channel that closes when shutdown is complete.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
