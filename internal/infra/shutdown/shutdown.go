package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/PHJ369906/aox-miniapp/internal/telemetry/logger"
)

// DefaultTimeout bounds the total time hooks may take.
const DefaultTimeout = 5 * time.Second

// WithSignals returns a context cancelled on SIGINT or SIGTERM.
func WithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

type hook struct {
	name string
	fn   func(context.Context) error
}

// Handler runs cleanup hooks once, in reverse registration order.
type Handler struct {
	timeout time.Duration
	log     logger.Logger

	mu    sync.Mutex
	hooks []hook

	once sync.Once
	err  error
	done chan struct{}
}

// NewHandler creates a handler. A non-positive timeout uses DefaultTimeout.
func NewHandler(timeout time.Duration, log logger.Logger) *Handler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		timeout: timeout,
		log:     log.With("component", "shutdown"),
		done:    make(chan struct{}),
	}
}

// OnShutdown registers a named hook.
func (h *Handler) OnShutdown(name string, fn func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook{name: name, fn: fn})
}

// Wait blocks until ctx is done, then runs the hooks.
func (h *Handler) Wait(ctx context.Context) error {
	<-ctx.Done()
	return h.Shutdown()
}

// Shutdown runs every hook under the handler timeout and joins their
// errors. Later calls return the first result.
func (h *Handler) Shutdown() error {
	h.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		h.mu.Lock()
		hooks := append([]hook(nil), h.hooks...)
		h.mu.Unlock()

		var errs []error
		for i := len(hooks) - 1; i >= 0; i-- {
			hk := hooks[i]
			if err := hk.fn(ctx); err != nil {
				h.log.Warn("shutdown hook failed", "hook", hk.name, "error", err)
				errs = append(errs, fmt.Errorf("%s: %w", hk.name, err))
				continue
			}
			h.log.Debug("shutdown hook done", "hook", hk.name)
		}
		if ctx.Err() != nil {
			errs = append(errs, fmt.Errorf("shutdown: %w", ctx.Err()))
		}
		h.err = errors.Join(errs...)
		close(h.done)
	})
	return h.err
}

// Done is closed once Shutdown has finished.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
