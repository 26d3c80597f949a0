// Package notify provides the user-visible toast capability.
//
// Notifications are best effort: Notify never reports failure to the
// caller.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/PHJ369906/aox-miniapp/internal/telemetry/logger"
)

// Notifier shows a short message to the user.
type Notifier interface {
	Notify(ctx context.Context, msg string)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, msg string)

func (f Func) Notify(ctx context.Context, msg string) { f(ctx, msg) }

// Discard drops every notification.
var Discard Notifier = Func(func(context.Context, string) {})

// LogNotifier writes notifications to a logger at warn level.
type LogNotifier struct {
	logger logger.Logger
}

// NewLogNotifier creates a notifier backed by log.
func NewLogNotifier(log logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.Default()
	}
	return &LogNotifier{logger: log}
}

func (n *LogNotifier) Notify(ctx context.Context, msg string) {
	n.logger.WithContext(ctx).Warn("toast", "message", msg)
}

// WriterNotifier prints notifications as lines, e.g. to a terminal.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier creates a notifier printing to w.
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Notify(ctx context.Context, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "! %s\n", msg)
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *Recorder) Notify(ctx context.Context, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

// Messages returns the recorded messages in order.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

// Reset drops recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = nil
}
