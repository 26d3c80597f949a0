package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the logging surface the rest of the module depends on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	// WithContext binds ctx; records then carry its request id.
	WithContext(ctx context.Context) Logger
}

// Config holds logger configuration.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is json or text.
	Format string `koanf:"format"`
	// Output defaults to os.Stderr.
	Output    io.Writer `koanf:"-"`
	AddSource bool      `koanf:"add_source"`
}

// DefaultConfig logs JSON at info to stderr.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json"}
}

// Validate rejects unknown levels and formats.
func (c Config) Validate() error {
	if _, err := ParseLevel(c.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Format) {
	case "", "json", "text", "console":
		return nil
	}
	return fmt.Errorf("logger: unknown format %q", c.Format)
}

// ParseLevel maps a level name to its slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("logger: unknown level %q", s)
}

// level is shared by every logger from New so SetLevel reaches them all.
var level = new(slog.LevelVar)

// New builds a logger. Secret-looking attributes are redacted.
func New(cfg Config) (Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lv, _ := ParseLevel(cfg.Level)
	level.Set(lv)

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}

	var h slog.Handler
	if f := strings.ToLower(cfg.Format); f == "text" || f == "console" {
		h = slog.NewTextHandler(out, opts)
	} else {
		h = slog.NewJSONHandler(out, opts)
	}
	return FromSlog(slog.New(contextHandler{h})), nil
}

// FromSlog adapts an existing slog.Logger.
func FromSlog(l *slog.Logger) Logger {
	return &adapter{sl: l, ctx: context.Background()}
}

// Discard drops everything.
func Discard() Logger {
	return FromSlog(slog.New(slog.DiscardHandler))
}

// SetLevel changes the level of every logger built by New.
func SetLevel(name string) error {
	lv, err := ParseLevel(name)
	if err != nil {
		return err
	}
	level.Set(lv)
	return nil
}

// GetLevel returns the current level in lower case.
func GetLevel() string {
	return strings.ToLower(level.Level().String())
}

type adapter struct {
	sl  *slog.Logger
	ctx context.Context
}

func (a *adapter) Debug(msg string, args ...any) { a.sl.Log(a.ctx, slog.LevelDebug, msg, args...) }
func (a *adapter) Info(msg string, args ...any)  { a.sl.Log(a.ctx, slog.LevelInfo, msg, args...) }
func (a *adapter) Warn(msg string, args ...any)  { a.sl.Log(a.ctx, slog.LevelWarn, msg, args...) }
func (a *adapter) Error(msg string, args ...any) { a.sl.Log(a.ctx, slog.LevelError, msg, args...) }

func (a *adapter) With(args ...any) Logger {
	return &adapter{sl: a.sl.With(args...), ctx: a.ctx}
}

func (a *adapter) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		ctx = context.Background()
	}
	return &adapter{sl: a.sl, ctx: ctx}
}

type holder struct{ l Logger }

var std atomic.Pointer[holder]

func init() {
	l, _ := New(DefaultConfig())
	std.Store(&holder{l})
}

// SetDefault replaces the process-wide logger; nil is ignored.
func SetDefault(l Logger) {
	if l != nil {
		std.Store(&holder{l})
	}
}

// Default returns the process-wide logger.
func Default() Logger {
	return std.Load().l
}
