// Package logger provides the process-wide structured logger used by
// every component of the core: the document substrate, the controller
// runtime, the ACL enforcer, and the OAuth2 protocol core all log
// through this package rather than holding their own *slog.Logger.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync/atomic"
)

var singleton atomic.Pointer[slog.Logger]

func init() {
	singleton.Store(newLogger(os.Stderr, slog.LevelInfo, unstructuredLogs()))
}

// Initialize (re)configures the singleton logger from the environment.
// UNSTRUCTURED_LOGS=false selects JSON output; anything else (including
// unset) selects a human-readable text handler, matching local dev use.
func Initialize() {
	singleton.Store(newLogger(os.Stderr, level(), unstructuredLogs()))
}

// Get returns the current singleton logger. Safe for concurrent use.
func Get() *slog.Logger {
	return singleton.Load()
}

func level() slog.Level {
	if v, ok := os.LookupEnv("DEBUG"); ok {
		if b, err := strconv.ParseBool(v); err == nil && b {
			return slog.LevelDebug
		}
	}
	return slog.LevelInfo
}

func unstructuredLogs() bool {
	v, ok := os.LookupEnv("UNSTRUCTURED_LOGS")
	if !ok {
		return true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return b
}

func newLogger(w io.Writer, lvl slog.Level, unstructured bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	if unstructured {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h)
}

// Debug logs at debug level.
func Debug(msg string) { Get().Debug(msg) }

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...any) { Get().Debug(fmt.Sprintf(format, args...)) }

// Debugw logs a message with structured key/value pairs at debug level.
func Debugw(msg string, kv ...any) { Get().Debug(msg, kv...) }

// Info logs at info level.
func Info(msg string) { Get().Info(msg) }

// Infof logs a formatted message at info level.
func Infof(format string, args ...any) { Get().Info(fmt.Sprintf(format, args...)) }

// Infow logs a message with structured key/value pairs at info level.
func Infow(msg string, kv ...any) { Get().Info(msg, kv...) }

// Warn logs at warn level.
func Warn(msg string) { Get().Warn(msg) }

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...any) { Get().Warn(fmt.Sprintf(format, args...)) }

// Warnw logs a message with structured key/value pairs at warn level.
func Warnw(msg string, kv ...any) { Get().Warn(msg, kv...) }

// Error logs at error level.
func Error(msg string) { Get().Error(msg) }

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...any) { Get().Error(fmt.Sprintf(format, args...)) }

// Errorw logs a message with structured key/value pairs at error level.
func Errorw(msg string, kv ...any) { Get().Error(msg, kv...) }

// DPanic logs at error level then panics. Used for invariant violations
// the runtime never expects to hit in production, e.g. a reconciler
// returning an unrecognized outcome.
func DPanic(msg string) {
	Get().Error(msg)
	panic(msg)
}

// DPanicf formats, logs at error level, then panics.
func DPanicf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	Get().Error(msg)
	panic(msg)
}

// DPanicw logs with key/value pairs at error level then panics.
func DPanicw(msg string, kv ...any) {
	Get().Error(msg, kv...)
	panic(msg)
}

// Panic logs at error level then panics.
func Panic(msg string) {
	Get().Error(msg)
	panic(msg)
}

// Panicf formats, logs at error level, then panics.
func Panicf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	Get().Error(msg)
	panic(msg)
}

// Panicw logs with key/value pairs at error level then panics.
func Panicw(msg string, kv ...any) {
	Get().Error(msg, kv...)
	panic(msg)
}

// Ctx returns a logger enriched with values pulled from ctx, if any were
// attached via WithContext. Reconcilers use this to correlate log lines
// with the resource being processed.
func Ctx(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return Get()
}

type ctxKey struct{}

// WithContext attaches a logger (typically Get().With(...)) to ctx for
// later retrieval via Ctx.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}
