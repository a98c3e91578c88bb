// Package logger provides a structured, levelled logger built on log/slog.
//
// The key extension over plain slog is WithCtx: it returns the logger the
// request middleware stored in the context, with the request ID already
// attached, so every log line from a handler or service is correlated:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("payment recorded", "parcel_id", id)
//	// → time=... level=INFO msg="payment recorded" request_id=a1b2c3d4 parcel_id=...
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shashiranjanraj/parcelhub/config"
)

var L *slog.Logger

func init() {
	L = New(os.Stdout, config.AppEnv(), config.LogLevel())
	slog.SetDefault(L)
}

// New builds a logger writing to w: JSON in production, text elsewhere.
func New(w io.Writer, env, level string) *slog.Logger {
	return slog.New(NewHandler(w, env, level))
}

// NewHandler returns the console handler for env and level.
func NewHandler(w io.Writer, env, level string) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	switch strings.ToLower(env) {
	case "production", "prod":
		return slog.NewJSONHandler(w, opts) // structured JSON for log aggregators
	default:
		return slog.NewTextHandler(w, opts)
	}
}

// ParseLevel maps debug|info|warn|error to a slog.Level. Unknown values mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetHandler replaces the base logger's handler, e.g. to fan out to the
// Mongo sink once the database is connected.
func SetHandler(h slog.Handler) {
	L = slog.New(h)
	slog.SetDefault(L)
}

// ─────────────────────────────────────────────
// Context-aware logger
// ─────────────────────────────────────────────

// ctxKey is the unexported key used to store a per-request *slog.Logger.
type ctxKey struct{}

// WithCtx returns the per-request logger stored in ctx by the request
// middleware. If none is present the base logger is returned.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a *slog.Logger (pre-tagged with request_id) into ctx.
// Called by the Logger middleware.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// ─────────────────────────────────────────────
// Short-hand helpers (use base logger)
// ─────────────────────────────────────────────

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at INFO level.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at WARN level.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at ERROR level.
func Error(msg string, args ...any) { L.Error(msg, args...) }
