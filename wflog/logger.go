// Package wflog is the Logger Port (§6): a minimal structured-logging
// contract the engine consumes, with a no-op default and a concrete
// implementation over log/slog.
package wflog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Level is the severity of a log line. It extends slog's four standard
// levels with Trace (below Debug) and Critical (above Error), matching the
// six severities the Logger Port must expose.
type Level int

const (
	LevelTrace    Level = Level(slog.LevelDebug) - 4
	LevelDebug    Level = Level(slog.LevelDebug)
	LevelInfo     Level = Level(slog.LevelInfo)
	LevelWarn     Level = Level(slog.LevelWarn)
	LevelError    Level = Level(slog.LevelError)
	LevelCritical Level = Level(slog.LevelError) + 4
)

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Fields is a property map attached to a single log call or to a scope.
type Fields map[string]any

// Scope is a disposable handle returned by BeginScope. Releasing it (via
// Close) detaches the scoped fields from subsequent log calls on the
// parent logger; it has no effect on loggers derived before the scope was
// released.
type Scope interface {
	io.Closer
}

// Logger is the structured-logging contract consumed by the engine. All
// six fields-and-error methods accept an optional Fields map and error;
// callers may pass nil for either.
type Logger interface {
	Trace(msg string, fields Fields, err error)
	Debug(msg string, fields Fields, err error)
	Info(msg string, fields Fields, err error)
	Warn(msg string, fields Fields, err error)
	Error(msg string, fields Fields, err error)
	Critical(msg string, fields Fields, err error)

	// BeginScope attaches fields to every subsequent log call until the
	// returned Scope is released. Scopes nest: releasing an inner scope
	// does not affect fields attached by an outer, still-open scope.
	BeginScope(name string, fields Fields) Scope
}

// noOp is the zero-cost sink substituted when no logger is supplied, per
// §4.4's "logger: reference to the logger port; never null".
type noOp struct{}

// NoOp returns a Logger that discards every call.
func NoOp() Logger { return noOp{} }

func (noOp) Trace(string, Fields, error)    {}
func (noOp) Debug(string, Fields, error)    {}
func (noOp) Info(string, Fields, error)     {}
func (noOp) Warn(string, Fields, error)     {}
func (noOp) Error(string, Fields, error)    {}
func (noOp) Critical(string, Fields, error) {}
func (noOp) BeginScope(string, Fields) Scope {
	return noOpScope{}
}

type noOpScope struct{}

func (noOpScope) Close() error { return nil }

// SlogLogger implements Logger over log/slog, in the same style as the
// structured logger this codebase otherwise builds over slog: a thin
// typed wrapper plus functional-option construction.
//
// BeginScope is ambient and mutating by design (mirroring the scope
// semantics of structured-logging ports generally): every log call on a
// SlogLogger merges in the fields of every currently-open scope, innermost
// last, so a later scope's keys win on collision.
type SlogLogger struct {
	inner *slog.Logger

	mu       sync.Mutex
	scopes   map[uint64]Fields
	scopeSeq uint64
}

// Option configures a SlogLogger built by NewLogger.
type Option func(*slogConfig)

type slogConfig struct {
	level  Level
	json   bool
	writer io.Writer
}

// WithLevel sets the minimum level a SlogLogger emits.
func WithLevel(level Level) Option {
	return func(c *slogConfig) { c.level = level }
}

// WithWriter sets the destination for a SlogLogger's text/JSON handler.
func WithWriter(w io.Writer) Option {
	return func(c *slogConfig) { c.writer = w }
}

// WithJSON configures a SlogLogger to emit JSON-formatted output instead of
// the default text handler.
func WithJSON() Option {
	return func(c *slogConfig) { c.json = true }
}

// NewLogger creates a SlogLogger with the given options. Without options it
// defaults to info-level text output on stderr. Options are applied in
// order before the handler is built, so WithWriter/WithLevel may appear
// before or after WithJSON.
func NewLogger(opts ...Option) *SlogLogger {
	cfg := &slogConfig{level: LevelInfo, writer: os.Stderr}
	for _, opt := range opts {
		opt(cfg)
	}

	handlerOpts := &slog.HandlerOptions{Level: slog.Level(cfg.level)}
	var handler slog.Handler
	if cfg.json {
		handler = slog.NewJSONHandler(cfg.writer, handlerOpts)
	} else {
		handler = slog.NewTextHandler(cfg.writer, handlerOpts)
	}
	return &SlogLogger{inner: slog.New(handler), scopes: make(map[uint64]Fields)}
}

func (l *SlogLogger) log(level Level, msg string, fields Fields, err error) {
	l.mu.Lock()
	scopeCount := len(l.scopes)
	attrs := make([]any, 0, (len(fields)+scopeCount*2)*2+2)
	for id := uint64(1); id <= l.scopeSeq; id++ {
		if sf, ok := l.scopes[id]; ok {
			for k, v := range sf {
				attrs = append(attrs, k, v)
			}
		}
	}
	l.mu.Unlock()

	for k, v := range fields {
		attrs = append(attrs, k, v)
	}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	l.inner.Log(context.Background(), slog.Level(level), msg, attrs...)
}

func (l *SlogLogger) Trace(msg string, fields Fields, err error)    { l.log(LevelTrace, msg, fields, err) }
func (l *SlogLogger) Debug(msg string, fields Fields, err error)    { l.log(LevelDebug, msg, fields, err) }
func (l *SlogLogger) Info(msg string, fields Fields, err error)     { l.log(LevelInfo, msg, fields, err) }
func (l *SlogLogger) Warn(msg string, fields Fields, err error)     { l.log(LevelWarn, msg, fields, err) }
func (l *SlogLogger) Error(msg string, fields Fields, err error)    { l.log(LevelError, msg, fields, err) }
func (l *SlogLogger) Critical(msg string, fields Fields, err error) { l.log(LevelCritical, msg, fields, err) }

// BeginScope opens a scope carrying name and fields; it is merged into
// every log call on l until Close is called. Safe for concurrent use and
// safe to call Close concurrently with logging or with closing other
// scopes.
func (l *SlogLogger) BeginScope(name string, fields Fields) Scope {
	merged := make(Fields, len(fields)+1)
	merged["scope"] = name
	for k, v := range fields {
		merged[k] = v
	}

	l.mu.Lock()
	l.scopeSeq++
	id := l.scopeSeq
	l.scopes[id] = merged
	l.mu.Unlock()

	return &slogScope{owner: l, id: id}
}

type slogScope struct {
	owner *SlogLogger
	id    uint64
}

func (s *slogScope) Close() error {
	s.owner.mu.Lock()
	delete(s.owner.scopes, s.id)
	s.owner.mu.Unlock()
	return nil
}
