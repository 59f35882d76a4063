package logging

import (
	"context"
	"log/slog"
	"time"
)

// Attr aliases slog.Attr so callers only import this package.
type Attr = slog.Attr

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

// Error renders err as a string attribute under "error".
func Error(err error) Attr { return slog.String("error", errorText(err)) }

// Args converts attributes into the variadic form accepted by slog.Logger.
func Args(attrs ...Attr) []any { return attrArgs(attrs) }

func NewNop() *slog.Logger { return slog.New(NoopHandler{}) }

func errorText(err error) string {
	if err == nil {
		return "<nil>"
	}
	return err.Error()
}

func attrArgs(attrs []Attr) []any {
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	return args
}

// NewComponentLogger tags logger with a component attribute. A nil logger
// yields a no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// withDefaults appends a default value for every key in defaults that attrs
// does not already carry. defaults is a flat key, value list.
func withDefaults(attrs []Attr, defaults ...string) []Attr {
	for i := 0; i+1 < len(defaults); i += 2 {
		key := defaults[i]
		present := false
		for _, attr := range attrs {
			if attr.Key == key {
				present = true
				break
			}
		}
		if !present {
			attrs = append(attrs, String(key, defaults[i+1]))
		}
	}
	return attrs
}

// WarnWithContext logs a warning that always names an event type, a hint,
// and the impact on the reader's feed.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefaults(attrs,
		FieldEventType, eventType,
		FieldErrorHint, "check logs for details",
		FieldImpact, "operation completed with warnings",
	)
	logger.Warn(msg, attrArgs(attrs)...)
}

// ErrorWithContext logs an error that always names an event type and a hint.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefaults(attrs,
		FieldEventType, eventType,
		FieldErrorHint, "check logs for details",
	)
	logger.Error(msg, attrArgs(attrs)...)
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
