package scoring

import (
	"fmt"

	"newsdiet/internal/services"
)

// ModelErrorKind classifies a failed model call.
type ModelErrorKind string

const (
	// KindTimeout means the call exceeded the model timeout.
	KindTimeout ModelErrorKind = "timeout"
	// KindParse means the response did not match the expected JSON object.
	KindParse ModelErrorKind = "parse"
	// KindUnavailable means the model server could not be reached or failed.
	KindUnavailable ModelErrorKind = "unavailable"
)

// ModelError is the typed failure recorded on degraded results.
type ModelError struct {
	Kind ModelErrorKind
	Err  error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model %s: %v", e.Kind, e.Err)
}

func (e *ModelError) Unwrap() []error {
	return []error{e.marker(), e.Err}
}

func (e *ModelError) marker() error {
	switch e.Kind {
	case KindTimeout:
		return services.ErrTimeout
	case KindParse:
		return services.ErrModelOutput
	default:
		return services.ErrTransient
	}
}

func parseError(format string, args ...any) *ModelError {
	return &ModelError{Kind: KindParse, Err: fmt.Errorf(format, args...)}
}
