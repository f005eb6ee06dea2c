package harness

import (
	"context"
	"errors"

	"github.com/weiihann/fhebench/backend"
	"github.com/weiihann/fhebench/catalog"
)

var (
	// ErrIO marks a report that could not be written.
	ErrIO = errors.New("io error")

	// ErrMismatch marks a decrypted result that differs from the
	// cleartext reference.
	ErrMismatch = errors.New("result mismatch")

	// ErrTimeout marks a case that exceeded its wall-clock budget.
	ErrTimeout = errors.New("case timed out")
)

// Kind returns the short failure kind of err, as shown in summaries.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, catalog.ErrRange):
		return "range"
	case errors.Is(err, catalog.ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrMismatch):
		return "mismatch"
	case errors.Is(err, backend.ErrBackendFatal):
		return "backend"
	case errors.Is(err, ErrIO):
		return "io"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "unknown"
	}
}
