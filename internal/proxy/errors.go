package proxy

import (
	"errors"
	"fmt"

	"github.com/roach88/hidux/internal/value"
)

var (
	// ErrStaleInterceptor is returned by every operation on an interceptor
	// whose backing value was removed, replaced, or torn down.
	ErrStaleInterceptor = errors.New("interceptor has been invalidated")

	// ErrNoSuchKey is returned when reading a key the map does not hold.
	ErrNoSuchKey = errors.New("no such key")

	// ErrIndexOutOfRange is returned for sequence indices outside the sequence.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrNotContainer is returned when asking for the interceptor of a field
	// that holds a scalar or an unsupported value.
	ErrNotContainer = errors.New("value is not a tracked container")

	// ErrWrongKind is returned when a field holds the other container kind.
	ErrWrongKind = errors.New("container has the wrong kind")
)

// StaleError carries the operation and last known path of a stale access.
// It matches ErrStaleInterceptor with errors.Is.
type StaleError struct {
	Op   string
	Path value.Path
}

func (e *StaleError) Error() string {
	return fmt.Sprintf("%s at %q: %v", e.Op, e.Path.String(), ErrStaleInterceptor)
}

// Unwrap makes errors.Is(err, ErrStaleInterceptor) succeed.
func (e *StaleError) Unwrap() error {
	return ErrStaleInterceptor
}

// IsStale reports whether err came from an invalidated interceptor.
func IsStale(err error) bool {
	return errors.Is(err, ErrStaleInterceptor)
}
