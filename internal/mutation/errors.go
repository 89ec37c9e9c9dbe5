package mutation

import (
	"errors"
	"fmt"

	"github.com/roach88/hidux/internal/value"
)

// BuildError represents a mutation the snapshot builder cannot apply.
//
// None of these occur for mutations emitted by interceptors over a
// consistent graph; seeing one means the live graph and the snapshot
// have diverged or a caller hand-built a bad mutation.
type BuildError struct {
	// Code identifies the error category.
	Code BuildErrorCode

	// Message is a human-readable description.
	Message string

	// Kind is the mutation kind being applied.
	Kind Kind

	// Path is the full mutation path.
	Path value.Path
}

// BuildErrorCode categorizes build errors.
type BuildErrorCode string

const (
	// ErrCodeUnknownKind indicates a mutation kind the builder does not dispatch on.
	ErrCodeUnknownKind BuildErrorCode = "UNKNOWN_MUTATION_KIND"

	// ErrCodePathNotFound indicates the path does not exist in the snapshot.
	ErrCodePathNotFound BuildErrorCode = "PATH_NOT_FOUND"

	// ErrCodeTypeMismatch indicates a segment or kind does not fit the node it targets.
	ErrCodeTypeMismatch BuildErrorCode = "TYPE_MISMATCH"

	// ErrCodeInvalidPayload indicates the payload has the wrong shape for the kind.
	ErrCodeInvalidPayload BuildErrorCode = "INVALID_PAYLOAD"
)

// Error implements the error interface.
func (e *BuildError) Error() string {
	if len(e.Path) > 0 {
		return fmt.Sprintf("%s: %s (kind=%s, path=%s)", e.Code, e.Message, e.Kind, e.Path)
	}
	return fmt.Sprintf("%s: %s (kind=%s)", e.Code, e.Message, e.Kind)
}

// IsUnknownKind returns true if the error is an unknown-kind build error.
// Uses errors.As to handle wrapped errors.
func IsUnknownKind(err error) bool {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code == ErrCodeUnknownKind
	}
	return false
}

// IsPathNotFound returns true if the error is a path-not-found build error.
func IsPathNotFound(err error) bool {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code == ErrCodePathNotFound
	}
	return false
}

func newBuildError(code BuildErrorCode, m Mutation, format string, args ...any) *BuildError {
	return &BuildError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Kind:    m.Kind,
		Path:    m.Path,
	}
}
