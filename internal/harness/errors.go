package harness

import (
	"errors"

	"github.com/roach88/hidux/internal/model"
	"github.com/roach88/hidux/internal/proxy"
)

// Error classes a step may expect.
const (
	ErrClassAny          = "any"
	ErrClassStale        = "stale"
	ErrClassOutOfRange   = "out_of_range"
	ErrClassNoSuchKey    = "no_such_key"
	ErrClassNotContainer = "not_container"
	ErrClassWrongKind    = "wrong_kind"
	ErrClassDestroyed    = "destroyed"
	ErrClassOther        = "other"
)

func validErrorClass(c string) bool {
	switch c {
	case ErrClassAny, ErrClassStale, ErrClassOutOfRange, ErrClassNoSuchKey,
		ErrClassNotContainer, ErrClassWrongKind, ErrClassDestroyed:
		return true
	}
	return false
}

// errorClass maps a step error to its class.
func errorClass(err error) string {
	switch {
	case err == nil:
		return ""
	case proxy.IsStale(err):
		return ErrClassStale
	case model.IsDestroyed(err):
		return ErrClassDestroyed
	case errors.Is(err, proxy.ErrIndexOutOfRange):
		return ErrClassOutOfRange
	case errors.Is(err, proxy.ErrNoSuchKey):
		return ErrClassNoSuchKey
	case errors.Is(err, proxy.ErrNotContainer):
		return ErrClassNotContainer
	case errors.Is(err, proxy.ErrWrongKind):
		return ErrClassWrongKind
	default:
		return ErrClassOther
	}
}
