package model

import (
	"errors"
	"fmt"
)

// ModelError is returned by instance operations that cannot proceed.
type ModelError struct {
	// Code identifies the error category.
	Code ModelErrorCode

	// Message is a human-readable description.
	Message string

	// Model is the definition name.
	Model string

	// Method names the method involved, if any.
	Method string
}

// ModelErrorCode categorizes model errors.
type ModelErrorCode string

const (
	// ErrCodeDestroyed indicates the instance has been destroyed.
	ErrCodeDestroyed ModelErrorCode = "DESTROYED"

	// ErrCodeUnknownMethod indicates a call to a method the definition lacks.
	ErrCodeUnknownMethod ModelErrorCode = "UNKNOWN_METHOD"

	// ErrCodeInvalidInitial indicates the initial state could not be built
	// or failed validation.
	ErrCodeInvalidInitial ModelErrorCode = "INVALID_INITIAL"
)

// Error implements the error interface.
func (e *ModelError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("%s: %s (model=%s, method=%s)", e.Code, e.Message, e.Model, e.Method)
	}
	return fmt.Sprintf("%s: %s (model=%s)", e.Code, e.Message, e.Model)
}

// IsDestroyed reports whether err is a use-after-destroy error.
func IsDestroyed(err error) bool {
	var me *ModelError
	if errors.As(err, &me) {
		return me.Code == ErrCodeDestroyed
	}
	return false
}

// IsUnknownMethod reports whether err is an unknown method error.
func IsUnknownMethod(err error) bool {
	var me *ModelError
	if errors.As(err, &me) {
		return me.Code == ErrCodeUnknownMethod
	}
	return false
}

// IsInvalidInitial reports whether err is an initial-state error.
func IsInvalidInitial(err error) bool {
	var me *ModelError
	if errors.As(err, &me) {
		return me.Code == ErrCodeInvalidInitial
	}
	return false
}
