package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failure categories the API distinguishes.
type ErrorKind int

const (
	// KindValidation marks malformed or missing client input.
	KindValidation ErrorKind = iota + 1
	// KindModelUnavailable marks an operation that needs a model when none is loaded.
	KindModelUnavailable
	// KindTrainingFailure marks a failed training run.
	KindTrainingFailure
	// KindDataAccessFailure marks a dataset or model file that could not be read or written.
	KindDataAccessFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindModelUnavailable:
		return "model_unavailable"
	case KindTrainingFailure:
		return "training_failure"
	case KindDataAccessFailure:
		return "data_access_failure"
	default:
		return "unknown"
	}
}

// Error is a categorized error. Message is safe to return to API callers.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrModelUnavailable) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// Sentinels for errors.Is checks by kind.
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrModelUnavailable  = &Error{Kind: KindModelUnavailable}
	ErrTrainingFailure   = &Error{Kind: KindTrainingFailure}
	ErrDataAccessFailure = &Error{Kind: KindDataAccessFailure}
)

// NewValidationError returns a validation error with a client-facing message.
func NewValidationError(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

// NewModelUnavailableError returns the error used when no model is loaded.
func NewModelUnavailableError() error {
	return &Error{Kind: KindModelUnavailable, Message: "Model not loaded"}
}

// NewTrainingError wraps err as a training failure.
func NewTrainingError(err error) error {
	return &Error{Kind: KindTrainingFailure, Err: err}
}

// NewDataAccessError wraps err as a data access failure.
func NewDataAccessError(err error) error {
	return &Error{Kind: KindDataAccessFailure, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
