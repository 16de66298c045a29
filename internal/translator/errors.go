package translator

import (
	"errors"
	"fmt"

	"github.com/roach88/vqb/internal/pipeline"
)

// Error represents a failure raised while resolving or running a translator.
//
// Errors include:
//   - Step not supported: the translator has no handler for a step kind
//   - Unknown backend: the registry has no entry for a name
//   - Unsupported operator: a filter operator the backend cannot express
//   - Malformed step: a step outside the closed set reached dispatch
//
// None of them is retryable: a single bad step invalidates the whole call.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Kind is the offending step kind (step-related errors).
	Kind pipeline.Kind

	// Backend is the translator name, when known.
	Backend string

	// Operator is the offending filter operator (UNSUPPORTED_OPERATOR).
	Operator string
}

// ErrorCode categorizes translator errors.
type ErrorCode string

const (
	// ErrCodeStepNotSupported indicates a step kind without a handler.
	ErrCodeStepNotSupported ErrorCode = "STEP_NOT_SUPPORTED"

	// ErrCodeUnknownBackend indicates a registry lookup miss.
	ErrCodeUnknownBackend ErrorCode = "UNKNOWN_BACKEND"

	// ErrCodeUnsupportedOperator indicates a non-translatable filter operator.
	ErrCodeUnsupportedOperator ErrorCode = "UNSUPPORTED_OPERATOR"

	// ErrCodeMalformedStep indicates a step outside the closed set.
	ErrCodeMalformedStep ErrorCode = "MALFORMED_STEP"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Backend != "" {
		return fmt.Sprintf("%s: %s (backend=%s)", e.Code, e.Message, e.Backend)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes pipeline.ErrMalformedStep for malformed step errors.
func (e *Error) Unwrap() error {
	if e.Code == ErrCodeMalformedStep {
		return pipeline.ErrMalformedStep
	}
	return nil
}

// NewStepNotSupported creates an Error for a step kind without a handler.
func NewStepNotSupported(kind pipeline.Kind) *Error {
	return &Error{
		Code:    ErrCodeStepNotSupported,
		Message: fmt.Sprintf("Unsupported step <%s>", kind),
		Kind:    kind,
	}
}

// NewUnknownBackend creates an Error for a missing registry entry.
func NewUnknownBackend(name string) *Error {
	return &Error{
		Code:    ErrCodeUnknownBackend,
		Message: fmt.Sprintf("no translator registered for %q", name),
		Backend: name,
	}
}

// NewUnsupportedOperator creates an Error for a filter operator a backend
// cannot translate.
func NewUnsupportedOperator(operator string) *Error {
	return &Error{
		Code:     ErrCodeUnsupportedOperator,
		Message:  fmt.Sprintf("Operator %s is not handled yet.", operator),
		Kind:     pipeline.KindFilter,
		Operator: operator,
	}
}

// NewMalformedStep creates an Error for a step that cannot be dispatched.
func NewMalformedStep(step pipeline.Step) *Error {
	return &Error{
		Code:    ErrCodeMalformedStep,
		Message: fmt.Sprintf("cannot dispatch step %T", step),
	}
}

func hasCode(err error, code ErrorCode) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Code == code
	}
	return false
}

// IsStepNotSupported returns true if err is a step-not-supported error.
// Uses errors.As to handle wrapped errors.
func IsStepNotSupported(err error) bool {
	return hasCode(err, ErrCodeStepNotSupported)
}

// IsUnknownBackend returns true if err is an unknown-backend error.
func IsUnknownBackend(err error) bool {
	return hasCode(err, ErrCodeUnknownBackend)
}

// IsUnsupportedOperator returns true if err is an unsupported-operator error.
func IsUnsupportedOperator(err error) bool {
	return hasCode(err, ErrCodeUnsupportedOperator)
}

// UnsupportedKind returns the step kind carried by a step-not-supported
// error, or "" when err is not one.
func UnsupportedKind(err error) pipeline.Kind {
	var te *Error
	if errors.As(err, &te) && te.Code == ErrCodeStepNotSupported {
		return te.Kind
	}
	return ""
}
