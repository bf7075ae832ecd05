package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned when a job cannot be found in the store.
	ErrJobNotFound = errors.New("job not found")

	// ErrUserNotFound is returned when a referenced user or translator
	// email does not resolve.
	ErrUserNotFound = errors.New("user not found")
)

// FailureKind classifies a structured, non-fatal operation failure.
type FailureKind string

const (
	FailureValidation FailureKind = "validation"
	FailureConflict   FailureKind = "conflict"
	FailureNotFound   FailureKind = "not_found"
)

// Failure is a structured failure result: a machine-readable reason code
// plus a human message. It surfaces to the caller without any mutation
// having been committed.
type Failure struct {
	Kind    FailureKind
	Code    string
	Message string
	Field   string // offending field for validation failures, if any
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s (%s): %s", f.Kind, f.Code, f.Message)
}

// ValidationFailure builds a validation failure for a missing or invalid field.
func ValidationFailure(code, message string) *Failure {
	return &Failure{Kind: FailureValidation, Code: code, Message: message}
}

// FieldFailure builds a validation failure naming the offending field.
func FieldFailure(field, message string) *Failure {
	return &Failure{Kind: FailureValidation, Code: "missing_field", Message: message, Field: field}
}

// ConflictFailure builds a conflict failure, e.g. a lost acceptance race.
func ConflictFailure(code, message string) *Failure {
	return &Failure{Kind: FailureConflict, Code: code, Message: message}
}

// NotFoundFailure builds a failure for an unresolvable reference.
func NotFoundFailure(code, message string) *Failure {
	return &Failure{Kind: FailureNotFound, Code: code, Message: message}
}

// AsFailure unwraps err into a *Failure if it is one.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// InvariantViolation is a programming-contract breach, e.g. creating a
// second active assignment without cancelling the first. It aborts the
// triggering operation before any partial persistence and is never
// converted into a structured failure result.
type InvariantViolation struct {
	Msg string
}

func (e *InvariantViolation) Error() string {
	return "invariant violation: " + e.Msg
}

// NewInvariantViolation creates an InvariantViolation error.
func NewInvariantViolation(format string, args ...any) error {
	return &InvariantViolation{Msg: fmt.Sprintf(format, args...)}
}

// IsInvariantViolation reports whether err is an invariant violation.
func IsInvariantViolation(err error) bool {
	var iv *InvariantViolation
	return errors.As(err, &iv)
}
