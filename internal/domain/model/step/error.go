package step

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a step failure
type ErrorKind string

const (
	// ErrorKindValidation indicates malformed input or a wrong expected version
	ErrorKindValidation ErrorKind = "VALIDATION"
	// ErrorKindConflict indicates an optimistic-concurrency collision
	ErrorKindConflict ErrorKind = "CONFLICT"
	// ErrorKindEvaluation indicates a capability failure or timeout
	ErrorKindEvaluation ErrorKind = "EVALUATION"
	// ErrorKindRecord indicates a trace persistence failure
	ErrorKindRecord ErrorKind = "RECORD"
	// ErrorKindNotFound indicates an unknown game or section
	ErrorKindNotFound ErrorKind = "NOT_FOUND"
)

// Error is the structured step error surfaced to callers.
// Validation, conflict, and evaluation errors are fatal to the current
// step call; record errors are recovered locally and never fail a step.
type Error struct {
	Kind   ErrorKind
	Source string // failing capability for evaluation errors: "rules", "narrative", "decision"
	Reason string
	Err    error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Source, e.Reason)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Reason)
}

// Unwrap returns the wrapped cause, if any
func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError creates a validation error
func NewValidationError(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrorKindValidation, Reason: fmt.Sprintf(format, args...)}
}

// NewConflictError creates an optimistic-concurrency conflict error
func NewConflictError(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrorKindConflict, Reason: fmt.Sprintf(format, args...)}
}

// NewEvaluationError creates an evaluation error naming the failed capability
func NewEvaluationError(source, reason string, cause error) *Error {
	return &Error{Kind: ErrorKindEvaluation, Source: source, Reason: reason, Err: cause}
}

// NewRecordError creates a trace persistence error
func NewRecordError(reason string, cause error) *Error {
	return &Error{Kind: ErrorKindRecord, Reason: reason, Err: cause}
}

// NewNotFoundError creates a not-found error
func NewNotFoundError(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrorKindNotFound, Reason: fmt.Sprintf(format, args...)}
}

func hasKind(err error, kind ErrorKind) bool {
	var stepErr *Error
	return errors.As(err, &stepErr) && stepErr.Kind == kind
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	return hasKind(err, ErrorKindValidation)
}

// IsConflict checks if the error is a conflict error
func IsConflict(err error) bool {
	return hasKind(err, ErrorKindConflict)
}

// IsEvaluation checks if the error is an evaluation error
func IsEvaluation(err error) bool {
	return hasKind(err, ErrorKindEvaluation)
}

// IsRecord checks if the error is a record error
func IsRecord(err error) bool {
	return hasKind(err, ErrorKindRecord)
}

// IsNotFound checks if the error is a not-found error
func IsNotFound(err error) bool {
	return hasKind(err, ErrorKindNotFound)
}
