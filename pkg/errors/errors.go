// Package errors provides typed errors for the application
package errors

import "errors"

// ErrorType represents the type of error
type ErrorType int

const (
	ErrorTypeValidation ErrorType = iota
	ErrorTypeNotFound
	ErrorTypeConflict
	ErrorTypePermission
	ErrorTypeInternal
)

// String returns a short label used in logs and metric labels
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeValidation:
		return "validation"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeConflict:
		return "conflict"
	case ErrorTypePermission:
		return "permission"
	default:
		return "internal"
	}
}

// typedError is implemented by every error in this package
type typedError interface {
	error
	Type() ErrorType
}

// baseError is the base implementation for all error types
type baseError struct {
	msg   string
	cause error
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

// Message returns the text without the wrapped cause.
// This is what gets shown to operators in the admin room.
func (e *baseError) Message() string {
	return e.msg
}

func (e *baseError) Unwrap() error {
	return e.cause
}

// ValidationError represents malformed input (bad command arguments, bad config)
type ValidationError struct {
	baseError
}

// NewValidationError creates a new ValidationError
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{baseError{msg: msg}}
}

func (e *ValidationError) Type() ErrorType { return ErrorTypeValidation }

// NotFoundError represents a failed lookup
type NotFoundError struct {
	baseError
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(msg string) *NotFoundError {
	return &NotFoundError{baseError{msg: msg}}
}

func (e *NotFoundError) Type() ErrorType { return ErrorTypeNotFound }

// ConflictError represents a state conflict
type ConflictError struct {
	baseError
}

// NewConflictError creates a new ConflictError
func NewConflictError(msg string) *ConflictError {
	return &ConflictError{baseError{msg: msg}}
}

func (e *ConflictError) Type() ErrorType { return ErrorTypeConflict }

// PermissionError represents a permission error
type PermissionError struct {
	baseError
}

// NewPermissionError creates a new PermissionError
func NewPermissionError(msg string) *PermissionError {
	return &PermissionError{baseError{msg: msg}}
}

func (e *PermissionError) Type() ErrorType { return ErrorTypePermission }

// InternalError represents a failure of a collaborator (storage, templating, network)
type InternalError struct {
	baseError
}

// NewInternalError creates a new InternalError
func NewInternalError(msg string) *InternalError {
	return &InternalError{baseError{msg: msg}}
}

// WrapInternal creates an InternalError that keeps cause in its chain
func WrapInternal(msg string, cause error) *InternalError {
	return &InternalError{baseError{msg: msg, cause: cause}}
}

func (e *InternalError) Type() ErrorType { return ErrorTypeInternal }

// TypeOf returns the type of the first typed error in err's chain.
// Untyped errors are internal.
func TypeOf(err error) ErrorType {
	var typed typedError
	if errors.As(err, &typed) {
		return typed.Type()
	}
	return ErrorTypeInternal
}

// MessageOf returns the operator-facing message of the first typed error in err's chain
func MessageOf(err error) string {
	var m interface{ Message() string }
	if errors.As(err, &m) {
		return m.Message()
	}
	return err.Error()
}

// IsValidationError checks if error is a ValidationError
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFoundError checks if error is a NotFoundError
func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsConflictError checks if error is a ConflictError
func IsConflictError(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

// IsPermissionError checks if error is a PermissionError
func IsPermissionError(err error) bool {
	var target *PermissionError
	return errors.As(err, &target)
}

// IsInternalError checks if error is an InternalError
func IsInternalError(err error) bool {
	var target *InternalError
	return errors.As(err, &target)
}
