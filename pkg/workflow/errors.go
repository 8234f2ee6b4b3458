package workflow

import "fmt"

// ValidationError reports malformed command-line input, surfaced before
// any script loading or remote call happens.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UnknownInputError is returned when a CLI argument names an input the
// workflow's interface does not declare.
type UnknownInputError struct {
	Name string
}

func (e *UnknownInputError) Error() string {
	return fmt.Sprintf("workflow has no input %q", e.Name)
}

// ConversionError is returned when a raw argument value cannot be
// converted to its declared type.
type ConversionError struct {
	Name  string
	Value string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("input %q: cannot convert %q: %v", e.Name, e.Value, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// UnsupportedTypeError is returned when an input's declared type has no
// command-line resolution branch.
type UnsupportedTypeError struct {
	Name string
	Type TypeTag
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported type %s for argument %q", e.Type, e.Name)
}

// DanglingFlagError is returned when the argument list ends with a flag
// that has no value.
type DanglingFlagError struct {
	Name string
}

func (e *DanglingFlagError) Error() string {
	return fmt.Sprintf("flag %q has no value", e.Name)
}

// ErrorCode represents a structured API error code.
type ErrorCode string

const (
	ErrValidation   ErrorCode = "VALIDATION_ERROR"
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrConflict     ErrorCode = "CONFLICT"
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
)

// APIError is a structured error returned by the orchestration service.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
