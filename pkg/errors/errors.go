package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown       ErrorCode = "UNKNOWN"
	ErrInternal      ErrorCode = "INTERNAL"
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrAlreadyExists ErrorCode = "ALREADY_EXISTS"
	ErrCancelled     ErrorCode = "CANCELLED"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Extraction errors
	ErrUnsupportedSource  ErrorCode = "UNSUPPORTED_SOURCE"
	ErrFileSystem         ErrorCode = "FILESYSTEM"
	ErrStructuralConflict ErrorCode = "STRUCTURAL_CONFLICT"
	ErrUnsafePath         ErrorCode = "UNSAFE_PATH"

	// Fetch errors
	ErrChecksum ErrorCode = "CHECKSUM"

	// Patch errors
	ErrMissingApply        ErrorCode = "MISSING_APPLY"
	ErrInvalidApplyList    ErrorCode = "INVALID_APPLY_LIST"
	ErrPatchMemberNotFound ErrorCode = "PATCH_MEMBER_NOT_FOUND"
	ErrPatchApply          ErrorCode = "PATCH_APPLY"
)

// StagerError represents a structured error with code and details
type StagerError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *StagerError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *StagerError) Unwrap() error {
	return e.Wrapped
}

// Is matches any StagerError carrying the same code, so callers can write
// errors.Is(err, errors.New(errors.ErrPatchApply, "")).
func (e *StagerError) Is(target error) bool {
	var targetErr *StagerError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new StagerError with the given code and message
func New(code ErrorCode, message string) *StagerError {
	return &StagerError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new StagerError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *StagerError {
	return &StagerError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a StagerError
func Wrap(err error, code ErrorCode, message string) *StagerError {
	if err == nil {
		return nil
	}
	return &StagerError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *StagerError {
	if err == nil {
		return nil
	}
	return &StagerError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *StagerError) WithDetail(key string, value interface{}) *StagerError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *StagerError) WithDetails(details map[string]interface{}) *StagerError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error has a specific error code. Only the
// outermost StagerError in the chain is consulted.
func IsErrorCode(err error, code ErrorCode) bool {
	var stagerErr *StagerError
	if errors.As(err, &stagerErr) {
		return stagerErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a StagerError
func GetErrorCode(err error) ErrorCode {
	var stagerErr *StagerError
	if errors.As(err, &stagerErr) {
		return stagerErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a StagerError
func GetErrorDetails(err error) map[string]interface{} {
	var stagerErr *StagerError
	if errors.As(err, &stagerErr) {
		return stagerErr.Details
	}
	return nil
}

// Passthrough returns err unchanged when it already carries a code, and wraps
// it with code otherwise. Used at layer boundaries so a structured failure from
// a lower layer keeps its kind.
func Passthrough(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	var stagerErr *StagerError
	if errors.As(err, &stagerErr) {
		return err
	}
	return Wrap(err, code, message)
}
