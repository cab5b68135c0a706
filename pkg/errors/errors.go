package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCancelled    ErrorCode = "CANCELLED"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// Rule definition errors, fatal for the whole batch
	ErrRulesLoad     ErrorCode = "RULES_LOAD"
	ErrRulesParse    ErrorCode = "RULES_PARSE"
	ErrDuplicateRule ErrorCode = "DUPLICATE_RULE"
	ErrPattern       ErrorCode = "PATTERN"

	// Per-rule application errors
	ErrNoMatch            ErrorCode = "NO_MATCH"
	ErrWrongMatchCount    ErrorCode = "WRONG_MATCH_COUNT"
	ErrTemplate           ErrorCode = "TEMPLATE"
	ErrVerificationFailed ErrorCode = "VERIFICATION_FAILED"
	ErrMarkerNotFound     ErrorCode = "MARKER_NOT_FOUND"
	ErrMatchTimeout       ErrorCode = "MATCH_TIMEOUT"

	// FileSystem errors
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrFileRead     ErrorCode = "FILE_READ"
	ErrFileWrite    ErrorCode = "FILE_WRITE"
)

// DopatchError represents a structured error with code and details
type DopatchError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *DopatchError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *DopatchError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *DopatchError) Is(target error) bool {
	var targetErr *DopatchError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new DopatchError with the given code and message
func New(code ErrorCode, message string) *DopatchError {
	return &DopatchError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new DopatchError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *DopatchError {
	return &DopatchError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a DopatchError
func Wrap(err error, code ErrorCode, message string) *DopatchError {
	if err == nil {
		return nil
	}
	return &DopatchError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *DopatchError {
	if err == nil {
		return nil
	}
	return &DopatchError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *DopatchError) WithDetail(key string, value interface{}) *DopatchError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *DopatchError) WithDetails(details map[string]interface{}) *DopatchError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var dopatchErr *DopatchError
	if errors.As(err, &dopatchErr) {
		return dopatchErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a DopatchError
func GetErrorCode(err error) ErrorCode {
	var dopatchErr *DopatchError
	if errors.As(err, &dopatchErr) {
		return dopatchErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a DopatchError
func GetErrorDetails(err error) map[string]interface{} {
	var dopatchErr *DopatchError
	if errors.As(err, &dopatchErr) {
		return dopatchErr.Details
	}
	return nil
}

// GetMessage returns the message of the outermost DopatchError without the
// code prefix, or err.Error() for foreign errors.
func GetMessage(err error) string {
	if err == nil {
		return ""
	}
	var dopatchErr *DopatchError
	if errors.As(err, &dopatchErr) {
		if dopatchErr.Wrapped != nil {
			return fmt.Sprintf("%s: %v", dopatchErr.Message, dopatchErr.Wrapped)
		}
		return dopatchErr.Message
	}
	return err.Error()
}

// Reason is the machine-readable form of an error code used in reports,
// e.g. NO_MATCH becomes "no-match".
func Reason(code ErrorCode) string {
	return strings.ReplaceAll(strings.ToLower(string(code)), "_", "-")
}
