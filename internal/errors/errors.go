package errors

import (
	"fmt"
)

// Error is the structured error type for docdex.
// It carries enough context (path, underlying cause) for diagnostics and
// lets callers branch on a small closed set of error kinds.
type Error struct {
	// Code is the unique error code (e.g., "ERR_201_FILE_READ").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Format, Query, Storage).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with Error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates an Error from an existing error.
// The error's message becomes the Error message.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// IOError creates a file-read error carrying the offending path.
func IOError(path string, cause error) *Error {
	return New(ErrCodeFileRead, fmt.Sprintf("could not read %s", path), cause).
		WithDetail("path", path)
}

// FormatError creates a content-format error carrying the offending path.
func FormatError(code, path string, cause error) *Error {
	return New(code, fmt.Sprintf("could not extract text from %s", path), cause).
		WithDetail("path", path)
}

// StorageError creates a storage-backend error.
func StorageError(message string, cause error) *Error {
	return New(ErrCodeStorage, message, cause)
}

// QueryError creates a client-side query error.
func QueryError(message string, cause error) *Error {
	return New(ErrCodeInvalidQuery, message, cause)
}

// IsSkippable reports whether the error is a per-file failure that a
// directory traversal should count and skip rather than abort on.
func IsSkippable(err error) bool {
	if err == nil {
		return false
	}
	if de, ok := err.(*Error); ok {
		return de.Severity == SeveritySkip
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors abort the current operation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if de, ok := err.(*Error); ok {
		return de.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from an Error.
// Returns empty string if not an Error.
func GetCode(err error) string {
	if de, ok := err.(*Error); ok {
		return de.Code
	}
	return ""
}

// GetCategory extracts the category from an Error.
// Returns empty string if not an Error.
func GetCategory(err error) Category {
	if de, ok := err.(*Error); ok {
		return de.Category
	}
	return ""
}
