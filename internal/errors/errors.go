package errors

import (
	"fmt"
)

// ArchiveError is the structured error type for unisearch.
// It provides context for error handling, logging, and user presentation.
type ArchiveError struct {
	// Code is the unique error code (e.g., "ERR_401_INVALID_QUERY").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *ArchiveError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ArchiveError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with ArchiveError.
func (e *ArchiveError) Is(target error) bool {
	if t, ok := target.(*ArchiveError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *ArchiveError) WithDetail(key, value string) *ArchiveError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *ArchiveError) WithSuggestion(suggestion string) *ArchiveError {
	e.Suggestion = suggestion
	return e
}

// New creates a new ArchiveError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *ArchiveError {
	return &ArchiveError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates an ArchiveError from an existing error.
// The error's message becomes the ArchiveError message.
func Wrap(code string, err error) *ArchiveError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// InvalidQuery creates an invalid-query validation error.
func InvalidQuery(message string) *ArchiveError {
	return New(ErrCodeInvalidQuery, message, nil)
}

// UnknownSource creates an error for a fields value outside the enumerated set.
func UnknownSource(fields string) *ArchiveError {
	return New(ErrCodeUnknownSource, fmt.Sprintf("unknown source selection %q", fields), nil).
		WithSuggestion("valid values: all, entities, documents, news")
}

// IndexUnavailable creates the service-level failure for a missing index snapshot.
func IndexUnavailable() *ArchiveError {
	return New(ErrCodeIndexUnavailable, "record index not built yet", nil).
		WithSuggestion("run 'unisearch serve' against an archive database, or wait for the first rebuild")
}

// IOError creates an I/O-related error.
func IOError(code string, message string, cause error) *ArchiveError {
	return New(code, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *ArchiveError {
	return New(ErrCodeInternal, message, cause)
}

// GetCode extracts the error code from an ArchiveError.
// Returns empty string if not an ArchiveError.
func GetCode(err error) string {
	if ae, ok := err.(*ArchiveError); ok {
		return ae.Code
	}
	return ""
}

// GetCategory extracts the category from an ArchiveError.
// Returns empty string if not an ArchiveError.
func GetCategory(err error) Category {
	if ae, ok := err.(*ArchiveError); ok {
		return ae.Category
	}
	return ""
}

// IsValidation reports whether the error is a user-input validation error.
// Validation errors are safe to surface verbatim to the caller.
func IsValidation(err error) bool {
	return GetCategory(err) == CategoryValidation
}
