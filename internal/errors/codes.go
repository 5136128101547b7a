// Package errors provides structured error handling for unisearch.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (database, index files)
//   - 4XX: Validation errors (query, source selection)
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates database and file I/O errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeArchiveOpen   = "ERR_201_ARCHIVE_OPEN"
	ErrCodeArchiveQuery  = "ERR_202_ARCHIVE_QUERY"
	ErrCodeAnalyticsIO   = "ERR_203_ANALYTICS_IO"
	ErrCodeExcerptIndex  = "ERR_204_EXCERPT_INDEX"
	ErrCodeDataDirLocked = "ERR_205_DATA_DIR_LOCKED"

	// Validation errors (400-499)
	ErrCodeInvalidQuery     = "ERR_401_INVALID_QUERY"
	ErrCodeUnknownSource    = "ERR_402_UNKNOWN_SOURCE"
	ErrCodeInvalidDateRange = "ERR_403_INVALID_DATE_RANGE"

	// Internal errors (500-599)
	ErrCodeInternal         = "ERR_501_INTERNAL"
	ErrCodeIndexUnavailable = "ERR_502_INDEX_UNAVAILABLE"
	ErrCodeSearchFailed     = "ERR_503_SEARCH_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode derives severity from error code.
// Validation failures never abort the process; index unavailability does
// abort the request but the server keeps running.
func severityFromCode(code string) Severity {
	switch categoryFromCode(code) {
	case CategoryValidation:
		return SeverityWarning
	case CategoryConfig:
		return SeverityFatal
	default:
		return SeverityError
	}
}
