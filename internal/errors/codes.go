// Package errors provides structured error handling for docdex.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (file, directory, disk)
//   - 3XX: Format errors (unsupported or unparseable content)
//   - 4XX: Query errors (client-side, never fatal to the service)
//   - 5XX: Storage errors (snapshot, database)
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and directory I/O errors.
	CategoryIO Category = "IO"
	// CategoryFormat indicates content that could not be parsed for its extension.
	CategoryFormat Category = "FORMAT"
	// CategoryQuery indicates malformed search queries.
	CategoryQuery Category = "QUERY"
	// CategoryStorage indicates snapshot or relational storage failures.
	CategoryStorage Category = "STORAGE"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates an unrecoverable error, the operation must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the operation failed but the caller can continue.
	SeverityError Severity = "ERROR"
	// SeveritySkip indicates a per-file failure that is counted and skipped.
	SeveritySkip Severity = "SKIP"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeFileRead   = "ERR_201_FILE_READ"
	ErrCodeFileStat   = "ERR_202_FILE_STAT"
	ErrCodeDirRead    = "ERR_203_DIR_READ"
	ErrCodeIndexOpen  = "ERR_204_INDEX_OPEN"
	ErrCodeIndexWrite = "ERR_205_INDEX_WRITE"

	// Format errors (300-399)
	ErrCodeNoExtension      = "ERR_301_NO_EXTENSION"
	ErrCodeUnsupportedType  = "ERR_302_UNSUPPORTED_TYPE"
	ErrCodeMalformedContent = "ERR_303_MALFORMED_CONTENT"

	// Query errors (400-499)
	ErrCodeInvalidQuery = "ERR_401_INVALID_QUERY"

	// Storage errors (500-599)
	ErrCodeCorruptSnapshot = "ERR_501_CORRUPT_SNAPSHOT"
	ErrCodeStorage         = "ERR_502_STORAGE"
)

// categoryFromCode extracts the category from an error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryStorage
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryFormat
	case '4':
		return CategoryQuery
	default:
		return CategoryStorage
	}
}

// severityFromCode determines severity based on the error code.
// Per-file IO and format failures are skippable during a traversal;
// corrupt snapshots, storage failures, and directory-level failures
// abort the operation that hit them.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCorruptSnapshot, ErrCodeIndexOpen, ErrCodeIndexWrite, ErrCodeDirRead:
		return SeverityFatal
	case ErrCodeFileRead, ErrCodeFileStat, ErrCodeNoExtension, ErrCodeUnsupportedType, ErrCodeMalformedContent:
		return SeveritySkip
	default:
		return SeverityError
	}
}
