// Package errors provides structured error handling for mditgo.
//
// Every error that crosses the facade boundary carries a stable string
// Code, a Category used for internal routing/retries, and optional
// structured Details. Categories:
//   - NotFound:    the referenced entity does not exist
//   - InvalidInput: the caller's request is malformed
//   - Conflict:    the operation would violate a uniqueness/state invariant
//   - Transient:   a retry with the same input might succeed
//   - Fatal:       an unrecoverable internal failure
package errors

// Category classifies an error for retry/routing decisions.
type Category string

const (
	CategoryNotFound     Category = "NOT_FOUND"
	CategoryInvalidInput Category = "INVALID_INPUT"
	CategoryConflict     Category = "CONFLICT"
	CategoryTransient    Category = "TRANSIENT"
	CategoryFatal        Category = "FATAL"
)

// Severity grades how loudly an error should be surfaced.
type Severity string

const (
	SeverityFatal   Severity = "FATAL"
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

// Stable facade error codes surfaced across the MCP/HTTP boundary.
const (
	CodeVaultNotFound             = "VAULT_NOT_FOUND"
	CodeNoteAlreadyExists         = "NOTE_ALREADY_EXISTS"
	CodeNoteNotFound              = "NOTE_NOT_FOUND"
	CodeInvalidSearchQuery        = "INVALID_SEARCH_QUERY"
	CodeInvalidSearchLimit        = "INVALID_SEARCH_LIMIT"
	CodeInvalidDirectoryRelPath   = "INVALID_DIRECTORY_REL_PATH"
	CodeDirectoryNotFound         = "DIRECTORY_NOT_FOUND"
	CodeConflictDimensionMismatch = "CONFLICT_DIMENSION_MISMATCH"
	CodeVaultWorkspaceUnavailable = "VAULT_WORKSPACE_UNAVAILABLE"
	CodeInternalError             = "INTERNAL_ERROR"
)

// categoryForCode maps a stable facade code to its internal category.
func categoryForCode(code string) Category {
	switch code {
	case CodeVaultNotFound, CodeNoteNotFound, CodeDirectoryNotFound:
		return CategoryNotFound
	case CodeInvalidSearchQuery, CodeInvalidSearchLimit, CodeInvalidDirectoryRelPath:
		return CategoryInvalidInput
	case CodeNoteAlreadyExists, CodeConflictDimensionMismatch:
		return CategoryConflict
	case CodeVaultWorkspaceUnavailable:
		return CategoryTransient
	default:
		return CategoryFatal
	}
}
