package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile          ErrorCategory = "file"
	CategoryParse         ErrorCategory = "parse"
	CategoryValidation    ErrorCategory = "validation"
	CategoryResolution    ErrorCategory = "resolution"
	CategoryPersistence   ErrorCategory = "persistence"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound      ErrorCode = "file_not_found"
	CodeFilePermission    ErrorCode = "file_permission"
	CodeFileCorrupted     ErrorCode = "file_corrupted"
	CodeUnsupportedFormat ErrorCode = "unsupported_format"

	// Parse errors
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeMissingHeader ErrorCode = "missing_header"
	CodeNoDataRows    ErrorCode = "no_data_rows"
	CodeEncodingError ErrorCode = "encoding_error"

	// Validation errors
	CodeMissingField  ErrorCode = "missing_field"
	CodeInvalidEmail  ErrorCode = "invalid_email"
	CodeInvalidPhone  ErrorCode = "invalid_phone"
	CodeInvalidNumber ErrorCode = "invalid_number"
	CodeInvalidDate   ErrorCode = "invalid_date"
	CodeOutOfRange    ErrorCode = "out_of_range"

	// Resolution errors
	CodeNoMatch          ErrorCode = "no_match"
	CodeReferenceMissing ErrorCode = "reference_missing"

	// Persistence errors
	CodeStoreUnreachable ErrorCode = "store_unreachable"
	CodeDuplicateRecord  ErrorCode = "duplicate_record"
	CodeCreateFailed     ErrorCode = "create_failed"
	CodeBatchAborted     ErrorCode = "batch_aborted"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// ImportError is the base error type for all application errors.
// Category and Code together let callers distinguish "abort the batch"
// conditions from "skip this row" conditions without matching on message
// strings.
type ImportError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *ImportError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *ImportError) Unwrap() error {
	return e.Cause
}

// Fatal reports whether the error aborts the whole batch rather than a
// single row. File and configuration problems, an unreachable store, and
// an explicitly aborted batch halt the pipeline; everything else stays
// scoped to its row.
func (e *ImportError) Fatal() bool {
	switch e.Category {
	case CategoryFile, CategoryConfiguration:
		return true
	case CategoryPersistence:
		return e.Code == CodeStoreUnreachable || e.Code == CodeBatchAborted
	case CategoryParse:
		return e.Code == CodeMissingHeader || e.Code == CodeNoDataRows ||
			e.Code == CodeInvalidFormat || e.Code == CodeEncodingError
	default:
		return false
	}
}

// GetExitCode returns an appropriate exit code for the error
func (e *ImportError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryResolution, CategoryInternal:
		return 5
	case CategoryPersistence:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *ImportError) WithContext(key string, value interface{}) *ImportError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *ImportError) WithSuggestion(suggestion string) *ImportError {
	e.Suggestion = suggestion
	return e
}

// New creates a new ImportError
func New(category ErrorCategory, code ErrorCode, message string) *ImportError {
	return &ImportError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with ImportError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *ImportError {
	if err == nil {
		return nil
	}

	return &ImportError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Specific error constructors

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *ImportError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeFileCorrupted:
		message = fmt.Sprintf("file appears to be corrupted or unreadable: %s", path)
		suggestion = "re-save the file and try again; legacy .xls files should be re-saved as .xlsx"
	case CodeUnsupportedFormat:
		message = fmt.Sprintf("unsupported file format: %s", path)
		suggestion = "upload a .csv, .xlsx or .xls file"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *ImportError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ParseError creates a parsing-related error
func ParseError(code ErrorCode, file string, line int, detail string, err error) *ImportError {
	var message string
	var suggestion string

	switch code {
	case CodeMissingHeader:
		message = fmt.Sprintf("missing header row in file %s", file)
		suggestion = "ensure the first row of the file contains column headers"
	case CodeNoDataRows:
		message = fmt.Sprintf("file %s contains a header row but no data rows", file)
		suggestion = "add at least one data row below the header"
	case CodeInvalidFormat:
		message = fmt.Sprintf("invalid format in file %s at line %d: %s", file, line, detail)
		suggestion = "check delimiters and quoting around the reported line"
	case CodeEncodingError:
		message = fmt.Sprintf("encoding error in file %s at line %d", file, line)
		suggestion = "ensure the file is saved in UTF-8 encoding"
	default:
		message = fmt.Sprintf("parse error in file %s at line %d: %s", file, line, detail)
		suggestion = "check the file format and data integrity"
	}

	var result *ImportError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file", file).
		WithContext("line", line)
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, err error) *ImportError {
	var message string
	var suggestion string

	switch code {
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	case CodeInvalidEmail:
		message = fmt.Sprintf("invalid email in field '%s': %v", field, value)
		suggestion = "use a standard email address like 'name@example.com'"
	case CodeInvalidPhone:
		message = fmt.Sprintf("invalid phone number in field '%s': %v", field, value)
		suggestion = "use an Indonesian mobile number like '08123456789' or '+628123456789'"
	case CodeInvalidNumber:
		message = fmt.Sprintf("invalid number in field '%s': %v", field, value)
		suggestion = "use plain digits, optionally with a decimal point"
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in field '%s': %v", field, value)
		suggestion = "use day-first dates like '15/03/1990' or ISO dates like '1990-03-15'"
	case CodeOutOfRange:
		message = fmt.Sprintf("value out of range in field '%s': %v", field, value)
		suggestion = "ensure the value is within the acceptable range"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	var result *ImportError
	if err != nil {
		result = Wrap(err, CategoryValidation, code, message)
	} else {
		result = New(CategoryValidation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ResolutionError creates a reference-resolution error
func ResolutionError(code ErrorCode, field, input string, err error) *ImportError {
	var message string
	var suggestion string

	switch code {
	case CodeNoMatch:
		message = fmt.Sprintf("no reference match for field '%s': '%s'", field, input)
		suggestion = "check the spelling against the reference list"
	case CodeReferenceMissing:
		message = fmt.Sprintf("reference data unavailable for field '%s'", field)
		suggestion = "the lookup collection failed to load; free text will be stored verbatim"
	default:
		message = fmt.Sprintf("resolution error for field '%s': '%s'", field, input)
		suggestion = "check the input value against the reference data"
	}

	var result *ImportError
	if err != nil {
		result = Wrap(err, CategoryResolution, code, message)
	} else {
		result = New(CategoryResolution, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("input", input)
}

// PersistenceError creates a persistence-related error
func PersistenceError(code ErrorCode, entity string, err error) *ImportError {
	var message string
	var suggestion string

	switch code {
	case CodeStoreUnreachable:
		message = "backing store is unreachable"
		suggestion = "check the database connection settings and availability"
	case CodeDuplicateRecord:
		message = fmt.Sprintf("duplicate %s record", entity)
		suggestion = "a record with the same unique value already exists"
	case CodeCreateFailed:
		message = fmt.Sprintf("failed to create %s record", entity)
		suggestion = "review the row data and the database logs"
	case CodeBatchAborted:
		message = "import batch aborted before completion"
		suggestion = "re-run the import for the remaining rows"
	default:
		message = fmt.Sprintf("persistence error for %s", entity)
		suggestion = "check the database and try again"
	}

	var result *ImportError
	if err != nil {
		result = Wrap(err, CategoryPersistence, code, message)
	} else {
		result = New(CategoryPersistence, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("entity", entity)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *ImportError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting via flag or environment"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *ImportError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *ImportError {
	message := fmt.Sprintf("internal error during %s", operation)
	suggestion := "this is likely a bug - please report it with the error details"

	var result *ImportError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// Utility functions

// AsImportError extracts an ImportError from an error chain
func AsImportError(err error) (*ImportError, bool) {
	var importErr *ImportError
	if errors.As(err, &importErr) {
		return importErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already an ImportError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *ImportError {
	if err == nil {
		return nil
	}

	if importErr, ok := AsImportError(err); ok {
		return importErr
	}

	return Wrap(err, category, code, message)
}
