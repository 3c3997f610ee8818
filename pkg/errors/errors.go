package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile          ErrorCategory = "file"
	CategoryFormat        ErrorCategory = "format"
	CategoryExtraction    ErrorCategory = "extraction"
	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"
	CodeFileTooLarge   ErrorCode = "file_too_large"
	CodeEmptyFile      ErrorCode = "empty_file"

	// Format errors
	CodeUnsupportedFormat ErrorCode = "unsupported_format"
	CodeDecodeError       ErrorCode = "decode_error"
	CodeStructureError    ErrorCode = "structure_error"
	CodeEmptySheet        ErrorCode = "empty_sheet"

	// Extraction errors
	CodeNoDateColumn     ErrorCode = "no_date_column"
	CodeExtractionFailed ErrorCode = "extraction_failed"

	// Validation errors
	CodeInvalidFileType ErrorCode = "invalid_file_type"
	CodeMissingField    ErrorCode = "missing_field"

	// Configuration errors
	CodeInvalidConfig  ErrorCode = "invalid_config"
	CodeUnknownProfile ErrorCode = "unknown_profile"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// stages maps codes to the pipeline stage reported to users.
var stages = map[ErrorCode]string{
	CodeUnsupportedFormat: "dispatch",
	CodeEmptyFile:         "dispatch",
	CodeDecodeError:       "decode",
	CodeStructureError:    "structure",
	CodeEmptySheet:        "structure",
	CodeNoDateColumn:      "date-column",
	CodeExtractionFailed:  "extraction",
	CodeFileTooLarge:      "pre-check",
	CodeInvalidFileType:   "pre-check",
}

// IngestError is the base error type for all application errors
type IngestError struct {
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
func (e *IngestError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *IngestError) Unwrap() error {
	return e.Cause
}

// Stage names the processing stage that failed, e.g. "decode" or "extraction".
func (e *IngestError) Stage() string {
	if stage, ok := stages[e.Code]; ok {
		return stage
	}
	return string(e.Category)
}

// GetExitCode returns an appropriate exit code for the error
func (e *IngestError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryFormat, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryExtraction:
		return 5
	case CategoryInternal:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *IngestError) WithContext(key string, value interface{}) *IngestError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *IngestError) WithSuggestion(suggestion string) *IngestError {
	e.Suggestion = suggestion
	return e
}

// New creates a new IngestError
func New(category ErrorCategory, code ErrorCode, message string) *IngestError {
	return &IngestError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with IngestError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *IngestError {
	if err == nil {
		return nil
	}

	return &IngestError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func build(category ErrorCategory, code ErrorCode, message string, cause error) *IngestError {
	if cause != nil {
		return Wrap(cause, category, code, message)
	}
	return New(category, code, message)
}

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *IngestError {
	var message, suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeEmptyFile:
		message = fmt.Sprintf("file is empty: %s", path)
		suggestion = "export the statement again; the upload contained no data"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	return build(CategoryFile, code, message, err).
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// FileTooLarge reports a file exceeding the configured size ceiling.
func FileTooLarge(name string, size, limit int64) *IngestError {
	return New(CategoryFile, CodeFileTooLarge,
		fmt.Sprintf("file too large: %s is %d bytes, maximum is %d bytes", name, size, limit)).
		WithSuggestion("split the statement into smaller periods or raise max_file_size_mb").
		WithContext("file", name).
		WithContext("file_size", size).
		WithContext("max_size", limit)
}

// UnsupportedFormat reports a file extension no pipeline handles.
func UnsupportedFormat(name, ext string) *IngestError {
	if ext == "" {
		ext = "(none)"
	}
	return New(CategoryFormat, CodeUnsupportedFormat,
		fmt.Sprintf("unsupported file format %s for %s", ext, name)).
		WithSuggestion("upload a .csv, .xlsx, .xls or .pdf statement").
		WithContext("file", name).
		WithContext("extension", ext)
}

// DecodeError reports bytes that could not be decoded with any known encoding
// or a workbook/document the reader could not open.
func DecodeError(name string, tried []string, err error) *IngestError {
	message := fmt.Sprintf("could not decode %s", name)
	if len(tried) > 0 {
		message = fmt.Sprintf("could not decode %s with any of: %s", name, strings.Join(tried, ", "))
	}
	return build(CategoryFormat, CodeDecodeError, message, err).
		WithSuggestion("re-export the statement as UTF-8 text or a fresh workbook").
		WithContext("file", name)
}

// StructureError reports content that decoded but has no usable tabular layout.
func StructureError(name, detail string, err error) *IngestError {
	return build(CategoryFormat, CodeStructureError,
		fmt.Sprintf("no usable table structure in %s: %s", name, detail), err).
		WithSuggestion("ensure the file has a header row and delimited columns").
		WithContext("file", name)
}

// EmptySheet reports a workbook whose first sheet has no rows.
func EmptySheet(name, sheet string) *IngestError {
	return New(CategoryFormat, CodeEmptySheet,
		fmt.Sprintf("first sheet %q of %s has no rows", sheet, name)).
		WithSuggestion("move the statement data to the first sheet of the workbook").
		WithContext("file", name).
		WithContext("sheet", sheet)
}

// NoDateColumn reports a table where neither headers nor sample data reveal a date column.
func NoDateColumn(name string, headers []string) *IngestError {
	return New(CategoryExtraction, CodeNoDateColumn,
		fmt.Sprintf("no date column found in %s", name)).
		WithSuggestion("name the date column e.g. 'Date' or 'Value Date'").
		WithContext("file", name).
		WithContext("headers", headers)
}

// ExtractionFailed reports a document where every extraction strategy came up empty.
func ExtractionFailed(name string, err error) *IngestError {
	return build(CategoryExtraction, CodeExtractionFailed,
		fmt.Sprintf("could not extract transaction data from %s", name), err).
		WithSuggestion("check the document is a text PDF and not a scanned image").
		WithContext("file", name)
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, err error) *IngestError {
	var message, suggestion string

	switch code {
	case CodeInvalidFileType:
		message = fmt.Sprintf("file type not allowed in field '%s': %v", field, value)
		suggestion = "use one of the allowed file types"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	return build(CategoryValidation, code, message, err).
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *IngestError {
	var message, suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeUnknownProfile:
		message = fmt.Sprintf("unknown statement profile '%v'", value)
		suggestion = "use one of: generic, icici, sbi, hdfc"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	return build(CategoryConfiguration, code, message, err).
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *IngestError {
	message := fmt.Sprintf("internal error during %s", operation)
	suggestion := "try again or report the file that triggered it"
	if code == CodeUnexpectedError {
		message = fmt.Sprintf("unexpected error during %s", operation)
		suggestion = "this is likely a bug - please report it with the error details"
	}

	return build(CategoryInternal, code, message, err).
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// ErrorSummary provides a summary of multiple errors
type ErrorSummary struct {
	Total        int                   `json:"total"`
	ByCategory   map[ErrorCategory]int `json:"by_category"`
	ByCode       map[ErrorCode]int     `json:"by_code"`
	Errors       []*IngestError        `json:"errors"`
	SampleErrors []*IngestError        `json:"sample_errors,omitempty"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errs []*IngestError) *ErrorSummary {
	summary := &ErrorSummary{
		Total:      len(errs),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errs,
	}
	if len(errs) == 0 {
		summary.Errors = []*IngestError{}
		return summary
	}

	for _, err := range errs {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	maxSamples := 5
	if len(errs) > maxSamples {
		summary.SampleErrors = errs[:maxSamples]
	} else {
		summary.SampleErrors = errs
	}

	return summary
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var categories []string
	for category, count := range es.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}
	sort.Strings(categories)

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(categories, ", "))
}

// HasCode checks if the summary contains errors with the given code
func (es *ErrorSummary) HasCode(code ErrorCode) bool {
	return es.ByCode[code] > 0
}

// GetExitCode returns the highest priority exit code from all errors
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range es.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}

	return maxCode
}

// AsIngestError extracts an IngestError from an error chain
func AsIngestError(err error) (*IngestError, bool) {
	var ingestErr *IngestError
	if errors.As(err, &ingestErr) {
		return ingestErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	ingestErr, ok := AsIngestError(err)
	return ok && ingestErr.Code == code
}

// WrapIfNeeded wraps an error if it's not already an IngestError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *IngestError {
	if err == nil {
		return nil
	}

	if ingestErr, ok := AsIngestError(err); ok {
		return ingestErr
	}

	return Wrap(err, category, code, message)
}
