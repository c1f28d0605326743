// Package errors defines the categorized error type shared by the report
// pipeline. Parsing-level problems are recovered locally by the components
// and never become errors; everything that does cross a package boundary is
// a *ReportError carrying a category, a code and enough context to display
// one useful message to the caller.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory groups errors by the pipeline stage that produced them.
type ErrorCategory string

const (
	CategoryResolution    ErrorCategory = "resolution"
	CategoryParse         ErrorCategory = "parse"
	CategoryValidation    ErrorCategory = "validation"
	CategorySource        ErrorCategory = "source"
	CategoryProjection    ErrorCategory = "projection"
	CategoryAudit         ErrorCategory = "audit"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode identifies a specific failure within a category.
type ErrorCode string

const (
	// Resolution errors
	CodeMissingColumnRole ErrorCode = "missing_column_role"
	CodeUnknownHeader     ErrorCode = "unknown_header"

	// Parse errors
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeInvalidDate   ErrorCode = "invalid_date"
	CodeInvalidAmount ErrorCode = "invalid_amount"

	// Validation errors
	CodeEmptyBatch   ErrorCode = "empty_batch"
	CodeMissingField ErrorCode = "missing_field"

	// Source errors
	CodeSourceUnavailable ErrorCode = "source_unavailable"
	CodeInvalidSheetURL   ErrorCode = "invalid_sheet_url"
	CodeSheetNotFound     ErrorCode = "sheet_not_found"

	// Projection errors
	CodeNoContracts ErrorCode = "no_contracts"

	// Audit errors
	CodeMonthNotFound ErrorCode = "month_not_found"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// Context carries additional key/value detail about an error.
type Context map[string]interface{}

// ReportError is the single error type returned by public operations.
type ReportError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Error implements the error interface.
func (e *ReportError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error.
func (e *ReportError) Unwrap() error {
	return e.Cause
}

// GetExitCode maps the error category to a CLI exit code.
func (e *ReportError) GetExitCode() int {
	switch e.Category {
	case CategorySource:
		return 2
	case CategoryResolution, CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryProjection, CategoryAudit, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext attaches a key/value pair to the error.
func (e *ReportError) WithContext(key string, value interface{}) *ReportError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion attaches a hint for fixing the error.
func (e *ReportError) WithSuggestion(suggestion string) *ReportError {
	e.Suggestion = suggestion
	return e
}

// New creates a ReportError with a captured stack trace.
func New(category ErrorCategory, code ErrorCode, message string) *ReportError {
	return &ReportError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap attaches category and code information to an existing error.
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *ReportError {
	if err == nil {
		return nil
	}
	return &ReportError{
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

// MissingColumnRole reports that an essential column role could not be
// resolved from the header set. Fatal for the aggregation call.
func MissingColumnRole(role string, headers []string) *ReportError {
	return New(CategoryResolution, CodeMissingColumnRole,
		fmt.Sprintf("could not resolve a column for role '%s'", role)).
		WithSuggestion("supply an explicit column override for this role or rename the column in the sheet").
		WithContext("role", role).
		WithContext("headers", strings.Join(headers, ", "))
}

// SourceUnavailable reports a failed upstream fetch. The transport message
// is preserved verbatim; the fetch is never retried by the core.
func SourceUnavailable(endpoint string, err error) *ReportError {
	return Wrap(err, CategorySource, CodeSourceUnavailable,
		fmt.Sprintf("spreadsheet source unavailable: %s", endpoint)).
		WithSuggestion("check that the spreadsheet is shared publicly or with the service account").
		WithContext("endpoint", endpoint)
}

// EmptyBatch reports that the fetched batch contained no usable rows.
func EmptyBatch() *ReportError {
	return New(CategoryValidation, CodeEmptyBatch, "no rows available to aggregate").
		WithSuggestion("verify the sheet tab contains a header row and at least one data row")
}

// MonthNotFound reports an audit request for a month absent from both views.
func MonthNotFound(month string) *ReportError {
	return New(CategoryAudit, CodeMonthNotFound,
		fmt.Sprintf("month %s not present in the aggregated report", month)).
		WithContext("month", month)
}

// ConfigurationError reports an invalid or missing setting.
func ConfigurationError(code ErrorCode, setting string, value interface{}) *ReportError {
	var message, suggestion string
	switch code {
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide the setting via flag, environment or config file"
	default:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the documented values for this setting"
	}
	return New(CategoryConfiguration, code, message).
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// InternalError wraps an unexpected failure inside an operation.
func InternalError(operation string, err error) *ReportError {
	return Wrap(err, CategoryInternal, CodeUnexpectedError,
		fmt.Sprintf("unexpected error during %s", operation)).
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// IsReportError checks whether err is a *ReportError.
func IsReportError(err error) bool {
	_, ok := err.(*ReportError)
	return ok
}

// AsReportError extracts a *ReportError from an error chain.
func AsReportError(err error) (*ReportError, bool) {
	var reportErr *ReportError
	if errors.As(err, &reportErr) {
		return reportErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps err unless it already is a *ReportError.
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *ReportError {
	if err == nil {
		return nil
	}
	if reportErr, ok := AsReportError(err); ok {
		return reportErr
	}
	return Wrap(err, category, code, message)
}
