// Package errors provides structured error handling for nmapanalysis operations.
// It defines error codes, error types, and provides utilities for creating
// and handling errors with context and structured information.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents different types of errors that can occur.
type ErrorCode string

const (
	// General errors.
	CodeUnknown       ErrorCode = "UNKNOWN"
	CodeValidation    ErrorCode = "VALIDATION"
	CodeConfiguration ErrorCode = "CONFIGURATION"
	CodeTimeout       ErrorCode = "TIMEOUT"
	CodeCanceled      ErrorCode = "CANCELED"

	// Scan file errors.
	CodeParseFailed ErrorCode = "PARSE_FAILED"
	CodeMissingAttr ErrorCode = "MISSING_ATTRIBUTE"

	// File system errors.
	CodeFileNotFound    ErrorCode = "FILE_NOT_FOUND"
	CodeFilePermission  ErrorCode = "FILE_PERMISSION"
	CodeDirectoryCreate ErrorCode = "DIRECTORY_CREATE"
	CodeReportWrite     ErrorCode = "REPORT_WRITE"

	// Text generation errors.
	CodeAPIKeyMissing      ErrorCode = "API_KEY_MISSING"
	CodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	CodeServiceResponse    ErrorCode = "SERVICE_RESPONSE"
	CodeRateLimited        ErrorCode = "RATE_LIMITED"
	CodeFeatureDisabled    ErrorCode = "FEATURE_DISABLED"
)

// ScanError represents an error that occurred while reading a scan file.
type ScanError struct {
	Code    ErrorCode
	Message string
	File    string
	Host    string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.File != "" {
		msg += fmt.Sprintf(" (file: %s)", e.File)
	}
	if e.Host != "" {
		msg += fmt.Sprintf(" (host: %s)", e.Host)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ScanError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error.
func (e *ScanError) WithContext(key string, value interface{}) *ScanError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithHost records the host element the error relates to.
func (e *ScanError) WithHost(host string) *ScanError {
	e.Host = host
	return e
}

// NewScanError creates a new scan error with the specified code and message.
func NewScanError(code ErrorCode, message string) *ScanError {
	return &ScanError{
		Code:    code,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// NewScanErrorWithFile creates a scan error for a specific file.
func NewScanErrorWithFile(code ErrorCode, message, file string) *ScanError {
	return &ScanError{
		Code:    code,
		Message: message,
		File:    file,
		Context: make(map[string]interface{}),
	}
}

// WrapScanError wraps an existing error as a scan error.
func WrapScanError(code ErrorCode, message string, err error) *ScanError {
	return &ScanError{
		Code:    code,
		Message: message,
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

// WrapScanErrorWithFile wraps an error with file information.
func WrapScanErrorWithFile(code ErrorCode, message, file string, err error) *ScanError {
	return &ScanError{
		Code:    code,
		Message: message,
		File:    file,
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

// ReportError represents a failure to render or write a report.
type ReportError struct {
	Code    ErrorCode
	Message string
	Format  string
	Path    string
	Cause   error
}

// Error implements the error interface.
func (e *ReportError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Path != "" {
		msg += fmt.Sprintf(" (path: %s)", e.Path)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ReportError) Unwrap() error {
	return e.Cause
}

// WrapReportError wraps an existing error as a report error.
func WrapReportError(code ErrorCode, format, path string, err error) *ReportError {
	return &ReportError{
		Code:    code,
		Message: fmt.Sprintf("failed to write %s report", format),
		Format:  format,
		Path:    path,
		Cause:   err,
	}
}

// GenerationError represents a failure of the external text generation call.
type GenerationError struct {
	Code       ErrorCode
	Message    string
	Backend    string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Backend != "" {
		msg += fmt.Sprintf(" (backend: %s)", e.Backend)
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status: %d)", e.StatusCode)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// NewGenerationError creates a new generation error.
func NewGenerationError(code ErrorCode, backend, message string) *GenerationError {
	return &GenerationError{
		Code:    code,
		Message: message,
		Backend: backend,
	}
}

// WrapGenerationError wraps an existing error as a generation error.
func WrapGenerationError(code ErrorCode, backend, message string, err error) *GenerationError {
	return &GenerationError{
		Code:    code,
		Message: message,
		Backend: backend,
		Cause:   err,
	}
}

// ConfigError represents configuration-related errors.
type ConfigError struct {
	Code    ErrorCode
	Message string
	Field   string
	Value   interface{}
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new configuration error.
func NewConfigError(code ErrorCode, message string) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
	}
}

// NewConfigFieldError creates a configuration error for a specific field.
func NewConfigFieldError(code ErrorCode, message, field string, value interface{}) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
		Field:   field,
		Value:   value,
	}
}

// WrapConfigError wraps an existing error as a configuration error.
func WrapConfigError(code ErrorCode, message string, err error) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Utility functions for common error operations

// GetCode extracts the error code from the first coded error in the chain.
func GetCode(err error) ErrorCode {
	var (
		scanErr   *ScanError
		reportErr *ReportError
		genErr    *GenerationError
		cfgErr    *ConfigError
	)
	switch {
	case err == nil:
		return CodeUnknown
	case stderrors.As(err, &scanErr):
		return scanErr.Code
	case stderrors.As(err, &reportErr):
		return reportErr.Code
	case stderrors.As(err, &genErr):
		return genErr.Code
	case stderrors.As(err, &cfgErr):
		return cfgErr.Code
	}
	return CodeUnknown
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && GetCode(err) == code
}

// Common error creation functions

// ErrInvalidScanFile creates an error for a path that is missing or not an XML file.
func ErrInvalidScanFile(path string) *ScanError {
	return NewScanErrorWithFile(CodeValidation, fmt.Sprintf("File %s does not exist or is not a valid XML file.", path), path)
}

// ErrMissingAttribute creates an error for a required XML attribute that is absent.
func ErrMissingAttribute(element, attr string) *ScanError {
	return NewScanError(CodeMissingAttr, fmt.Sprintf("%s element is missing the %q attribute", element, attr))
}

// ErrAPIKeyMissing creates an error for an unset API key environment variable.
func ErrAPIKeyMissing(envVar string) *ConfigError {
	return NewConfigFieldError(CodeAPIKeyMissing,
		fmt.Sprintf("The %s environment variable is not set. Please set the %s with your OpenAI API key.", envVar, envVar),
		envVar, nil)
}

// ErrConfigInvalid creates an error for invalid configuration.
func ErrConfigInvalid(field string, value interface{}) *ConfigError {
	return NewConfigFieldError(CodeValidation, "Invalid configuration value", field, value)
}

// ErrFeatureDisabled creates an error for a command that is switched off.
func ErrFeatureDisabled(feature string) *ConfigError {
	return NewConfigFieldError(CodeFeatureDisabled, "Function disabled until pull request is merged.", feature, false)
}

// UserMessage returns the plain message of the first coded error in the
// chain, without code or field decoration, for printing to the terminal.
func UserMessage(err error) string {
	var (
		scanErr *ScanError
		cfgErr  *ConfigError
		genErr  *GenerationError
	)
	switch {
	case err == nil:
		return ""
	case stderrors.As(err, &cfgErr) && cfgErr.Cause == nil:
		return cfgErr.Message
	case stderrors.As(err, &cfgErr):
		return fmt.Sprintf("%s: %v", cfgErr.Message, cfgErr.Cause)
	case stderrors.As(err, &scanErr) && scanErr.Cause == nil:
		return scanErr.Message
	case stderrors.As(err, &genErr) && genErr.Cause != nil:
		return fmt.Sprintf("%s: %v", genErr.Message, genErr.Cause)
	}
	return err.Error()
}
