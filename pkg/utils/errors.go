package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrorType represents different types of errors
type ErrorType string

const (
	ErrorTypeConfiguration     ErrorType = "configuration"
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeIO                ErrorType = "io"
	ErrorTypeNetwork           ErrorType = "network"
	ErrorTypeHTTPStatus        ErrorType = "http_status"
	ErrorTypeProtocol          ErrorType = "protocol"
	ErrorTypeJSONParse         ErrorType = "json_parse"
	ErrorTypeOCR               ErrorType = "ocr"
	ErrorTypeEngineNotFound    ErrorType = "engine_not_found"
	ErrorTypeEngineAPI         ErrorType = "engine_api"
	ErrorTypeSystem            ErrorType = "system"
	ErrorTypeUnsupported       ErrorType = "unsupported"
	ErrorTypeTimeout           ErrorType = "timeout"
	ErrorTypePermission        ErrorType = "permission"
	ErrorTypeNotFound          ErrorType = "not_found"
	ErrorTypeDirectoryNotFound ErrorType = "directory_not_found"
)

// AppError represents an application-specific error with context
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Type == t.Type
	}
	return false
}

// WithContext adds context information to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewError creates a new application error
func NewError(errorType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(message string, cause error) *AppError {
	return NewError(ErrorTypeConfiguration, message, cause)
}

// NewValidationError creates a validation error
func NewValidationError(message string, cause error) *AppError {
	return NewError(ErrorTypeValidation, message, cause)
}

// NewIOError creates an I/O error
func NewIOError(message string, cause error) *AppError {
	return NewError(ErrorTypeIO, message, cause)
}

// NewNetworkError creates a network error
func NewNetworkError(message string, cause error) *AppError {
	return NewError(ErrorTypeNetwork, message, cause)
}

// NewHTTPStatusError creates an error for a non-success HTTP response
func NewHTTPStatusError(statusCode int, body string) *AppError {
	return NewError(ErrorTypeHTTPStatus,
		fmt.Sprintf("unexpected HTTP status %d: %s", statusCode, body), nil).
		WithContext("status_code", statusCode)
}

// NewOCRError creates an OCR error
func NewOCRError(message string, cause error) *AppError {
	return NewError(ErrorTypeOCR, message, cause)
}

// NewEngineNotFoundError creates an error for an OCR engine that cannot be located or instantiated
func NewEngineNotFoundError(message string, cause error) *AppError {
	return NewError(ErrorTypeEngineNotFound, message, cause)
}

// NewEngineAPIError creates an error for an OCR engine missing an expected capability
func NewEngineAPIError(message string, cause error) *AppError {
	return NewError(ErrorTypeEngineAPI, message, cause)
}

// NewUnsupportedError creates an unsupported operation error
func NewUnsupportedError(message string, cause error) *AppError {
	return NewError(ErrorTypeUnsupported, message, cause)
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return NewError(ErrorTypeTimeout, message, cause)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message string, cause error) *AppError {
	return NewError(ErrorTypeNotFound, message, cause)
}

// NewDirectoryNotFoundError creates a directory not found error
func NewDirectoryNotFoundError(message string, cause error) *AppError {
	return NewError(ErrorTypeDirectoryNotFound, message, cause)
}

// NewPermissionError creates a permission error
func NewPermissionError(message string, cause error) *AppError {
	return NewError(ErrorTypePermission, message, cause)
}

// WrapError wraps an existing error with additional context
func WrapError(err error, errorType ErrorType, message string) *AppError {
	if err == nil {
		return nil
	}

	// If it's already an AppError, preserve the original type unless explicitly overridden
	var appErr *AppError
	if errors.As(err, &appErr) && errorType == "" {
		return &AppError{
			Type:    appErr.Type,
			Message: message + ": " + appErr.Message,
			Cause:   appErr.Cause,
			Context: appErr.Context,
		}
	}

	if errorType == "" {
		errorType = classifyError(err)
	}

	return &AppError{
		Type:    errorType,
		Message: message,
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

// classifyError automatically classifies an error based on its content
func classifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeSystem
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return ErrorTypeTimeout
	case errors.Is(err, os.ErrPermission):
		return ErrorTypePermission
	case errors.Is(err, os.ErrNotExist):
		return ErrorTypeNotFound
	case strings.Contains(errStr, "connection") || strings.Contains(errStr, "no such host"):
		return ErrorTypeNetwork
	case strings.Contains(errStr, "invalid character") || strings.Contains(errStr, "unexpected end of json"):
		return ErrorTypeJSONParse
	default:
		return ErrorTypeSystem
	}
}

// GetErrorType extracts the error type from an error
func GetErrorType(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return classifyError(err)
}

// IsErrorType reports whether err carries the given error type anywhere in its chain
func IsErrorType(err error, errorType ErrorType) bool {
	return errors.Is(err, &AppError{Type: errorType})
}
