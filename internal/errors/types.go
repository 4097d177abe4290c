package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeRender     ErrorType = "render"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeComponentNotFound = "ERR_COMPONENT_NOT_FOUND"
	ErrCodeRenderFailed      = "ERR_RENDER_FAILED"
	ErrCodeInvalidData       = "ERR_INVALID_DATA"
	ErrCodeInvalidPath       = "ERR_INVALID_PATH"
	ErrCodeConfigInvalid     = "ERR_CONFIG_INVALID"
	ErrCodeComponentConfig   = "ERR_COMPONENT_CONFIG"
	ErrCodeOrphanVariant     = "ERR_ORPHAN_VARIANT"
	ErrCodeMapWrite          = "ERR_MAP_WRITE"
	ErrCodeMapRead           = "ERR_MAP_READ"
	ErrCodeAssetCopy         = "ERR_ASSET_COPY"
	ErrCodeInternalError     = "ERR_INTERNAL"
)

// Sentinels for errors.Is. Any SwatchError with the same type and code matches.
var (
	ErrComponentNotFound = &SwatchError{Type: ErrorTypeNotFound, Code: ErrCodeComponentNotFound}
	ErrRenderFailed      = &SwatchError{Type: ErrorTypeRender, Code: ErrCodeRenderFailed}
)

// SwatchError is a structured error type with context.
type SwatchError struct {
	Type      ErrorType
	Code      string
	Message   string
	Cause     error
	Context   map[string]interface{}
	Component string
	FilePath  string
}

// Error implements the error interface.
func (e *SwatchError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *SwatchError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *SwatchError) Is(target error) bool {
	var t *SwatchError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *SwatchError) WithContext(key string, value interface{}) *SwatchError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithFile adds file location information.
func (e *SwatchError) WithFile(filePath string) *SwatchError {
	e.FilePath = filePath

	return e
}

// WithComponent adds component context.
func (e *SwatchError) WithComponent(component string) *SwatchError {
	e.Component = component

	return e
}

// Error creation functions

// NewNotFoundError reports a handle that is absent from the component map.
func NewNotFoundError(handle string) *SwatchError {
	return &SwatchError{
		Type:      ErrorTypeNotFound,
		Code:      ErrCodeComponentNotFound,
		Message:   fmt.Sprintf("component %q not found", handle),
		Component: handle,
	}
}

// NewRenderError reports a template engine failure while rendering handle.
func NewRenderError(handle string, cause error) *SwatchError {
	return &SwatchError{
		Type:      ErrorTypeRender,
		Code:      ErrCodeRenderFailed,
		Message:   fmt.Sprintf("failed to render component %q", handle),
		Cause:     cause,
		Component: handle,
	}
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *SwatchError {
	return &SwatchError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *SwatchError {
	return &SwatchError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *SwatchError {
	return &SwatchError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsNotFound checks if an error reports a missing component.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrComponentNotFound)
}

// IsRenderError checks if an error reports a failed component render.
func IsRenderError(err error) bool {
	return errors.Is(err, ErrRenderFailed)
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs an error at a level chosen from its type. Not-found, render and
// validation problems are warnings; everything else is an error.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var se *SwatchError
	if !errors.As(err, &se) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	switch se.Type {
	case ErrorTypeNotFound, ErrorTypeRender, ErrorTypeValidation:
		h.logger.Warn(ctx, err, "Component error occurred",
			"type", se.Type,
			"code", se.Code,
			"component", se.Component)
	default:
		h.logger.Error(ctx, err, "Error occurred",
			"type", se.Type,
			"code", se.Code,
			"file", se.FilePath)
	}
}
