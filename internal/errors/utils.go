package errors

import (
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context, creating a SwatchError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *SwatchError {
	if err == nil {
		return nil
	}

	// Keep the component and file of an inner SwatchError
	var se *SwatchError
	if errors.As(err, &se) {
		return &SwatchError{
			Type:      errType,
			Code:      code,
			Message:   message,
			Cause:     err,
			Context:   se.Context,
			Component: se.Component,
			FilePath:  se.FilePath,
		}
	}

	return &SwatchError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WrapIO wraps an error as an I/O error
func WrapIO(err error, code, message string) *SwatchError {
	return Wrap(err, ErrorTypeIO, code, message)
}

// WrapConfig wraps an error as a configuration error
func WrapConfig(err error, code, message string) *SwatchError {
	return Wrap(err, ErrorTypeConfig, code, message)
}

// CollectErrors helper for common error collection patterns
func CollectErrors(errs ...error) []error {
	var collected []error
	for _, err := range errs {
		if err != nil {
			collected = append(collected, err)
		}
	}
	return collected
}

// CombineErrors combines multiple errors into a single error with context
func CombineErrors(errs ...error) error {
	nonNilErrs := CollectErrors(errs...)
	if len(nonNilErrs) == 0 {
		return nil
	}
	if len(nonNilErrs) == 1 {
		return nonNilErrs[0]
	}

	var messages []string
	for _, err := range nonNilErrs {
		messages = append(messages, err.Error())
	}

	return &SwatchError{
		Type:    ErrorTypeInternal,
		Code:    "ERR_MULTIPLE_ERRORS",
		Message: fmt.Sprintf("multiple errors occurred: %d errors", len(nonNilErrs)),
		Cause:   errors.Join(nonNilErrs...),
		Context: map[string]interface{}{
			"error_count": len(nonNilErrs),
			"errors":      messages,
		},
	}
}
