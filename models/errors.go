package models

import (
	"errors"
	"fmt"
)

// Error codes used in process exit reporting and internal error handling.
const (
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeBrowserCrash     = "BROWSER_CRASH"
	ErrCodeNotLoggedIn      = "NOT_LOGGED_IN"
	ErrCodeOutputNotEmpty   = "OUTPUT_NOT_EMPTY"
	ErrCodeCapture          = "CAPTURE_FAILED"
	ErrCodeArtifactNotFound = "ARTIFACT_NOT_FOUND"
	ErrCodeNavigation       = "NAVIGATION_FAILED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in status and webhook payloads.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ExportError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ExportError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ExportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// NewExportError creates a new ExportError.
func NewExportError(code, message string, err error) *ExportError {
	return &ExportError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an ErrorDetail.
func (e *ExportError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// HasCode reports whether err (or anything it wraps) is an ExportError with
// the given code.
func HasCode(err error, code string) bool {
	var ee *ExportError
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}

// DetailOf returns the ErrorDetail for err. Errors that are not ExportErrors
// are reported as ErrCodeInternal.
func DetailOf(err error) *ErrorDetail {
	if err == nil {
		return nil
	}
	var ee *ExportError
	if errors.As(err, &ee) {
		return ee.ToDetail()
	}
	return &ErrorDetail{Code: ErrCodeInternal, Message: err.Error()}
}
