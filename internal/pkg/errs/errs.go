/*
Package errs provides the application error type and error code constants.

CustomError implements the standard error interface and carries a business
code, a client-friendly message, and the HTTP status to respond with.
Failures are passed around as values, never panics.
*/
package errs

import (
	"fmt"
	"net/http"
	"strings"

	"medichat/internal/pkg/logx"
)

// CustomError is the error structure used throughout the application.
type CustomError struct {
	// Code is the business error code (see error_codes.go).
	Code int

	// Message is the client-facing error description.
	Message string

	// Status is the HTTP status code corresponding to this error.
	Status int
}

// Error implements the error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// NewError builds a *CustomError from a predefined code. Optional details
// are applied printf-style when the message template has placeholders.
// Unknown codes fall back to ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	template, ok := errorMap[code]
	if !ok {
		logx.Error(
			fmt.Errorf("error code %d missing from errorMap", code),
			"Unknown error code requested",
			"requested_code", code,
		)

		unknown := errorMap[ErrUnknown]
		return &CustomError{Code: unknown.Code, Message: unknown.Message, Status: unknown.Status}
	}

	customErr := template

	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if len(details) > 0 {
		if code == ErrUnknown {
			if original, ok := details[0].(error); ok {
				logx.Error(original, "Handling ErrUnknown with underlying error")
			}
		} else if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		}
	}

	return &customErr
}
