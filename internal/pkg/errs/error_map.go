/*
Package errs provides the application error type and error code constants.

This file maps every error code to its client-facing message and HTTP
status, used to build standardized responses.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Request body is not valid JSON.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrFormParseFailed:       {Code: ErrFormParseFailed, Message: "Failed to process uploaded data.", Status: http.StatusBadRequest},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Signaling Errors
	ErrDuplicateConnection: {Code: ErrDuplicateConnection, Message: "Connection id already registered.", Status: http.StatusConflict},

	// 3xxx: Assistant and Prescription Business Errors
	ErrMissingQuestion:  {Code: ErrMissingQuestion, Message: "Missing question.", Status: http.StatusBadRequest},
	ErrMissingText:      {Code: ErrMissingText, Message: "Missing text to synthesize.", Status: http.StatusBadRequest},
	ErrNoImageProvided:  {Code: ErrNoImageProvided, Message: "No image provided.", Status: http.StatusBadRequest},
	ErrInvalidImageData: {Code: ErrInvalidImageData, Message: "Image data could not be decoded.", Status: http.StatusBadRequest},

	// 5xxx: Internal System Errors
	ErrUnknown:         {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrUpstreamService: {Code: ErrUpstreamService, Message: "A backing service is unavailable. Please try again later.", Status: http.StatusBadGateway},
	ErrDatabaseFailure: {Code: ErrDatabaseFailure, Message: "Failed to save data. Please try again.", Status: http.StatusInternalServerError},
	ErrStorageFailed:   {Code: ErrStorageFailed, Message: "File upload failed. Please try again.", Status: http.StatusInternalServerError},
}
