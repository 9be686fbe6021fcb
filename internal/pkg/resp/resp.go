/*
Package resp builds the standardized JSON responses sent to HTTP clients.

Every response carries a business code (0 on success), a message, and an
optional payload.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"medichat/internal/pkg/errs"
	"medichat/internal/pkg/logx"
)

// JSONResponse is the envelope returned by every HTTP endpoint.
type JSONResponse struct {
	// Code is the business status code (0 for success, see errs package).
	Code int `json:"code"`

	// Message is the client-facing status description.
	Message string `json:"message"`

	// Data is the optional response payload.
	Data any `json:"data,omitempty"`
}

// RespondJSON sets the content type and writes the payload with the given
// HTTP status.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	body, err := json.Marshal(payload)
	if err != nil {
		logx.Error(err, "Error encoding JSON response", "http_status", httpStatus)
		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(httpStatus)
	w.Write(body)
}

// RespondSuccess sends an HTTP 200 response wrapping data.
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	RespondJSON(w, r, http.StatusOK, JSONResponse{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// RespondError sends the HTTP response matching a CustomError.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	RespondJSON(w, r, customErr.Status, JSONResponse{
		Code:    customErr.Code,
		Message: customErr.Message,
	})
}
