/*
Package req parses and binds incoming HTTP request bodies.

It wraps JSON decoding and multipart form setup with size limits and maps
every failure mode onto the application's error codes.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strings"

	"medichat/internal/pkg/errs"
)

const (
	// MaxFormMemory is how much of a multipart form is kept in memory
	// before spilling to temporary files.
	MaxFormMemory int64 = 16 << 20 // 16 MB

	// MaxRequestBodySize caps the whole request body, uploaded images
	// included, enforced through http.MaxBytesReader.
	MaxRequestBodySize int64 = 20 << 20 // 20 MB
)

// BindJSON decodes the JSON request body into dst. Unknown fields and
// trailing content are rejected.
func BindJSON(r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}

// SetupMultipart caps the body size and parses multipart form data.
func SetupMultipart(w http.ResponseWriter, r *http.Request) *errs.CustomError {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	if err := r.ParseMultipartForm(MaxFormMemory); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}
		return errs.NewError(errs.ErrFormParseFailed)
	}

	return nil
}
