package handler

import (
	"encoding/base64"
	"io"
	"net/http"
	"strings"

	"medichat/internal/pkg/errs"
	"medichat/internal/pkg/req"
	"medichat/internal/pkg/resp"
)

// HandleScanPrescription accepts a prescription image, either as a
// multipart "image" field or as a JSON base64 data URL, and runs the scan
// pipeline on it.
func HandleScanPrescription(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		image, mimeType, extractErr := extractImage(w, r)
		if extractErr != nil {
			resp.RespondError(w, r, extractErr)
			return
		}

		result, scanErr := deps.Prescription.Scan(r.Context(), image, mimeType)
		if scanErr != nil {
			resp.RespondError(w, r, scanErr)
			return
		}

		resp.RespondSuccess(w, r, result)
	}
}

// HandleListMedications returns every persisted medication entry.
func HandleListMedications(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		medications, listErr := deps.Prescription.Medications(r.Context())
		if listErr != nil {
			resp.RespondError(w, r, listErr)
			return
		}

		resp.RespondSuccess(w, r, medications)
	}
}

// extractImage pulls the raw image bytes and MIME type out of either
// request shape.
func extractImage(w http.ResponseWriter, r *http.Request) ([]byte, string, *errs.CustomError) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if formErr := req.SetupMultipart(w, r); formErr != nil {
			return nil, "", formErr
		}

		file, header, err := r.FormFile("image")
		if err != nil {
			return nil, "", errs.NewError(errs.ErrNoImageProvided)
		}
		defer file.Close()

		image, err := io.ReadAll(file)
		if err != nil {
			return nil, "", errs.NewError(errs.ErrInvalidImageData)
		}

		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		return image, mimeType, nil
	}

	var body struct {
		ImageData string `json:"imageData"`
	}
	if bindErr := req.BindJSON(r, &body); bindErr != nil {
		return nil, "", bindErr
	}

	if body.ImageData == "" {
		return nil, "", errs.NewError(errs.ErrNoImageProvided)
	}

	return decodeDataURL(body.ImageData)
}

// decodeDataURL decodes a "data:<mime>;base64,<data>" payload.
func decodeDataURL(dataURL string) ([]byte, string, *errs.CustomError) {
	header, encoded, found := strings.Cut(dataURL, ",")
	if !found {
		return nil, "", errs.NewError(errs.ErrInvalidImageData)
	}

	mimeType := "application/octet-stream"
	if rest, ok := strings.CutPrefix(header, "data:"); ok {
		if mime, _, _ := strings.Cut(rest, ";"); mime != "" {
			mimeType = mime
		}
	}

	image, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", errs.NewError(errs.ErrInvalidImageData)
	}

	return image, mimeType, nil
}
