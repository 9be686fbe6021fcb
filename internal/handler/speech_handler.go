package handler

import (
	"net/http"
	"strings"

	"medichat/internal/pkg/errs"
	"medichat/internal/pkg/req"
	"medichat/internal/pkg/resp"
)

// HandleTextToSpeech forwards text to the speech collaborator and returns
// the synthesized audio data URL.
func HandleTextToSpeech(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text string `json:"text"`
			Lang string `json:"lang"`
		}

		if bindErr := req.BindJSON(r, &body); bindErr != nil {
			resp.RespondError(w, r, bindErr)
			return
		}

		if strings.TrimSpace(body.Text) == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrMissingText))
			return
		}

		audioURL, synthErr := deps.Speech.Synthesize(r.Context(), body.Text, body.Lang)
		if synthErr != nil {
			resp.RespondError(w, r, synthErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]string{"audio_url": audioURL})
	}
}
