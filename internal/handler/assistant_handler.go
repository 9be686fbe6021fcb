package handler

import (
	"net/http"

	"medichat/internal/pkg/errs"
	"medichat/internal/pkg/req"
	"medichat/internal/pkg/resp"
)

// HandleChat answers a free-text question through the assistant service.
// When the RAG collaborator is down the client still receives the
// well-formed fallback reply, carried on the error response.
func HandleChat(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserID   string `json:"user_id"`
			Question string `json:"question"`
		}

		if bindErr := req.BindJSON(r, &body); bindErr != nil {
			resp.RespondError(w, r, bindErr)
			return
		}

		reply, askErr := deps.Assistant.Ask(r.Context(), body.UserID, body.Question)
		if askErr != nil {
			if reply != nil && askErr.Code == errs.ErrUpstreamService {
				resp.RespondJSON(w, r, askErr.Status, resp.JSONResponse{
					Code:    askErr.Code,
					Message: askErr.Message,
					Data:    reply,
				})
				return
			}

			resp.RespondError(w, r, askErr)
			return
		}

		resp.RespondSuccess(w, r, reply)
	}
}
