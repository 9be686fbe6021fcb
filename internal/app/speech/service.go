/*
Package speech is the thin client for the text-to-speech collaborator.

The server never synthesizes audio itself; it forwards the text and hands
back the data URL the collaborator produces.
*/
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"medichat/internal/pkg/errs"
	"medichat/internal/pkg/logx"
)

// synthesisTimeout bounds the round trip to the speech collaborator.
const synthesisTimeout = 30 * time.Second

// DefaultLanguage is used when the client does not specify one.
const DefaultLanguage = "en"

// Service calls the speech-synthesis collaborator over HTTP.
type Service struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewService builds a client for the collaborator at baseURL.
func NewService(baseURL string) *Service {
	return &Service{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: synthesisTimeout},
		logger:     logx.Logger().With().Str("component", "SpeechService").Logger(),
	}
}

// Synthesize converts text to speech in the given language and returns the
// audio data URL.
func (s *Service) Synthesize(ctx context.Context, text, lang string) (string, *errs.CustomError) {
	if lang == "" {
		lang = DefaultLanguage
	}

	payload, err := json.Marshal(map[string]string{
		"text": text,
		"lang": lang,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode synthesis request.")
		return "", errs.NewError(errs.ErrUnknown, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/synthesize", bytes.NewReader(payload))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build synthesis request.")
		return "", errs.NewError(errs.ErrUnknown, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error().Err(err).Msg("Speech collaborator unreachable.")
		return "", errs.NewError(errs.ErrUpstreamService)
	}
	defer resp.Body.Close()

	var body struct {
		Success  bool   `json:"success"`
		AudioURL string `json:"audio_url"`
		Error    string `json:"error,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		s.logger.Error().Err(err).Msg("Failed to decode synthesis response.")
		return "", errs.NewError(errs.ErrUpstreamService)
	}

	if resp.StatusCode != http.StatusOK || !body.Success {
		s.logger.Error().
			Int("status", resp.StatusCode).
			Str("upstream_error", body.Error).
			Msg("Speech collaborator reported failure.")
		return "", errs.NewError(errs.ErrUpstreamService)
	}

	if body.AudioURL == "" {
		s.logger.Error().Msg("Speech collaborator returned success without audio_url")
		return "", errs.NewError(errs.ErrUpstreamService)
	}

	return body.AudioURL, nil
}
