/*
Package assistant answers patient questions through the retrieval-augmented
generation collaborator.

The service keeps a greeting shortcut, normalizes every answer to exactly
five patient-friendly points, derives structured attachments from the
question, and records each exchange in the chat history store.
*/
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"medichat/internal/app/prescription"
	"medichat/internal/pkg/errs"
	"medichat/internal/pkg/logx"
)

const (
	// ragRequestTimeout bounds the round trip to the RAG collaborator.
	ragRequestTimeout = 60 * time.Second

	// answerPointCount is the fixed number of points every reply carries.
	answerPointCount = 5

	// paddingPoint fills answers that come back with fewer points.
	paddingPoint = "Ask your doctor for more tailored advice if needed."

	// DefaultUserID attributes history rows when the client sends none.
	DefaultUserID = "default_user"
)

// Attachment is a structured extra riding along with an answer.
type Attachment struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Reply is the structured answer returned to the client.
type Reply struct {
	Answer          []string     `json:"answer"`
	Attachments     []Attachment `json:"attachments"`
	SourceDocuments []string     `json:"source_documents"`
}

// HistoryStore records question/answer exchanges.
type HistoryStore interface {
	InsertChat(ctx context.Context, userID, question string, answer []string, attachments []Attachment) error
}

// MedicationRecorder saves medication entries surfaced by prescription
// related questions.
type MedicationRecorder interface {
	InsertMedications(ctx context.Context, medications []prescription.Medication) error
}

// Service is the chat endpoint's backing logic.
type Service struct {
	ragURL      string
	httpClient  *http.Client
	history     HistoryStore
	medications MedicationRecorder
	logger      zerolog.Logger
}

// NewService wires the RAG collaborator, the history store and the
// medication recorder.
func NewService(ragURL string, history HistoryStore, medications MedicationRecorder) *Service {
	return &Service{
		ragURL:      ragURL,
		httpClient:  &http.Client{Timeout: ragRequestTimeout},
		history:     history,
		medications: medications,
		logger:      logx.Logger().With().Str("component", "AssistantService").Logger(),
	}
}

// greetings trigger the canned introduction instead of a RAG round trip.
var greetings = map[string]struct{}{
	"hi":    {},
	"hello": {},
	"hey":   {},
}

func greetingAnswer() []string {
	return []string{
		"Hello! I'm here to help with your health questions.",
		"I focus on maternal and newborn care topics.",
		"I can guide you on medications, pregnancy, or more.",
		"My answers are simple and easy for patients to follow.",
		"What would you like to know today?",
	}
}

// FallbackReply is served when the collaborator fails; patients always get
// a well-formed five-point answer.
func FallbackReply() *Reply {
	return &Reply{
		Answer: []string{
			"Sorry, I can't answer that right now.",
			"Please try a different question.",
			"I can help with health or baby care.",
			"I can also assist with cooking tips.",
			"Let me know what else I can do for you.",
		},
		Attachments:     []Attachment{},
		SourceDocuments: []string{},
	}
}

// Ask answers one question. On collaborator failure it returns the fallback
// reply alongside the error so the handler can serve both.
func (s *Service) Ask(ctx context.Context, userID, question string) (*Reply, *errs.CustomError) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errs.NewError(errs.ErrMissingQuestion)
	}

	if userID == "" {
		userID = DefaultUserID
	}

	lower := strings.ToLower(question)

	var reply *Reply
	if _, ok := greetings[lower]; ok {
		reply = &Reply{
			Answer:          greetingAnswer(),
			Attachments:     []Attachment{},
			SourceDocuments: []string{},
		}
	} else {
		answer, sources, err := s.query(ctx, question)
		if err != nil {
			s.logger.Error().Err(err).Msg("RAG collaborator query failed.")
			return FallbackReply(), errs.NewError(errs.ErrUpstreamService)
		}

		reply = &Reply{
			Answer:          normalizeAnswer(answer),
			Attachments:     []Attachment{},
			SourceDocuments: sources,
		}
	}

	reply.Attachments = s.buildAttachments(ctx, lower)

	if err := s.history.InsertChat(ctx, userID, question, reply.Answer, reply.Attachments); err != nil {
		// The reply is still good; losing one history row is not worth
		// failing the request over.
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to record chat history.")
	}

	return reply, nil
}

// query posts the question to the RAG collaborator. The answer field may be
// a string or an array of points; both are accepted.
func (s *Service) query(ctx context.Context, question string) ([]string, []string, error) {
	payload, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode RAG request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.ragURL+"/query", bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build RAG request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("RAG request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("RAG service responded with status %d", resp.StatusCode)
	}

	var body struct {
		Answer          json.RawMessage `json:"answer"`
		SourceDocuments []string        `json:"source_documents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, nil, fmt.Errorf("failed to decode RAG response: %w", err)
	}

	var points []string
	if err := json.Unmarshal(body.Answer, &points); err == nil {
		return points, body.SourceDocuments, nil
	}

	var text string
	if err := json.Unmarshal(body.Answer, &text); err != nil {
		return nil, nil, fmt.Errorf("RAG answer is neither string nor array")
	}

	return strings.Split(text, "\n"), body.SourceDocuments, nil
}

// normalizeAnswer trims bullets and whitespace and forces exactly five
// points, padding or truncating as needed.
func normalizeAnswer(lines []string) []string {
	points := make([]string, 0, answerPointCount)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "- "))
		if line == "" {
			continue
		}
		points = append(points, line)
	}

	if len(points) > answerPointCount {
		points = points[:answerPointCount]
	}
	for len(points) < answerPointCount {
		points = append(points, paddingPoint)
	}

	return points
}

// buildAttachments derives structured extras from keywords in the question.
func (s *Service) buildAttachments(ctx context.Context, lowerQuestion string) []Attachment {
	switch {
	case strings.Contains(lowerQuestion, "growth") || strings.Contains(lowerQuestion, "weight"):
		return []Attachment{{
			Type: "growth",
			Data: map[string]any{"date": "2025-05-01", "weight": 7.2, "height": 64},
		}}

	case strings.Contains(lowerQuestion, "video"):
		return []Attachment{{
			Type: "video",
			Data: map[string]any{"id": "vid1", "title": "Baby Care", "url": "https://example.com"},
		}}

	case strings.Contains(lowerQuestion, "prescription") ||
		strings.Contains(lowerQuestion, "medication") ||
		strings.Contains(lowerQuestion, "dolo"):
		sample := "Vitamin D - 1 tablet daily"
		if strings.Contains(lowerQuestion, "dolo") {
			sample = "Dolo 650 - 1 tablet as needed"
		}

		meds := prescription.ParseMedications(sample)
		if len(meds) == 0 {
			return []Attachment{}
		}

		if s.medications != nil {
			if err := s.medications.InsertMedications(ctx, meds); err != nil {
				s.logger.Error().Err(err).Msg("Failed to record attachment medications.")
			}
		}

		return []Attachment{{Type: "prescription", Data: meds[0]}}
	}

	return []Attachment{}
}
