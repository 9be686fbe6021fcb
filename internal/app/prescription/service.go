package prescription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"medichat/internal/app/storage"
	"medichat/internal/pkg/errs"
	"medichat/internal/pkg/logx"
)

// ocrRequestTimeout bounds the round trip to the OCR collaborator.
const ocrRequestTimeout = 30 * time.Second

// MedicationStore is the persistence surface the service needs.
type MedicationStore interface {
	InsertMedications(ctx context.Context, medications []Medication) error
	ListMedications(ctx context.Context) ([]StoredMedication, error)
}

// imageURLTTL is how long the presigned link to the archived image lives.
const imageURLTTL = time.Hour

// ScanResult is the outcome of one prescription scan.
type ScanResult struct {
	Text        string       `json:"text"`
	Medications []Medication `json:"medications"`
	ImageKey    string       `json:"image_key,omitempty"`
	ImageURL    string       `json:"image_url,omitempty"`
}

// Service orchestrates a scan: archive the image, extract text through the
// OCR collaborator, parse and persist medication entries.
type Service struct {
	ocrURL     string
	httpClient *http.Client
	storage    storage.StorageService
	store      MedicationStore
	logger     zerolog.Logger
}

// NewService wires the OCR endpoint, the object store and the database.
func NewService(ocrURL string, store MedicationStore, objectStore storage.StorageService) *Service {
	return &Service{
		ocrURL:     ocrURL,
		httpClient: &http.Client{Timeout: ocrRequestTimeout},
		storage:    objectStore,
		store:      store,
		logger:     logx.Logger().With().Str("component", "PrescriptionService").Logger(),
	}
}

// Scan runs the full pipeline on raw image bytes. Archiving the image is
// best effort: an unavailable object store is logged, not surfaced, since
// the OCR result is what the caller is waiting for.
func (s *Service) Scan(ctx context.Context, image []byte, mimeType string) (*ScanResult, *errs.CustomError) {
	imageKey := fmt.Sprintf("prescriptions/%s", uuid.New().String())

	if s.storage != nil {
		if err := s.storage.Upload(ctx, imageKey, mimeType, bytes.NewReader(image)); err != nil {
			s.logger.Warn().Err(err).Str("image_key", imageKey).Msg("Failed to archive prescription image.")
			imageKey = ""
		}
	} else {
		imageKey = ""
	}

	text, err := s.extractText(ctx, image, mimeType)
	if err != nil {
		s.logger.Error().Err(err).Msg("OCR extraction failed.")

		// The archived image is useless without a scan result.
		if imageKey != "" {
			if delErr := s.storage.Delete(ctx, imageKey); delErr != nil {
				s.logger.Warn().Err(delErr).Str("image_key", imageKey).Msg("Failed to remove orphaned prescription image.")
			}
		}

		return nil, errs.NewError(errs.ErrUpstreamService)
	}

	medications := ParseMedications(text)

	if len(medications) > 0 {
		if err := s.store.InsertMedications(ctx, medications); err != nil {
			s.logger.Error().Err(err).Msg("Failed to persist parsed medications.")
			return nil, errs.NewError(errs.ErrDatabaseFailure)
		}
	}

	var imageURL string
	if imageKey != "" {
		url, presignErr := s.storage.PresignDownload(ctx, imageKey, imageURLTTL)
		if presignErr != nil {
			s.logger.Warn().Err(presignErr).Str("image_key", imageKey).Msg("Failed to presign prescription image URL.")
		} else {
			imageURL = url
		}
	}

	return &ScanResult{
		Text:        text,
		Medications: medications,
		ImageKey:    imageKey,
		ImageURL:    imageURL,
	}, nil
}

// Medications lists every persisted entry.
func (s *Service) Medications(ctx context.Context) ([]StoredMedication, *errs.CustomError) {
	medications, err := s.store.ListMedications(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list medications.")
		return nil, errs.NewError(errs.ErrDatabaseFailure)
	}

	return medications, nil
}

// extractText posts the raw image to the OCR collaborator and returns the
// recognized text.
func (s *Service) extractText(ctx context.Context, image []byte, mimeType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.ocrURL+"/ocr", bytes.NewReader(image))
	if err != nil {
		return "", fmt.Errorf("failed to build OCR request: %w", err)
	}
	req.Header.Set("Content-Type", mimeType)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("OCR request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OCR service responded with status %d", resp.StatusCode)
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode OCR response: %w", err)
	}

	return body.Text, nil
}
