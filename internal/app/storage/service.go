package storage

import (
	"context"
	"io"
	"time"
)

// ServiceConfig holds the settings required to reach the object store.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// StorageService is the interface the prescription service stores scanned
// images through.
type StorageService interface {
	// Upload stores the object under key and returns nil on success.
	Upload(ctx context.Context, key string, mimeType string, body io.Reader) error

	// PresignDownload generates a time-limited URL for fetching an object.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error
}

// NewStorageService returns the S3-compatible implementation.
func NewStorageService(cfg ServiceConfig) (StorageService, error) {
	return newS3Client(cfg)
}
