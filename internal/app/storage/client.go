/*
Package storage stores prescription images in S3-compatible object storage.

The client supports custom endpoints (MinIO, R2) through path-style access
and static credentials.
*/
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"medichat/internal/pkg/logx"
)

// s3Client implements StorageService against an S3-compatible endpoint.
type s3Client struct {
	cfg      ServiceConfig
	client   *s3.Client
	uploader *manager.Uploader
}

// newS3Client builds the SDK client with static credentials and the
// configured custom endpoint.
func newS3Client(cfg ServiceConfig) (*s3Client, error) {
	sdkCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		logx.Error(err, "Failed to load AWS SDK config")
		return nil, errors.New("failed to initialize S3 client configuration")
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		o.UsePathStyle = true
	})

	return &s3Client{
		cfg:      cfg,
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

// Upload streams the object body to the bucket under key.
func (c *s3Client) Upload(ctx context.Context, key string, mimeType string, body io.Reader) error {
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      &c.cfg.S3BucketName,
		Key:         &key,
		ContentType: &mimeType,
		Body:        body,
	})
	if err != nil {
		logx.Error(err, "Failed to upload object", "key", key)
		return errors.New("failed to upload object")
	}

	return nil
}

// PresignDownload generates a presigned GET URL valid for duration.
func (c *s3Client) PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(c.client)

	resp, err := presignClient.PresignGetObject(ctx,
		&s3.GetObjectInput{
			Bucket: &c.cfg.S3BucketName,
			Key:    &key,
		},
		s3.WithPresignExpires(duration),
	)
	if err != nil {
		logx.Error(err, "Failed to generate presigned download URL", "key", key)
		return "", errors.New("failed to generate presigned download URL")
	}

	return resp.URL, nil
}

// Delete removes the object stored under key.
func (c *s3Client) Delete(ctx context.Context, key string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &c.cfg.S3BucketName,
		Key:    &key,
	})
	if err != nil {
		logx.Error(err, "Failed to delete object", "key", key)
		return errors.New("failed to delete object")
	}

	return nil
}
