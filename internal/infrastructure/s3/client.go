// Package s3 archives rendered reports in S3 compatible storage
package s3

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// Config holds S3/MinIO configuration
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the base url archived reports are linked with
	PublicURL string
}

// Client wraps MinIO client with report archive functionality.
// Implements deps.RenderArchive interface
type Client struct {
	client    *minio.Client
	bucket    string
	publicURL string
	logger    zerolog.Logger
	now       func() time.Time
}

// NewClient creates a new S3/MinIO client
func NewClient(cfg *Config, logger zerolog.Logger) (*Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	publicURL := strings.TrimSuffix(cfg.PublicURL, "/")
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s", scheme, cfg.Endpoint)
	}

	return &Client{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicURL,
		logger:    logger.With().Str("component", "s3_archive").Logger(),
		now:       time.Now,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		c.logger.Info().Str("bucket", c.bucket).Msg("created S3 bucket")
	}

	return nil
}

// ObjectKey returns the key a report is stored under
// Path structure: reports/{YYYY}/{MM}/{name}
func ObjectKey(now time.Time, name string) string {
	now = now.UTC()
	return fmt.Sprintf("reports/%d/%02d/%s", now.Year(), now.Month(), path.Base(name))
}

// Store uploads a rendered report and returns its public URL
func (c *Client) Store(ctx context.Context, name string, data []byte) (string, error) {
	objectKey := ObjectKey(c.now(), name)

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" || path.Ext(name) == ".md" {
		contentType = "text/markdown; charset=utf-8"
	}

	_, err := c.client.PutObject(ctx, c.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report to S3: %w", err)
	}

	publicURL := c.GetPublicURL(objectKey)
	c.logger.Debug().
		Str("object_key", objectKey).
		Str("url", publicURL).
		Msg("archived report in S3")

	return publicURL, nil
}

// GetPublicURL returns public URL for the given object key
func (c *Client) GetPublicURL(objectKey string) string {
	return fmt.Sprintf("%s/%s/%s", c.publicURL, c.bucket, objectKey)
}
