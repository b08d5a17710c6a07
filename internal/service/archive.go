package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pageza/nutrimatch/backend/config"
	"github.com/pageza/nutrimatch/backend/internal/loader"
	"github.com/pageza/nutrimatch/backend/internal/nutrition"
)

// ObjectPutter is the part of the S3 client the archive needs
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ArchiveService stores raw provider payloads in S3 under
// <prefix>/<provider>/<yyyy>/<mm>/<dd>/<query hash>-<unix nanos>.<ext>
type ArchiveService struct {
	client ObjectPutter
	bucket string
	prefix string
}

var _ loader.Archiver = (*ArchiveService)(nil)

// NewArchiveService creates an archive from the S3 config
func NewArchiveService(cfg *config.S3Config) *ArchiveService {
	return &ArchiveService{client: cfg.Client, bucket: cfg.BucketName, prefix: cfg.Prefix}
}

// NewArchiveServiceWithClient is used with S3-compatible fakes
func NewArchiveServiceWithClient(client ObjectPutter, bucket, prefix string) *ArchiveService {
	return &ArchiveService{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key for raw.
func (s *ArchiveService) Key(raw *loader.RawPayload) string {
	sum := sha256.Sum256([]byte(nutrition.NormalizeQuery(raw.Query)))
	ext := "json"
	if raw.ContentType != "" && !strings.Contains(raw.ContentType, "json") {
		ext = "bin"
	}
	t := raw.FetchedAt.UTC()
	return path.Join(
		s.prefix,
		raw.Provider,
		t.Format("2006/01/02"),
		fmt.Sprintf("%s-%d.%s", hex.EncodeToString(sum[:8]), t.UnixNano(), ext),
	)
}

// Put uploads the payload body
func (s *ArchiveService) Put(ctx context.Context, raw *loader.RawPayload) error {
	contentType := raw.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.Key(raw)),
		Body:        bytes.NewReader(raw.Body),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"provider": raw.Provider,
			"query":    url.QueryEscape(raw.Query),
			"status":   fmt.Sprint(raw.StatusCode),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}
