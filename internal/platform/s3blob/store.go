package s3blob

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/platform/logger"
)

// Client is the narrow S3 client surface this store depends on.
// It is implemented by *s3.Client and by test fakes.
type Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// AttachmentStore stores raw attachment bytes in an S3 bucket and returns a
// durable locator URL for each object.
type AttachmentStore struct {
	client Client
	bucket string
	region string
}

// NewAttachmentStore creates an S3-backed attachment store for the given
// bucket and region. The region is only used to build locator URLs.
func NewAttachmentStore(client Client, bucket, region string) *AttachmentStore {
	if client == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("client cannot be nil")
	}
	if bucket == "" {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("bucket cannot be empty")
	}
	return &AttachmentStore{client: client, bucket: bucket, region: region}
}

// Store uploads the attachment bytes under a fresh random key and returns
// the object's locator URL. Each call produces a distinct locator even for
// identical content, so retries never overwrite a previous object.
func (s *AttachmentStore) Store(ctx context.Context, body io.Reader, fileName, contentType string) (string, error) {
	log := logger.FromContext(ctx)

	objectKey := fmt.Sprintf("attachments/%s/%s", uuid.NewString(), sanitizeFileName(fileName))

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		log.Error("failed to upload attachment",
			"bucket", s.bucket,
			"key", objectKey,
			"error", err)
		return "", fmt.Errorf("failed to upload attachment %q: %w", fileName, err)
	}

	return s.locatorFor(objectKey), nil
}

// locatorFor builds the public object URL for a stored key.
func (s *AttachmentStore) locatorFor(objectKey string) string {
	escaped := (&url.URL{Path: objectKey}).EscapedPath()
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, escaped)
}

// sanitizeFileName strips any path components from an uploaded file name and
// falls back to a generic name when nothing usable remains.
func sanitizeFileName(fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" {
		return "attachment"
	}
	return name
}
