package spaces

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// SpacesClient talks to S3-compatible object storage. Buckets are passed per
// call because every tenant owns its own pair ({slug}-uploads, {slug}-public).
type SpacesClient struct {
	s3Client *s3.S3
	endpoint string
	cdnBase  string
}

// Config holds connection settings for the Spaces client.
type Config struct {
	AccessKey string
	SecretKey string
	Region    string
	Endpoint  string
	CDNBase   string // optional CDN base URL for public objects
}

// NewSpacesClient creates a client against the configured endpoint.
func NewSpacesClient(config Config) (*SpacesClient, error) {
	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		),
		Endpoint:         aws.String(config.Endpoint),
		Region:           aws.String(config.Region),
		S3ForcePathStyle: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage session: %w", err)
	}

	return &SpacesClient{
		s3Client: s3.New(sess),
		endpoint: config.Endpoint,
		cdnBase:  config.CDNBase,
	}, nil
}

// Put writes an object. Same-key writes overwrite (S3 last-write-wins);
// callers wanting unique keys use GenerateKey.
func (s *SpacesClient) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        aws.ReadSeekCloser(bytes.NewReader(data)),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

// Copy duplicates an object between buckets, used when a published document
// goes public and its blob is mirrored into the tenant's public bucket.
func (s *SpacesClient) Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	_, err := s.s3Client.CopyObjectWithContext(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(dstBucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(fmt.Sprintf("%s/%s", srcBucket, srcKey)),
		ACL:        aws.String("public-read"),
	})
	if err != nil {
		return fmt.Errorf("failed to copy object: %w", err)
	}
	return nil
}

// Remove deletes objects in one batch call.
func (s *SpacesClient) Remove(ctx context.Context, bucket string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	objects := make([]*s3.ObjectIdentifier, 0, len(keys))
	for _, key := range keys {
		objects = append(objects, &s3.ObjectIdentifier{Key: aws.String(key)})
	}

	out, err := s.s3Client.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &s3.Delete{Objects: objects, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return fmt.Errorf("failed to delete objects: %w", err)
	}
	if len(out.Errors) > 0 {
		first := out.Errors[0]
		return fmt.Errorf("failed to delete %d object(s), first: %s %s",
			len(out.Errors), aws.StringValue(first.Key), aws.StringValue(first.Message))
	}
	return nil
}

// List returns object keys under a prefix.
func (s *SpacesClient) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	result, err := s.s3Client.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	var keys []string
	for _, obj := range result.Contents {
		keys = append(keys, *obj.Key)
	}
	return keys, nil
}

// PublicURL builds the stable unsigned URL for an object in a public bucket.
// Pure string construction, no network round-trip.
func (s *SpacesClient) PublicURL(bucket, key string) string {
	if s.cdnBase != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.cdnBase, "/"), bucket, key)
	}
	return fmt.Sprintf("https://%s.%s/%s", bucket, s.endpoint, key)
}

// SignedURL generates a time-limited retrieval link for a private object.
func (s *SpacesClient) SignedURL(bucket, key string, expiration time.Duration) (string, error) {
	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to presign URL: %w", err)
	}
	return url, nil
}

// GenerateKey builds a timestamp-prefixed storage key so re-uploads of the
// same filename never collide.
func GenerateKey(prefix, filename string) string {
	timestamp := time.Now().UnixNano()
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filepath.Base(filename), ext)

	return fmt.Sprintf("%s/%d_%s%s", prefix, timestamp, base, ext)
}

// GetContentType maps a filename extension to a MIME type.
func GetContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	case ".txt":
		return "text/plain"
	case ".md":
		return "text/markdown"
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".xls":
		return "application/vnd.ms-excel"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".html", ".htm":
		return "text/html"
	default:
		return "application/octet-stream"
	}
}
