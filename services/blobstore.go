package services

import (
	"context"
	"time"
)

// BlobStore is the narrow contract the pipeline needs from object storage.
// *spaces.SpacesClient satisfies it; tests inject fakes.
type BlobStore interface {
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error
	Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error
	Remove(ctx context.Context, bucket string, keys []string) error
	List(ctx context.Context, bucket, prefix string) ([]string, error)
	PublicURL(bucket, key string) string
	SignedURL(bucket, key string, expiration time.Duration) (string, error)
}

// Classifier is the external classification oracle: a prompt in, free-form
// text out. The output is untrusted and always parsed defensively.
type Classifier interface {
	Classify(ctx context.Context, prompt string) (string, error)
}
