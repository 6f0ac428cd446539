package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hoahub/portal-api/model"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&model.Tenant{}, &model.Document{}))
	return db
}

func createTestTenant(t *testing.T, db *gorm.DB, slug string) *model.Tenant {
	t.Helper()

	tenant := &model.Tenant{Slug: slug, Name: slug}
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

// fakeBlobStore is an in-memory BlobStore. Objects are keyed bucket/key.
type fakeBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	putErr     error
	putFailFor string // Put fails when the key contains this substring
	copyErr    error
	removeErr  error
	signErr    error

	// removeHook runs after a successful Remove, before it returns. Lets a
	// test mutate state between the blob phase and the record phase.
	removeHook func()
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: map[string][]byte{}}
}

func (f *fakeBlobStore) objectKey(bucket, key string) string {
	return bucket + "/" + key
}

func (f *fakeBlobStore) has(bucket, key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[f.objectKey(bucket, key)]
	return ok
}

func (f *fakeBlobStore) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	if f.putErr != nil && (f.putFailFor == "" || strings.Contains(key, f.putFailFor)) {
		return f.putErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[f.objectKey(bucket, key)] = data
	return nil
}

func (f *fakeBlobStore) Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	if f.copyErr != nil {
		return f.copyErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[f.objectKey(srcBucket, srcKey)]
	if !ok {
		return fmt.Errorf("source object %s/%s does not exist", srcBucket, srcKey)
	}
	f.objects[f.objectKey(dstBucket, dstKey)] = data
	return nil
}

func (f *fakeBlobStore) Remove(ctx context.Context, bucket string, keys []string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.mu.Lock()
	for _, key := range keys {
		delete(f.objects, f.objectKey(bucket, key))
	}
	f.mu.Unlock()
	if f.removeHook != nil {
		f.removeHook()
	}
	return nil
}

func (f *fakeBlobStore) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, bucket+"/"+prefix) {
			keys = append(keys, strings.TrimPrefix(k, bucket+"/"))
		}
	}
	return keys, nil
}

func (f *fakeBlobStore) PublicURL(bucket, key string) string {
	return fmt.Sprintf("https://%s.cdn.test/%s", bucket, key)
}

func (f *fakeBlobStore) SignedURL(bucket, key string, expiration time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return fmt.Sprintf("https://%s.signed.test/%s?expires=%d", bucket, key, int(expiration.Seconds())), nil
}

// fakeClassifier returns a canned response and records the prompt it got.
type fakeClassifier struct {
	response string
	err      error
	prompt   string
	calls    int
}

func (f *fakeClassifier) Classify(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

// fakeEnricher records Analyze dispatches without doing any work.
type fakeEnricher struct {
	mu    sync.Mutex
	calls []string // document ids
	err   error
}

func (f *fakeEnricher) Analyze(ctx context.Context, tenant *model.Tenant, blobPath, documentID string) (*Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, documentID)
	if f.err != nil {
		return nil, f.err
	}
	return &Metadata{Title: blobPath, DocType: model.DocTypeOther}, nil
}

func (f *fakeEnricher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
