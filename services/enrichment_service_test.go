package services

import (
	"context"
	"errors"
	"testing"

	"github.com/hoahub/portal-api/model"
	"github.com/hoahub/portal-api/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedPendingDocument(t *testing.T, db *gorm.DB, repo *repository.DocumentRepository, tenant *model.Tenant) *model.Document {
	t.Helper()

	doc := &model.Document{
		TenantID:    tenant.ID,
		Title:       "board-minutes-march.pdf",
		Filename:    "board-minutes-march.pdf",
		StoragePath: "documents/1_board-minutes-march.pdf",
		DocType:     model.DocTypeOther,
	}
	require.NoError(t, repo.Create(context.Background(), doc))
	return doc
}

func TestAnalyzeAppliesFencedClassifierOutput(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewDocumentRepository(db)
	tenant := createTestTenant(t, db, "oak-hollow")
	doc := seedPendingDocument(t, db, repo, tenant)

	blobs := newFakeBlobStore()
	classifier := &fakeClassifier{response: "```json\n{\"title\": \"March Board Minutes\", \"doc_type\": \"minutes\", \"description\": \"Minutes of the March board meeting.\", \"document_year\": 2024, \"tags\": [\"board\", \"minutes\"]}\n```"}

	svc := NewEnrichmentService(repo, blobs, classifier)
	meta, err := svc.Analyze(context.Background(), tenant, doc.StoragePath, doc.ID)
	require.NoError(t, err)

	assert.Equal(t, "March Board Minutes", meta.Title)
	assert.Equal(t, model.DocTypeMinutes, meta.DocType)
	require.NotNil(t, meta.DocumentYear)
	assert.Equal(t, 2024, *meta.DocumentYear)
	assert.Equal(t, []string{"board", "minutes"}, meta.Tags)

	stored, err := repo.Get(context.Background(), tenant.ID, doc.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsAnalyzed)
	assert.Equal(t, "March Board Minutes", stored.Title)
	assert.Equal(t, model.DocTypeMinutes, stored.DocType)
	assert.Equal(t, model.LifecycleStaged, stored.Lifecycle())

	// The classifier fetches the blob through a short-lived signed link.
	assert.Contains(t, classifier.prompt, "oak-hollow-uploads.signed.test")
	assert.Contains(t, classifier.prompt, doc.StoragePath)
}

func TestAnalyzeCoercesUntrustedFields(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewDocumentRepository(db)
	tenant := createTestTenant(t, db, "oak-hollow")
	doc := seedPendingDocument(t, db, repo, tenant)

	classifier := &fakeClassifier{response: `{"title": "  ", "doc_type": "meeting-agenda", "description": "x", "document_year": "not-a-year"}`}

	svc := NewEnrichmentService(repo, newFakeBlobStore(), classifier)
	meta, err := svc.Analyze(context.Background(), tenant, doc.StoragePath, doc.ID)
	require.NoError(t, err)

	assert.Equal(t, doc.Filename, meta.Title)
	assert.Equal(t, model.DocTypeOther, meta.DocType)
	assert.Nil(t, meta.DocumentYear)
}

func TestAnalyzeRejectsImplausibleYear(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewDocumentRepository(db)
	tenant := createTestTenant(t, db, "oak-hollow")
	doc := seedPendingDocument(t, db, repo, tenant)

	classifier := &fakeClassifier{response: `{"title": "Budget", "doc_type": "budget", "description": "", "document_year": 20244}`}

	svc := NewEnrichmentService(repo, newFakeBlobStore(), classifier)
	meta, err := svc.Analyze(context.Background(), tenant, doc.StoragePath, doc.ID)
	require.NoError(t, err)
	assert.Nil(t, meta.DocumentYear)
}

func TestAnalyzeAcceptsStringYear(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewDocumentRepository(db)
	tenant := createTestTenant(t, db, "oak-hollow")
	doc := seedPendingDocument(t, db, repo, tenant)

	classifier := &fakeClassifier{response: `{"title": "Budget", "doc_type": "budget", "description": "", "document_year": "2023"}`}

	svc := NewEnrichmentService(repo, newFakeBlobStore(), classifier)
	meta, err := svc.Analyze(context.Background(), tenant, doc.StoragePath, doc.ID)
	require.NoError(t, err)
	require.NotNil(t, meta.DocumentYear)
	assert.Equal(t, 2023, *meta.DocumentYear)
}

func TestAnalyzeClassifierOutageLeavesDocumentPending(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewDocumentRepository(db)
	tenant := createTestTenant(t, db, "oak-hollow")
	doc := seedPendingDocument(t, db, repo, tenant)

	classifier := &fakeClassifier{err: errors.New("connection refused")}

	svc := NewEnrichmentService(repo, newFakeBlobStore(), classifier)
	_, err := svc.Analyze(context.Background(), tenant, doc.StoragePath, doc.ID)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)

	stored, getErr := repo.Get(context.Background(), tenant.ID, doc.ID)
	require.NoError(t, getErr)
	assert.False(t, stored.IsAnalyzed)
	assert.Equal(t, model.LifecyclePending, stored.Lifecycle())
}

func TestAnalyzeGarbageResponseIsParseError(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewDocumentRepository(db)
	tenant := createTestTenant(t, db, "oak-hollow")
	doc := seedPendingDocument(t, db, repo, tenant)

	classifier := &fakeClassifier{response: "I could not read the document, sorry."}

	svc := NewEnrichmentService(repo, newFakeBlobStore(), classifier)
	_, err := svc.Analyze(context.Background(), tenant, doc.StoragePath, doc.ID)
	assert.ErrorIs(t, err, ErrMetadataParse)

	stored, getErr := repo.Get(context.Background(), tenant.ID, doc.ID)
	require.NoError(t, getErr)
	assert.False(t, stored.IsAnalyzed)
}

func TestAnalyzeSignedURLFailureSkipsClassifier(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewDocumentRepository(db)
	tenant := createTestTenant(t, db, "oak-hollow")
	doc := seedPendingDocument(t, db, repo, tenant)

	blobs := newFakeBlobStore()
	blobs.signErr = errors.New("presign failed")
	classifier := &fakeClassifier{response: "{}"}

	svc := NewEnrichmentService(repo, blobs, classifier)
	_, err := svc.Analyze(context.Background(), tenant, doc.StoragePath, doc.ID)
	assert.ErrorIs(t, err, ErrSignedURL)
	assert.Zero(t, classifier.calls)
}

func TestAnalyzeUnknownDocumentFails(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewDocumentRepository(db)
	tenant := createTestTenant(t, db, "oak-hollow")

	svc := NewEnrichmentService(repo, newFakeBlobStore(), &fakeClassifier{response: "{}"})
	_, err := svc.Analyze(context.Background(), tenant, "documents/x.pdf", "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
