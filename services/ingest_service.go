package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hoahub/portal-api/model"
	"github.com/hoahub/portal-api/repository"
	"github.com/hoahub/portal-api/services/spaces"
)

// EnrichmentTaskTimeout bounds one background enrichment run end to end.
const EnrichmentTaskTimeout = 2 * time.Minute

// FileStatus is the per-file upload outcome.
type FileStatus string

const (
	FileStatusQueued FileStatus = "queued"
	FileStatusStored FileStatus = "stored"
	FileStatusFailed FileStatus = "failed"
)

// FileUpload is one file in an upload batch.
type FileUpload struct {
	Name        string
	Content     []byte
	ContentType string
}

// FileOutcome reports what happened to one file.
type FileOutcome struct {
	Name        string     `json:"name"`
	Status      FileStatus `json:"status"`
	DocumentID  string     `json:"document_id,omitempty"`
	StoragePath string     `json:"storage_path,omitempty"`
	ErrorDetail string     `json:"error_detail,omitempty"`
}

// IngestObserver receives per-file status transitions for progress display.
// Observer errors are logged and never affect the ingestion outcome.
type IngestObserver func(outcome FileOutcome) error

// IngestService orchestrates an upload batch: blob write, provisional record
// insert, and a fire-and-forget enrichment trigger per file. Files are
// processed sequentially so status reporting stays deterministic and the
// classifier never sees an unbounded burst, but one file's failure never
// aborts its siblings.
type IngestService struct {
	repo     *repository.DocumentRepository
	blobs    BlobStore
	enricher Enricher
	pool     *WorkerPool

	// keyFn builds the storage key for a filename. Defaults to the
	// timestamp-prefixed scheme so re-uploads never collide.
	keyFn func(name string) string
}

func NewIngestService(repo *repository.DocumentRepository, blobs BlobStore, enricher Enricher, pool *WorkerPool) *IngestService {
	return &IngestService{
		repo:     repo,
		blobs:    blobs,
		enricher: enricher,
		pool:     pool,
		keyFn: func(name string) string {
			return spaces.GenerateKey("documents", name)
		},
	}
}

// Ingest uploads a batch for one tenant and returns per-file outcomes. The
// call returns once every file is stored (or failed); enrichment completes
// later and is observable through is_analyzed.
func (s *IngestService) Ingest(ctx context.Context, tenant *model.Tenant, uploaderID string, files []FileUpload, observe IngestObserver) []FileOutcome {
	outcomes := make([]FileOutcome, 0, len(files))

	for _, file := range files {
		s.notify(observe, FileOutcome{Name: file.Name, Status: FileStatusQueued})
		outcome := s.ingestOne(ctx, tenant, uploaderID, file)
		s.notify(observe, outcome)
		outcomes = append(outcomes, outcome)
	}

	return outcomes
}

func (s *IngestService) ingestOne(ctx context.Context, tenant *model.Tenant, uploaderID string, file FileUpload) FileOutcome {
	key := s.keyFn(file.Name)

	contentType := file.ContentType
	if contentType == "" {
		contentType = spaces.GetContentType(file.Name)
	}

	if err := s.blobs.Put(ctx, tenant.UploadsBucket(), key, file.Content, contentType); err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrBlobWrite, err)
		log.Printf("Upload failed for %s (tenant %s): %v", file.Name, tenant.Slug, wrapped)
		return FileOutcome{Name: file.Name, Status: FileStatusFailed, ErrorDetail: wrapped.Error()}
	}

	doc := &model.Document{
		TenantID:    tenant.ID,
		Title:       file.Name,
		Filename:    file.Name,
		StoragePath: key,
		FileType:    contentType,
		DocType:     model.DocTypeOther,
		UploadedBy:  uploaderID,
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		// The blob exists but the record does not: an orphan blob an
		// operator can find by listing the bucket against the table.
		wrapped := fmt.Errorf("%w: %v", ErrRecordInsert, err)
		log.Printf("Record insert failed for %s after blob write (orphan blob at %s/%s): %v",
			file.Name, tenant.UploadsBucket(), key, wrapped)
		return FileOutcome{Name: file.Name, Status: FileStatusFailed, StoragePath: key, ErrorDetail: wrapped.Error()}
	}

	s.dispatchEnrichment(tenant, doc)

	return FileOutcome{
		Name:        file.Name,
		Status:      FileStatusStored,
		DocumentID:  doc.ID,
		StoragePath: key,
	}
}

// dispatchEnrichment hands the analysis to the worker pool; the upload
// response never waits on the classifier.
func (s *IngestService) dispatchEnrichment(tenant *model.Tenant, doc *model.Document) {
	tenantCopy := *tenant
	docID := doc.ID
	path := doc.StoragePath

	s.pool.SubmitWithTimeout(EnrichmentTaskTimeout, func(ctx context.Context) {
		if _, err := s.enricher.Analyze(ctx, &tenantCopy, path, docID); err != nil {
			// The document stays pending; the scheduled sweep retries it.
			log.Printf("Enrichment failed for document %s: %v", docID, err)
		}
	})
}

func (s *IngestService) notify(observe IngestObserver, outcome FileOutcome) {
	if observe == nil {
		return
	}
	if err := observe(outcome); err != nil {
		log.Printf("Ingest observer error for %s (ignored): %v", outcome.Name, err)
	}
}
