package services

import (
	"context"
	"log"
	"time"

	"github.com/hoahub/portal-api/model"
	"github.com/hoahub/portal-api/repository"
)

const (
	// StagingPreviewTTL is the signed-URL lifetime for staging previews.
	StagingPreviewTTL = 5 * time.Minute
	// MemberDownloadTTL is the signed-URL lifetime for published
	// members-only documents.
	MemberDownloadTTL = time.Hour
)

// Viewer is the request's identity as far as the catalog cares: whether
// someone is signed in, and who.
type Viewer struct {
	UserID        string
	Role          model.Role
	Authenticated bool
}

// DocumentView augments a document with a resolved retrieval URL. Pending
// documents carry provisional metadata; the Pending flag tells renderers to
// suppress it.
type DocumentView struct {
	model.Document
	Lifecycle model.LifecycleState `json:"lifecycle"`
	Pending   bool                 `json:"pending"`
	URL       string               `json:"url,omitempty"`
	URLError  string               `json:"url_error,omitempty"`
}

// CatalogPage is the public catalog partitioned by visibility. Members is
// nil for anonymous viewers.
type CatalogPage struct {
	Public  []DocumentView `json:"public"`
	Members []DocumentView `json:"members,omitempty"`
}

// CatalogService builds filtered, access-controlled document views and
// resolves a retrieval URL per item. A failed resolution marks that item's
// URL unavailable instead of failing the listing.
type CatalogService struct {
	repo  *repository.DocumentRepository
	blobs BlobStore
}

func NewCatalogService(repo *repository.DocumentRepository, blobs BlobStore) *CatalogService {
	return &CatalogService{repo: repo, blobs: blobs}
}

// List is the staging/management view. Unless the filter asks for archived
// rows explicitly, archived documents are excluded.
func (s *CatalogService) List(ctx context.Context, tenant *model.Tenant, f repository.Filter) ([]DocumentView, error) {
	if f.Archived == nil {
		notArchived := false
		f.Archived = &notArchived
	}

	docs, err := s.repo.Query(ctx, tenant.ID, f)
	if err != nil {
		return nil, err
	}

	views := make([]DocumentView, 0, len(docs))
	for _, doc := range docs {
		views = append(views, s.buildView(tenant, doc, StagingPreviewTTL))
	}
	return views, nil
}

// PublicCatalog returns published, unarchived, analyzed documents split into
// public and members-only groups. The members group is computed only for
// authenticated viewers.
func (s *CatalogService) PublicCatalog(ctx context.Context, tenant *model.Tenant, viewer Viewer) (*CatalogPage, error) {
	published := true
	notArchived := false
	analyzed := true

	docs, err := s.repo.Query(ctx, tenant.ID, repository.Filter{
		Published: &published,
		Archived:  &notArchived,
		Analyzed:  &analyzed,
	})
	if err != nil {
		return nil, err
	}

	page := &CatalogPage{Public: []DocumentView{}}
	for _, doc := range docs {
		if doc.IsPublic {
			page.Public = append(page.Public, s.buildView(tenant, doc, MemberDownloadTTL))
			continue
		}
		if viewer.Authenticated {
			page.Members = append(page.Members, s.buildView(tenant, doc, MemberDownloadTTL))
		}
	}

	return page, nil
}

// buildView resolves the retrieval URL for one document. Published public
// documents resolve to the stable unsigned link on the tenant's public
// bucket (a pure lookup); everything else gets a fresh signed link against
// the private uploads bucket.
func (s *CatalogService) buildView(tenant *model.Tenant, doc model.Document, ttl time.Duration) DocumentView {
	view := DocumentView{
		Document:  doc,
		Lifecycle: doc.Lifecycle(),
		Pending:   !doc.IsAnalyzed,
	}

	if doc.IsPublished && doc.IsPublic && !doc.IsArchived {
		view.URL = s.blobs.PublicURL(tenant.PublicBucket(), doc.StoragePath)
		return view
	}

	url, err := s.blobs.SignedURL(tenant.UploadsBucket(), doc.StoragePath, ttl)
	if err != nil {
		log.Printf("Signed URL resolution failed for document %s: %v", doc.ID, err)
		view.URLError = "retrieval link unavailable"
		return view
	}
	view.URL = url
	return view
}

// DownloadURL resolves a single document's retrieval link with an explicit
// lifetime, for the download endpoint.
func (s *CatalogService) DownloadURL(ctx context.Context, tenant *model.Tenant, documentID string, ttl time.Duration) (string, error) {
	doc, err := s.repo.Get(ctx, tenant.ID, documentID)
	if err != nil {
		return "", err
	}

	if doc.IsPublished && doc.IsPublic && !doc.IsArchived {
		return s.blobs.PublicURL(tenant.PublicBucket(), doc.StoragePath), nil
	}

	url, err := s.blobs.SignedURL(tenant.UploadsBucket(), doc.StoragePath, ttl)
	if err != nil {
		return "", ErrSignedURL
	}
	return url, nil
}
