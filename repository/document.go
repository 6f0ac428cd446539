package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hoahub/portal-api/model"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when no document matches the id.
	ErrNotFound = errors.New("document not found")
	// ErrAccessDenied is returned when the id exists but belongs to a
	// different tenant than the one the operation is scoped to.
	ErrAccessDenied = errors.New("document belongs to a different tenant")
	// ErrDuplicateStoragePath is returned when a create would reuse a
	// storage path already referenced within the tenant.
	ErrDuplicateStoragePath = errors.New("storage path already in use for tenant")
)

// Filter describes an AND-combined document query. Nil pointer fields are
// not applied.
type Filter struct {
	Search     string            // case-insensitive substring match on title
	Year       *int              // document_year equality
	DocType    *model.DocType    // doc_type equality
	Published  *bool             // is_published equality
	Archived   *bool             // is_archived equality
	Analyzed   *bool             // is_analyzed equality
	Visibility *model.Visibility // derived from is_public, published rows only
}

// DocumentRepository owns persistence of Document rows. Every operation is
// scoped by tenant id; nothing else in the codebase mutates documents.
type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a provisional document. Lifecycle flags are forced to the
// upload defaults regardless of what the caller set, so no invalid state can
// be constructed at creation time.
func (r *DocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	if doc.TenantID == "" {
		return fmt.Errorf("create document: tenant id is required")
	}
	if strings.TrimSpace(doc.StoragePath) == "" {
		return fmt.Errorf("create document: storage path is required")
	}

	doc.DocType = model.NormalizeDocType(string(doc.DocType))
	doc.IsAnalyzed = false
	doc.IsPublished = false
	doc.IsArchived = false

	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Document{}).
		Where("tenant_id = ? AND storage_path = ?", doc.TenantID, doc.StoragePath).
		Count(&count).Error; err != nil {
		return fmt.Errorf("check storage path: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateStoragePath, doc.StoragePath)
	}

	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// Get returns the document if it belongs to the tenant. A valid id from
// another tenant yields ErrAccessDenied, never the row.
func (r *DocumentRepository) Get(ctx context.Context, tenantID, id string) (*model.Document, error) {
	var doc model.Document
	err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	if doc.TenantID != tenantID {
		return nil, ErrAccessDenied
	}
	return &doc, nil
}

// Update applies fields as a single atomic update. doc_type values outside
// the enumerated set collapse to "other"; identity and ownership columns are
// not updatable.
func (r *DocumentRepository) Update(ctx context.Context, tenantID, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	if raw, ok := fields["doc_type"]; ok {
		fields["doc_type"] = model.NormalizeDocType(fmt.Sprint(raw))
	}
	delete(fields, "id")
	delete(fields, "tenant_id")
	delete(fields, "uploaded_at")

	res := r.db.WithContext(ctx).Model(&model.Document{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update document: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.missing(ctx, tenantID, id)
	}
	return nil
}

// Delete removes the record. Blob cleanup is the caller's concern and must
// happen before this is called.
func (r *DocumentRepository) Delete(ctx context.Context, tenantID, id string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&model.Document{})
	if res.Error != nil {
		return fmt.Errorf("delete document: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.missing(ctx, tenantID, id)
	}
	return nil
}

// Query returns the tenant's documents matching the filter, newest upload
// first. Ties on uploaded_at are broken deterministically by id.
func (r *DocumentRepository) Query(ctx context.Context, tenantID string, f Filter) ([]model.Document, error) {
	q := r.db.WithContext(ctx).Model(&model.Document{}).Where("tenant_id = ?", tenantID)

	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	if f.Year != nil {
		q = q.Where("document_year = ?", *f.Year)
	}
	if f.DocType != nil {
		q = q.Where("doc_type = ?", *f.DocType)
	}
	if f.Published != nil {
		q = q.Where("is_published = ?", *f.Published)
	}
	if f.Archived != nil {
		q = q.Where("is_archived = ?", *f.Archived)
	}
	if f.Analyzed != nil {
		q = q.Where("is_analyzed = ?", *f.Analyzed)
	}
	if f.Visibility != nil {
		// Visibility only exists for published documents.
		q = q.Where("is_published = ?", true)
		q = q.Where("is_public = ?", *f.Visibility == model.VisibilityPublic)
	}

	var docs []model.Document
	if err := q.Order("uploaded_at DESC").Order("id ASC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	return docs, nil
}

// missing distinguishes a genuinely absent row from one owned by another
// tenant, so cross-tenant probing with valid ids fails loudly.
func (r *DocumentRepository) missing(ctx context.Context, tenantID, id string) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Document{}).
		Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("check document ownership: %w", err)
	}
	if count > 0 {
		return ErrAccessDenied
	}
	return ErrNotFound
}
