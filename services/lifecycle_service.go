package services

import (
	"context"
	"fmt"
	"log"

	"github.com/hoahub/portal-api/model"
	"github.com/hoahub/portal-api/repository"
)

// LifecycleService applies admin-triggered state changes: archive, publish,
// visibility, and the two-phase delete. Callers are expected to gate Delete
// behind an explicit confirmation step at the interface boundary.
type LifecycleService struct {
	repo  *repository.DocumentRepository
	blobs BlobStore
}

func NewLifecycleService(repo *repository.DocumentRepository, blobs BlobStore) *LifecycleService {
	return &LifecycleService{repo: repo, blobs: blobs}
}

// Archive retires a document from default views. Archiving an already
// archived document is a no-op success.
func (s *LifecycleService) Archive(ctx context.Context, tenant *model.Tenant, documentID string) error {
	doc, err := s.repo.Get(ctx, tenant.ID, documentID)
	if err != nil {
		return err
	}
	if doc.IsArchived {
		return nil
	}
	if err := s.repo.Update(ctx, tenant.ID, documentID, map[string]interface{}{"is_archived": true}); err != nil {
		return fmt.Errorf("%w: %v", ErrRecordUpdate, err)
	}
	return nil
}

// Unarchive returns a document to its previous staging/published state.
func (s *LifecycleService) Unarchive(ctx context.Context, tenant *model.Tenant, documentID string) error {
	if err := s.repo.Update(ctx, tenant.ID, documentID, map[string]interface{}{"is_archived": false}); err != nil {
		if err == repository.ErrNotFound || err == repository.ErrAccessDenied {
			return err
		}
		return fmt.Errorf("%w: %v", ErrRecordUpdate, err)
	}
	return nil
}

// Publish makes a document visible in the tenant catalog. If it is marked
// public, its blob is mirrored into the tenant's public bucket so the stable
// unsigned URL resolves.
func (s *LifecycleService) Publish(ctx context.Context, tenant *model.Tenant, documentID string) error {
	doc, err := s.repo.Get(ctx, tenant.ID, documentID)
	if err != nil {
		return err
	}

	if err := s.repo.Update(ctx, tenant.ID, documentID, map[string]interface{}{"is_published": true}); err != nil {
		return fmt.Errorf("%w: %v", ErrRecordUpdate, err)
	}

	if doc.IsPublic {
		s.mirrorPublic(ctx, tenant, doc)
	}
	return nil
}

// Unpublish removes a document from the catalog and drops any public copy.
func (s *LifecycleService) Unpublish(ctx context.Context, tenant *model.Tenant, documentID string) error {
	doc, err := s.repo.Get(ctx, tenant.ID, documentID)
	if err != nil {
		return err
	}

	if err := s.repo.Update(ctx, tenant.ID, documentID, map[string]interface{}{"is_published": false}); err != nil {
		return fmt.Errorf("%w: %v", ErrRecordUpdate, err)
	}

	s.dropPublicCopy(ctx, tenant, doc)
	return nil
}

// SetVisibility toggles anonymous vs members-only access for a document and
// keeps the public bucket in sync when the document is published.
func (s *LifecycleService) SetVisibility(ctx context.Context, tenant *model.Tenant, documentID string, public bool) error {
	doc, err := s.repo.Get(ctx, tenant.ID, documentID)
	if err != nil {
		return err
	}

	if err := s.repo.Update(ctx, tenant.ID, documentID, map[string]interface{}{"is_public": public}); err != nil {
		return fmt.Errorf("%w: %v", ErrRecordUpdate, err)
	}

	if doc.IsPublished {
		if public {
			s.mirrorPublic(ctx, tenant, doc)
		} else {
			s.dropPublicCopy(ctx, tenant, doc)
		}
	}
	return nil
}

// Delete removes the blob first and the record second. A blob-phase failure
// aborts the whole delete so no record points at a missing blob; a
// record-phase failure after the blob is gone is the orphan-blob condition
// and is reported distinctly.
func (s *LifecycleService) Delete(ctx context.Context, tenant *model.Tenant, documentID string) error {
	doc, err := s.repo.Get(ctx, tenant.ID, documentID)
	if err != nil {
		return err
	}

	if err := s.blobs.Remove(ctx, tenant.UploadsBucket(), []string{doc.StoragePath}); err != nil {
		return fmt.Errorf("%w: %v", ErrBlobRemove, err)
	}

	s.dropPublicCopy(ctx, tenant, doc)

	if err := s.repo.Delete(ctx, tenant.ID, documentID); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOrphanBlob, doc.StoragePath, err)
	}
	return nil
}

// mirrorPublic copies the blob into the public bucket. Best effort: the
// record update already happened; if the copy fails the stable URL 404s
// until a later publish or visibility toggle re-mirrors it.
func (s *LifecycleService) mirrorPublic(ctx context.Context, tenant *model.Tenant, doc *model.Document) {
	err := s.blobs.Copy(ctx, tenant.UploadsBucket(), doc.StoragePath, tenant.PublicBucket(), doc.StoragePath)
	if err != nil {
		log.Printf("Failed to mirror document %s to public bucket: %v", doc.ID, err)
	}
}

func (s *LifecycleService) dropPublicCopy(ctx context.Context, tenant *model.Tenant, doc *model.Document) {
	if err := s.blobs.Remove(ctx, tenant.PublicBucket(), []string{doc.StoragePath}); err != nil {
		log.Printf("Failed to remove public copy of document %s: %v", doc.ID, err)
	}
}
