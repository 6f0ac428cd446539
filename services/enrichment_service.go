package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/hoahub/portal-api/model"
	"github.com/hoahub/portal-api/repository"
	"github.com/hoahub/portal-api/utils/jsonextract"
	"gorm.io/datatypes"
)

const (
	// SignedURLLifetime bounds how long the classifier can fetch the blob.
	SignedURLLifetime = 5 * time.Minute
	// ClassifyTimeout bounds one classifier round-trip.
	ClassifyTimeout = 45 * time.Second

	minDocumentYear = 1900
	maxDocumentYear = 2100
)

// Metadata is the validated result of one enrichment run.
type Metadata struct {
	Title        string        `json:"title"`
	DocType      model.DocType `json:"doc_type"`
	Description  string        `json:"description"`
	DocumentYear *int          `json:"document_year,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
}

// Enricher derives document metadata from blob contents. IngestService and
// the cron sweep depend on this interface; tests inject fakes.
type Enricher interface {
	Analyze(ctx context.Context, tenant *model.Tenant, blobPath, documentID string) (*Metadata, error)
}

// EnrichmentService asks the external classifier to describe an uploaded
// blob and writes the validated result back through the repository. Every
// failure leaves the document in its pre-analysis state, so a retry is
// always safe.
type EnrichmentService struct {
	repo       *repository.DocumentRepository
	blobs      BlobStore
	classifier Classifier
}

func NewEnrichmentService(repo *repository.DocumentRepository, blobs BlobStore, classifier Classifier) *EnrichmentService {
	return &EnrichmentService{
		repo:       repo,
		blobs:      blobs,
		classifier: classifier,
	}
}

// rawMetadata is the classifier's claimed output before validation. Types
// are loose on purpose: the year arrives as a number, a string, or garbage.
type rawMetadata struct {
	Title        string          `json:"title"`
	DocType      string          `json:"doc_type"`
	Description  string          `json:"description"`
	DocumentYear json.RawMessage `json:"document_year"`
	Tags         []string        `json:"tags"`
}

// Analyze runs one enrichment pass: signed URL, classifier call, defensive
// parse, coercion, and a single atomic update that also flips is_analyzed.
func (s *EnrichmentService) Analyze(ctx context.Context, tenant *model.Tenant, blobPath, documentID string) (*Metadata, error) {
	doc, err := s.repo.Get(ctx, tenant.ID, documentID)
	if err != nil {
		return nil, err
	}

	signedURL, err := s.blobs.SignedURL(tenant.UploadsBucket(), blobPath, SignedURLLifetime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignedURL, err)
	}

	classifyCtx, cancel := context.WithTimeout(ctx, ClassifyTimeout)
	defer cancel()

	response, err := s.classifier.Classify(classifyCtx, buildPrompt(signedURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	jsonStr, err := jsonextract.Extract(response)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataParse, err)
	}

	var raw rawMetadata
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataParse, err)
	}

	meta := coerceMetadata(raw, doc.Filename)

	fields := map[string]interface{}{
		"title":         meta.Title,
		"doc_type":      meta.DocType,
		"description":   meta.Description,
		"document_year": meta.DocumentYear,
		"is_analyzed":   true,
	}
	if len(meta.Tags) > 0 {
		tagsJSON, err := json.Marshal(meta.Tags)
		if err == nil {
			fields["tags"] = datatypes.JSON(tagsJSON)
		}
	}

	if err := s.repo.Update(ctx, tenant.ID, documentID, fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataPersist, err)
	}

	log.Printf("Enrichment completed for document %s (%s): type=%s", documentID, doc.Filename, meta.DocType)
	return meta, nil
}

// coerceMetadata applies the trust boundary: every classifier field gets a
// fallback rather than being believed as-is.
func coerceMetadata(raw rawMetadata, filename string) *Metadata {
	meta := &Metadata{
		Title:       strings.TrimSpace(raw.Title),
		DocType:     model.NormalizeDocType(strings.TrimSpace(raw.DocType)),
		Description: strings.TrimSpace(raw.Description),
	}
	if meta.Title == "" {
		meta.Title = filename
	}
	meta.DocumentYear = parseYear(raw.DocumentYear)

	for _, tag := range raw.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			meta.Tags = append(meta.Tags, tag)
		}
	}

	return meta
}

// parseYear accepts a JSON number or numeric string and keeps it only if it
// is a plausible 4-digit year.
func parseYear(raw json.RawMessage) *int {
	if len(raw) == 0 {
		return nil
	}

	str := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	year, err := strconv.Atoi(str)
	if err != nil {
		return nil
	}
	if year < minDocumentYear || year > maxDocumentYear {
		return nil
	}
	return &year
}

// buildPrompt fixes the output contract: one raw JSON object, a closed
// doc_type set, and "other" when uncertain.
func buildPrompt(signedURL string) string {
	docTypes := make([]string, 0, len(model.AllDocTypes()))
	for _, t := range model.AllDocTypes() {
		docTypes = append(docTypes, string(t))
	}

	return fmt.Sprintf(`You are an HOA assistant AI. Given the contents of the document at the provided URL, return ONLY the following metadata as raw JSON. No explanation, no markdown, no comments.

The JSON object should have the following structure. Respond with ONLY THE JSON object, no other text:
{
  "title": "...",
  "tags": ["...", "..."],
  "doc_type": "...",
  "description": "...",
  "document_year": 2024
}

HINT - The following list should tell you what to use for each field. Adhere to the available doc_type values strictly. If you don't know, use "other".
- title: a human-friendly title for the document
- tags: 3-5 relevant tags
- doc_type: one of [%s]
- description: a 1-sentence summary
- document_year: the 4-digit year the document applies to, omit if unknown

Document URL: %s
`, strings.Join(docTypes, ", "), signedURL)
}
