package document

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/hoahub/portal-api/model"
	"github.com/hoahub/portal-api/repository"
	"github.com/hoahub/portal-api/services"
	"github.com/hoahub/portal-api/utils/middleware"
	"github.com/hoahub/portal-api/utils/pdfvalidation"
	"github.com/hoahub/portal-api/utils/response"
)

// maxUploadSize bounds non-PDF uploads; PDFs get the stricter pdfvalidation pass.
const maxUploadSize = 50 * 1024 * 1024

// DocumentHandler handles document-related requests
type DocumentHandler struct {
	ingestService    *services.IngestService
	catalogService   *services.CatalogService
	lifecycleService *services.LifecycleService
	tracker          *services.ProgressTracker
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(
	ingestService *services.IngestService,
	catalogService *services.CatalogService,
	lifecycleService *services.LifecycleService,
	tracker *services.ProgressTracker,
) *DocumentHandler {
	return &DocumentHandler{
		ingestService:    ingestService,
		catalogService:   catalogService,
		lifecycleService: lifecycleService,
		tracker:          tracker,
	}
}

// Upload handles POST /api/v1/documents
// Accepts multipart form data with one or more files under "files".
func (h *DocumentHandler) Upload(c *fiber.Ctx) error {
	tenant, ok := middleware.GetTenant(c)
	if !ok {
		return response.BadRequest(c, "Association context missing")
	}
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return response.BadRequest(c, "Invalid multipart form")
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		return response.BadRequest(c, "At least one file is required")
	}

	uploads := make([]services.FileUpload, 0, len(fileHeaders))
	for _, header := range fileHeaders {
		if strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
			result, err := pdfvalidation.ValidatePDFFile(header, pdfvalidation.DocumentLimits)
			if err != nil {
				return response.InternalServerError(c, "Failed to validate PDF: "+err.Error())
			}
			if !result.Valid {
				return response.BadRequest(c, header.Filename+": "+result.Error)
			}
		} else if header.Size > maxUploadSize {
			return response.BadRequest(c, header.Filename+": file size exceeds maximum allowed size of 50MB")
		}

		fileContent, err := header.Open()
		if err != nil {
			return response.InternalServerError(c, "Failed to open file")
		}
		content, err := io.ReadAll(fileContent)
		fileContent.Close()
		if err != nil {
			return response.InternalServerError(c, "Failed to read file")
		}

		uploads = append(uploads, services.FileUpload{
			Name:        header.Filename,
			Content:     content,
			ContentType: header.Header.Get("Content-Type"),
		})
	}

	ctx := c.Context()
	batchID, progress := h.tracker.StartBatch(ctx, tenant.ID, len(uploads))

	outcomes := h.ingestService.Ingest(ctx, tenant, user.ID, uploads, func(outcome services.FileOutcome) error {
		h.tracker.Record(ctx, progress, outcome)
		return nil
	})

	stored := 0
	for _, outcome := range outcomes {
		if outcome.Status == services.FileStatusStored {
			stored++
		}
	}

	return response.Created(c, fiber.Map{
		"batch_id": batchID,
		"stored":   stored,
		"failed":   len(outcomes) - stored,
		"outcomes": outcomes,
	})
}

// List handles GET /api/v1/documents
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	tenant, ok := middleware.GetTenant(c)
	if !ok {
		return response.BadRequest(c, "Association context missing")
	}

	filter, err := parseFilter(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	views, err := h.catalogService.List(c.Context(), tenant, filter)
	if err != nil {
		return response.InternalServerError(c, "Failed to list documents")
	}

	return response.Success(c, fiber.Map{
		"documents": views,
		"count":     len(views),
	})
}

// Download handles GET /api/v1/documents/:id/download
func (h *DocumentHandler) Download(c *fiber.Ctx) error {
	tenant, ok := middleware.GetTenant(c)
	if !ok {
		return response.BadRequest(c, "Association context missing")
	}

	url, err := h.catalogService.DownloadURL(c.Context(), tenant, c.Params("id"), services.MemberDownloadTTL)
	if err != nil {
		if errors.Is(err, services.ErrSignedURL) {
			return response.InternalServerError(c, "Failed to generate download URL")
		}
		return repositoryError(c, err)
	}

	return response.Success(c, fiber.Map{
		"download_url": url,
		"expires_in":   int(services.MemberDownloadTTL.Seconds()),
	})
}

// Archive handles POST /api/v1/documents/:id/archive
func (h *DocumentHandler) Archive(c *fiber.Ctx) error {
	return h.lifecycleAction(c, h.lifecycleService.Archive, "Document archived")
}

// Unarchive handles POST /api/v1/documents/:id/unarchive
func (h *DocumentHandler) Unarchive(c *fiber.Ctx) error {
	return h.lifecycleAction(c, h.lifecycleService.Unarchive, "Document unarchived")
}

// Publish handles POST /api/v1/documents/:id/publish
func (h *DocumentHandler) Publish(c *fiber.Ctx) error {
	return h.lifecycleAction(c, h.lifecycleService.Publish, "Document published")
}

// Unpublish handles POST /api/v1/documents/:id/unpublish
func (h *DocumentHandler) Unpublish(c *fiber.Ctx) error {
	return h.lifecycleAction(c, h.lifecycleService.Unpublish, "Document unpublished")
}

// SetVisibility handles POST /api/v1/documents/:id/visibility
func (h *DocumentHandler) SetVisibility(c *fiber.Ctx) error {
	tenant, ok := middleware.GetTenant(c)
	if !ok {
		return response.BadRequest(c, "Association context missing")
	}

	var req struct {
		Public *bool `json:"public"`
	}
	if err := c.BodyParser(&req); err != nil || req.Public == nil {
		return response.BadRequest(c, "Request body must include a boolean 'public' field")
	}

	if err := h.lifecycleService.SetVisibility(c.Context(), tenant, c.Params("id"), *req.Public); err != nil {
		return lifecycleError(c, err)
	}

	return response.SuccessWithMessage(c, "Document visibility updated", nil)
}

// Delete handles DELETE /api/v1/documents/:id?confirm=true
// The confirm flag is required so a stray request can never destroy a blob.
func (h *DocumentHandler) Delete(c *fiber.Ctx) error {
	tenant, ok := middleware.GetTenant(c)
	if !ok {
		return response.BadRequest(c, "Association context missing")
	}

	if c.Query("confirm") != "true" {
		return response.BadRequest(c, "Deletion must be confirmed with ?confirm=true")
	}

	if err := h.lifecycleService.Delete(c.Context(), tenant, c.Params("id")); err != nil {
		switch {
		case errors.Is(err, services.ErrBlobRemove):
			return response.ErrorWithDetails(c, fiber.StatusInternalServerError,
				"Failed to delete stored file; document was not removed", "BLOB_DELETE_FAILED", err.Error())
		case errors.Is(err, services.ErrOrphanBlob):
			return response.ErrorWithDetails(c, fiber.StatusInternalServerError,
				"Stored file was deleted but the document record could not be removed", "ORPHAN_RECORD", err.Error())
		default:
			return repositoryError(c, err)
		}
	}

	return response.SuccessWithMessage(c, "Document deleted", nil)
}

func (h *DocumentHandler) lifecycleAction(c *fiber.Ctx, action func(context.Context, *model.Tenant, string) error, message string) error {
	tenant, ok := middleware.GetTenant(c)
	if !ok {
		return response.BadRequest(c, "Association context missing")
	}

	if err := action(c.Context(), tenant, c.Params("id")); err != nil {
		return lifecycleError(c, err)
	}

	return response.SuccessWithMessage(c, message, nil)
}

func parseFilter(c *fiber.Ctx) (repository.Filter, error) {
	var f repository.Filter

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		f.Search = search
	}

	if yearStr := c.Query("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			return f, errors.New("year must be a number")
		}
		f.Year = &year
	}

	if typeStr := c.Query("type"); typeStr != "" {
		docType := model.DocType(typeStr)
		if !model.IsValidDocType(docType) {
			return f, errors.New("unrecognized document type: " + typeStr)
		}
		f.DocType = &docType
	}

	var err error
	if f.Published, err = parseTriState(c.Query("published")); err != nil {
		return f, errors.New("published must be true or false")
	}
	if f.Archived, err = parseTriState(c.Query("archived")); err != nil {
		return f, errors.New("archived must be true or false")
	}
	if f.Analyzed, err = parseTriState(c.Query("analyzed")); err != nil {
		return f, errors.New("analyzed must be true or false")
	}

	if visStr := c.Query("visibility"); visStr != "" {
		vis := model.Visibility(visStr)
		if vis != model.VisibilityPublic && vis != model.VisibilityMembers {
			return f, errors.New("visibility must be public or members")
		}
		f.Visibility = &vis
	}

	return f, nil
}

// parseTriState maps an absent query param to nil so filters stay tri-state:
// unset, explicitly true, explicitly false.
func parseTriState(value string) (*bool, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func repositoryError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return response.NotFound(c, "Document not found")
	case errors.Is(err, repository.ErrAccessDenied):
		return response.Forbidden(c, "Document belongs to another association")
	default:
		return response.InternalServerError(c, "Failed to process document")
	}
}

func lifecycleError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrRecordUpdate) {
		return response.InternalServerError(c, "Failed to update document")
	}
	return repositoryError(c, err)
}
