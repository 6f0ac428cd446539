package document

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/hoahub/portal-api/services"
	"github.com/hoahub/portal-api/utils/middleware"
	"github.com/hoahub/portal-api/utils/response"
	"github.com/hoahub/portal-api/utils/validation"
)

// AnalyzeHandler exposes the enrichment pass as a synchronous endpoint, used
// by the retry action in the staging view and by operators re-running a
// failed analysis.
type AnalyzeHandler struct {
	enricher  services.Enricher
	validator *validation.Validator
}

// NewAnalyzeHandler creates a new analyze handler
func NewAnalyzeHandler(enricher services.Enricher) *AnalyzeHandler {
	return &AnalyzeHandler{
		enricher:  enricher,
		validator: validation.NewValidator(),
	}
}

type analyzeRequest struct {
	DocumentID string `json:"document_id" validate:"required,uuid4"`
	FileName   string `json:"file_name" validate:"required"`
}

// Analyze handles POST /api/v1/analyze
func (h *AnalyzeHandler) Analyze(c *fiber.Ctx) error {
	tenant, ok := middleware.GetTenant(c)
	if !ok {
		return response.BadRequest(c, "Association context missing")
	}

	var req analyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	meta, err := h.enricher.Analyze(c.Context(), tenant, req.FileName, req.DocumentID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSignedURL):
			return response.ErrorWithDetails(c, fiber.StatusBadRequest,
				"Could not produce a readable link for the stored file", "SIGNED_URL_FAILED", err.Error())
		case errors.Is(err, services.ErrUpstreamUnavailable):
			return response.BadGateway(c, "Document analysis service is unavailable")
		case errors.Is(err, services.ErrMetadataParse):
			return response.ErrorWithDetails(c, fiber.StatusInternalServerError,
				"Analysis returned an unreadable result", "METADATA_PARSE_FAILED", err.Error())
		case errors.Is(err, services.ErrMetadataPersist):
			return response.ErrorWithDetails(c, fiber.StatusInternalServerError,
				"Analysis succeeded but the result could not be saved", "METADATA_PERSIST_FAILED", err.Error())
		default:
			return repositoryError(c, err)
		}
	}

	return response.Success(c, meta)
}
