package document

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/hoahub/portal-api/services"
	"github.com/hoahub/portal-api/utils/cache"
	"github.com/hoahub/portal-api/utils/middleware"
	"github.com/hoahub/portal-api/utils/response"
)

// ProgressHandler serves upload-batch progress for polling clients
type ProgressHandler struct {
	tracker *services.ProgressTracker
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(tracker *services.ProgressTracker) *ProgressHandler {
	return &ProgressHandler{tracker: tracker}
}

// GetBatch handles GET /api/v1/uploads/progress/:batch_id
func (h *ProgressHandler) GetBatch(c *fiber.Ctx) error {
	tenant, ok := middleware.GetTenant(c)
	if !ok {
		return response.BadRequest(c, "Association context missing")
	}

	progress, err := h.tracker.GetBatch(c.Context(), c.Params("batch_id"))
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return response.NotFound(c, "Upload batch not found or expired")
		}
		return response.InternalServerError(c, "Failed to load upload progress")
	}

	// Batch state is tenant-scoped; a guessed batch id from another
	// association reads as absent.
	if progress.TenantID != tenant.ID {
		return response.NotFound(c, "Upload batch not found or expired")
	}

	return response.Success(c, progress)
}
