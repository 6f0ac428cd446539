package catalog

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hoahub/portal-api/services"
	"github.com/hoahub/portal-api/utils/middleware"
	"github.com/hoahub/portal-api/utils/response"
)

// CatalogHandler serves the resident-facing document catalog
type CatalogHandler struct {
	catalogService *services.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// Get handles GET /api/v1/catalog
// Anonymous viewers see the public group only; signed-in residents also get
// the members-only group.
func (h *CatalogHandler) Get(c *fiber.Ctx) error {
	tenant, ok := middleware.GetTenant(c)
	if !ok {
		return response.BadRequest(c, "Association context missing")
	}

	viewer := services.Viewer{}
	if user, authed := middleware.GetUser(c); authed && user != nil {
		// Catalog membership access requires an actual membership, not
		// just a valid token for some other association.
		if role, isMember := middleware.GetMembershipRole(c); isMember {
			viewer = services.Viewer{
				UserID:        user.ID,
				Role:          role,
				Authenticated: true,
			}
		}
	}

	page, err := h.catalogService.PublicCatalog(c.Context(), tenant, viewer)
	if err != nil {
		return response.InternalServerError(c, "Failed to load catalog")
	}

	return response.Success(c, page)
}
