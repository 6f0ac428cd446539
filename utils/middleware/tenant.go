package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/hoahub/portal-api/model"
	"github.com/hoahub/portal-api/utils/response"
	"gorm.io/gorm"
)

// TenantMiddleware resolves the association a request belongs to. The slug
// comes from the leftmost hostname label (sunset-ridge.hoahub.example) with an
// X-Tenant-Slug header fallback for local development and API clients.
type TenantMiddleware struct {
	db *gorm.DB
}

// NewTenantMiddleware creates a new tenant middleware
func NewTenantMiddleware(db *gorm.DB) *TenantMiddleware {
	return &TenantMiddleware{db: db}
}

// Resolve loads the tenant for the request and, when a user is already
// authenticated, their membership role within it.
func (m *TenantMiddleware) Resolve() fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := extractSlug(c)
		if slug == "" {
			return response.BadRequest(c, "Unable to determine association from request")
		}

		var tenant model.Tenant
		if err := m.db.First(&tenant, "slug = ?", slug).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return response.NotFound(c, "Association not found")
			}
			return response.InternalServerError(c, "Failed to load association")
		}

		c.Locals("tenant", &tenant)

		if user, ok := GetUser(c); ok {
			var membership model.Membership
			err := m.db.First(&membership, "tenant_id = ? AND user_id = ?", tenant.ID, user.ID).Error
			if err == nil {
				c.Locals("membership_role", membership.Role)
			} else if err != gorm.ErrRecordNotFound {
				return response.InternalServerError(c, "Failed to load membership")
			}
		}

		return c.Next()
	}
}

// RequireMember rejects authenticated users with no membership in the tenant,
// and anonymous requests outright.
func (m *TenantMiddleware) RequireMember() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := GetMembershipRole(c); !ok {
			return response.Forbidden(c, "Not a member of this association")
		}
		return c.Next()
	}
}

// RequireAdmin restricts a route to tenant admins.
func (m *TenantMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := GetMembershipRole(c)
		if !ok || role != model.RoleAdmin {
			return response.Forbidden(c, "Admin access required")
		}
		return c.Next()
	}
}

// GetTenant extracts the resolved tenant from context
func GetTenant(c *fiber.Ctx) (*model.Tenant, bool) {
	tenant := c.Locals("tenant")
	if tenant == nil {
		return nil, false
	}
	t, ok := tenant.(*model.Tenant)
	return t, ok
}

// GetMembershipRole extracts the viewer's role in the resolved tenant
func GetMembershipRole(c *fiber.Ctx) (model.Role, bool) {
	role := c.Locals("membership_role")
	if role == nil {
		return "", false
	}
	r, ok := role.(model.Role)
	return r, ok
}

func extractSlug(c *fiber.Ctx) string {
	if slug := c.Get("X-Tenant-Slug"); slug != "" {
		return strings.ToLower(strings.TrimSpace(slug))
	}

	host := c.Hostname()
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}

	parts := strings.Split(host, ".")
	// A bare hostname (localhost, an IP) carries no slug.
	if len(parts) < 3 {
		return ""
	}
	return strings.ToLower(parts[0])
}
