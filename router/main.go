package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hoahub/portal-api/config"
	"github.com/hoahub/portal-api/database"
	"github.com/hoahub/portal-api/handlers"
	catalog_handlers "github.com/hoahub/portal-api/handlers/catalog"
	document_handlers "github.com/hoahub/portal-api/handlers/document"
	"github.com/hoahub/portal-api/services"
	"github.com/hoahub/portal-api/utils/auth"
	"github.com/hoahub/portal-api/utils/middleware"
)

// Deps carries the shared services the routes are built from. The app layer
// owns their lifecycle (worker pool drain, cron stop, cache close).
type Deps struct {
	Store     *database.GORMStore
	Env       *config.EnvironmentVariable
	Ingest    *services.IngestService
	Catalog   *services.CatalogService
	Lifecycle *services.LifecycleService
	Enricher  services.Enricher
	Tracker   *services.ProgressTracker
}

func SetupRoutes(app *fiber.App, deps Deps) {
	if deps.Env.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := deps.Env.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "hoahub-portal-api"
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret: deps.Env.JWT_SECRET,
		Expiry: time.Duration(deps.Env.JWT_EXPIRY_HOURS) * time.Hour,
		Issuer: jwtIssuer,
	})

	db := deps.Store.DB()
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)
	tenantMiddleware := middleware.NewTenantMiddleware(db)

	documentHandler := document_handlers.NewDocumentHandler(deps.Ingest, deps.Catalog, deps.Lifecycle, deps.Tracker)
	analyzeHandler := document_handlers.NewAnalyzeHandler(deps.Enricher)
	progressHandler := document_handlers.NewProgressHandler(deps.Tracker)
	catalogHandler := catalog_handlers.NewCatalogHandler(deps.Catalog)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,
		RateLimitWindow:   1 * time.Minute,
	})

	// Health check endpoint (public)
	app.Get("/ping", handlers.HandleCheckHealth(deps.Store))

	// API v1 group; every route below is scoped to the tenant resolved from
	// the subdomain (or X-Tenant-Slug).
	api := app.Group("/api/v1", authMiddleware.Optional(), tenantMiddleware.Resolve())

	// Resident-facing catalog. Anonymous viewers get the public group only.
	api.Get("/catalog", catalogHandler.Get)

	// Document management (admin only). Membership role was resolved by the
	// group middleware above.
	documents := api.Group("/documents", authMiddleware.Required(), tenantMiddleware.RequireAdmin())
	documents.Post("/", documentHandler.Upload)
	documents.Get("/", documentHandler.List)
	documents.Get("/:id/download", documentHandler.Download)
	documents.Post("/:id/archive", documentHandler.Archive)
	documents.Post("/:id/unarchive", documentHandler.Unarchive)
	documents.Post("/:id/publish", documentHandler.Publish)
	documents.Post("/:id/unpublish", documentHandler.Unpublish)
	documents.Post("/:id/visibility", documentHandler.SetVisibility)
	documents.Delete("/:id", documentHandler.Delete)

	// Manual re-analysis (admin only)
	api.Post("/analyze", authMiddleware.Required(), tenantMiddleware.RequireAdmin(), analyzeHandler.Analyze)

	// Upload progress polling (any member)
	api.Get("/uploads/progress/:batch_id", authMiddleware.Required(), tenantMiddleware.RequireMember(), progressHandler.GetBatch)
}
