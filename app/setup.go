package app

import (
	"fmt"
	"log"
	"time"

	"github.com/hoahub/portal-api/api"
	"github.com/hoahub/portal-api/config"
	"github.com/hoahub/portal-api/database"
	"github.com/hoahub/portal-api/repository"
	"github.com/hoahub/portal-api/router"
	"github.com/hoahub/portal-api/services"
	"github.com/hoahub/portal-api/services/cron"
	"github.com/hoahub/portal-api/services/inference"
	"github.com/hoahub/portal-api/services/spaces"
	"github.com/hoahub/portal-api/utils/cache"
)

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		print("Check whether the Postgres is running or not\n")
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		return err
	}

	// Object storage
	spacesClient, err := spaces.NewSpacesClientFromEnv()
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}

	// Classifier
	inferenceClient := inference.NewClient(inference.Config{
		APIKey:  getEnv.INFERENCE_API_KEY,
		BaseURL: getEnv.INFERENCE_BASE_URL,
		Model:   getEnv.INFERENCE_MODEL,
	})

	// Redis is optional: upload progress degrades to no progress display.
	var redisCache *cache.RedisCache
	if getEnv.REDIS_URL != "" {
		redisCache, err = cache.NewRedisCache(getEnv.REDIS_URL)
		if err != nil {
			log.Printf("Warning: failed to connect to Redis: %v. Upload progress tracking disabled.", err)
			redisCache = nil
		}
	}

	// Core services
	repo := repository.NewDocumentRepository(store.DB())
	pool := services.NewWorkerPool()
	enricher := services.NewEnrichmentService(repo, spacesClient, inferenceClient)
	ingestService := services.NewIngestService(repo, spacesClient, enricher, pool)
	catalogService := services.NewCatalogService(repo, spacesClient)
	lifecycleService := services.NewLifecycleService(repo, spacesClient)
	tracker := services.NewProgressTracker(redisCache)

	// Re-enrichment sweep
	var cronManager *cron.CronManager
	if getEnv.CRON_ENABLED {
		cronManager = cron.NewCronManager(store.DB(), enricher, pool)
		if err := cronManager.Start(); err != nil {
			log.Printf("Warning: failed to start cron jobs: %v", err)
			cronManager = nil
		}
	}

	// Defer shutdown: stop the sweep, drain in-flight enrichments, then
	// release connections.
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		pool.Shutdown(30 * time.Second)
		if redisCache != nil {
			redisCache.Close()
		}
		store.Close()
	}()

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	// Setup Routes
	router.SetupRoutes(app, router.Deps{
		Store:     store,
		Env:       getEnv,
		Ingest:    ingestService,
		Catalog:   catalogService,
		Lifecycle: lifecycleService,
		Enricher:  enricher,
		Tracker:   tracker,
	})

	// Get the PORT & Start the Server
	return server.Run()
}
