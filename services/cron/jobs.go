package cron

import (
	"context"
	"log"
	"time"

	"github.com/hoahub/portal-api/model"
	"github.com/hoahub/portal-api/services"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const (
	// sweepSchedule re-checks stuck documents every 15 minutes.
	sweepSchedule = "*/15 * * * *"
	// minPendingAge leaves freshly uploaded documents alone so the sweep
	// never races the enrichment that ingestion already dispatched.
	minPendingAge = 10 * time.Minute
	// sweepBatchLimit bounds classifier load per sweep.
	sweepBatchLimit = 25
)

// CronManager schedules the re-enrichment sweep: documents that stayed
// is_analyzed=false (classifier outage, parse failure, persist failure) get
// their enrichment re-dispatched. Enrichment is idempotent, so re-running a
// document that a concurrent attempt already finished is harmless.
type CronManager struct {
	db       *gorm.DB
	enricher services.Enricher
	pool     *services.WorkerPool
	cron     *cron.Cron
}

func NewCronManager(db *gorm.DB, enricher services.Enricher, pool *services.WorkerPool) *CronManager {
	return &CronManager{
		db:       db,
		enricher: enricher,
		pool:     pool,
		cron:     cron.New(),
	}
}

// Start registers and launches the scheduled jobs.
func (m *CronManager) Start() error {
	if _, err := m.cron.AddFunc(sweepSchedule, m.sweepPendingDocuments); err != nil {
		return err
	}
	m.cron.Start()
	log.Println("Cron manager started: re-enrichment sweep scheduled")
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (m *CronManager) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
}

func (m *CronManager) sweepPendingDocuments() {
	cutoff := time.Now().UTC().Add(-minPendingAge)

	var docs []model.Document
	err := m.db.
		Where("is_analyzed = ? AND is_archived = ? AND uploaded_at < ?", false, false, cutoff).
		Order("uploaded_at ASC").
		Limit(sweepBatchLimit).
		Find(&docs).Error
	if err != nil {
		log.Printf("Re-enrichment sweep query failed: %v", err)
		return
	}
	if len(docs) == 0 {
		return
	}

	log.Printf("Re-enrichment sweep: retrying %d pending document(s)", len(docs))

	for _, doc := range docs {
		var tenant model.Tenant
		if err := m.db.First(&tenant, "id = ?", doc.TenantID).Error; err != nil {
			log.Printf("Re-enrichment sweep: tenant %s missing for document %s: %v", doc.TenantID, doc.ID, err)
			continue
		}

		tenantCopy := tenant
		docID := doc.ID
		path := doc.StoragePath
		m.pool.SubmitWithTimeout(services.EnrichmentTaskTimeout, func(ctx context.Context) {
			if _, err := m.enricher.Analyze(ctx, &tenantCopy, path, docID); err != nil {
				log.Printf("Re-enrichment failed for document %s: %v", docID, err)
			}
		})
	}
}
