package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hoahub/portal-api/utils/cache"
)

const (
	// BatchProgressTTL keeps finished batch state around long enough for
	// the uploader's progress view to poll it.
	BatchProgressTTL = time.Hour

	batchKeyFormat = "upload:batch:%s"
)

// BatchProgress is the uploader-facing state of one upload batch.
type BatchProgress struct {
	BatchID   string        `json:"batch_id"`
	TenantID  string        `json:"tenant_id"`
	Total     int           `json:"total"`
	Completed int           `json:"completed"`
	Failed    []string      `json:"failed,omitempty"` // "name (reason)" entries
	Outcomes  []FileOutcome `json:"outcomes,omitempty"`
	Done      bool          `json:"done"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ProgressTracker stores upload-batch progress in Redis so the client can
// poll it while files are still being processed. Every method tolerates an
// unavailable cache: progress display is best effort and must never fail an
// ingestion.
type ProgressTracker struct {
	cache *cache.RedisCache
}

func NewProgressTracker(redisCache *cache.RedisCache) *ProgressTracker {
	return &ProgressTracker{cache: redisCache}
}

// StartBatch registers a new batch and returns its id.
func (pt *ProgressTracker) StartBatch(ctx context.Context, tenantID string, total int) (string, *BatchProgress) {
	progress := &BatchProgress{
		BatchID:   uuid.NewString(),
		TenantID:  tenantID,
		Total:     total,
		UpdatedAt: time.Now().UTC(),
	}
	pt.save(ctx, progress)
	return progress.BatchID, progress
}

// Record applies one file outcome to the batch state. Queued transitions
// update the timestamp only; stored/failed count toward completion.
func (pt *ProgressTracker) Record(ctx context.Context, progress *BatchProgress, outcome FileOutcome) {
	progress.UpdatedAt = time.Now().UTC()

	switch outcome.Status {
	case FileStatusStored:
		progress.Completed++
		progress.Outcomes = append(progress.Outcomes, outcome)
	case FileStatusFailed:
		progress.Completed++
		progress.Failed = append(progress.Failed, fmt.Sprintf("%s (%s)", outcome.Name, outcome.ErrorDetail))
		progress.Outcomes = append(progress.Outcomes, outcome)
	}

	progress.Done = progress.Completed >= progress.Total
	pt.save(ctx, progress)
}

// GetBatch returns the stored progress for a batch id.
func (pt *ProgressTracker) GetBatch(ctx context.Context, batchID string) (*BatchProgress, error) {
	if pt == nil || pt.cache == nil {
		return nil, cache.ErrNotFound
	}

	var progress BatchProgress
	key := fmt.Sprintf(batchKeyFormat, batchID)
	if err := pt.cache.GetJSON(ctx, key, &progress); err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, cache.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get batch progress: %w", err)
	}
	return &progress, nil
}

func (pt *ProgressTracker) save(ctx context.Context, progress *BatchProgress) {
	if pt == nil || pt.cache == nil {
		return
	}
	key := fmt.Sprintf(batchKeyFormat, progress.BatchID)
	// Errors are deliberately dropped: a flaky cache must not fail uploads.
	_ = pt.cache.SetJSON(ctx, key, progress, BatchProgressTTL)
}
