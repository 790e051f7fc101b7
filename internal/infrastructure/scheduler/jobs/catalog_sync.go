package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/assessment"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/diagnostic"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/infrastructure/external/platform"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG SYNC JOB
// ══════════════════════════════════════════════════════════════════════════════

// TestStore persists checkpoint test definitions from the catalog.
type TestStore interface {
	Put(ctx context.Context, def assessment.Definition) error
}

// DiagnosticStore persists diagnostic definitions from the catalog.
type DiagnosticStore interface {
	Put(ctx context.Context, def diagnostic.Definition) error
}

// CatalogSyncJob pulls checkpoint test and diagnostic definitions from the
// learning platform and upserts them into local storage. Submissions are
// evaluated against the local copy, so a stale catalog only delays new
// content; it never blocks evaluation.
type CatalogSyncJob struct {
	client          *platform.Client
	testStore       TestStore
	diagnosticStore DiagnosticStore
	logger          *slog.Logger

	config CatalogSyncConfig

	lastSyncAt   atomic.Value // time.Time
	lastRunStats atomic.Value // *CatalogSyncStats
}

// CatalogSyncConfig contains configuration for the catalog sync job.
type CatalogSyncConfig struct {
	// FullSync ignores the modified-since watermark and refetches everything.
	FullSync bool

	// Timeout is the maximum duration for one sync run.
	Timeout time.Duration
}

// DefaultCatalogSyncConfig returns sensible defaults.
func DefaultCatalogSyncConfig() CatalogSyncConfig {
	return CatalogSyncConfig{
		FullSync: false,
		Timeout:  5 * time.Minute,
	}
}

// CatalogSyncStats contains statistics from a sync run.
type CatalogSyncStats struct {
	StartedAt         time.Time
	CompletedAt       time.Time
	Duration          time.Duration
	TestsFetched      int
	TestsUpserted     int
	DiagnosticsSynced int
	Errors            []error
}

// NewCatalogSyncJob creates a new catalog sync job.
func NewCatalogSyncJob(
	client *platform.Client,
	testStore TestStore,
	diagnosticStore DiagnosticStore,
	logger *slog.Logger,
	config CatalogSyncConfig,
) *CatalogSyncJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &CatalogSyncJob{
		client:          client,
		testStore:       testStore,
		diagnosticStore: diagnosticStore,
		logger:          logger,
		config:          config,
	}
}

// Name returns the job name.
func (j *CatalogSyncJob) Name() string {
	return "catalog_sync"
}

// Description returns a human-readable description.
func (j *CatalogSyncJob) Description() string {
	return "Syncs checkpoint tests and diagnostics from the learning platform"
}

// Run executes one sync pass.
func (j *CatalogSyncJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &CatalogSyncStats{
		StartedAt: startedAt,
		Errors:    make([]error, 0),
	}

	j.logger.Info("starting catalog_sync job")

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	modifiedSince := j.watermark()

	if err := j.syncTests(ctx, modifiedSince, stats); err != nil {
		return fmt.Errorf("sync tests: %w", err)
	}
	if err := j.syncDiagnostics(ctx, modifiedSince, stats); err != nil {
		return fmt.Errorf("sync diagnostics: %w", err)
	}

	// Advance the watermark only after both passes succeed, so a failed run
	// is retried from the same point.
	j.lastSyncAt.Store(startedAt)

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRunStats.Store(stats)

	j.logger.Info("catalog_sync job completed",
		"duration", stats.Duration.String(),
		"tests", stats.TestsUpserted,
		"diagnostics", stats.DiagnosticsSynced,
		"errors", len(stats.Errors),
	)

	return nil
}

func (j *CatalogSyncJob) syncTests(ctx context.Context, modifiedSince *time.Time, stats *CatalogSyncStats) error {
	dtos, err := j.client.GetAllTestDefinitions(ctx, modifiedSince)
	if err != nil {
		return err
	}
	stats.TestsFetched = len(dtos)

	mapper := j.client.Mapper()
	for i := range dtos {
		def, err := mapper.TestDefinitionFromDTO(&dtos[i])
		if err != nil {
			// A malformed catalog entry must not block the rest of the sync.
			stats.Errors = append(stats.Errors, err)
			j.logger.Warn("skipping malformed test definition",
				"test_id", dtos[i].ID,
				"error", err,
			)
			continue
		}

		if err := j.testStore.Put(ctx, def); err != nil {
			stats.Errors = append(stats.Errors, err)
			j.logger.Error("failed to store test definition",
				"test_id", def.ID,
				"error", err,
			)
			continue
		}
		stats.TestsUpserted++
	}

	return nil
}

func (j *CatalogSyncJob) syncDiagnostics(ctx context.Context, modifiedSince *time.Time, stats *CatalogSyncStats) error {
	dtos, err := j.client.GetAllDiagnosticDefinitions(ctx, modifiedSince)
	if err != nil {
		return err
	}

	mapper := j.client.Mapper()
	for i := range dtos {
		def, err := mapper.DiagnosticFromDTO(&dtos[i])
		if err != nil {
			stats.Errors = append(stats.Errors, err)
			j.logger.Warn("skipping malformed diagnostic definition",
				"diagnostic_id", dtos[i].ID,
				"error", err,
			)
			continue
		}

		if err := j.diagnosticStore.Put(ctx, def); err != nil {
			stats.Errors = append(stats.Errors, err)
			j.logger.Error("failed to store diagnostic definition",
				"diagnostic_id", def.ID,
				"error", err,
			)
			continue
		}
		stats.DiagnosticsSynced++
	}

	return nil
}

// watermark returns the modified-since filter for the next run.
func (j *CatalogSyncJob) watermark() *time.Time {
	if j.config.FullSync {
		return nil
	}
	v := j.lastSyncAt.Load()
	if v == nil {
		return nil
	}
	t := v.(time.Time)
	return &t
}

// LastRunStats returns statistics from the last sync run.
func (j *CatalogSyncJob) LastRunStats() *CatalogSyncStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*CatalogSyncStats)
}
