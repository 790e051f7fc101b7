package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/application/command"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/infrastructure/external/platform"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY BACKFILL JOB
// ══════════════════════════════════════════════════════════════════════════════

// BatchRecorder runs a batch of activity events through the progress pipeline.
type BatchRecorder interface {
	Handle(ctx context.Context, cmd command.RecordBatchActivityCommand) (*command.RecordBatchActivityResult, error)
}

// ActivityBackfillJob pulls the platform's activity feed and replays any
// entries the webhook push may have missed. Recording is idempotent on the
// correlation ID, so replaying already-processed entries is harmless.
type ActivityBackfillJob struct {
	client   *platform.Client
	recorder BatchRecorder
	logger   *slog.Logger

	config ActivityBackfillConfig

	lastRunStats atomic.Value // *ActivityBackfillStats
}

// ActivityBackfillConfig contains configuration for the backfill job.
type ActivityBackfillConfig struct {
	// Window is how far back each run looks.
	Window time.Duration

	// BatchSize caps how many activities go through the pipeline per batch.
	BatchSize int

	// Timeout is the maximum duration for one run.
	Timeout time.Duration
}

// DefaultActivityBackfillConfig returns sensible defaults.
func DefaultActivityBackfillConfig() ActivityBackfillConfig {
	return ActivityBackfillConfig{
		Window:    24 * time.Hour,
		BatchSize: 100,
		Timeout:   5 * time.Minute,
	}
}

// ActivityBackfillStats contains statistics from a backfill run.
type ActivityBackfillStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Fetched     int
	Recorded    int
	Failed      int
}

// NewActivityBackfillJob creates a new activity backfill job.
func NewActivityBackfillJob(
	client *platform.Client,
	recorder BatchRecorder,
	logger *slog.Logger,
	config ActivityBackfillConfig,
) *ActivityBackfillJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultActivityBackfillConfig().BatchSize
	}

	return &ActivityBackfillJob{
		client:   client,
		recorder: recorder,
		logger:   logger,
		config:   config,
	}
}

// Name returns the job name.
func (j *ActivityBackfillJob) Name() string {
	return "activity_backfill"
}

// Description returns a human-readable description.
func (j *ActivityBackfillJob) Description() string {
	return "Replays the platform activity feed to recover missed webhook pushes"
}

// Run executes one backfill pass.
func (j *ActivityBackfillJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &ActivityBackfillStats{StartedAt: startedAt}

	j.logger.Info("starting activity_backfill job", "window", j.config.Window.String())

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	since := startedAt.Add(-j.config.Window)
	activities, err := j.client.GetActivitiesSince(ctx, since)
	if err != nil {
		return fmt.Errorf("fetch activity feed: %w", err)
	}
	stats.Fetched = len(activities)

	mapper := j.client.Mapper()
	for start := 0; start < len(activities); start += j.config.BatchSize {
		end := start + j.config.BatchSize
		if end > len(activities) {
			end = len(activities)
		}

		batch := command.RecordBatchActivityCommand{
			CorrelationID: fmt.Sprintf("backfill:%d", startedAt.Unix()),
		}
		for _, dto := range activities[start:end] {
			batch.Activities = append(batch.Activities, mapper.ActivityCommandFromDTO(dto))
		}

		result, err := j.recorder.Handle(ctx, batch)
		if err != nil {
			return fmt.Errorf("record batch at offset %d: %w", start, err)
		}
		stats.Recorded += result.SuccessCount
		stats.Failed += result.FailedCount
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRunStats.Store(stats)

	j.logger.Info("activity_backfill job completed",
		"duration", stats.Duration.String(),
		"fetched", stats.Fetched,
		"recorded", stats.Recorded,
		"failed", stats.Failed,
	)

	return nil
}

// LastRunStats returns statistics from the last backfill run.
func (j *ActivityBackfillJob) LastRunStats() *ActivityBackfillStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*ActivityBackfillStats)
}
