// Package jobs contains implementations of scheduled jobs for the progress
// engine.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/progress"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
	"github.com/JaoharRaihan/WorkIn-sub001/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROMETHEUS METRICS
// ══════════════════════════════════════════════════════════════════════════════

var (
	sweepKeysScanned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "progress_engine",
		Subsystem: "sweep",
		Name:      "keys_scanned_total",
		Help:      "Progress keys examined by the nightly streak sweep.",
	})

	sweepStreaksBroken = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "progress_engine",
		Subsystem: "sweep",
		Name:      "streaks_broken_total",
		Help:      "Streaks decayed to a lower value by the sweep.",
	})

	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "progress_engine",
		Subsystem: "sweep",
		Name:      "duration_seconds",
		Help:      "Wall-clock duration of a full sweep run.",
		Buckets:   []float64{1, 5, 15, 60, 300, 900},
	})
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK SWEEP JOB
// ══════════════════════════════════════════════════════════════════════════════

// StreakSweepJob recomputes derived streaks for every stored progress record.
//
// Streaks decay passively: a learner who stops submitting activity never
// triggers the write path, so their stored streak would stay stale forever.
// The nightly sweep walks every key, recomputes the streak against the
// current day, and persists only the records whose value actually changed.
type StreakSweepJob struct {
	progressRepo   progress.Repository
	keyLocker      progress.KeyLocker
	eventPublisher shared.EventPublisher
	clock          timeutil.Clock
	logger         *slog.Logger

	config StreakSweepConfig

	lastRunStats atomic.Value // *StreakSweepStats
}

// StreakSweepConfig contains configuration for the streak sweep job.
type StreakSweepConfig struct {
	// MaxConcurrentKeys bounds how many keys are processed in parallel.
	MaxConcurrentKeys int

	// Timeout is the maximum duration for one full sweep.
	Timeout time.Duration
}

// DefaultStreakSweepConfig returns sensible defaults.
func DefaultStreakSweepConfig() StreakSweepConfig {
	return StreakSweepConfig{
		MaxConcurrentKeys: 8,
		Timeout:           10 * time.Minute,
	}
}

// StreakSweepStats contains statistics from a sweep run.
type StreakSweepStats struct {
	StartedAt     time.Time
	CompletedAt   time.Time
	Duration      time.Duration
	KeysScanned   int
	StreaksBroken int
	KeysSkipped   int // lock held by a concurrent writer
	Errors        []error
}

// NewStreakSweepJob creates a new streak sweep job.
func NewStreakSweepJob(
	progressRepo progress.Repository,
	keyLocker progress.KeyLocker,
	eventPublisher shared.EventPublisher,
	clock timeutil.Clock,
	logger *slog.Logger,
	config StreakSweepConfig,
) *StreakSweepJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxConcurrentKeys <= 0 {
		config.MaxConcurrentKeys = DefaultStreakSweepConfig().MaxConcurrentKeys
	}

	return &StreakSweepJob{
		progressRepo:   progressRepo,
		keyLocker:      keyLocker,
		eventPublisher: eventPublisher,
		clock:          clock,
		logger:         logger,
		config:         config,
	}
}

// Name returns the job name.
func (j *StreakSweepJob) Name() string {
	return "streak_sweep"
}

// Description returns a human-readable description.
func (j *StreakSweepJob) Description() string {
	return "Recomputes streaks for all learners and persists decayed values"
}

// Run executes one full sweep.
func (j *StreakSweepJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &StreakSweepStats{
		StartedAt: startedAt,
		Errors:    make([]error, 0),
	}

	j.logger.Info("starting streak_sweep job")

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	keys, err := j.progressRepo.ListKeys(ctx)
	if err != nil {
		return fmt.Errorf("list progress keys: %w", err)
	}

	today := shared.NewDay(j.clock.Now(), j.clock.Location())

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		broken  int64
		skipped int64
	)
	sem := make(chan struct{}, j.config.MaxConcurrentKeys)

	for _, key := range keys {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(key shared.ProgressKey) {
			defer wg.Done()
			defer func() { <-sem }()

			didBreak, err := j.sweepKey(ctx, key, today)
			if err != nil {
				if errors.Is(err, shared.ErrKeyLocked) {
					atomic.AddInt64(&skipped, 1)
					return
				}
				mu.Lock()
				stats.Errors = append(stats.Errors, err)
				mu.Unlock()
				j.logger.Error("sweep failed for key",
					"key", key.String(),
					"error", err,
				)
				return
			}
			if didBreak {
				atomic.AddInt64(&broken, 1)
			}
		}(key)
	}

	wg.Wait()

	stats.KeysScanned = len(keys)
	stats.StreaksBroken = int(broken)
	stats.KeysSkipped = int(skipped)
	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRunStats.Store(stats)

	sweepKeysScanned.Add(float64(stats.KeysScanned))
	sweepStreaksBroken.Add(float64(stats.StreaksBroken))
	sweepDuration.Observe(stats.Duration.Seconds())

	event := shared.NewSweepCompletedEvent(stats.KeysScanned, stats.StreaksBroken, stats.Duration)
	_ = j.eventPublisher.Publish(event)

	j.logger.Info("streak_sweep job completed",
		"duration", stats.Duration.String(),
		"keys_scanned", stats.KeysScanned,
		"streaks_broken", stats.StreaksBroken,
		"keys_skipped", stats.KeysSkipped,
		"errors", len(stats.Errors),
	)

	return nil
}

// sweepKey refreshes one record under its key lock. A held lock means a
// live pipeline run is already recomputing this record; its result will be
// at least as fresh as ours, so skipping is correct.
func (j *StreakSweepJob) sweepKey(ctx context.Context, key shared.ProgressKey, today shared.Day) (bool, error) {
	unlock, err := j.keyLocker.Acquire(ctx, key)
	if err != nil {
		return false, err
	}
	defer unlock()

	record, err := j.progressRepo.Load(ctx, key)
	if err != nil {
		if errors.Is(err, shared.ErrProgressNotFound) {
			// Deleted between ListKeys and here; nothing to do.
			return false, nil
		}
		return false, fmt.Errorf("load %s: %w", key.String(), err)
	}

	previousStreak := record.CurrentStreak
	if !record.RefreshStreak(today) {
		return false, nil
	}

	if err := j.progressRepo.Save(ctx, record); err != nil {
		return false, fmt.Errorf("save %s: %w", key.String(), err)
	}

	if record.CurrentStreak < previousStreak {
		event := shared.NewStreakBrokenEvent(
			key.UserID.String(),
			key.RoadmapID.String(),
			previousStreak,
		)
		_ = j.eventPublisher.Publish(event)
		return true, nil
	}

	return false, nil
}

// LastRunStats returns statistics from the last sweep run.
func (j *StreakSweepJob) LastRunStats() *StreakSweepStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*StreakSweepStats)
}
