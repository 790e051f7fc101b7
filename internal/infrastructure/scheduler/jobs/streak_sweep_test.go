package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/progress"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
	"github.com/JaoharRaihan/WorkIn-sub001/pkg/timeutil"
)

// ─────────────────────────────────────────────────────────────────────────────
// Test doubles
// ─────────────────────────────────────────────────────────────────────────────

type memProgressRepo struct {
	mu      sync.Mutex
	records map[string]*progress.Record
	saves   int
}

func newMemProgressRepo() *memProgressRepo {
	return &memProgressRepo{records: make(map[string]*progress.Record)}
}

func (r *memProgressRepo) Load(_ context.Context, key shared.ProgressKey) (*progress.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[key.String()]
	if !ok {
		return nil, shared.ErrProgressNotFound
	}
	return rec.Clone(), nil
}

func (r *memProgressRepo) Save(_ context.Context, record *progress.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.Key.String()] = record.Clone()
	r.saves++
	return nil
}

func (r *memProgressRepo) ListKeys(_ context.Context) ([]shared.ProgressKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]shared.ProgressKey, 0, len(r.records))
	for _, rec := range r.records {
		keys = append(keys, rec.Key)
	}
	return keys, nil
}

type noopLocker struct{}

func (noopLocker) Acquire(context.Context, shared.ProgressKey) (func(), error) {
	return func() {}, nil
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, shared.ProgressKey) (func(), error) {
	return nil, shared.ErrKeyLocked
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *capturingPublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) byType(t shared.EventType) []shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.Event
	for _, ev := range p.events {
		if ev.EventType() == t {
			out = append(out, ev)
		}
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func dayAt(t time.Time) shared.Day {
	return shared.NewDay(t, time.UTC)
}

func recordWithStreak(t *testing.T, userID string, lastActive shared.Day, streak int) *progress.Record {
	t.Helper()

	key := shared.ProgressKey{
		UserID:    shared.UserID(userID),
		RoadmapID: shared.RoadmapID("roadmap-go"),
	}
	rec := progress.NewRecord(key)
	for i := 0; i < streak; i++ {
		rec.Heatmap = append(rec.Heatmap, progress.HeatmapEntry{
			Date:      lastActive.AddDays(-i),
			Intensity: 1,
		})
	}
	rec.CurrentStreak = streak
	rec.BestStreak = streak
	return rec
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestStreakSweep_DecaysStaleStreaks(t *testing.T) {
	now := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)
	today := dayAt(now)

	repo := newMemProgressRepo()
	// Active yesterday: streak survives the sweep.
	fresh := recordWithStreak(t, "user-fresh", today.AddDays(-1), 4)
	// Last active three days ago: streak must decay to zero.
	stale := recordWithStreak(t, "user-stale", today.AddDays(-3), 7)
	repo.records[fresh.Key.String()] = fresh
	repo.records[stale.Key.String()] = stale

	publisher := &capturingPublisher{}
	job := NewStreakSweepJob(repo, noopLocker{}, publisher,
		timeutil.NewFixedClock(now), nil, DefaultStreakSweepConfig())

	err := job.Run(context.Background())
	require.NoError(t, err)

	stats := job.LastRunStats()
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.KeysScanned)
	assert.Equal(t, 1, stats.StreaksBroken)
	assert.Empty(t, stats.Errors)

	// Only the decayed record was persisted.
	assert.Equal(t, 1, repo.saves)

	got, err := repo.Load(context.Background(), stale.Key)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentStreak)
	assert.Equal(t, 7, got.BestStreak)

	kept, err := repo.Load(context.Background(), fresh.Key)
	require.NoError(t, err)
	assert.Equal(t, 4, kept.CurrentStreak)

	brokenEvents := publisher.byType(shared.EventStreakBroken)
	require.Len(t, brokenEvents, 1)
	assert.Equal(t, "user-stale", brokenEvents[0].AggregateID())

	completed := publisher.byType(shared.EventSweepCompleted)
	require.Len(t, completed, 1)
}

func TestStreakSweep_SkipsLockedKeys(t *testing.T) {
	now := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)
	today := dayAt(now)

	repo := newMemProgressRepo()
	stale := recordWithStreak(t, "user-stale", today.AddDays(-3), 7)
	repo.records[stale.Key.String()] = stale

	publisher := &capturingPublisher{}
	job := NewStreakSweepJob(repo, busyLocker{}, publisher,
		timeutil.NewFixedClock(now), nil, DefaultStreakSweepConfig())

	err := job.Run(context.Background())
	require.NoError(t, err)

	stats := job.LastRunStats()
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.KeysSkipped)
	assert.Equal(t, 0, stats.StreaksBroken)
	assert.Empty(t, stats.Errors)

	// Nothing was written while the key was held elsewhere.
	assert.Equal(t, 0, repo.saves)
}

func TestStreakSweep_EmptyRepository(t *testing.T) {
	publisher := &capturingPublisher{}
	job := NewStreakSweepJob(newMemProgressRepo(), noopLocker{}, publisher,
		timeutil.NewFixedClock(time.Now()), nil, DefaultStreakSweepConfig())

	err := job.Run(context.Background())
	require.NoError(t, err)

	stats := job.LastRunStats()
	require.NotNil(t, stats)
	assert.Equal(t, 0, stats.KeysScanned)

	// The completion event still announces the (empty) run.
	assert.Len(t, publisher.byType(shared.EventSweepCompleted), 1)
}
