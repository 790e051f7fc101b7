package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/diagnostic"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/progress"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
	"github.com/JaoharRaihan/WorkIn-sub001/pkg/timeutil"
)

const (
	testUserID    = "7ed99bd0-87b2-4dbb-a97b-596c3f29c49b"
	testRoadmapID = "flutter-developer"
)

type stubProgressRepo struct {
	record *progress.Record
}

func (r *stubProgressRepo) Load(_ context.Context, key shared.ProgressKey) (*progress.Record, error) {
	if r.record == nil || r.record.Key.String() != key.String() {
		return nil, shared.ErrProgressNotFound
	}
	return r.record.Clone(), nil
}

func (r *stubProgressRepo) Save(_ context.Context, _ *progress.Record) error { return nil }

func (r *stubProgressRepo) ListKeys(_ context.Context) ([]shared.ProgressKey, error) {
	if r.record == nil {
		return nil, nil
	}
	return []shared.ProgressKey{r.record.Key}, nil
}

type stubAnalysisRepo struct {
	analysis *diagnostic.Analysis
}

func (r *stubAnalysisRepo) SaveAnalysis(_ context.Context, _ string, _ diagnostic.Analysis) error {
	return nil
}

func (r *stubAnalysisRepo) LatestAnalysis(_ context.Context, _ string) (diagnostic.Analysis, error) {
	if r.analysis == nil {
		return diagnostic.Analysis{}, shared.ErrAnalysisNotFound
	}
	return *r.analysis, nil
}

func testKey(t *testing.T) shared.ProgressKey {
	t.Helper()
	uid, err := shared.NewUserID(testUserID)
	require.NoError(t, err)
	rid, err := shared.NewRoadmapID(testRoadmapID)
	require.NoError(t, err)
	return shared.ProgressKey{UserID: uid, RoadmapID: rid}
}

func clockAt(day shared.Day) timeutil.Clock {
	return timeutil.NewFixedClock(day.Time().Add(12 * time.Hour))
}

// recordWithActivity builds a record with activity on the given day offsets
// relative to base.
func recordWithActivity(t *testing.T, base shared.Day, offsets ...int) *progress.Record {
	t.Helper()
	record := progress.NewRecord(testKey(t))
	for _, off := range offsets {
		day := base.AddDays(off)
		event := progress.ActivityEvent{
			Kind:       progress.KindLessonCompleted,
			UserID:     record.Key.UserID,
			RoadmapID:  record.Key.RoadmapID,
			XPEarned:   10,
			OccurredOn: day,
		}
		require.NoError(t, record.Apply(event, base))
	}
	return record
}

func TestGetProgress_SummarizesRecord(t *testing.T) {
	base := shared.DayFromDate(2026, time.March, 15)
	record := recordWithActivity(t, base, -1, 0)
	record.Badges["first-steps"] = true

	h := NewGetProgressHandler(&stubProgressRepo{record: record}, nil, clockAt(base))
	dto, err := h.Handle(context.Background(), GetProgressQuery{UserID: testUserID, RoadmapID: testRoadmapID})
	require.NoError(t, err)

	assert.Equal(t, 20, dto.TotalXP)
	assert.Equal(t, 2, dto.CurrentStreak)
	assert.Equal(t, []string{"first-steps"}, dto.Badges)
	assert.Equal(t, 2, dto.ActiveDays)
	assert.Equal(t, 2, dto.ActivityCounts["LESSON_COMPLETED"])
}

func TestGetProgress_StreakDecaysWithoutNewActivity(t *testing.T) {
	base := shared.DayFromDate(2026, time.March, 15)
	record := recordWithActivity(t, base, -1, 0)

	// Two days later with no activity in between: the stored streak is
	// stale, the query reports the decayed value.
	h := NewGetProgressHandler(&stubProgressRepo{record: record}, nil, clockAt(base.AddDays(2)))
	dto, err := h.Handle(context.Background(), GetProgressQuery{UserID: testUserID, RoadmapID: testRoadmapID})
	require.NoError(t, err)

	assert.Equal(t, 0, dto.CurrentStreak)
	assert.Equal(t, 2, dto.BestStreak)
}

func TestGetProgress_NotFound(t *testing.T) {
	base := shared.DayFromDate(2026, time.March, 15)
	h := NewGetProgressHandler(&stubProgressRepo{}, nil, clockAt(base))

	_, err := h.Handle(context.Background(), GetProgressQuery{UserID: testUserID, RoadmapID: testRoadmapID})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestGetHeatmap_WindowAndOrder(t *testing.T) {
	base := shared.DayFromDate(2026, time.March, 15)
	record := recordWithActivity(t, base, -10, -3, 0)

	h := NewGetHeatmapHandler(&stubProgressRepo{record: record}, nil, clockAt(base))
	dto, err := h.Handle(context.Background(), GetHeatmapQuery{
		UserID:     testUserID,
		RoadmapID:  testRoadmapID,
		WindowDays: 7,
	})
	require.NoError(t, err)

	// The -10 entry falls outside the 7-day window; the rest come back
	// oldest first.
	require.Len(t, dto.Entries, 2)
	assert.Equal(t, base.AddDays(-3).String(), dto.Entries[0].Date)
	assert.Equal(t, base.String(), dto.Entries[1].Date)
	assert.Equal(t, 1, dto.Entries[0].Intensity)
}

func TestGetHeatmap_DefaultsToRetentionWindow(t *testing.T) {
	base := shared.DayFromDate(2026, time.March, 15)
	record := recordWithActivity(t, base, 0)

	h := NewGetHeatmapHandler(&stubProgressRepo{record: record}, nil, clockAt(base))
	dto, err := h.Handle(context.Background(), GetHeatmapQuery{UserID: testUserID, RoadmapID: testRoadmapID})
	require.NoError(t, err)

	assert.Equal(t, progress.RetentionDays, dto.WindowDays)
}

func TestGetRecommendedRoadmaps_FromStoredAnalysis(t *testing.T) {
	analysis := diagnostic.Analysis{
		DiagnosticID: "web-intake",
		Domain:       "web-development",
		OverallLevel: diagnostic.LevelBeginner,
		Skills: map[string]diagnostic.SkillStat{
			"javascript": {Skill: "javascript", Level: diagnostic.LevelIntermediate, Accuracy: 0.7},
		},
	}

	h := NewGetRecommendedRoadmapsHandler(&stubAnalysisRepo{analysis: &analysis}, nil)
	dto, err := h.Handle(context.Background(), GetRecommendedRoadmapsQuery{UserID: testUserID})
	require.NoError(t, err)

	assert.Equal(t, "beginner", dto.OverallLevel)
	require.NotEmpty(t, dto.Roadmaps)
	assert.Equal(t, "web-foundations", string(dto.Roadmaps[0].ID))
}

func TestGetRecommendedRoadmaps_NoDiagnosticTaken(t *testing.T) {
	h := NewGetRecommendedRoadmapsHandler(&stubAnalysisRepo{}, nil)

	_, err := h.Handle(context.Background(), GetRecommendedRoadmapsQuery{UserID: testUserID})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}
