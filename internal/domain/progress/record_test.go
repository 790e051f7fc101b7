package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

func testKey() shared.ProgressKey {
	return shared.ProgressKey{UserID: testUserID, RoadmapID: testRoadmapID}
}

func TestRecord_ApplyAccumulatesState(t *testing.T) {
	rec := NewRecord(testKey())

	ev := validEvent(KindLessonCompleted)
	ev.StepID = "dart-basics"
	require.NoError(t, rec.Apply(ev, day(0)))

	assert.Equal(t, shared.XP(50), rec.TotalXP)
	assert.Equal(t, 1, rec.CurrentStreak)
	assert.Equal(t, 1, rec.BestStreak)
	assert.True(t, rec.CompletedSteps["dart-basics"])
	assert.Equal(t, 1, rec.ActivityCounts[KindLessonCompleted])
	require.Len(t, rec.Heatmap, 1)
}

func TestRecord_ApplyBadgeAndTestScore(t *testing.T) {
	rec := NewRecord(testKey())

	badge := validEvent(KindBadgeEarned)
	badge.BadgeEarned = "first-steps"
	require.NoError(t, rec.Apply(badge, day(0)))

	score := 92.5
	test := validEvent(KindTestPassed)
	test.TestScore = &score
	require.NoError(t, rec.Apply(test, day(0)))

	assert.Equal(t, 1, rec.BadgeCount())
	require.Len(t, rec.TestScores, 1)
	assert.InDelta(t, 92.5, rec.TestScores[0].Float64(), 0.001)
}

func TestRecord_StreakGrowsAcrossDays(t *testing.T) {
	rec := NewRecord(testKey())

	for offset := -2; offset <= 0; offset++ {
		ev := validEvent(KindLessonCompleted)
		ev.OccurredOn = day(offset)
		require.NoError(t, rec.Apply(ev, day(offset)))
	}

	assert.Equal(t, 3, rec.CurrentStreak)
	assert.Equal(t, 3, rec.BestStreak)
}

func TestRecord_RefreshStreakDecays(t *testing.T) {
	rec := NewRecord(testKey())
	ev := validEvent(KindLessonCompleted)
	require.NoError(t, rec.Apply(ev, day(0)))
	require.Equal(t, 1, rec.CurrentStreak)

	// Two days later with no activity: the streak display decays to zero,
	// but the best streak is preserved.
	changed := rec.RefreshStreak(day(2))
	assert.True(t, changed)
	assert.Equal(t, 0, rec.CurrentStreak)
	assert.Equal(t, 1, rec.BestStreak)

	assert.False(t, rec.RefreshStreak(day(2)))
}

func TestRecord_CloneIsDeep(t *testing.T) {
	rec := NewRecord(testKey())
	ev := validEvent(KindBadgeEarned)
	ev.BadgeEarned = "starter"
	require.NoError(t, rec.Apply(ev, day(0)))

	clone := rec.Clone()
	next := validEvent(KindLessonCompleted)
	next.StepID = "widgets"
	require.NoError(t, rec.Apply(next, day(0)))

	assert.Equal(t, shared.XP(50), clone.TotalXP)
	assert.Equal(t, shared.XP(100), rec.TotalXP)
	assert.False(t, clone.CompletedSteps["widgets"])
	assert.Len(t, clone.Heatmap, 1)
}

func TestRecord_ResetWipesEverything(t *testing.T) {
	rec := NewRecord(testKey())
	ev := validEvent(KindRoadmapCompleted)
	require.NoError(t, rec.Apply(ev, day(0)))
	require.NotZero(t, rec.TotalXP)

	rec.Reset()

	assert.Equal(t, shared.XP(0), rec.TotalXP)
	assert.Equal(t, 0, rec.CurrentStreak)
	assert.Equal(t, 0, rec.BestStreak)
	assert.Empty(t, rec.Heatmap)
	assert.Empty(t, rec.Badges)
	assert.Zero(t, rec.RoadmapsCompleted)
	assert.Equal(t, testKey(), rec.Key)
}

func TestRecord_ApplyRejectsCorruptState(t *testing.T) {
	rec := NewRecord(testKey())
	rec.TotalXP = -5 // simulated out-of-pipeline corruption

	err := rec.Apply(validEvent(KindLessonCompleted), day(0))
	require.Error(t, err)
	assert.True(t, shared.IsStateInvariant(err))
}
