package milestone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/progress"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

var (
	testUser    = shared.UserID("7ed99bd0-87b2-4dbb-a97b-596c3f29c49b")
	testRoadmap = shared.RoadmapID("flutter-developer")
	testDay     = shared.DayFromDate(2026, time.March, 15)
)

func newRecord() *progress.Record {
	return progress.NewRecord(shared.ProgressKey{UserID: testUser, RoadmapID: testRoadmap})
}

func xpEvent(xp int) progress.ActivityEvent {
	return progress.ActivityEvent{
		Kind:       progress.KindLessonCompleted,
		UserID:     testUser,
		RoadmapID:  testRoadmap,
		XPEarned:   xp,
		OccurredOn: testDay,
	}
}

// applyEvent runs the same before/after bracketing the pipeline uses.
func applyEvent(t *testing.T, rec *progress.Record, ev progress.ActivityEvent) (*progress.Record, *progress.Record) {
	t.Helper()
	before := rec.Clone()
	require.NoError(t, rec.Apply(ev, testDay))
	return before, rec
}

func TestDetect_XPJumpFiresEveryBracketedThreshold(t *testing.T) {
	d := NewDetector(nil)

	rec := newRecord()
	before, after := applyEvent(t, rec, xpEvent(450))
	first := d.Detect(before, after, xpEvent(450))
	require.Len(t, first, 1)
	assert.Equal(t, 100, first[0].Threshold)

	// 450 -> 1200 crosses 500 and 1000, ascending.
	before, after = applyEvent(t, rec, xpEvent(750))
	second := d.Detect(before, after, xpEvent(750))
	require.Len(t, second, 2)
	assert.Equal(t, 500, second[0].Threshold)
	assert.Equal(t, 1000, second[1].Threshold)
	assert.Equal(t, CategoryXP, second[0].Category)
	assert.Equal(t, 1200, second[0].ObservedValue)
}

func TestDetect_Idempotence(t *testing.T) {
	d := NewDetector(nil)

	rec := newRecord()
	ev := xpEvent(150)
	before, after := applyEvent(t, rec, ev)

	first := d.Detect(before, after, ev)
	require.NotEmpty(t, first)

	// Replaying detection on the new state (after becomes before, nothing
	// changed) must emit nothing for already-crossed thresholds.
	second := d.Detect(after, after.Clone(), progress.ActivityEvent{
		Kind:       progress.KindLessonCompleted,
		UserID:     testUser,
		RoadmapID:  testRoadmap,
		XPEarned:   0,
		OccurredOn: testDay,
	})
	assert.Empty(t, second)
}

func TestDetect_NoFiringOnNoIncrease(t *testing.T) {
	d := NewDetector(nil)
	rec := newRecord()
	ev := xpEvent(0)
	before, after := applyEvent(t, rec, ev)

	got := d.Detect(before, after, ev)
	for _, m := range got {
		assert.NotEqual(t, CategoryXP, m.Category)
	}
}

func TestDetect_StreakThreshold(t *testing.T) {
	d := NewDetector(nil)
	rec := newRecord()

	var milestones []Milestone
	for offset := -6; offset <= 0; offset++ {
		ev := xpEvent(1)
		ev.OccurredOn = testDay.AddDays(offset)
		before := rec.Clone()
		require.NoError(t, rec.Apply(ev, testDay.AddDays(offset)))
		milestones = append(milestones, d.Detect(before, rec, ev)...)
	}

	var streakThresholds []int
	for _, m := range milestones {
		if m.Category == CategoryStreak {
			streakThresholds = append(streakThresholds, m.Threshold)
		}
	}
	// Seven consecutive days cross the 3-day and 7-day marks exactly once each.
	assert.Equal(t, []int{3, 7}, streakThresholds)
}

func TestDetect_BadgeAndRoadmapCounters(t *testing.T) {
	d := NewDetector(nil)
	rec := newRecord()

	badge := xpEvent(0)
	badge.Kind = progress.KindBadgeEarned
	badge.BadgeEarned = "first-steps"
	before, after := applyEvent(t, rec, badge)
	got := d.Detect(before, after, badge)
	require.Len(t, got, 1)
	assert.Equal(t, CategoryBadge, got[0].Category)
	assert.Equal(t, 1, got[0].Threshold)

	done := xpEvent(0)
	done.Kind = progress.KindRoadmapCompleted
	before, after = applyEvent(t, rec, done)
	got = d.Detect(before, after, done)
	require.Len(t, got, 1)
	assert.Equal(t, CategoryRoadmap, got[0].Category)
	assert.Equal(t, "Path Complete", got[0].Title)
}

func TestDetect_TestScoreIsPerformanceBased(t *testing.T) {
	d := NewDetector(nil)
	rec := newRecord()

	score := 87.0
	ev := xpEvent(0)
	ev.Kind = progress.KindTestPassed
	ev.TestScore = &score

	before, after := applyEvent(t, rec, ev)
	first := d.Detect(before, after, ev)

	var thresholds []int
	for _, m := range first {
		if m.Category == CategoryTest {
			assert.True(t, m.IsPerformanceBased)
			thresholds = append(thresholds, m.Threshold)
		}
	}
	assert.Equal(t, []int{70, 85}, thresholds)

	// A second attempt with the same score re-fires - exempt from once-only.
	before, after = applyEvent(t, rec, ev)
	second := d.Detect(before, after, ev)
	var again []int
	for _, m := range second {
		if m.Category == CategoryTest {
			again = append(again, m.Threshold)
		}
	}
	assert.Equal(t, []int{70, 85}, again)
}

func TestDetect_OutputOrderAcrossCategories(t *testing.T) {
	d := NewDetector(nil)
	rec := newRecord()

	score := 100.0
	ev := xpEvent(150)
	ev.Kind = progress.KindTestPassed
	ev.TestScore = &score
	ev.BadgeEarned = ""

	before, after := applyEvent(t, rec, ev)
	got := d.Detect(before, after, ev)
	require.NotEmpty(t, got)

	lastPriority := -1
	lastThreshold := -1
	for _, m := range got {
		p := categoryPriority[m.Category]
		require.GreaterOrEqual(t, p, lastPriority)
		if p == lastPriority {
			assert.Greater(t, m.Threshold, lastThreshold)
		}
		lastPriority = p
		lastThreshold = m.Threshold
	}
	// xp comes before streak, streak before test.
	assert.Equal(t, CategoryXP, got[0].Category)
	assert.Equal(t, CategoryTest, got[len(got)-1].Category)
}

func TestNewCatalog_RejectsDuplicates(t *testing.T) {
	_, err := NewCatalog("bad", []Threshold{
		{CategoryXP, 100, "a", "x", "%d"},
		{CategoryXP, 100, "b", "y", "%d"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestNewCatalog_RejectsUnknownCategory(t *testing.T) {
	_, err := NewCatalog("bad", []Threshold{{Category("karma"), 10, "a", "x", "%d"}})
	require.Error(t, err)
}
