package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/milestone"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/progress"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

func newRecorder(repo *memoryProgressRepo, locker *memoryLocker, pub *capturePublisher) *RecordActivityHandler {
	return NewRecordActivityHandler(repo, locker, milestone.NewDetector(nil), pub, fixedClock())
}

func TestRecordActivity_CreatesRecordOnFirstActivity(t *testing.T) {
	repo := newMemoryProgressRepo()
	locker := newMemoryLocker()
	pub := &capturePublisher{}
	h := newRecorder(repo, locker, pub)

	result, err := h.Handle(context.Background(), RecordActivityCommand{
		UserID:    testUserID,
		RoadmapID: testRoadmapID,
		Kind:      progress.KindLessonCompleted,
		StepID:    "dart-basics",
		XPEarned:  25,
	})
	require.NoError(t, err)

	assert.Equal(t, 25, result.TotalXP)
	assert.Equal(t, 1, result.CurrentStreak)
	assert.Equal(t, 1, result.BestStreak)
	assert.True(t, result.StreakUpdated)
	assert.Empty(t, result.Milestones)
	assert.Equal(t, 1, locker.acquired)

	// The record is persisted and reloadable.
	saved, err := repo.Load(context.Background(), mustKey(t))
	require.NoError(t, err)
	assert.Equal(t, 25, saved.TotalXP.Int())
	assert.True(t, saved.CompletedSteps["dart-basics"])
}

func TestRecordActivity_FiresMilestonesInOrder(t *testing.T) {
	repo := newMemoryProgressRepo()
	pub := &capturePublisher{}
	h := newRecorder(repo, newMemoryLocker(), pub)

	// Jump from 0 to 600 XP: crosses both the 100 and 500 thresholds.
	result, err := h.Handle(context.Background(), RecordActivityCommand{
		UserID:    testUserID,
		RoadmapID: testRoadmapID,
		Kind:      progress.KindProjectSubmitted,
		XPEarned:  600,
	})
	require.NoError(t, err)

	require.Len(t, result.Milestones, 2)
	assert.Equal(t, 100, result.Milestones[0].Threshold)
	assert.Equal(t, 500, result.Milestones[1].Threshold)

	unlocked := pub.ofType(shared.EventMilestoneUnlocked)
	assert.Len(t, unlocked, 2)
}

func TestRecordActivity_ReplayDoesNotRefire(t *testing.T) {
	repo := newMemoryProgressRepo()
	h := newRecorder(repo, newMemoryLocker(), &capturePublisher{})

	cmd := RecordActivityCommand{
		UserID:    testUserID,
		RoadmapID: testRoadmapID,
		Kind:      progress.KindLessonCompleted,
		XPEarned:  150,
	}

	first, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)
	require.Len(t, first.Milestones, 1) // crossed 100

	// The same event again starts from 150, so no threshold is re-crossed
	// until 500.
	second, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)
	assert.Empty(t, second.Milestones)
	assert.Equal(t, 300, second.TotalXP)
}

func TestRecordActivity_PublishesXPAndStreakEvents(t *testing.T) {
	pub := &capturePublisher{}
	h := newRecorder(newMemoryProgressRepo(), newMemoryLocker(), pub)

	_, err := h.Handle(context.Background(), RecordActivityCommand{
		UserID:        testUserID,
		RoadmapID:     testRoadmapID,
		Kind:          progress.KindLessonCompleted,
		XPEarned:      10,
		CorrelationID: "trace-1",
	})
	require.NoError(t, err)

	xpEvents := pub.ofType(shared.EventXPGained)
	require.Len(t, xpEvents, 1)
	assert.Equal(t, 10, xpEvents[0].Payload()["amount"])

	streakEvents := pub.ofType(shared.EventStreakUpdated)
	require.Len(t, streakEvents, 1)
}

func TestRecordActivity_RejectsInvalidCommand(t *testing.T) {
	h := newRecorder(newMemoryProgressRepo(), newMemoryLocker(), &capturePublisher{})

	_, err := h.Handle(context.Background(), RecordActivityCommand{
		UserID:    testUserID,
		RoadmapID: testRoadmapID,
		Kind:      "DANCE_PARTY",
	})
	require.Error(t, err)

	_, err = h.Handle(context.Background(), RecordActivityCommand{
		RoadmapID: testRoadmapID,
		Kind:      progress.KindLessonCompleted,
	})
	require.Error(t, err)
}

func TestRecordActivity_PropagatesLockContention(t *testing.T) {
	locker := newMemoryLocker()
	locker.failWith = shared.ErrKeyLocked
	h := newRecorder(newMemoryProgressRepo(), locker, &capturePublisher{})

	_, err := h.Handle(context.Background(), RecordActivityCommand{
		UserID:    testUserID,
		RoadmapID: testRoadmapID,
		Kind:      progress.KindLessonCompleted,
	})
	require.ErrorIs(t, err, shared.ErrKeyLocked)
}

func TestRecordBatchActivity_IsolatesFailures(t *testing.T) {
	h := newRecorder(newMemoryProgressRepo(), newMemoryLocker(), &capturePublisher{})
	batch := NewRecordBatchActivityHandler(h)

	result, err := batch.Handle(context.Background(), RecordBatchActivityCommand{
		Activities: []RecordActivityCommand{
			{UserID: testUserID, RoadmapID: testRoadmapID, Kind: progress.KindLessonCompleted, XPEarned: 10},
			{UserID: testUserID, RoadmapID: testRoadmapID, Kind: "NOT_A_KIND"},
			{UserID: testUserID, RoadmapID: testRoadmapID, Kind: progress.KindLessonCompleted, XPEarned: 20},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalCount)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailedCount)
	require.Len(t, result.Results, 2)
	assert.Equal(t, 30, result.Results[1].TotalXP)
}

func mustKey(t *testing.T) shared.ProgressKey {
	t.Helper()
	uid, err := shared.NewUserID(testUserID)
	require.NoError(t, err)
	rid, err := shared.NewRoadmapID(testRoadmapID)
	require.NoError(t, err)
	return shared.ProgressKey{UserID: uid, RoadmapID: rid}
}
