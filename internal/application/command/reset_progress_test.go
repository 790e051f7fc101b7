package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/progress"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

func TestResetProgress_WipesRecord(t *testing.T) {
	repo := newMemoryProgressRepo()
	pub := &capturePublisher{}
	recorder := newRecorder(repo, newMemoryLocker(), pub)

	_, err := recorder.Handle(context.Background(), RecordActivityCommand{
		UserID:    testUserID,
		RoadmapID: testRoadmapID,
		Kind:      progress.KindLessonCompleted,
		XPEarned:  120,
	})
	require.NoError(t, err)

	h := NewResetProgressHandler(repo, newMemoryLocker(), pub, fixedClock())
	result, err := h.Handle(context.Background(), ResetProgressCommand{
		UserID:    testUserID,
		RoadmapID: testRoadmapID,
	})
	require.NoError(t, err)
	assert.Equal(t, testUserID, result.UserID)

	// The record survives the wipe, empty but with its key intact.
	saved, err := repo.Load(context.Background(), mustKey(t))
	require.NoError(t, err)
	assert.Equal(t, 0, saved.TotalXP.Int())
	assert.Equal(t, 0, saved.CurrentStreak)
	assert.Empty(t, saved.Heatmap)

	require.Len(t, pub.ofType(shared.EventProgressReset), 1)
}

func TestResetProgress_UnknownRecord(t *testing.T) {
	h := NewResetProgressHandler(newMemoryProgressRepo(), newMemoryLocker(), &capturePublisher{}, fixedClock())

	_, err := h.Handle(context.Background(), ResetProgressCommand{
		UserID:    testUserID,
		RoadmapID: testRoadmapID,
	})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}
