package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/assessment"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/progress"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

func checkpointFixture() (*SubmitCheckpointHandler, *memoryProgressRepo, *capturePublisher) {
	repo := newMemoryProgressRepo()
	pub := &capturePublisher{}
	recorder := newRecorder(repo, newMemoryLocker(), pub)

	tests := &stubTestRepo{tests: map[string]assessment.Definition{
		"dart-checkpoint": {
			ID:   "dart-checkpoint",
			Kind: assessment.KindMCQ,
			Questions: []assessment.Question{
				{ID: "q1", CorrectIndex: 0},
				{ID: "q2", CorrectIndex: 1},
				{ID: "q3", CorrectIndex: 2},
				{ID: "q4", CorrectIndex: 3},
			},
		},
	}}

	h := NewSubmitCheckpointHandler(tests, recorder, pub, fixedClock(), DefaultSubmitCheckpointConfig())
	return h, repo, pub
}

func TestSubmitCheckpoint_PassRecordsActivity(t *testing.T) {
	h, repo, pub := checkpointFixture()

	result, err := h.Handle(context.Background(), SubmitCheckpointCommand{
		UserID:    testUserID,
		RoadmapID: testRoadmapID,
		StepID:    "dart-basics",
		TestID:    "dart-checkpoint",
		Answers:   map[string]int{"q1": 0, "q2": 1, "q3": 2, "q4": 0}, // 3 of 4
	})
	require.NoError(t, err)

	assert.True(t, result.Evaluation.Passed)
	assert.InDelta(t, 75.0, result.Evaluation.Percentage.Float64(), 0.001)
	require.NotNil(t, result.Progress)
	assert.Equal(t, 50, result.Progress.TotalXP)

	saved, err := repo.Load(context.Background(), mustKey(t))
	require.NoError(t, err)
	assert.Equal(t, 1, saved.ActivityCounts[progress.KindTestPassed])
	require.Len(t, saved.TestScores, 1)

	evaluated := pub.ofType(shared.EventTestEvaluated)
	require.Len(t, evaluated, 1)
	assert.Equal(t, true, evaluated[0].Payload()["passed"])
}

func TestSubmitCheckpoint_FailTouchesNoProgress(t *testing.T) {
	h, repo, pub := checkpointFixture()

	result, err := h.Handle(context.Background(), SubmitCheckpointCommand{
		UserID:    testUserID,
		RoadmapID: testRoadmapID,
		TestID:    "dart-checkpoint",
		Answers:   map[string]int{"q1": 3}, // 1 of 4
	})
	require.NoError(t, err)

	assert.False(t, result.Evaluation.Passed)
	assert.Nil(t, result.Progress)
	assert.Empty(t, result.Milestones)

	_, err = repo.Load(context.Background(), mustKey(t))
	require.ErrorIs(t, err, shared.ErrProgressNotFound)

	// The evaluation itself is still announced.
	assert.Len(t, pub.ofType(shared.EventTestEvaluated), 1)
}

func TestSubmitCheckpoint_PerfectScoreRecordsBonus(t *testing.T) {
	h, repo, _ := checkpointFixture()

	result, err := h.Handle(context.Background(), SubmitCheckpointCommand{
		UserID:    testUserID,
		RoadmapID: testRoadmapID,
		TestID:    "dart-checkpoint",
		Answers:   map[string]int{"q1": 0, "q2": 1, "q3": 2, "q4": 3},
	})
	require.NoError(t, err)

	// 50 XP for the pass + 25 bonus from the PERFECT_SCORE follow-up.
	assert.Equal(t, 75, result.Progress.TotalXP)

	saved, err := repo.Load(context.Background(), mustKey(t))
	require.NoError(t, err)
	assert.Equal(t, 1, saved.ActivityCounts[progress.KindTestPassed])
	assert.Equal(t, 1, saved.ActivityCounts[progress.KindPerfectScore])

	// 100% crosses every test-score milestone bar.
	var testMilestones int
	for _, ms := range result.Milestones {
		if ms.IsPerformanceBased {
			testMilestones++
		}
	}
	assert.Equal(t, 4, testMilestones) // 70, 85, 95, 100
}

func TestSubmitCheckpoint_UnknownTest(t *testing.T) {
	h, _, _ := checkpointFixture()

	_, err := h.Handle(context.Background(), SubmitCheckpointCommand{
		UserID:    testUserID,
		RoadmapID: testRoadmapID,
		TestID:    "no-such-test",
	})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}
