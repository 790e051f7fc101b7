package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/diagnostic"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

func diagnosticFixture() (*SubmitDiagnosticHandler, *memoryProgressRepo, *memoryAnalysisRepo, *capturePublisher) {
	diagnostics := &stubDiagnosticRepo{diagnostics: map[string]diagnostic.Definition{
		"web-intake": {
			ID:     "web-intake",
			Domain: "web-development",
			Questions: []diagnostic.Question{
				{ID: "q1", Skill: "javascript", Difficulty: diagnostic.DifficultyIntermediate, CorrectIndex: 0},
				{ID: "q2", Skill: "javascript", Difficulty: diagnostic.DifficultyIntermediate, CorrectIndex: 1},
				{ID: "q3", Skill: "css", Difficulty: diagnostic.DifficultyBeginner, CorrectIndex: 0},
				{ID: "q4", Skill: "css", Difficulty: diagnostic.DifficultyBeginner, CorrectIndex: 1},
			},
		},
	}}

	analyses := newMemoryAnalysisRepo()
	pub := &capturePublisher{}
	repo := newMemoryProgressRepo()
	recorder := newRecorder(repo, newMemoryLocker(), pub)
	h := NewSubmitDiagnosticHandler(diagnostics, analyses, nil, recorder, pub, fixedClock(), SubmitDiagnosticConfig{})
	return h, repo, analyses, pub
}

func TestSubmitDiagnostic_ScoresAndStoresAnalysis(t *testing.T) {
	h, _, analyses, pub := diagnosticFixture()

	result, err := h.Handle(context.Background(), SubmitDiagnosticCommand{
		UserID:       testUserID,
		DiagnosticID: "web-intake",
		// Both javascript right, both css wrong.
		Answers: map[string]int{"q1": 0, "q2": 1, "q3": 1, "q4": 0},
	})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, result.Analysis.Skills["javascript"].Accuracy, 0.001)
	assert.True(t, result.Analysis.Skills["css"].NeedsImprovement)

	// The analysis is stored for later recommendation queries.
	stored, err := analyses.LatestAnalysis(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, result.Analysis, stored)

	require.Len(t, pub.ofType(shared.EventDiagnosticScored), 1)
}

func TestSubmitDiagnostic_GeneratesFocusRoadmaps(t *testing.T) {
	h, _, _, _ := diagnosticFixture()

	result, err := h.Handle(context.Background(), SubmitDiagnosticCommand{
		UserID:       testUserID,
		DiagnosticID: "web-intake",
		Answers:      map[string]int{"q1": 0, "q2": 1, "q3": 1, "q4": 0},
	})
	require.NoError(t, err)

	var focus []string
	for _, rm := range result.Roadmaps {
		if rm.FocusSkill != "" {
			focus = append(focus, rm.FocusSkill)
		}
	}
	assert.Equal(t, []string{"css"}, focus)
}

func TestSubmitDiagnostic_UnknownDiagnostic(t *testing.T) {
	h, _, _, _ := diagnosticFixture()

	_, err := h.Handle(context.Background(), SubmitDiagnosticCommand{
		UserID:       testUserID,
		DiagnosticID: "no-such-diagnostic",
	})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestSubmitDiagnostic_RejectsUnknownAnswer(t *testing.T) {
	h, _, analyses, _ := diagnosticFixture()

	_, err := h.Handle(context.Background(), SubmitDiagnosticCommand{
		UserID:       testUserID,
		DiagnosticID: "web-intake",
		Answers:      map[string]int{"ghost-question": 0},
	})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))

	// Nothing is stored on a rejected submission.
	_, err = analyses.LatestAnalysis(context.Background(), testUserID)
	require.ErrorIs(t, err, shared.ErrAnalysisNotFound)
}

func TestSubmitDiagnostic_FeedsProgressPipeline(t *testing.T) {
	h, repo, _, pub := diagnosticFixture()

	result, err := h.Handle(context.Background(), SubmitDiagnosticCommand{
		UserID:       testUserID,
		DiagnosticID: "web-intake",
		Answers:      map[string]int{"q1": 0, "q2": 1, "q3": 1, "q4": 0},
	})
	require.NoError(t, err)

	// Completing a diagnostic accrues progress like any other activity:
	// XP, a heatmap entry and streak credit, keyed by the diagnostic's
	// domain when no roadmap was given.
	require.NotNil(t, result.Progress)
	assert.Equal(t, "web-development", result.Progress.RoadmapID)
	assert.Equal(t, 25, result.Progress.TotalXP)
	assert.Equal(t, 1, result.Progress.CurrentStreak)

	key := shared.ProgressKey{UserID: shared.UserID(testUserID), RoadmapID: shared.RoadmapID("web-development")}
	rec, err := repo.Load(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, shared.XP(25), rec.TotalXP)
	require.Len(t, rec.Heatmap, 1)
	require.Len(t, rec.TestScores, 1)
	assert.InDelta(t, 50.0, rec.TestScores[0].Float64(), 0.001)

	require.Len(t, pub.ofType(shared.EventActivityRecorded), 1)
}

func TestSubmitDiagnostic_RoadmapContextOverridesDomain(t *testing.T) {
	h, repo, _, _ := diagnosticFixture()

	result, err := h.Handle(context.Background(), SubmitDiagnosticCommand{
		UserID:       testUserID,
		DiagnosticID: "web-intake",
		RoadmapID:    testRoadmapID,
		Answers:      map[string]int{"q1": 0},
	})
	require.NoError(t, err)
	assert.Equal(t, testRoadmapID, result.Progress.RoadmapID)

	key := shared.ProgressKey{UserID: shared.UserID(testUserID), RoadmapID: shared.RoadmapID(testRoadmapID)}
	_, err = repo.Load(context.Background(), key)
	require.NoError(t, err)
}
