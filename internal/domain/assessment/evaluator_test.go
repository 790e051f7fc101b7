package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

func mcqTest() Definition {
	return Definition{
		ID:        "mcq-dart-1",
		RoadmapID: "flutter-developer",
		Kind:      KindMCQ,
		Questions: []Question{
			{ID: "q1", Prompt: "Variables", Options: []string{"a", "b"}, CorrectIndex: 0},
			{ID: "q2", Prompt: "Functions", Options: []string{"a", "b"}, CorrectIndex: 1},
			{ID: "q3", Prompt: "Classes", Options: []string{"a", "b"}, CorrectIndex: 0},
			{ID: "q4", Prompt: "Futures", Options: []string{"a", "b"}, CorrectIndex: 1},
			{ID: "q5", Prompt: "Streams", Options: []string{"a", "b"}, CorrectIndex: 0},
		},
	}
}

func TestEvaluate_MCQ_ThreeOfFive(t *testing.T) {
	sub := Submission{
		TestID: "mcq-dart-1",
		Answers: map[string]int{
			"q1": 0, // correct
			"q2": 1, // correct
			"q3": 1, // wrong
			"q4": 0, // wrong
			"q5": 0, // correct
		},
	}

	result, err := Evaluate(mcqTest(), sub)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Score)
	assert.Equal(t, 5, result.TotalUnits)
	assert.InDelta(t, 60.0, result.Percentage.Float64(), 0.001)
	assert.False(t, result.Passed)
	assert.Equal(t, TierRetry, result.Feedback.Tier)
	assert.Contains(t, result.Feedback.Recommendations, RecommendRetake)
}

func TestEvaluate_MCQ_UnansweredCountsWrong(t *testing.T) {
	sub := Submission{TestID: "mcq-dart-1", Answers: map[string]int{"q1": 0}}
	result, err := Evaluate(mcqTest(), sub)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Score)
}

func TestEvaluate_MCQ_UnknownQuestionRejected(t *testing.T) {
	sub := Submission{TestID: "mcq-dart-1", Answers: map[string]int{"q99": 0}}
	_, err := Evaluate(mcqTest(), sub)
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestEvaluate_Coding_AllCasesMustPass(t *testing.T) {
	test := Definition{
		ID:   "code-1",
		Kind: KindCoding,
		Problems: []Problem{
			{ID: "p1", Title: "FizzBuzz", CaseCount: 3},
			{ID: "p2", Title: "Two Sum", CaseCount: 2},
		},
	}

	sub := Submission{
		TestID: "code-1",
		CaseVerdicts: map[string][]bool{
			"p1": {true, true, true},
			"p2": {true, false},
		},
	}

	result, err := Evaluate(test, sub)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Score)
	assert.Equal(t, 2, result.TotalUnits)
	assert.InDelta(t, 50.0, result.Percentage.Float64(), 0.001)
	assert.False(t, result.Passed)
	// Below 50 is not reached here; retake without seek-help.
	assert.Contains(t, result.Feedback.Recommendations, RecommendRetake)
}

func TestEvaluate_Coding_MissingVerdictsFailProblem(t *testing.T) {
	test := Definition{
		ID:       "code-2",
		Kind:     KindCoding,
		Problems: []Problem{{ID: "p1", Title: "FizzBuzz", CaseCount: 3}},
	}

	result, err := Evaluate(test, Submission{TestID: "code-2"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Score)
}

func projectTest() Definition {
	return Definition{
		ID:   "proj-1",
		Kind: KindProject,
		Requirements: []Requirement{
			{ID: "r1", Description: "Login screen", Points: 30, Required: true},
			{ID: "r2", Description: "Profile page", Points: 30, Required: true},
			{ID: "r3", Description: "Dark mode", Points: 20, Required: false},
			{ID: "r4", Description: "Animations", Points: 20, Required: false},
		},
	}
}

func TestEvaluate_Project_MissingRequiredIsValidationError(t *testing.T) {
	// Optional requirements alone total over the pass bar, but the missing
	// required requirement rejects the submission before scoring.
	sub := Submission{
		TestID:                  "proj-1",
		CompletedRequirementIDs: []string{"r1", "r3", "r4"},
		DeliverableURL:          "https://github.com/learner/app",
	}

	_, err := Evaluate(projectTest(), sub)
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestEvaluate_Project_MissingDeliverableRejected(t *testing.T) {
	sub := Submission{
		TestID:                  "proj-1",
		CompletedRequirementIDs: []string{"r1", "r2", "r3", "r4"},
	}

	_, err := Evaluate(projectTest(), sub)
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestEvaluate_Project_PointWeightedPercentage(t *testing.T) {
	sub := Submission{
		TestID:                  "proj-1",
		CompletedRequirementIDs: []string{"r1", "r2", "r3"},
		ArtifactRef:             "upload://abc123",
	}

	result, err := Evaluate(projectTest(), sub)
	require.NoError(t, err)
	assert.Equal(t, 80, result.Score)
	assert.Equal(t, 100, result.TotalUnits)
	assert.InDelta(t, 80.0, result.Percentage.Float64(), 0.001)
	assert.True(t, result.Passed)
	assert.Equal(t, TierGood, result.Feedback.Tier)
}

func TestEvaluate_PassingScoreOverride(t *testing.T) {
	test := mcqTest()
	test.PassingScore = 60

	sub := Submission{
		TestID:  test.ID,
		Answers: map[string]int{"q1": 0, "q2": 1, "q5": 0},
	}

	result, err := Evaluate(test, sub)
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.Equal(t, TierPassed, result.Feedback.Tier)
}

func TestEvaluate_EmptyDefinitionRejected(t *testing.T) {
	_, err := Evaluate(Definition{ID: "empty", Kind: KindMCQ}, Submission{})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestFeedback_TierBoundaries(t *testing.T) {
	tests := []struct {
		percentage float64
		passed     bool
		tier       Tier
		first      RecommendationKind
	}{
		{95, true, TierExcellent, RecommendAdvance},
		{90, true, TierExcellent, RecommendAdvance},
		{89, true, TierGood, RecommendAdvance},
		{80, true, TierGood, RecommendAdvance},
		{79, true, TierPassed, RecommendReviewMaterials},
		{70, true, TierPassed, RecommendReviewMaterials},
		{69, false, TierRetry, RecommendReviewMaterials},
		{40, false, TierRetry, RecommendReviewMaterials},
	}

	for _, tt := range tests {
		fb := BuildFeedback(tt.passed, shared.Percentage(tt.percentage), nil)
		assert.Equal(t, tt.tier, fb.Tier, "percentage %.0f", tt.percentage)
		require.NotEmpty(t, fb.Recommendations)
		assert.Equal(t, tt.first, fb.Recommendations[0])
	}

	// Deep fails add a seek-help recommendation.
	fb := BuildFeedback(false, shared.Percentage(40), nil)
	assert.Contains(t, fb.Recommendations, RecommendSeekHelp)
}
