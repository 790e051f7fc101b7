package diagnostic

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

// diagWith builds a definition with n questions per (skill, difficulty) spec.
func diagWith(questions []Question) Definition {
	return Definition{ID: "diag-1", Domain: "web-development", Title: "Web skills check", Questions: questions}
}

// questionSet generates count questions for a skill at a fixed difficulty,
// all with correct index 0.
func questionSet(skill string, difficulty Difficulty, count int) []Question {
	out := make([]Question, count)
	for i := range out {
		out[i] = Question{
			ID:           fmt.Sprintf("%s-%d-%d", skill, difficulty, i),
			Skill:        skill,
			Difficulty:   difficulty,
			Options:      []string{"a", "b", "c"},
			CorrectIndex: 0,
		}
	}
	return out
}

// answerCorrectly answers the first n of the given questions correctly and
// the rest incorrectly.
func answerCorrectly(questions []Question, n int) map[string]int {
	answers := make(map[string]int, len(questions))
	for i, q := range questions {
		if i < n {
			answers[q.ID] = q.CorrectIndex
		} else {
			answers[q.ID] = q.CorrectIndex + 1
		}
	}
	return answers
}

func TestScore_PerSkillAccuracy(t *testing.T) {
	js := questionSet("javascript", DifficultyIntermediate, 4)
	css := questionSet("css", DifficultyBeginner, 2)
	diag := diagWith(append(js, css...))

	answers := answerCorrectly(js, 3)
	for k, v := range answerCorrectly(css, 1) {
		answers[k] = v
	}

	analysis, err := Score(diag, answers)
	require.NoError(t, err)

	assert.Equal(t, 6, analysis.TotalQuestions)
	assert.Equal(t, 4, analysis.TotalCorrect)
	assert.InDelta(t, 0.75, analysis.Skills["javascript"].Accuracy, 0.001)
	assert.InDelta(t, 0.5, analysis.Skills["css"].Accuracy, 0.001)
	assert.True(t, analysis.Skills["css"].NeedsImprovement)
	assert.False(t, analysis.Skills["javascript"].NeedsImprovement)
}

func TestScore_DifficultyGatesTheLevelCeiling(t *testing.T) {
	t.Run("high accuracy on hard questions is advanced", func(t *testing.T) {
		// avgDifficulty 2.7 (roughly): 7 advanced + 3 intermediate.
		qs := append(questionSet("go", DifficultyAdvanced, 7), questionSet("go", DifficultyIntermediate, 3)...)
		analysis, err := Score(diagWith(qs), answerCorrectly(qs, 9)) // accuracy 0.9
		require.NoError(t, err)
		assert.Equal(t, LevelAdvanced, analysis.Skills["go"].Level)
	})

	t.Run("same accuracy on easy questions is capped", func(t *testing.T) {
		qs := questionSet("go", DifficultyBeginner, 10)
		analysis, err := Score(diagWith(qs), answerCorrectly(qs, 9)) // accuracy 0.9, avgDiff 1.0
		require.NoError(t, err)
		// Accuracy says advanced, but easy questions demote one level.
		assert.Equal(t, LevelIntermediate, analysis.Skills["go"].Level)
	})

	t.Run("fair accuracy on easy questions is beginner", func(t *testing.T) {
		qs := questionSet("go", DifficultyBeginner, 10)
		analysis, err := Score(diagWith(qs), answerCorrectly(qs, 7)) // accuracy 0.7, avgDiff 1.0
		require.NoError(t, err)
		assert.Equal(t, LevelBeginner, analysis.Skills["go"].Level)
	})

	t.Run("intermediate difficulty with fair accuracy", func(t *testing.T) {
		qs := questionSet("go", DifficultyIntermediate, 10)
		analysis, err := Score(diagWith(qs), answerCorrectly(qs, 7)) // accuracy 0.7, avgDiff 2.0
		require.NoError(t, err)
		assert.Equal(t, LevelIntermediate, analysis.Skills["go"].Level)
	})
}

func TestScore_OverallLevelIgnoresDifficulty(t *testing.T) {
	qs := questionSet("html", DifficultyBeginner, 10)
	analysis, err := Score(diagWith(qs), answerCorrectly(qs, 9))
	require.NoError(t, err)

	// Per-skill level is gated by difficulty, overall is accuracy only.
	assert.Equal(t, LevelIntermediate, analysis.Skills["html"].Level)
	assert.Equal(t, LevelAdvanced, analysis.OverallLevel)
}

func TestScore_UnansweredCountsWrong(t *testing.T) {
	qs := questionSet("sql", DifficultyIntermediate, 4)
	analysis, err := Score(diagWith(qs), answerCorrectly(qs[:2], 2))
	require.NoError(t, err)

	assert.Equal(t, 2, analysis.TotalCorrect)
	assert.InDelta(t, 0.5, analysis.Skills["sql"].Accuracy, 0.001)
}

func TestScore_UnknownQuestionRejected(t *testing.T) {
	qs := questionSet("sql", DifficultyIntermediate, 2)
	_, err := Score(diagWith(qs), map[string]int{"ghost": 0})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestScore_EmptyDiagnosticRejected(t *testing.T) {
	_, err := Score(Definition{ID: "empty"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestScore_StrengthFlag(t *testing.T) {
	qs := questionSet("react", DifficultyAdvanced, 5)
	analysis, err := Score(diagWith(qs), answerCorrectly(qs, 4)) // 0.8
	require.NoError(t, err)
	assert.True(t, analysis.Skills["react"].Strength)
	assert.False(t, analysis.Skills["react"].NeedsImprovement)
}

func TestScore_IsDeterministic(t *testing.T) {
	qs := append(questionSet("a", DifficultyBeginner, 3), questionSet("b", DifficultyAdvanced, 3)...)
	answers := answerCorrectly(qs, 4)

	first, err := Score(diagWith(qs), answers)
	require.NoError(t, err)
	second, err := Score(diagWith(qs), answers)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
