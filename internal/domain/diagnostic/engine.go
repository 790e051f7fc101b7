package diagnostic

import (
	"fmt"
	"sort"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DIAGNOSTIC SCORING
// Deterministic and side-effect free. Any demo/sample content randomness
// lives in the collaborator layer, never here.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// needsImprovementBar flags skills below this accuracy.
	needsImprovementBar = 0.6

	// strengthBar flags skills at or above this accuracy.
	strengthBar = 0.8
)

// Score grades a diagnostic submission and builds the per-skill profile.
// Answers map question ID to the chosen option index; unanswered questions
// count as wrong. Answers referencing unknown questions are rejected.
func Score(diag Definition, answers map[string]int) (Analysis, error) {
	if err := diag.Validate(); err != nil {
		return Analysis{}, err
	}

	known := make(map[string]bool, len(diag.Questions))
	for _, q := range diag.Questions {
		known[q.ID] = true
	}
	for id := range answers {
		if !known[id] {
			return Analysis{}, shared.WrapError("diagnostic", "Score", shared.ErrValidation,
				fmt.Sprintf("answer references unknown question %q", id), shared.ErrUnknownQuestion)
		}
	}

	type tally struct {
		correct       int
		total         int
		difficultySum int
	}
	bySkill := make(map[string]*tally)
	totalCorrect := 0

	for _, q := range diag.Questions {
		t := bySkill[q.Skill]
		if t == nil {
			t = &tally{}
			bySkill[q.Skill] = t
		}
		t.total++
		t.difficultySum += int(q.Difficulty)

		if answer, ok := answers[q.ID]; ok && answer == q.CorrectIndex {
			t.correct++
			totalCorrect++
		}
	}

	skills := make(map[string]SkillStat, len(bySkill))
	for skill, t := range bySkill {
		accuracy := float64(t.correct) / float64(t.total)
		avgDifficulty := float64(t.difficultySum) / float64(t.total)

		skills[skill] = SkillStat{
			Skill:            skill,
			Correct:          t.correct,
			Total:            t.total,
			Accuracy:         accuracy,
			AvgDifficulty:    avgDifficulty,
			Level:            skillLevel(accuracy, avgDifficulty),
			NeedsImprovement: accuracy < needsImprovementBar,
			Strength:         accuracy >= strengthBar,
		}
	}

	overallAccuracy := float64(totalCorrect) / float64(len(diag.Questions))

	return Analysis{
		DiagnosticID:    diag.ID,
		Domain:          diag.Domain,
		TotalQuestions:  len(diag.Questions),
		TotalCorrect:    totalCorrect,
		OverallAccuracy: overallAccuracy,
		OverallLevel:    overallLevel(overallAccuracy),
		Skills:          skills,
	}, nil
}

// skillLevel is the joint function of accuracy and average question
// difficulty: easy questions gate the ceiling - high accuracy on beginner
// material alone never classifies as advanced.
func skillLevel(accuracy, avgDifficulty float64) Level {
	switch {
	case avgDifficulty >= 2.5 && accuracy >= 0.8:
		return LevelAdvanced
	case avgDifficulty >= 2 && accuracy >= 0.6:
		return LevelIntermediate
	case accuracy >= 0.8:
		// Accuracy alone would say advanced, but easy questions cap the
		// ceiling one level down.
		return LevelIntermediate
	default:
		return LevelBeginner
	}
}

// overallLevel uses total accuracy only, with no difficulty weighting.
func overallLevel(accuracy float64) Level {
	switch {
	case accuracy >= 0.8:
		return LevelAdvanced
	case accuracy >= 0.6:
		return LevelIntermediate
	default:
		return LevelBeginner
	}
}

// SortedSkills returns the skill stats in deterministic tag order.
func (a Analysis) SortedSkills() []SkillStat {
	out := make([]SkillStat, 0, len(a.Skills))
	for _, s := range a.Skills {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Skill < out[j].Skill })
	return out
}

// ImprovementSkills returns the needs-improvement skill tags, sorted.
func (a Analysis) ImprovementSkills() []string {
	var out []string
	for tag, s := range a.Skills {
		if s.NeedsImprovement {
			out = append(out, tag)
		}
	}
	sort.Strings(out)
	return out
}
