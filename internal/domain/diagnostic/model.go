// Package diagnostic implements the skill-diagnostic assessment engine:
// scoring a pre-assessment into a per-skill proficiency profile and
// personalizing roadmap templates from that profile.
package diagnostic

import (
	"context"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SKILL LEVELS AND DIFFICULTY
// ══════════════════════════════════════════════════════════════════════════════

// Level classifies proficiency per skill and overall.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// IsValid checks the level is known.
func (l Level) IsValid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	default:
		return false
	}
}

// AtLeastIntermediate reports whether the level clears the beginner bar.
// Step prerequisites are satisfied by any non-beginner level.
func (l Level) AtLeastIntermediate() bool {
	return l == LevelIntermediate || l == LevelAdvanced
}

// Difficulty encodes question difficulty: beginner=1, intermediate=2, advanced=3.
type Difficulty int

const (
	DifficultyBeginner     Difficulty = 1
	DifficultyIntermediate Difficulty = 2
	DifficultyAdvanced     Difficulty = 3
)

// IsValid checks the difficulty is within the encoding.
func (d Difficulty) IsValid() bool {
	return d >= DifficultyBeginner && d <= DifficultyAdvanced
}

// ══════════════════════════════════════════════════════════════════════════════
// DIAGNOSTIC DEFINITIONS
// ══════════════════════════════════════════════════════════════════════════════

// Question is one diagnostic question, tagged with the skill it probes.
type Question struct {
	ID           string
	Skill        string
	Difficulty   Difficulty
	Prompt       string
	Options      []string
	CorrectIndex int
}

// Definition is an immutable skill-diagnostic definition for one domain.
type Definition struct {
	ID        string
	Domain    string // e.g. "mobile-development", "ui-ux-design"
	Title     string
	Questions []Question
}

// Validate checks structural sanity.
func (d Definition) Validate() error {
	if d.ID == "" {
		return shared.NewDomainError("diagnostic", "Validate", shared.ErrEmptyValue, "diagnostic ID is required")
	}
	if len(d.Questions) == 0 {
		return shared.ErrNoQuestions
	}
	for _, q := range d.Questions {
		if q.Skill == "" {
			return shared.NewDomainError("diagnostic", "Validate", shared.ErrEmptyValue, "every question must be tagged with a skill")
		}
		if !q.Difficulty.IsValid() {
			return shared.NewDomainError("diagnostic", "Validate", shared.ErrValueOutOfRange, "question difficulty must be 1, 2 or 3")
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SKILL ANALYSIS
// ══════════════════════════════════════════════════════════════════════════════

// SkillStat is the per-skill slice of the proficiency profile.
type SkillStat struct {
	Skill            string
	Correct          int
	Total            int
	Accuracy         float64 // [0, 1]
	AvgDifficulty    float64
	Level            Level
	NeedsImprovement bool // accuracy < 0.6
	Strength         bool // accuracy >= 0.8
}

// Analysis is the scored outcome of one diagnostic submission.
type Analysis struct {
	DiagnosticID    string
	Domain          string
	TotalQuestions  int
	TotalCorrect    int
	OverallAccuracy float64
	OverallLevel    Level
	Skills          map[string]SkillStat
}

// Skill returns the stat for a skill tag, with a zero-value beginner stat
// for skills the diagnostic never probed.
func (a Analysis) Skill(tag string) SkillStat {
	if s, ok := a.Skills[tag]; ok {
		return s
	}
	return SkillStat{Skill: tag, Level: LevelBeginner}
}

// Repository provides read access to the diagnostic definition catalog.
type Repository interface {
	// Get returns a definition by ID, or shared.ErrDiagnosticNotFound.
	Get(ctx context.Context, id string) (Definition, error)
}

// AnalysisRepository stores the latest skill analysis per learner. Roadmap
// recommendations are re-derived from it instead of re-taking the diagnostic.
type AnalysisRepository interface {
	// SaveAnalysis stores a learner's analysis, replacing any previous one.
	SaveAnalysis(ctx context.Context, userID string, analysis Analysis) error

	// LatestAnalysis returns the learner's most recent analysis, or
	// shared.ErrAnalysisNotFound.
	LatestAnalysis(ctx context.Context, userID string) (Analysis, error)
}
