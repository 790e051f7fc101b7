package diagnostic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analysisWith(domain string, overall Level, skills map[string]SkillStat) Analysis {
	return Analysis{
		DiagnosticID: "diag-web-1",
		Domain:       domain,
		OverallLevel: overall,
		Skills:       skills,
	}
}

func skillAt(tag string, level Level) SkillStat {
	return SkillStat{Skill: tag, Level: level, Accuracy: 0.7, Correct: 7, Total: 10}
}

func findRoadmap(t *testing.T, roadmaps []PersonalizedRoadmap, id string) PersonalizedRoadmap {
	t.Helper()
	for _, rm := range roadmaps {
		if string(rm.ID) == id {
			return rm
		}
	}
	t.Fatalf("roadmap %q not in result", id)
	return PersonalizedRoadmap{}
}

func findStep(t *testing.T, rm PersonalizedRoadmap, id string) Step {
	t.Helper()
	for _, s := range rm.Steps {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("step %q not in roadmap %s", id, rm.ID)
	return Step{}
}

func TestGenerate_PreUnlocksStepsForKnownSkills(t *testing.T) {
	p := NewPersonalizer(nil)
	analysis := analysisWith("web-development", LevelBeginner, map[string]SkillStat{
		"javascript": skillAt("javascript", LevelIntermediate),
	})

	roadmaps := p.Generate(analysis)
	web := findRoadmap(t, roadmaps, "web-foundations")

	// Both javascript-gated steps open; their estimates drop by one hour.
	js := findStep(t, web, "js-core")
	assert.Equal(t, StepAvailable, js.Status)
	assert.Equal(t, 11, js.EstimatedHours)

	dom := findStep(t, web, "dom")
	assert.Equal(t, StepAvailable, dom.Status)
	assert.Equal(t, 5, dom.EstimatedHours)

	// css is unknown, so the profile defaults it to beginner and the
	// mixed-prereq step stays locked at its full estimate.
	app := findStep(t, web, "first-app")
	assert.Equal(t, StepLocked, app.Status)
	assert.Equal(t, 10, app.EstimatedHours)

	// Steps without prerequisites are never pre-unlocked.
	intro := findStep(t, web, "html-css")
	assert.Equal(t, StepLocked, intro.Status)
}

func TestGenerate_EstimateFloorsAtOneHour(t *testing.T) {
	tpl := Template{
		ID:             "tiny",
		Domain:         "web-development",
		DifficultyTier: LevelBeginner,
		Steps: []Step{
			{ID: "quick", PrereqSkills: []string{"javascript"}, EstimatedHours: 1},
		},
	}
	p := NewPersonalizer([]Template{tpl})
	analysis := analysisWith("web-development", LevelBeginner, map[string]SkillStat{
		"javascript": skillAt("javascript", LevelAdvanced),
	})

	roadmaps := p.Generate(analysis)
	step := findStep(t, findRoadmap(t, roadmaps, "tiny"), "quick")
	assert.Equal(t, StepAvailable, step.Status)
	assert.Equal(t, 1, step.EstimatedHours)
}

func TestGenerate_FiltersByDomainAndTier(t *testing.T) {
	p := NewPersonalizer(nil)
	analysis := analysisWith("web-development", LevelIntermediate, nil)

	roadmaps := p.Generate(analysis)

	require.Len(t, roadmaps, 1)
	assert.Equal(t, "web-frameworks", string(roadmaps[0].ID))
	for _, rm := range roadmaps {
		assert.NotEqual(t, "mobile-development", rm.Domain)
	}
}

func TestGenerate_AppendsFocusRoadmaps(t *testing.T) {
	p := NewPersonalizer(nil)
	analysis := analysisWith("web-development", LevelBeginner, map[string]SkillStat{
		"css": {Skill: "css", Level: LevelBeginner, Accuracy: 0.3, NeedsImprovement: true},
		"sql": {Skill: "sql", Level: LevelBeginner, Accuracy: 0.5, NeedsImprovement: true},
	})

	roadmaps := p.Generate(analysis)

	// Template roadmap survives; the focus paths are additive.
	findRoadmap(t, roadmaps, "web-foundations")
	require.Len(t, roadmaps, 3)

	css := findRoadmap(t, roadmaps, "focus-css")
	assert.Equal(t, "css", css.FocusSkill)
	assert.Equal(t, "focus", css.Domain)
	require.Len(t, css.Steps, 5)
	assert.Equal(t, StepAvailable, css.Steps[0].Status)
	for _, s := range css.Steps[1:] {
		assert.Equal(t, StepLocked, s.Status)
	}

	sql := findRoadmap(t, roadmaps, "focus-sql")
	assert.Equal(t, "sql", sql.FocusSkill)
}

func TestGenerate_DoesNotMutateTemplates(t *testing.T) {
	templates := DefaultTemplates()
	p := NewPersonalizer(templates)
	analysis := analysisWith("web-development", LevelBeginner, map[string]SkillStat{
		"javascript": skillAt("javascript", LevelAdvanced),
	})

	p.Generate(analysis)

	for _, step := range templates[2].Steps {
		assert.Equal(t, StepStatus(""), step.Status, "catalog step %s mutated", step.ID)
	}
}
