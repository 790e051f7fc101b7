package diagnostic

import (
	"fmt"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROADMAP PERSONALIZATION
// Templates come from the static catalog; personalization re-flags steps
// against the learner's skill profile and appends focus roadmaps for weak
// skills. Everything here is deterministic.
// ══════════════════════════════════════════════════════════════════════════════

// StepStatus is the learner-facing availability of a roadmap step.
type StepStatus string

const (
	// StepLocked - prerequisites not yet met, follow the path in order.
	StepLocked StepStatus = "locked"

	// StepAvailable - pre-unlocked because the learner already has the
	// prerequisite skills.
	StepAvailable StepStatus = "available"
)

// Step is one unit of a roadmap template.
type Step struct {
	ID             string
	Title          string
	Description    string
	PrereqSkills   []string // skill tags; all must be non-beginner to pre-unlock
	EstimatedHours int
	Status         StepStatus
}

// Template is a static roadmap catalog entry.
type Template struct {
	ID             shared.RoadmapID
	Title          string
	Description    string
	Domain         string
	DifficultyTier Level
	EstimatedWeeks int
	Steps          []Step
}

// PersonalizedRoadmap is a template with steps re-flagged for one learner.
type PersonalizedRoadmap struct {
	Template

	// FocusSkill names the weak skill when this is a synthetic focus
	// roadmap; empty for template-derived roadmaps.
	FocusSkill string
}

const (
	// skipAheadAllowanceHours is subtracted from a pre-unlocked step's
	// estimate, floored at minStepHours.
	skipAheadAllowanceHours = 1
	minStepHours            = 1

	// focusRoadmapSteps is the length of a synthetic focus roadmap.
	focusRoadmapSteps = 5
)

// Personalizer selects and customizes roadmap templates per skill analysis.
type Personalizer struct {
	templates []Template
}

// NewPersonalizer creates a personalizer over a template catalog.
func NewPersonalizer(templates []Template) *Personalizer {
	if templates == nil {
		templates = DefaultTemplates()
	}
	return &Personalizer{templates: templates}
}

// Generate selects the templates tagged for the analysis's domain and tier,
// pre-unlocks steps whose prerequisite skills are all non-beginner (reducing
// their estimate by the skip-ahead allowance), and appends a synthetic focus
// roadmap per needs-improvement skill. Focus roadmaps are additive - they
// never replace template-derived ones.
func (p *Personalizer) Generate(analysis Analysis) []PersonalizedRoadmap {
	var out []PersonalizedRoadmap

	for _, tpl := range p.templates {
		if tpl.Domain != analysis.Domain || tpl.DifficultyTier != analysis.OverallLevel {
			continue
		}
		out = append(out, personalizeTemplate(tpl, analysis))
	}

	for _, skill := range analysis.ImprovementSkills() {
		out = append(out, focusRoadmap(skill))
	}

	return out
}

func personalizeTemplate(tpl Template, analysis Analysis) PersonalizedRoadmap {
	steps := make([]Step, len(tpl.Steps))
	for i, step := range tpl.Steps {
		steps[i] = step
		steps[i].Status = StepLocked

		if len(step.PrereqSkills) == 0 {
			continue
		}
		if prereqsMet(step.PrereqSkills, analysis) {
			steps[i].Status = StepAvailable
			steps[i].EstimatedHours = reduceEstimate(step.EstimatedHours)
		}
	}

	personalized := tpl
	personalized.Steps = steps
	return PersonalizedRoadmap{Template: personalized}
}

func prereqsMet(prereqs []string, analysis Analysis) bool {
	for _, skill := range prereqs {
		if !analysis.Skill(skill).Level.AtLeastIntermediate() {
			return false
		}
	}
	return true
}

func reduceEstimate(hours int) int {
	reduced := hours - skipAheadAllowanceHours
	if reduced < minStepHours {
		return minStepHours
	}
	return reduced
}

// focusRoadmap builds the synthetic single-skill remediation path.
func focusRoadmap(skill string) PersonalizedRoadmap {
	titles := [focusRoadmapSteps]string{
		"Fundamentals refresher",
		"Guided practice",
		"Common mistakes",
		"Applied mini-project",
		"Self-check quiz",
	}

	steps := make([]Step, focusRoadmapSteps)
	for i, title := range titles {
		steps[i] = Step{
			ID:             fmt.Sprintf("focus-%s-%d", skill, i+1),
			Title:          fmt.Sprintf("%s: %s", skill, title),
			EstimatedHours: 2,
			Status:         StepLocked,
		}
	}
	// The first step of a focus path is always open.
	steps[0].Status = StepAvailable

	return PersonalizedRoadmap{
		Template: Template{
			ID:             shared.RoadmapID(fmt.Sprintf("focus-%s", skill)),
			Title:          fmt.Sprintf("Focus: %s", skill),
			Description:    fmt.Sprintf("A short remediation path to strengthen %s", skill),
			Domain:         "focus",
			DifficultyTier: LevelBeginner,
			EstimatedWeeks: 1,
			Steps:          steps,
		},
		FocusSkill: skill,
	}
}

// DefaultTemplates returns the built-in roadmap template catalog.
func DefaultTemplates() []Template {
	return []Template{
		{
			ID:             "mobile-foundations",
			Title:          "Mobile Development Foundations",
			Description:    "From first widget to a published app",
			Domain:         "mobile-development",
			DifficultyTier: LevelBeginner,
			EstimatedWeeks: 12,
			Steps: []Step{
				{ID: "dart-basics", Title: "Dart language basics", EstimatedHours: 8},
				{ID: "widgets-101", Title: "Widgets and layout", PrereqSkills: []string{"dart"}, EstimatedHours: 10},
				{ID: "state-mgmt", Title: "State management", PrereqSkills: []string{"dart", "widgets"}, EstimatedHours: 12},
				{ID: "networking", Title: "REST and persistence", PrereqSkills: []string{"dart"}, EstimatedHours: 8},
				{ID: "ship-it", Title: "Build and release", PrereqSkills: []string{"widgets"}, EstimatedHours: 6},
			},
		},
		{
			ID:             "mobile-advanced",
			Title:          "Advanced Mobile Engineering",
			Description:    "Architecture, performance and platform channels",
			Domain:         "mobile-development",
			DifficultyTier: LevelIntermediate,
			EstimatedWeeks: 10,
			Steps: []Step{
				{ID: "arch-patterns", Title: "App architecture patterns", PrereqSkills: []string{"state-management"}, EstimatedHours: 10},
				{ID: "performance", Title: "Profiling and performance", PrereqSkills: []string{"widgets"}, EstimatedHours: 8},
				{ID: "platform", Title: "Platform channels", PrereqSkills: []string{"dart"}, EstimatedHours: 8},
				{ID: "testing", Title: "Testing strategy", EstimatedHours: 8},
			},
		},
		{
			ID:             "web-foundations",
			Title:          "Web Development Foundations",
			Description:    "HTML, CSS and JavaScript from scratch",
			Domain:         "web-development",
			DifficultyTier: LevelBeginner,
			EstimatedWeeks: 10,
			Steps: []Step{
				{ID: "html-css", Title: "HTML and CSS", EstimatedHours: 8},
				{ID: "js-core", Title: "JavaScript core", PrereqSkills: []string{"javascript"}, EstimatedHours: 12},
				{ID: "dom", Title: "The DOM and events", PrereqSkills: []string{"javascript"}, EstimatedHours: 6},
				{ID: "first-app", Title: "First interactive app", PrereqSkills: []string{"javascript", "css"}, EstimatedHours: 10},
			},
		},
		{
			ID:             "web-frameworks",
			Title:          "Modern Web Frameworks",
			Description:    "Component-driven apps with a modern framework",
			Domain:         "web-development",
			DifficultyTier: LevelIntermediate,
			EstimatedWeeks: 8,
			Steps: []Step{
				{ID: "components", Title: "Component model", PrereqSkills: []string{"javascript"}, EstimatedHours: 8},
				{ID: "routing", Title: "Routing and data loading", PrereqSkills: []string{"javascript"}, EstimatedHours: 6},
				{ID: "state", Title: "Client state management", PrereqSkills: []string{"javascript"}, EstimatedHours: 8},
				{ID: "deploy", Title: "Deployment", EstimatedHours: 4},
			},
		},
		{
			ID:             "ui-ux-design",
			Title:          "UI/UX Design Essentials",
			Description:    "Design thinking, prototyping and handoff",
			Domain:         "design",
			DifficultyTier: LevelBeginner,
			EstimatedWeeks: 8,
			Steps: []Step{
				{ID: "principles", Title: "Design principles", EstimatedHours: 6},
				{ID: "wireframes", Title: "Wireframing", PrereqSkills: []string{"design-basics"}, EstimatedHours: 6},
				{ID: "prototypes", Title: "Interactive prototypes", PrereqSkills: []string{"design-basics"}, EstimatedHours: 8},
				{ID: "handoff", Title: "Developer handoff", EstimatedHours: 4},
			},
		},
	}
}
