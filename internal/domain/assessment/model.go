// Package assessment implements checkpoint test definitions, submissions,
// and the evaluator that scores them. Checkpoint tests gate progression to
// the next roadmap step.
package assessment

import (
	"context"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEST DEFINITIONS
// Definitions are immutable and versioned by ID. They come from the content
// catalog, not from learners.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultPassingScore applies when a definition does not override it.
const DefaultPassingScore = 70.0

// Kind is the closed set of checkpoint test types.
type Kind string

const (
	// KindMCQ - multiple-choice questions, one unit each.
	KindMCQ Kind = "mcq"

	// KindCoding - coding problems judged by an external sandbox.
	KindCoding Kind = "coding"

	// KindProject - a graded project with required and optional requirements.
	KindProject Kind = "project"
)

// IsValid checks that the kind is known.
func (k Kind) IsValid() bool {
	switch k {
	case KindMCQ, KindCoding, KindProject:
		return true
	default:
		return false
	}
}

// Question is one multiple-choice question.
type Question struct {
	ID           string
	Prompt       string
	Options      []string
	CorrectIndex int
}

// Problem is one coding problem. The engine never executes code: the
// sandbox reports a verdict per test case and the evaluator consumes those.
type Problem struct {
	ID        string
	Title     string
	CaseCount int // number of sandbox test cases
}

// Requirement is one project requirement with a point weight.
type Requirement struct {
	ID          string
	Description string
	Points      int
	Required    bool
}

// Definition is an immutable checkpoint test definition.
type Definition struct {
	ID           string
	RoadmapID    shared.RoadmapID
	StepID       string
	Kind         Kind
	PassingScore float64 // 0 means DefaultPassingScore

	// Exactly one of the following is populated, per Kind.
	Questions    []Question
	Problems     []Problem
	Requirements []Requirement
}

// EffectivePassingScore returns the pass bar, defaulting to 70.
func (d Definition) EffectivePassingScore() float64 {
	if d.PassingScore <= 0 {
		return DefaultPassingScore
	}
	return d.PassingScore
}

// Validate checks structural sanity of a definition.
func (d Definition) Validate() error {
	if d.ID == "" {
		return shared.NewDomainError("assessment", "Validate", shared.ErrEmptyValue, "test ID is required")
	}
	if !d.Kind.IsValid() {
		return shared.ErrUnknownTestKind
	}
	units := 0
	switch d.Kind {
	case KindMCQ:
		units = len(d.Questions)
	case KindCoding:
		units = len(d.Problems)
	case KindProject:
		units = len(d.Requirements)
	}
	if units == 0 {
		return shared.ErrEmptyTestDefinition
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBMISSIONS
// ══════════════════════════════════════════════════════════════════════════════

// Submission is a learner's answer set for one test.
type Submission struct {
	TestID string
	UserID shared.UserID

	// Answers maps question ID to the chosen option index (mcq).
	Answers map[string]int

	// CaseVerdicts maps problem ID to per-case pass verdicts, as reported
	// by the external execution sandbox (coding).
	CaseVerdicts map[string][]bool

	// CompletedRequirementIDs lists finished requirements (project).
	CompletedRequirementIDs []string

	// DeliverableURL or ArtifactRef must be present for projects.
	DeliverableURL string
	ArtifactRef    string

	TimeSpentMinutes int
}

// HasDeliverable reports whether a project deliverable is attached.
func (s Submission) HasDeliverable() bool {
	return s.DeliverableURL != "" || s.ArtifactRef != ""
}

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATION RESULTS
// ══════════════════════════════════════════════════════════════════════════════

// UnitResult is the per-unit breakdown entry (question, problem, requirement).
type UnitResult struct {
	UnitID  string
	Label   string
	Correct bool
	Points  int // earned points (projects); 1/0 elsewhere
}

// Result is the outcome of evaluating one submission.
type Result struct {
	TestID     string
	Kind       Kind
	Score      int // correct units, or earned points for projects
	TotalUnits int // total units, or total points for projects
	Percentage shared.Percentage
	Passed     bool
	Breakdown  []UnitResult
	Feedback   Feedback
}

// Repository provides read access to the immutable test definition catalog.
type Repository interface {
	// Get returns a definition by ID, or shared.ErrTestNotFound.
	Get(ctx context.Context, id string) (Definition, error)
}
