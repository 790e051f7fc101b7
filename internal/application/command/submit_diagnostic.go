package command

import (
	"context"
	"fmt"
	"time"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/diagnostic"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/milestone"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/progress"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
	"github.com/JaoharRaihan/WorkIn-sub001/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT DIAGNOSTIC COMMAND
// Scores a skill-diagnostic submission into a per-skill profile, stores the
// analysis, routes the completion through the activity pipeline, and returns
// personalized roadmap recommendations.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitDiagnosticCommand contains a learner's diagnostic submission.
type SubmitDiagnosticCommand struct {
	// UserID is the learner's ID.
	UserID string

	// DiagnosticID identifies the diagnostic definition.
	DiagnosticID string

	// RoadmapID is the roadmap context for progress accrual. A diagnostic
	// is usually taken before any roadmap is started, so this may be empty;
	// progress is then keyed by the diagnostic's domain.
	RoadmapID string

	// Answers maps question ID to the chosen option index. Unanswered
	// questions count as wrong.
	Answers map[string]int

	// TimeSpentMinutes is how long the diagnostic took.
	TimeSpentMinutes int

	// OccurredAt is when the diagnostic finished (defaults to now if zero).
	OccurredAt time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c SubmitDiagnosticCommand) Validate() error {
	if c.UserID == "" {
		return shared.NewDomainError("submit_diagnostic", "Validate", shared.ErrValidation, "user_id is required")
	}
	if c.DiagnosticID == "" {
		return shared.NewDomainError("submit_diagnostic", "Validate", shared.ErrValidation, "diagnostic_id is required")
	}
	return nil
}

// SubmitDiagnosticResult contains the skill analysis, the progress pipeline
// outcome, and the roadmap recommendations.
type SubmitDiagnosticResult struct {
	// Analysis is the per-skill proficiency profile.
	Analysis diagnostic.Analysis

	// Roadmaps are the personalized roadmap recommendations.
	Roadmaps []diagnostic.PersonalizedRoadmap

	// Progress is the activity pipeline's result for the completion.
	Progress *RecordActivityResult

	// Milestones are the milestones unlocked by completing the diagnostic.
	Milestones []milestone.Milestone

	// ScoredAt is when the diagnostic was scored.
	ScoredAt time.Time
}

// SubmitDiagnosticConfig contains the XP award for a completed diagnostic.
type SubmitDiagnosticConfig struct {
	// CompletionXP is awarded for finishing a diagnostic, pass or fail;
	// a diagnostic has no passing bar, taking it is the achievement.
	CompletionXP int
}

// DefaultSubmitDiagnosticConfig returns the default XP award.
func DefaultSubmitDiagnosticConfig() SubmitDiagnosticConfig {
	return SubmitDiagnosticConfig{
		CompletionXP: 25,
	}
}

// SubmitDiagnosticHandler handles the SubmitDiagnosticCommand.
type SubmitDiagnosticHandler struct {
	diagnostics  diagnostic.Repository
	analyses     diagnostic.AnalysisRepository
	personalizer *diagnostic.Personalizer
	recorder     *RecordActivityHandler
	publisher    shared.EventPublisher
	clock        timeutil.Clock
	config       SubmitDiagnosticConfig
}

// NewSubmitDiagnosticHandler creates a new SubmitDiagnosticHandler. A nil
// personalizer uses the built-in template catalog.
func NewSubmitDiagnosticHandler(
	diagnostics diagnostic.Repository,
	analyses diagnostic.AnalysisRepository,
	personalizer *diagnostic.Personalizer,
	recorder *RecordActivityHandler,
	publisher shared.EventPublisher,
	clock timeutil.Clock,
	config SubmitDiagnosticConfig,
) *SubmitDiagnosticHandler {
	if personalizer == nil {
		personalizer = diagnostic.NewPersonalizer(nil)
	}
	if clock == nil {
		clock = timeutil.NewClock(nil)
	}
	if config.CompletionXP == 0 {
		config = DefaultSubmitDiagnosticConfig()
	}
	return &SubmitDiagnosticHandler{
		diagnostics:  diagnostics,
		analyses:     analyses,
		personalizer: personalizer,
		recorder:     recorder,
		publisher:    publisher,
		clock:        clock,
		config:       config,
	}
}

// Handle scores the submission, persists the analysis, records the completion
// as an activity, and generates the personalized roadmap set. Scoring is pure;
// the analysis save, the pipeline run and the event publish touch
// infrastructure.
func (h *SubmitDiagnosticHandler) Handle(ctx context.Context, cmd SubmitDiagnosticCommand) (*SubmitDiagnosticResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	diag, err := h.diagnostics.Get(ctx, cmd.DiagnosticID)
	if err != nil {
		return nil, fmt.Errorf("submit_diagnostic: find diagnostic: %w", err)
	}

	analysis, err := diagnostic.Score(diag, cmd.Answers)
	if err != nil {
		return nil, err
	}

	if err := h.analyses.SaveAnalysis(ctx, cmd.UserID, analysis); err != nil {
		return nil, fmt.Errorf("submit_diagnostic: save analysis: %w", err)
	}

	evt := shared.NewDiagnosticScoredEvent(cmd.UserID, cmd.DiagnosticID, string(analysis.OverallLevel), len(analysis.Skills))
	evt.BaseEvent = correlate(evt.BaseEvent, cmd.CorrelationID)
	_ = h.publisher.Publish(evt)

	roadmapID := cmd.RoadmapID
	if roadmapID == "" {
		roadmapID = diag.Domain
	}
	score := analysis.OverallAccuracy * 100
	progressResult, err := h.recorder.Handle(ctx, RecordActivityCommand{
		UserID:           cmd.UserID,
		RoadmapID:        roadmapID,
		Kind:             progress.KindTestPassed,
		XPEarned:         h.config.CompletionXP,
		TestScore:        &score,
		TimeSpentMinutes: cmd.TimeSpentMinutes,
		OccurredAt:       cmd.OccurredAt,
		CorrelationID:    cmd.CorrelationID,
	})
	if err != nil {
		return nil, fmt.Errorf("submit_diagnostic: record completion: %w", err)
	}

	return &SubmitDiagnosticResult{
		Analysis:   analysis,
		Roadmaps:   h.personalizer.Generate(analysis),
		Progress:   progressResult,
		Milestones: progressResult.Milestones,
		ScoredAt:   h.clock.Now(),
	}, nil
}
