package command

import (
	"context"
	"fmt"
	"time"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/assessment"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/milestone"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/progress"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
	"github.com/JaoharRaihan/WorkIn-sub001/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT CHECKPOINT COMMAND
// Evaluates a checkpoint-test submission and, on a pass, routes the result
// through the activity pipeline so XP, heatmap, streak and milestones all
// update through the single write path.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitCheckpointCommand contains a learner's checkpoint-test submission.
type SubmitCheckpointCommand struct {
	// UserID is the learner's ID.
	UserID string

	// RoadmapID is the roadmap the checkpoint belongs to.
	RoadmapID string

	// StepID is the roadmap step gated by this checkpoint.
	StepID string

	// TestID identifies the test definition.
	TestID string

	// Answers maps question ID to the chosen option index (mcq).
	Answers map[string]int

	// CaseVerdicts maps problem ID to per-case pass verdicts (coding).
	// Verdicts come from the execution sandbox, never from the learner.
	CaseVerdicts map[string][]bool

	// CompletedRequirementIDs lists finished requirements (project).
	CompletedRequirementIDs []string

	// DeliverableURL is the external deliverable link (project).
	DeliverableURL string

	// ArtifactRef is the uploaded artifact reference (project).
	ArtifactRef string

	// TimeSpentMinutes is how long the attempt took.
	TimeSpentMinutes int

	// OccurredAt is when the attempt finished (defaults to now if zero).
	OccurredAt time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c SubmitCheckpointCommand) Validate() error {
	if c.UserID == "" {
		return shared.NewDomainError("submit_checkpoint", "Validate", shared.ErrValidation, "user_id is required")
	}
	if c.RoadmapID == "" {
		return shared.NewDomainError("submit_checkpoint", "Validate", shared.ErrValidation, "roadmap_id is required")
	}
	if c.TestID == "" {
		return shared.NewDomainError("submit_checkpoint", "Validate", shared.ErrValidation, "test_id is required")
	}
	return nil
}

// SubmitCheckpointResult contains the evaluation outcome plus, on a pass,
// the progress pipeline's result.
type SubmitCheckpointResult struct {
	// Evaluation is the scored result with tier and recommendations.
	Evaluation assessment.Result

	// Progress is the pipeline outcome; nil when the attempt failed.
	Progress *RecordActivityResult

	// Milestones are the milestones unlocked by this attempt.
	Milestones []milestone.Milestone

	// EvaluatedAt is when the evaluation ran.
	EvaluatedAt time.Time
}

// SubmitCheckpointConfig contains XP award amounts for passed checkpoints.
type SubmitCheckpointConfig struct {
	// PassXP is awarded for any passing attempt.
	PassXP int

	// PerfectBonusXP is awarded on top for a 100% score.
	PerfectBonusXP int
}

// DefaultSubmitCheckpointConfig returns default XP awards.
func DefaultSubmitCheckpointConfig() SubmitCheckpointConfig {
	return SubmitCheckpointConfig{
		PassXP:         50,
		PerfectBonusXP: 25,
	}
}

// SubmitCheckpointHandler handles the SubmitCheckpointCommand.
type SubmitCheckpointHandler struct {
	tests     assessment.Repository
	recorder  *RecordActivityHandler
	publisher shared.EventPublisher
	clock     timeutil.Clock
	config    SubmitCheckpointConfig
}

// NewSubmitCheckpointHandler creates a new SubmitCheckpointHandler.
func NewSubmitCheckpointHandler(
	tests assessment.Repository,
	recorder *RecordActivityHandler,
	publisher shared.EventPublisher,
	clock timeutil.Clock,
	config SubmitCheckpointConfig,
) *SubmitCheckpointHandler {
	if clock == nil {
		clock = timeutil.NewClock(nil)
	}
	if config.PassXP == 0 {
		config = DefaultSubmitCheckpointConfig()
	}
	return &SubmitCheckpointHandler{
		tests:     tests,
		recorder:  recorder,
		publisher: publisher,
		clock:     clock,
		config:    config,
	}
}

// Handle evaluates the submission and records the resulting activity.
//
// A failed attempt still returns the full evaluation (tier, feedback,
// recommendations) but touches no progress state. A perfect score records a
// second PERFECT_SCORE activity after the TEST_PASSED one; the two run
// through the pipeline separately so milestone bracketing stays exact.
func (h *SubmitCheckpointHandler) Handle(ctx context.Context, cmd SubmitCheckpointCommand) (*SubmitCheckpointResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	test, err := h.tests.Get(ctx, cmd.TestID)
	if err != nil {
		return nil, fmt.Errorf("submit_checkpoint: find test: %w", err)
	}

	submission := assessment.Submission{
		TestID:                  cmd.TestID,
		UserID:                  shared.UserID(cmd.UserID),
		Answers:                 cmd.Answers,
		CaseVerdicts:            cmd.CaseVerdicts,
		CompletedRequirementIDs: cmd.CompletedRequirementIDs,
		DeliverableURL:          cmd.DeliverableURL,
		ArtifactRef:             cmd.ArtifactRef,
		TimeSpentMinutes:        cmd.TimeSpentMinutes,
	}

	evaluation, err := assessment.Evaluate(test, submission)
	if err != nil {
		return nil, err
	}

	result := &SubmitCheckpointResult{
		Evaluation:  evaluation,
		EvaluatedAt: h.clock.Now(),
	}

	evt := shared.NewTestEvaluatedEvent(cmd.UserID, cmd.TestID, evaluation.Percentage.Float64(), evaluation.Passed)
	evt.BaseEvent = correlate(evt.BaseEvent, cmd.CorrelationID)
	_ = h.publisher.Publish(evt)

	if !evaluation.Passed {
		return result, nil
	}

	score := evaluation.Percentage.Float64()
	progressResult, err := h.recorder.Handle(ctx, RecordActivityCommand{
		UserID:           cmd.UserID,
		RoadmapID:        cmd.RoadmapID,
		Kind:             progress.KindTestPassed,
		StepID:           cmd.StepID,
		XPEarned:         h.config.PassXP,
		TestScore:        &score,
		TimeSpentMinutes: cmd.TimeSpentMinutes,
		OccurredAt:       cmd.OccurredAt,
		CorrelationID:    cmd.CorrelationID,
	})
	if err != nil {
		return nil, fmt.Errorf("submit_checkpoint: record pass: %w", err)
	}
	result.Progress = progressResult
	result.Milestones = append(result.Milestones, progressResult.Milestones...)

	if score >= 100 {
		perfectResult, err := h.recorder.Handle(ctx, RecordActivityCommand{
			UserID:        cmd.UserID,
			RoadmapID:     cmd.RoadmapID,
			Kind:          progress.KindPerfectScore,
			StepID:        cmd.StepID,
			XPEarned:      h.config.PerfectBonusXP,
			OccurredAt:    cmd.OccurredAt,
			CorrelationID: cmd.CorrelationID,
		})
		if err != nil {
			return nil, fmt.Errorf("submit_checkpoint: record perfect score: %w", err)
		}
		result.Progress = perfectResult
		result.Milestones = append(result.Milestones, perfectResult.Milestones...)
	}

	return result, nil
}
