// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"time"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/milestone"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/progress"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
	"github.com/JaoharRaihan/WorkIn-sub001/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD ACTIVITY COMMAND
// The single write path for learner progress: every lesson, test, project
// and badge event flows through here. Folds exactly one event into the
// progress record, detects newly crossed milestones, and publishes the
// resulting domain events.
// ══════════════════════════════════════════════════════════════════════════════

// RecordActivityCommand contains one learning activity to record.
type RecordActivityCommand struct {
	// UserID is the learner's ID.
	UserID string

	// RoadmapID is the roadmap this activity belongs to.
	RoadmapID string

	// Kind is the activity kind (LESSON_COMPLETED, TEST_PASSED, ...).
	Kind progress.ActivityKind

	// StepID is the roadmap step, when the activity is step-scoped.
	StepID string

	// XPEarned is the XP awarded for this activity.
	XPEarned int

	// TestScore is the test percentage, for test-related kinds.
	TestScore *float64

	// BadgeEarned is the badge name, for BADGE_EARNED.
	BadgeEarned string

	// TimeSpentMinutes is how long the learner spent, when known.
	TimeSpentMinutes int

	// OccurredAt is when the activity happened (defaults to now if zero).
	OccurredAt time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate checks the command's own shape. Event-level validation (kind,
// score range, badge name) happens in the domain layer.
func (c RecordActivityCommand) Validate() error {
	if c.UserID == "" {
		return shared.NewDomainError("record_activity", "Validate", shared.ErrValidation, "user_id is required")
	}
	if c.RoadmapID == "" {
		return shared.NewDomainError("record_activity", "Validate", shared.ErrValidation, "roadmap_id is required")
	}
	if !c.Kind.IsValid() {
		return fmt.Errorf("record_activity: unknown activity kind: %s", c.Kind)
	}
	return nil
}

// RecordActivityResult contains the outcome of recording an activity.
type RecordActivityResult struct {
	// UserID is the learner's ID.
	UserID string

	// RoadmapID is the roadmap the activity was recorded against.
	RoadmapID string

	// TotalXP is the cumulative XP after this activity.
	TotalXP int

	// CurrentStreak is the consecutive-day streak after this activity.
	CurrentStreak int

	// BestStreak is the best streak ever reached.
	BestStreak int

	// StreakUpdated indicates the streak value changed.
	StreakUpdated bool

	// PreviousStreak is the streak before this activity.
	PreviousStreak int

	// Milestones are the newly crossed milestones, in celebration order.
	Milestones []milestone.Milestone

	// Events contains the domain events generated.
	Events []shared.Event

	// RecordedAt is when the activity was recorded.
	RecordedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RecordActivityHandler handles the RecordActivityCommand.
type RecordActivityHandler struct {
	progressRepo progress.Repository
	locker       progress.KeyLocker
	detector     *milestone.Detector
	publisher    shared.EventPublisher
	clock        timeutil.Clock
}

// NewRecordActivityHandler creates a new RecordActivityHandler. A nil clock
// defaults to UTC wall time; a nil detector uses the default catalog.
func NewRecordActivityHandler(
	progressRepo progress.Repository,
	locker progress.KeyLocker,
	detector *milestone.Detector,
	publisher shared.EventPublisher,
	clock timeutil.Clock,
) *RecordActivityHandler {
	if clock == nil {
		clock = timeutil.NewClock(nil)
	}
	if detector == nil {
		detector = milestone.NewDetector(nil)
	}
	return &RecordActivityHandler{
		progressRepo: progressRepo,
		locker:       locker,
		detector:     detector,
		publisher:    publisher,
		clock:        clock,
	}
}

// Handle folds one activity into the learner's progress record.
//
// The pipeline is load → clone → apply → detect → save. The per-key lock is
// held for the whole cycle so no two events for the same (user, roadmap)
// interleave; events for different keys run fully in parallel.
func (h *RecordActivityHandler) Handle(ctx context.Context, cmd RecordActivityCommand) (*RecordActivityResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	event, err := h.buildEvent(cmd)
	if err != nil {
		return nil, err
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	unlock, err := h.locker.Acquire(ctx, event.Key())
	if err != nil {
		return nil, fmt.Errorf("record_activity: acquire key lock: %w", err)
	}
	defer unlock()

	record, err := h.progressRepo.Load(ctx, event.Key())
	switch {
	case err == nil:
	case shared.IsNotFound(err):
		// First activity for this roadmap creates the record.
		record = progress.NewRecord(event.Key())
	default:
		return nil, fmt.Errorf("record_activity: load progress: %w", err)
	}

	before := record.Clone()
	today := shared.NewDay(h.clock.Now(), h.clock.Location())

	if err := record.Apply(event, today); err != nil {
		return nil, fmt.Errorf("record_activity: apply event: %w", err)
	}

	milestones := h.detector.Detect(before, record, event)

	if err := h.progressRepo.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("record_activity: save progress: %w", err)
	}

	result := &RecordActivityResult{
		UserID:         cmd.UserID,
		RoadmapID:      cmd.RoadmapID,
		TotalXP:        record.TotalXP.Int(),
		CurrentStreak:  record.CurrentStreak,
		BestStreak:     record.BestStreak,
		StreakUpdated:  record.CurrentStreak != before.CurrentStreak,
		PreviousStreak: before.CurrentStreak,
		Milestones:     milestones,
		RecordedAt:     h.clock.Now(),
	}
	result.Events = h.buildDomainEvents(cmd, before, record, milestones)

	for _, evt := range result.Events {
		_ = h.publisher.Publish(evt)
	}

	return result, nil
}

// buildEvent converts the command into the domain-level activity event.
func (h *RecordActivityHandler) buildEvent(cmd RecordActivityCommand) (progress.ActivityEvent, error) {
	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return progress.ActivityEvent{}, err
	}
	roadmapID, err := shared.NewRoadmapID(cmd.RoadmapID)
	if err != nil {
		return progress.ActivityEvent{}, err
	}

	occurredAt := cmd.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = h.clock.Now()
	}

	return progress.ActivityEvent{
		Kind:             cmd.Kind,
		UserID:           userID,
		RoadmapID:        roadmapID,
		StepID:           cmd.StepID,
		XPEarned:         cmd.XPEarned,
		TestScore:        cmd.TestScore,
		BadgeEarned:      cmd.BadgeEarned,
		TimeSpentMinutes: cmd.TimeSpentMinutes,
		OccurredOn:       shared.NewDay(occurredAt, h.clock.Location()),
	}, nil
}

// buildDomainEvents assembles the events published after a pipeline run.
func (h *RecordActivityHandler) buildDomainEvents(
	cmd RecordActivityCommand,
	before, after *progress.Record,
	milestones []milestone.Milestone,
) []shared.Event {
	events := make([]shared.Event, 0, 2+len(milestones))

	if cmd.XPEarned > 0 {
		evt := shared.NewXPGainedEvent(cmd.UserID, cmd.RoadmapID, cmd.XPEarned, after.TotalXP.Int(), cmd.Kind.String(), cmd.StepID)
		evt.BaseEvent = correlate(evt.BaseEvent, cmd.CorrelationID)
		events = append(events, evt)
	}

	switch {
	case after.CurrentStreak > before.CurrentStreak:
		evt := shared.NewStreakUpdatedEvent(cmd.UserID, cmd.RoadmapID, after.CurrentStreak, after.BestStreak)
		evt.BaseEvent = correlate(evt.BaseEvent, cmd.CorrelationID)
		events = append(events, evt)
	case after.CurrentStreak < before.CurrentStreak:
		evt := shared.NewStreakBrokenEvent(cmd.UserID, cmd.RoadmapID, before.CurrentStreak)
		evt.BaseEvent = correlate(evt.BaseEvent, cmd.CorrelationID)
		events = append(events, evt)
	}

	for _, ms := range milestones {
		evt := shared.NewMilestoneUnlockedEvent(cmd.UserID, cmd.RoadmapID, string(ms.Category), ms.Threshold, ms.Title, ms.ObservedValue)
		evt.BaseEvent = correlate(evt.BaseEvent, cmd.CorrelationID)
		events = append(events, evt)
	}

	return events
}

func correlate(base shared.BaseEvent, correlationID string) shared.BaseEvent {
	if correlationID == "" {
		return base
	}
	return base.WithCorrelationID(correlationID)
}

// ══════════════════════════════════════════════════════════════════════════════
// BATCH ACTIVITY COMMAND
// For recording multiple activities at once (e.g., offline client sync).
// Milestone bracketing assumes one event per detector run, so the batch
// handler loops events through the full pipeline one at a time.
// ══════════════════════════════════════════════════════════════════════════════

// RecordBatchActivityCommand contains multiple activities to record.
type RecordBatchActivityCommand struct {
	Activities    []RecordActivityCommand
	CorrelationID string
}

// RecordBatchActivityResult contains results for batch recording.
type RecordBatchActivityResult struct {
	TotalCount   int
	SuccessCount int
	FailedCount  int
	Results      []*RecordActivityResult
	Errors       map[string]error
}

// RecordBatchActivityHandler handles batch activity recording.
type RecordBatchActivityHandler struct {
	handler *RecordActivityHandler
}

// NewRecordBatchActivityHandler creates a new batch handler.
func NewRecordBatchActivityHandler(handler *RecordActivityHandler) *RecordBatchActivityHandler {
	return &RecordBatchActivityHandler{handler: handler}
}

// Handle records each activity in order. A failed activity is reported in
// Errors and does not stop the rest of the batch.
func (h *RecordBatchActivityHandler) Handle(
	ctx context.Context,
	cmd RecordBatchActivityCommand,
) (*RecordBatchActivityResult, error) {
	result := &RecordBatchActivityResult{
		TotalCount: len(cmd.Activities),
		Results:    make([]*RecordActivityResult, 0, len(cmd.Activities)),
		Errors:     make(map[string]error),
	}

	for i, act := range cmd.Activities {
		if act.CorrelationID == "" {
			act.CorrelationID = cmd.CorrelationID
		}

		actResult, err := h.handler.Handle(ctx, act)
		if err != nil {
			result.FailedCount++
			result.Errors[fmt.Sprintf("%d:%s", i, act.UserID)] = err
			continue
		}

		result.SuccessCount++
		result.Results = append(result.Results, actResult)
	}

	return result, nil
}
