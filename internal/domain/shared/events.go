// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Progress events
	EventActivityRecorded  EventType = "progress.activity_recorded"
	EventXPGained          EventType = "progress.xp_gained"
	EventStreakUpdated     EventType = "progress.streak_updated"
	EventStreakBroken      EventType = "progress.streak_broken"
	EventBadgeEarned       EventType = "progress.badge_earned"
	EventStepCompleted     EventType = "progress.step_completed"
	EventProgressReset     EventType = "progress.reset"

	// Milestone events
	EventMilestoneUnlocked EventType = "milestone.unlocked"

	// Assessment events
	EventTestEvaluated EventType = "assessment.evaluated"

	// Diagnostic events
	EventDiagnosticScored EventType = "diagnostic.scored"

	// System events
	EventSweepCompleted EventType = "system.sweep_completed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// XPGainedEvent is emitted when a learner gains XP on a roadmap.
type XPGainedEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	RoadmapID string `json:"roadmap_id"`
	Amount    int    `json:"amount"`
	NewTotal  int    `json:"new_total"`
	Source    string `json:"source"` // activity kind, e.g. "LESSON_COMPLETED"
	StepID    string `json:"step_id,omitempty"`
}

// Payload implements Event interface.
func (e XPGainedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"roadmap_id": e.RoadmapID,
		"amount":     e.Amount,
		"new_total":  e.NewTotal,
		"source":     e.Source,
		"step_id":    e.StepID,
	}
}

// NewXPGainedEvent creates a new XPGainedEvent.
func NewXPGainedEvent(userID, roadmapID string, amount, newTotal int, source, stepID string) XPGainedEvent {
	return XPGainedEvent{
		BaseEvent: NewBaseEvent(EventXPGained, userID),
		UserID:    userID,
		RoadmapID: roadmapID,
		Amount:    amount,
		NewTotal:  newTotal,
		Source:    source,
		StepID:    stepID,
	}
}

// StreakUpdatedEvent is emitted when the consecutive-day streak changes.
type StreakUpdatedEvent struct {
	BaseEvent
	UserID        string `json:"user_id"`
	RoadmapID     string `json:"roadmap_id"`
	CurrentStreak int    `json:"current_streak"`
	BestStreak    int    `json:"best_streak"`
}

// Payload implements Event interface.
func (e StreakUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"roadmap_id":     e.RoadmapID,
		"current_streak": e.CurrentStreak,
		"best_streak":    e.BestStreak,
	}
}

// NewStreakUpdatedEvent creates a new StreakUpdatedEvent.
func NewStreakUpdatedEvent(userID, roadmapID string, current, best int) StreakUpdatedEvent {
	return StreakUpdatedEvent{
		BaseEvent:     NewBaseEvent(EventStreakUpdated, userID),
		UserID:        userID,
		RoadmapID:     roadmapID,
		CurrentStreak: current,
		BestStreak:    best,
	}
}

// StreakBrokenEvent is emitted when a previously running streak resets to zero.
type StreakBrokenEvent struct {
	BaseEvent
	UserID         string `json:"user_id"`
	RoadmapID      string `json:"roadmap_id"`
	PreviousStreak int    `json:"previous_streak"`
}

// Payload implements Event interface.
func (e StreakBrokenEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":         e.UserID,
		"roadmap_id":      e.RoadmapID,
		"previous_streak": e.PreviousStreak,
	}
}

// NewStreakBrokenEvent creates a new StreakBrokenEvent.
func NewStreakBrokenEvent(userID, roadmapID string, previousStreak int) StreakBrokenEvent {
	return StreakBrokenEvent{
		BaseEvent:      NewBaseEvent(EventStreakBroken, userID),
		UserID:         userID,
		RoadmapID:      roadmapID,
		PreviousStreak: previousStreak,
	}
}

// ProgressResetEvent is emitted on an explicit user data wipe.
type ProgressResetEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	RoadmapID string `json:"roadmap_id"`
}

// Payload implements Event interface.
func (e ProgressResetEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"roadmap_id": e.RoadmapID,
	}
}

// NewProgressResetEvent creates a new ProgressResetEvent.
func NewProgressResetEvent(userID, roadmapID string) ProgressResetEvent {
	return ProgressResetEvent{
		BaseEvent: NewBaseEvent(EventProgressReset, userID),
		UserID:    userID,
		RoadmapID: roadmapID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Milestone Events
// ═══════════════════════════════════════════════════════════════════════════

// MilestoneUnlockedEvent is emitted for every newly crossed milestone.
type MilestoneUnlockedEvent struct {
	BaseEvent
	UserID        string `json:"user_id"`
	RoadmapID     string `json:"roadmap_id"`
	Category      string `json:"category"`
	Threshold     int    `json:"threshold"`
	Title         string `json:"title"`
	ObservedValue int    `json:"observed_value"`
}

// Payload implements Event interface.
func (e MilestoneUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"roadmap_id":     e.RoadmapID,
		"category":       e.Category,
		"threshold":      e.Threshold,
		"title":          e.Title,
		"observed_value": e.ObservedValue,
	}
}

// NewMilestoneUnlockedEvent creates a new MilestoneUnlockedEvent.
func NewMilestoneUnlockedEvent(userID, roadmapID, category string, threshold int, title string, observed int) MilestoneUnlockedEvent {
	return MilestoneUnlockedEvent{
		BaseEvent:     NewBaseEvent(EventMilestoneUnlocked, userID),
		UserID:        userID,
		RoadmapID:     roadmapID,
		Category:      category,
		Threshold:     threshold,
		Title:         title,
		ObservedValue: observed,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Assessment Events
// ═══════════════════════════════════════════════════════════════════════════

// TestEvaluatedEvent is emitted after a checkpoint test evaluation completes.
type TestEvaluatedEvent struct {
	BaseEvent
	UserID     string  `json:"user_id"`
	TestID     string  `json:"test_id"`
	Percentage float64 `json:"percentage"`
	Passed     bool    `json:"passed"`
}

// Payload implements Event interface.
func (e TestEvaluatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"test_id":    e.TestID,
		"percentage": e.Percentage,
		"passed":     e.Passed,
	}
}

// NewTestEvaluatedEvent creates a new TestEvaluatedEvent.
func NewTestEvaluatedEvent(userID, testID string, percentage float64, passed bool) TestEvaluatedEvent {
	return TestEvaluatedEvent{
		BaseEvent:  NewBaseEvent(EventTestEvaluated, userID),
		UserID:     userID,
		TestID:     testID,
		Percentage: percentage,
		Passed:     passed,
	}
}

// DiagnosticScoredEvent is emitted after a diagnostic assessment is scored.
type DiagnosticScoredEvent struct {
	BaseEvent
	UserID       string `json:"user_id"`
	DiagnosticID string `json:"diagnostic_id"`
	OverallLevel string `json:"overall_level"`
	SkillCount   int    `json:"skill_count"`
}

// Payload implements Event interface.
func (e DiagnosticScoredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":       e.UserID,
		"diagnostic_id": e.DiagnosticID,
		"overall_level": e.OverallLevel,
		"skill_count":   e.SkillCount,
	}
}

// NewDiagnosticScoredEvent creates a new DiagnosticScoredEvent.
func NewDiagnosticScoredEvent(userID, diagnosticID, overallLevel string, skillCount int) DiagnosticScoredEvent {
	return DiagnosticScoredEvent{
		BaseEvent:    NewBaseEvent(EventDiagnosticScored, userID),
		UserID:       userID,
		DiagnosticID: diagnosticID,
		OverallLevel: overallLevel,
		SkillCount:   skillCount,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// System Events
// ═══════════════════════════════════════════════════════════════════════════

// SweepCompletedEvent is emitted when the worker finishes a maintenance sweep.
type SweepCompletedEvent struct {
	BaseEvent
	RecordsScanned int           `json:"records_scanned"`
	StreaksBroken  int           `json:"streaks_broken"`
	Duration       time.Duration `json:"duration"`
}

// Payload implements Event interface.
func (e SweepCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"records_scanned": e.RecordsScanned,
		"streaks_broken":  e.StreaksBroken,
		"duration":        e.Duration.String(),
	}
}

// NewSweepCompletedEvent creates a new SweepCompletedEvent.
func NewSweepCompletedEvent(scanned, broken int, duration time.Duration) SweepCompletedEvent {
	return SweepCompletedEvent{
		BaseEvent:      NewBaseEvent(EventSweepCompleted, "worker"),
		RecordsScanned: scanned,
		StreaksBroken:  broken,
		Duration:       duration,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
