// Package progress contains the learner-progress domain model: activity
// events, the per-day activity heatmap, the streak calculator, and the
// progress record aggregate. This is the core of the engine - there are no
// external dependencies here.
package progress

import (
	"fmt"
	"time"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY EVENTS
// ══════════════════════════════════════════════════════════════════════════════

// ActivityKind is the closed set of learning activities the engine accepts.
// Unknown kinds fail validation - they are never silently defaulted.
type ActivityKind string

const (
	// KindLessonCompleted - learner finished a lesson within a roadmap step.
	KindLessonCompleted ActivityKind = "LESSON_COMPLETED"

	// KindTestPassed - learner passed a checkpoint test.
	KindTestPassed ActivityKind = "TEST_PASSED"

	// KindProjectSubmitted - learner submitted a project for a step.
	KindProjectSubmitted ActivityKind = "PROJECT_SUBMITTED"

	// KindStreakMaintained - daily streak ticked over another day.
	KindStreakMaintained ActivityKind = "STREAK_MAINTAINED"

	// KindBadgeEarned - learner earned a named badge.
	KindBadgeEarned ActivityKind = "BADGE_EARNED"

	// KindRoadmapCompleted - learner finished every step of a roadmap.
	KindRoadmapCompleted ActivityKind = "ROADMAP_COMPLETED"

	// KindPerfectScore - learner scored 100% on a test.
	KindPerfectScore ActivityKind = "PERFECT_SCORE"

	// KindHelpGiven - learner helped another learner.
	KindHelpGiven ActivityKind = "HELP_GIVEN"
)

// IsValid checks that the kind is one of the known activity kinds.
func (k ActivityKind) IsValid() bool {
	switch k {
	case KindLessonCompleted, KindTestPassed, KindProjectSubmitted,
		KindStreakMaintained, KindBadgeEarned, KindRoadmapCompleted,
		KindPerfectScore, KindHelpGiven:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k ActivityKind) String() string {
	return string(k)
}

// ActivityEvent is the input to the progress pipeline. It is immutable once
// created: the pipeline reads it, never mutates it.
type ActivityEvent struct {
	// Kind is the type of learning activity.
	Kind ActivityKind

	// UserID identifies the learner.
	UserID shared.UserID

	// RoadmapID identifies the roadmap this activity belongs to.
	RoadmapID shared.RoadmapID

	// StepID is the roadmap step, when the activity is step-scoped.
	StepID string

	// XPEarned is the XP awarded for this activity.
	XPEarned int

	// TestScore is the test percentage, set only for test-related kinds.
	TestScore *float64

	// BadgeEarned is the badge name, set only for KindBadgeEarned.
	BadgeEarned string

	// TimeSpentMinutes is how long the learner spent, when known.
	TimeSpentMinutes int

	// OccurredOn is the calendar day the activity happened.
	OccurredOn shared.Day
}

// Validate checks the event before it enters the pipeline.
func (e ActivityEvent) Validate() error {
	if !e.Kind.IsValid() {
		return shared.WrapError("progress", "Validate", shared.ErrValidation,
			fmt.Sprintf("unknown activity kind %q", e.Kind), shared.ErrUnknownActivityKind)
	}
	if e.UserID.IsEmpty() {
		return shared.NewDomainError("progress", "Validate", shared.ErrEmptyValue, "user ID is required")
	}
	if e.RoadmapID.IsEmpty() {
		return shared.NewDomainError("progress", "Validate", shared.ErrEmptyValue, "roadmap ID is required")
	}
	if e.OccurredOn.IsZero() {
		return shared.ErrInvalidActivityDate
	}
	if e.XPEarned < 0 {
		return shared.NewDomainError("progress", "Validate", shared.ErrNegativeValue, "XP earned cannot be negative")
	}
	if e.Kind == KindBadgeEarned && e.BadgeEarned == "" {
		return shared.NewDomainError("progress", "Validate", shared.ErrEmptyValue, "badge name is required for BADGE_EARNED")
	}
	if e.TestScore != nil && (*e.TestScore < 0 || *e.TestScore > 100) {
		return shared.NewDomainError("progress", "Validate", shared.ErrValueOutOfRange, "test score must be within [0, 100]")
	}
	return nil
}

// Key returns the progress key this event updates.
func (e ActivityEvent) Key() shared.ProgressKey {
	return shared.ProgressKey{UserID: e.UserID, RoadmapID: e.RoadmapID}
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY NORMALIZER
// ══════════════════════════════════════════════════════════════════════════════

// ActivityRecord is the normalized form of an event: a point weight in [1, 4]
// and a tooltip, pinned to a calendar day. It is consumed by the heatmap fold.
type ActivityRecord struct {
	// Date is the calendar day of the activity.
	Date shared.Day

	// Points is the heatmap intensity contribution, always in [1, 4].
	Points int

	// Tooltip is the human-readable description shown on the heatmap cell.
	Tooltip string
}

// activityWeights maps each kind to its heatmap point weight.
// Heavier activities light up the calendar more.
var activityWeights = map[ActivityKind]int{
	KindLessonCompleted:  1,
	KindTestPassed:       2,
	KindProjectSubmitted: 3,
	KindStreakMaintained: 1,
	KindBadgeEarned:      2,
	KindRoadmapCompleted: 4,
	KindPerfectScore:     3,
	KindHelpGiven:        1,
}

// activityLabels holds the default tooltip label per kind, used when the
// caller supplies no tooltip of its own.
var activityLabels = map[ActivityKind]string{
	KindLessonCompleted:  "Completed a lesson",
	KindTestPassed:       "Passed a checkpoint test",
	KindProjectSubmitted: "Submitted a project",
	KindStreakMaintained: "Kept the streak alive",
	KindBadgeEarned:      "Earned a badge",
	KindRoadmapCompleted: "Completed a roadmap",
	KindPerfectScore:     "Perfect test score",
	KindHelpGiven:        "Helped another learner",
}

// Normalize converts a raw activity event into its canonical record form.
// The event must already be valid; Normalize re-checks the kind so that a
// caller skipping Validate still fails fast on unknown kinds.
func Normalize(event ActivityEvent) (ActivityRecord, error) {
	weight, ok := activityWeights[event.Kind]
	if !ok {
		return ActivityRecord{}, shared.WrapError("progress", "Normalize", shared.ErrValidation,
			fmt.Sprintf("unknown activity kind %q", event.Kind), shared.ErrUnknownActivityKind)
	}
	if event.OccurredOn.IsZero() {
		return ActivityRecord{}, shared.ErrInvalidActivityDate
	}

	tooltip := activityLabels[event.Kind]
	switch event.Kind {
	case KindBadgeEarned:
		if event.BadgeEarned != "" {
			tooltip = fmt.Sprintf("Earned badge: %s", event.BadgeEarned)
		}
	case KindTestPassed, KindPerfectScore:
		if event.TestScore != nil {
			tooltip = fmt.Sprintf("%s (%.0f%%)", tooltip, *event.TestScore)
		}
	}
	if event.XPEarned > 0 {
		tooltip = fmt.Sprintf("%s (+%d XP)", tooltip, event.XPEarned)
	}

	return ActivityRecord{
		Date:    event.OccurredOn,
		Points:  weight,
		Tooltip: tooltip,
	}, nil
}

// NewActivityEvent builds an event for the given kind at the given instant,
// truncating the timestamp to a calendar day in loc.
func NewActivityEvent(kind ActivityKind, userID shared.UserID, roadmapID shared.RoadmapID, xp int, at time.Time, loc *time.Location) ActivityEvent {
	return ActivityEvent{
		Kind:       kind,
		UserID:     userID,
		RoadmapID:  roadmapID,
		XPEarned:   xp,
		OccurredOn: shared.NewDay(at, loc),
	}
}
