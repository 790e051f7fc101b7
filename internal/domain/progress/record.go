package progress

import (
	"time"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS RECORD AGGREGATE
// One record per (user, roadmap). The record is a plain value: the pipeline
// loads it, transforms it through pure functions, and hands it back to the
// persistence layer. The engine never holds it in ambient state.
// ══════════════════════════════════════════════════════════════════════════════

// Record is the per-learner, per-roadmap progress aggregate.
type Record struct {
	// Key identifies the learner and roadmap.
	Key shared.ProgressKey

	// TotalXP is the cumulative experience, monotonically increasing.
	TotalXP shared.XP

	// CurrentStreak is the consecutive-active-day count as of UpdatedAt.
	CurrentStreak int

	// BestStreak is the longest streak ever reached on this roadmap.
	BestStreak int

	// Heatmap is the rolling per-day activity calendar, newest first.
	Heatmap []HeatmapEntry

	// Badges is the set of earned badge names.
	Badges map[string]bool

	// CompletedSteps is the set of completed roadmap step IDs.
	CompletedSteps map[string]bool

	// RoadmapsCompleted counts ROADMAP_COMPLETED events folded into this record.
	RoadmapsCompleted int

	// TestScores is the ordered history of checkpoint test percentages.
	TestScores []shared.Percentage

	// ActivityCounts tallies folded events per kind.
	ActivityCounts map[ActivityKind]int

	// LastActivityAt is the day of the most recent folded activity.
	LastActivityAt shared.Day

	// CreatedAt / UpdatedAt are bookkeeping timestamps.
	CreatedAt time.Time
	UpdatedAt time.Time

	// Version supports optimistic locking in the persistence layer.
	Version int
}

// NewRecord creates an empty progress record for a key. Records are created
// on first activity and never hard-deleted, only reset.
func NewRecord(key shared.ProgressKey) *Record {
	now := time.Now().UTC()
	return &Record{
		Key:            key,
		Badges:         make(map[string]bool),
		CompletedSteps: make(map[string]bool),
		ActivityCounts: make(map[ActivityKind]int),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Clone returns a deep copy. The milestone detector compares the pre-event
// copy against the post-event record, so the copy must share nothing.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r

	clone.Heatmap = make([]HeatmapEntry, len(r.Heatmap))
	copy(clone.Heatmap, r.Heatmap)

	clone.Badges = make(map[string]bool, len(r.Badges))
	for k, v := range r.Badges {
		clone.Badges[k] = v
	}

	clone.CompletedSteps = make(map[string]bool, len(r.CompletedSteps))
	for k, v := range r.CompletedSteps {
		clone.CompletedSteps[k] = v
	}

	clone.ActivityCounts = make(map[ActivityKind]int, len(r.ActivityCounts))
	for k, v := range r.ActivityCounts {
		clone.ActivityCounts[k] = v
	}

	clone.TestScores = make([]shared.Percentage, len(r.TestScores))
	copy(clone.TestScores, r.TestScores)

	return &clone
}

// Apply folds a single validated event into the record: heatmap, XP, badges,
// steps, test scores, and the streak derived from the new heatmap. "today"
// anchors the streak walk; for live traffic it is the event's own day.
func (r *Record) Apply(event ActivityEvent, today shared.Day) error {
	if err := r.CheckInvariants(); err != nil {
		return err
	}

	record, err := Normalize(event)
	if err != nil {
		return err
	}

	r.Heatmap = Fold(r.Heatmap, record)
	r.TotalXP = r.TotalXP.Add(event.XPEarned)

	if event.BadgeEarned != "" {
		r.Badges[event.BadgeEarned] = true
	}
	if event.StepID != "" && event.Kind != KindHelpGiven {
		r.CompletedSteps[event.StepID] = true
	}
	if event.Kind == KindRoadmapCompleted {
		r.RoadmapsCompleted++
	}
	if event.TestScore != nil {
		r.TestScores = append(r.TestScores, shared.Percentage(*event.TestScore))
	}
	r.ActivityCounts[event.Kind]++

	r.CurrentStreak = Streak(r.Heatmap, today)
	if r.CurrentStreak > r.BestStreak {
		r.BestStreak = r.CurrentStreak
	}

	if r.LastActivityAt.IsZero() || r.LastActivityAt.Before(record.Date) {
		r.LastActivityAt = record.Date
	}
	r.UpdatedAt = time.Now().UTC()

	return nil
}

// RefreshStreak recomputes the derived streak against a new "today" without
// folding any activity. The worker sweep uses this to decay stale streaks.
// Returns true if the stored value changed.
func (r *Record) RefreshStreak(today shared.Day) bool {
	current := Streak(r.Heatmap, today)
	if current == r.CurrentStreak {
		return false
	}
	r.CurrentStreak = current
	if r.CurrentStreak > r.BestStreak {
		r.BestStreak = r.CurrentStreak
	}
	r.UpdatedAt = time.Now().UTC()
	return true
}

// Reset wipes the record back to its empty state, keeping the key and
// CreatedAt. This is the explicit user data wipe; nothing else clears a record.
func (r *Record) Reset() {
	r.TotalXP = 0
	r.CurrentStreak = 0
	r.BestStreak = 0
	r.Heatmap = nil
	r.Badges = make(map[string]bool)
	r.CompletedSteps = make(map[string]bool)
	r.RoadmapsCompleted = 0
	r.TestScores = nil
	r.ActivityCounts = make(map[ActivityKind]int)
	r.LastActivityAt = shared.Day{}
	r.UpdatedAt = time.Now().UTC()
}

// BadgeCount returns the number of distinct badges.
func (r *Record) BadgeCount() int {
	return len(r.Badges)
}

// CheckInvariants verifies the record has a possible shape. A failure here is
// fatal: it means a caller mutated the record outside the pipeline.
func (r *Record) CheckInvariants() error {
	if r.TotalXP < shared.MinXP {
		return shared.ErrNegativeXP
	}
	if r.CurrentStreak < 0 || r.BestStreak < 0 || r.CurrentStreak > r.BestStreak {
		return shared.NewDomainError("progress", "CheckInvariants", shared.ErrStateInvariant, "streak counters are inconsistent")
	}
	if r.RoadmapsCompleted < 0 {
		return shared.NewDomainError("progress", "CheckInvariants", shared.ErrStateInvariant, "negative roadmap completion count")
	}
	return ValidateHeatmap(r.Heatmap)
}
