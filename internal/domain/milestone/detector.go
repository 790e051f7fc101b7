package milestone

import (
	"sort"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// MILESTONE DETECTOR
// Compares progress before vs after a single activity against the catalog
// and emits every newly crossed milestone. Pure: no clock, no I/O.
// ══════════════════════════════════════════════════════════════════════════════

// Milestone is a detected threshold crossing, ready for celebration UI.
type Milestone struct {
	Category           Category
	Threshold          int
	Title              string
	Emoji              string
	Description        string
	ObservedValue      int
	IsPerformanceBased bool
}

// Detector evaluates progress transitions against a threshold catalog.
type Detector struct {
	catalog *Catalog
}

// NewDetector creates a detector over the given catalog.
func NewDetector(catalog *Catalog) *Detector {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Detector{catalog: catalog}
}

// Detect returns the milestones newly crossed by folding exactly one event
// into the record. "before" is the record as it was prior to the event,
// "after" is the record with the event applied.
//
// Crossing semantics per category:
//   - xp: the pre-event value is re-derived from the event itself
//     (after.TotalXP - event.XPEarned), so replaying the identical event
//     against the identical before-state never re-fires. A single large jump
//     fires every threshold inside the bracket, smallest first.
//   - streak, badge, roadmap: bracketed between the before and after records.
//   - test: performance-based - evaluated against the event's own score and
//     exempt from the once-only rule; every attempt that meets a bar fires.
//
// Counters only grow; the detector never fires on a decrease.
func (d *Detector) Detect(before, after *progress.Record, event progress.ActivityEvent) []Milestone {
	var out []Milestone

	xpBefore := after.TotalXP.Int() - event.XPEarned
	out = append(out, d.crossed(CategoryXP, xpBefore, after.TotalXP.Int())...)

	streakBefore := 0
	badgesBefore := 0
	roadmapsBefore := 0
	if before != nil {
		streakBefore = before.CurrentStreak
		badgesBefore = before.BadgeCount()
		roadmapsBefore = before.RoadmapsCompleted
	}

	out = append(out, d.crossed(CategoryStreak, streakBefore, after.CurrentStreak)...)
	out = append(out, d.crossed(CategoryBadge, badgesBefore, after.BadgeCount())...)
	out = append(out, d.crossed(CategoryRoadmap, roadmapsBefore, after.RoadmapsCompleted)...)

	if event.TestScore != nil {
		out = append(out, d.performance(CategoryTest, int(*event.TestScore))...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := categoryPriority[out[i].Category], categoryPriority[out[j].Category]
		if pi != pj {
			return pi < pj
		}
		return out[i].Threshold < out[j].Threshold
	})

	return out
}

// crossed emits a milestone for each threshold t with before < t <= after.
func (d *Detector) crossed(category Category, before, after int) []Milestone {
	if after <= before {
		return nil
	}

	var out []Milestone
	for _, t := range d.catalog.Thresholds(category) {
		if before < t.Value && t.Value <= after {
			out = append(out, newMilestone(t, after))
		}
	}
	return out
}

// performance emits a milestone for each threshold the observed value meets.
func (d *Detector) performance(category Category, observed int) []Milestone {
	var out []Milestone
	for _, t := range d.catalog.Thresholds(category) {
		if observed >= t.Value {
			out = append(out, newMilestone(t, observed))
		}
	}
	return out
}

func newMilestone(t Threshold, observed int) Milestone {
	return Milestone{
		Category:           t.Category,
		Threshold:          t.Value,
		Title:              t.Title,
		Emoji:              t.Emoji,
		Description:        t.Describe(observed),
		ObservedValue:      observed,
		IsPerformanceBased: t.Category.IsPerformanceBased(),
	}
}
