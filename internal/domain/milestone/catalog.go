// Package milestone implements the threshold catalog and the milestone
// detector. Milestones celebrate notable crossings of XP, streak, badge,
// roadmap-completion, and test-score thresholds.
package milestone

import (
	"fmt"
	"sort"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATEGORIES
// ══════════════════════════════════════════════════════════════════════════════

// Category partitions milestones. Categories have a fixed presentation
// priority: a batch of milestones is always reported xp first, test last.
type Category string

const (
	CategoryXP      Category = "xp"
	CategoryStreak  Category = "streak"
	CategoryBadge   Category = "badge"
	CategoryRoadmap Category = "roadmap"
	CategoryTest    Category = "test"
)

// categoryPriority orders output within a detection batch.
var categoryPriority = map[Category]int{
	CategoryXP:      0,
	CategoryStreak:  1,
	CategoryBadge:   2,
	CategoryRoadmap: 3,
	CategoryTest:    4,
}

// IsValid checks that the category is known.
func (c Category) IsValid() bool {
	_, ok := categoryPriority[c]
	return ok
}

// IsPerformanceBased reports whether the category's milestones may re-fire.
// Test-score milestones reward each qualifying attempt; every other category
// tracks a monotonic counter and fires once per threshold.
func (c Category) IsPerformanceBased() bool {
	return c == CategoryTest
}

// ══════════════════════════════════════════════════════════════════════════════
// THRESHOLD CATALOG
// Static, versioned tables. Pure data - the detector owns all behavior.
// ══════════════════════════════════════════════════════════════════════════════

// Threshold is a static milestone descriptor.
type Threshold struct {
	// Category the threshold belongs to.
	Category Category

	// Value is the scalar that must be crossed (or met, for test scores).
	Value int

	// Title is the short celebration headline.
	Title string

	// Emoji is the icon token shown next to the title.
	Emoji string

	// DescriptionTemplate is a fmt template taking the observed value.
	DescriptionTemplate string
}

// Describe renders the description for an observed value.
func (t Threshold) Describe(observed int) string {
	return fmt.Sprintf(t.DescriptionTemplate, observed)
}

// Catalog holds the threshold tables for every category.
type Catalog struct {
	version    string
	thresholds map[Category][]Threshold
}

// Version returns the catalog version tag.
func (c *Catalog) Version() string {
	return c.version
}

// Thresholds returns the ascending threshold list for a category.
func (c *Catalog) Thresholds(category Category) []Threshold {
	return c.thresholds[category]
}

// NewCatalog builds a catalog from threshold lists, sorting each category
// ascending and rejecting duplicate values within a category. Thresholds must
// be partitioned so exactly one is crossed per unit increase.
func NewCatalog(version string, thresholds []Threshold) (*Catalog, error) {
	byCategory := make(map[Category][]Threshold)
	for _, t := range thresholds {
		if !t.Category.IsValid() {
			return nil, shared.WrapError("milestone", "NewCatalog", shared.ErrInvalidInput,
				fmt.Sprintf("unknown category %q", t.Category), shared.ErrUnknownCategory)
		}
		if t.Value <= 0 {
			return nil, shared.NewDomainError("milestone", "NewCatalog", shared.ErrValueOutOfRange,
				fmt.Sprintf("threshold %q must be positive", t.Title))
		}
		byCategory[t.Category] = append(byCategory[t.Category], t)
	}

	for category, list := range byCategory {
		sort.Slice(list, func(i, j int) bool { return list[i].Value < list[j].Value })
		for i := 1; i < len(list); i++ {
			if list[i].Value == list[i-1].Value {
				return nil, shared.WrapError("milestone", "NewCatalog", shared.ErrInvalidState,
					fmt.Sprintf("duplicate %s threshold %d", category, list[i].Value), shared.ErrCatalogCorrupted)
			}
		}
		byCategory[category] = list
	}

	return &Catalog{version: version, thresholds: byCategory}, nil
}

// DefaultCatalog returns the built-in threshold tables.
func DefaultCatalog() *Catalog {
	catalog, err := NewCatalog("v1", []Threshold{
		// XP milestones
		{CategoryXP, 100, "First Hundred", "🌱", "You reached %d XP - the journey has begun"},
		{CategoryXP, 500, "Warming Up", "⚡", "%d XP earned and counting"},
		{CategoryXP, 1000, "Four Digits", "🚀", "%d XP - you are officially on a roll"},
		{CategoryXP, 2500, "Serious Learner", "💎", "%d XP of focused learning"},
		{CategoryXP, 5000, "Powerhouse", "🏔️", "%d XP - most learners never get here"},
		{CategoryXP, 10000, "Legend", "👑", "%d XP - a WorkIn legend"},

		// Streak milestones
		{CategoryStreak, 3, "Getting Consistent", "📅", "%d days in a row"},
		{CategoryStreak, 7, "Week of Fire", "🔥", "A full week of daily learning - %d days"},
		{CategoryStreak, 14, "Fortnight Focus", "💪", "%d consecutive days"},
		{CategoryStreak, 30, "Iron Will", "🛡️", "%d days without missing one"},
		{CategoryStreak, 60, "Unstoppable", "🌋", "%d straight days of progress"},
		{CategoryStreak, 100, "Century Club", "💯", "%d days - extraordinary discipline"},

		// Badge milestones
		{CategoryBadge, 1, "First Badge", "🎖️", "Your first badge of %d"},
		{CategoryBadge, 5, "Collector", "🧰", "%d badges collected"},
		{CategoryBadge, 10, "Decorated", "🎗️", "%d badges and counting"},
		{CategoryBadge, 25, "Hall of Fame", "🏛️", "%d badges - a true collector"},

		// Roadmap completion milestones
		{CategoryRoadmap, 1, "Path Complete", "🏁", "Finished roadmap number %d"},
		{CategoryRoadmap, 3, "Trailblazer", "🗺️", "%d roadmaps completed"},
		{CategoryRoadmap, 5, "Polymath", "🎓", "%d learning paths mastered"},

		// Test-score milestones (performance-based, re-firable per attempt)
		{CategoryTest, 70, "Checkpoint Cleared", "✅", "Scored %d%% - checkpoint passed"},
		{CategoryTest, 85, "High Achiever", "🌟", "Scored %d%% on a checkpoint test"},
		{CategoryTest, 95, "Near Perfect", "🎯", "Scored %d%% - almost flawless"},
		{CategoryTest, 100, "Perfect Score", "🏆", "A flawless %d%%"},
	})
	if err != nil {
		// The built-in tables are fixed at compile time; a failure here is a bug.
		panic(err)
	}
	return catalog
}
