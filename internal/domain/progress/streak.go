package progress

import (
	"sort"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK CALCULATOR
// The streak is derived from the heatmap, never stored as its own source of
// truth: recomputing it from the same heatmap and the same "today" always
// yields the same count.
// ══════════════════════════════════════════════════════════════════════════════

// Streak returns the current consecutive-active-day count as of today.
//
// The anchor rule: the most recent active day must be today or yesterday,
// otherwise the streak is broken and the count is 0. From the anchor the walk
// goes strictly day by day - an active day at today-2 without today-1 does
// not extend the streak, whatever older history looks like.
func Streak(heatmap []HeatmapEntry, today shared.Day) int {
	active := activeDaysDescending(heatmap)
	if len(active) == 0 {
		return 0
	}

	mostRecent := active[0]
	if !mostRecent.Equal(today) && !mostRecent.Equal(today.AddDays(-1)) {
		return 0
	}

	count := 0
	for i, day := range active {
		expected := mostRecent.AddDays(-i)
		if !day.Equal(expected) {
			break
		}
		count++
	}
	return count
}

// activeDaysDescending filters to days with non-zero intensity, newest first.
// Same-day entries are pre-merged by Fold, so dates are already unique.
func activeDaysDescending(heatmap []HeatmapEntry) []shared.Day {
	days := make([]shared.Day, 0, len(heatmap))
	for _, entry := range heatmap {
		if entry.Intensity > 0 {
			days = append(days, entry.Date)
		}
	}
	sort.Slice(days, func(i, j int) bool {
		return days[j].Before(days[i])
	})
	return days
}
