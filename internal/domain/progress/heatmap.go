package progress

import (
	"sort"
	"strings"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEATMAP AGGREGATOR
// The heatmap is a rolling calendar of per-day activity intensity, the data
// behind the contribution-graph style view and the streak calculator.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// MaxIntensity caps a single day's heatmap cell. Same-day activity
	// accumulates up to this value and no further.
	MaxIntensity = 4

	// RetentionDays is the fixed size of the heatmap ring. Older entries
	// are silently dropped; that is the contract, not an error condition.
	RetentionDays = 90
)

// HeatmapEntry is one day of the activity calendar. The date is the unique
// key: the aggregator guarantees at most one entry per calendar day.
type HeatmapEntry struct {
	// Date is the calendar day.
	Date shared.Day

	// Intensity is the accumulated activity weight for the day, in [0, 4].
	Intensity int

	// Tooltip lists the day's activities, one per line.
	Tooltip string
}

// Fold merges one normalized activity record into the heatmap and returns
// the new heatmap. Pure function: the input slice is not modified.
//
// Same-day records accumulate intensity (capped at MaxIntensity) and their
// tooltips are concatenated line by line. The result is sorted newest-first
// and truncated to the RetentionDays most recent entries.
func Fold(heatmap []HeatmapEntry, record ActivityRecord) []HeatmapEntry {
	out := make([]HeatmapEntry, 0, len(heatmap)+1)

	merged := false
	for _, entry := range heatmap {
		if entry.Date.Equal(record.Date) {
			entry.Intensity = clampIntensity(entry.Intensity + record.Points)
			entry.Tooltip = joinTooltips(entry.Tooltip, record.Tooltip)
			merged = true
		}
		out = append(out, entry)
	}

	if !merged {
		out = append(out, HeatmapEntry{
			Date:      record.Date,
			Intensity: clampIntensity(record.Points),
			Tooltip:   record.Tooltip,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[j].Date.Before(out[i].Date)
	})

	if len(out) > RetentionDays {
		out = out[:RetentionDays]
	}

	return out
}

// EntryFor returns the heatmap entry for the given day, if present.
func EntryFor(heatmap []HeatmapEntry, day shared.Day) (HeatmapEntry, bool) {
	for _, entry := range heatmap {
		if entry.Date.Equal(day) {
			return entry, true
		}
	}
	return HeatmapEntry{}, false
}

// ValidateHeatmap checks the aggregator's invariants on a stored heatmap:
// unique dates and intensities within range. A violation means a caller
// mutated the record outside the pipeline.
func ValidateHeatmap(heatmap []HeatmapEntry) error {
	seen := make(map[string]bool, len(heatmap))
	for _, entry := range heatmap {
		if entry.Intensity < 0 || entry.Intensity > MaxIntensity {
			return shared.ErrCorruptHeatmap
		}
		key := entry.Date.String()
		if seen[key] {
			return shared.ErrCorruptHeatmap
		}
		seen[key] = true
	}
	return nil
}

func clampIntensity(v int) int {
	if v > MaxIntensity {
		return MaxIntensity
	}
	if v < 0 {
		return 0
	}
	return v
}

func joinTooltips(existing, added string) string {
	if existing == "" {
		return added
	}
	if added == "" {
		return existing
	}
	return strings.Join([]string{existing, added}, "\n")
}
