package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func heatmapFor(intensities map[int]int) []HeatmapEntry {
	var out []HeatmapEntry
	for offset, intensity := range intensities {
		out = append(out, HeatmapEntry{Date: day(offset), Intensity: intensity})
	}
	return out
}

func TestStreak(t *testing.T) {
	today := day(0)

	tests := []struct {
		name    string
		heatmap []HeatmapEntry
		want    int
	}{
		{
			name:    "empty heatmap",
			heatmap: nil,
			want:    0,
		},
		{
			name:    "only today",
			heatmap: heatmapFor(map[int]int{0: 1}),
			want:    1,
		},
		{
			name:    "today and yesterday",
			heatmap: heatmapFor(map[int]int{0: 2, -1: 1}),
			want:    2,
		},
		{
			name:    "anchored on yesterday",
			heatmap: heatmapFor(map[int]int{-1: 1, -2: 1, -3: 1}),
			want:    3,
		},
		{
			name:    "gap breaks the walk",
			heatmap: heatmapFor(map[int]int{0: 1, -1: 1, -2: 0, -3: 1}),
			want:    2,
		},
		{
			name:    "stale anchor resets to zero",
			heatmap: heatmapFor(map[int]int{-2: 1, -3: 1, -4: 1}),
			want:    0,
		},
		{
			name:    "zero intensity days are not active",
			heatmap: heatmapFor(map[int]int{0: 0, -1: 0}),
			want:    0,
		},
		{
			name:    "long unbroken run",
			heatmap: heatmapFor(map[int]int{0: 1, -1: 1, -2: 2, -3: 3, -4: 4, -5: 1, -6: 1}),
			want:    7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Streak(tt.heatmap, today))
		})
	}
}

func TestStreak_ExactDayContinuity(t *testing.T) {
	// today-2 active without today-1 must not extend a streak anchored today.
	heatmap := heatmapFor(map[int]int{0: 1, -2: 1})
	assert.Equal(t, 1, Streak(heatmap, day(0)))
}

func TestStreak_UnsortedInput(t *testing.T) {
	heatmap := []HeatmapEntry{
		{Date: day(-2), Intensity: 1},
		{Date: day(0), Intensity: 1},
		{Date: day(-1), Intensity: 1},
	}
	assert.Equal(t, 3, Streak(heatmap, day(0)))
}

func TestStreak_TomorrowAnchorDoesNotCount(t *testing.T) {
	// An entry dated after "today" (clock skew) is not today or yesterday.
	heatmap := []HeatmapEntry{{Date: day(1), Intensity: 1}}
	assert.Equal(t, 0, Streak(heatmap, day(0)))
}
