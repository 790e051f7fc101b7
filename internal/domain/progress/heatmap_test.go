package progress

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

func day(offset int) shared.Day {
	base := shared.DayFromDate(2026, time.March, 15)
	return base.AddDays(offset)
}

func TestFold_NewDayInsertsEntry(t *testing.T) {
	heatmap := Fold(nil, ActivityRecord{Date: day(0), Points: 2, Tooltip: "Completed a lesson"})

	require.Len(t, heatmap, 1)
	assert.Equal(t, 2, heatmap[0].Intensity)
	assert.Equal(t, "Completed a lesson", heatmap[0].Tooltip)
	assert.True(t, heatmap[0].Date.Equal(day(0)))
}

func TestFold_SameDayAccumulatesAndConcatenatesTooltips(t *testing.T) {
	heatmap := Fold(nil, ActivityRecord{Date: day(0), Points: 1, Tooltip: "first"})
	heatmap = Fold(heatmap, ActivityRecord{Date: day(0), Points: 2, Tooltip: "second"})

	require.Len(t, heatmap, 1)
	assert.Equal(t, 3, heatmap[0].Intensity)
	assert.Equal(t, "first\nsecond", heatmap[0].Tooltip)
}

func TestFold_IntensityClampedAtMax(t *testing.T) {
	var heatmap []HeatmapEntry
	for i := 0; i < 10; i++ {
		heatmap = Fold(heatmap, ActivityRecord{Date: day(0), Points: 3, Tooltip: "x"})
	}

	require.Len(t, heatmap, 1)
	assert.Equal(t, MaxIntensity, heatmap[0].Intensity)
}

func TestFold_SortedDescendingByDate(t *testing.T) {
	var heatmap []HeatmapEntry
	heatmap = Fold(heatmap, ActivityRecord{Date: day(-2), Points: 1})
	heatmap = Fold(heatmap, ActivityRecord{Date: day(0), Points: 1})
	heatmap = Fold(heatmap, ActivityRecord{Date: day(-1), Points: 1})

	require.Len(t, heatmap, 3)
	assert.True(t, heatmap[0].Date.Equal(day(0)))
	assert.True(t, heatmap[1].Date.Equal(day(-1)))
	assert.True(t, heatmap[2].Date.Equal(day(-2)))
}

func TestFold_RetentionWindowKeepsMostRecent90(t *testing.T) {
	var heatmap []HeatmapEntry
	for i := 0; i < 120; i++ {
		heatmap = Fold(heatmap, ActivityRecord{Date: day(-i), Points: 1, Tooltip: fmt.Sprintf("d%d", i)})
	}

	require.Len(t, heatmap, RetentionDays)
	// Newest entry survives, the 91st-oldest does not.
	assert.True(t, heatmap[0].Date.Equal(day(0)))
	assert.True(t, heatmap[RetentionDays-1].Date.Equal(day(-(RetentionDays-1))))
	_, found := EntryFor(heatmap, day(-100))
	assert.False(t, found)
}

func TestFold_DoesNotMutateInput(t *testing.T) {
	original := Fold(nil, ActivityRecord{Date: day(0), Points: 1, Tooltip: "orig"})
	_ = Fold(original, ActivityRecord{Date: day(0), Points: 3, Tooltip: "more"})

	assert.Equal(t, 1, original[0].Intensity)
	assert.Equal(t, "orig", original[0].Tooltip)
}

func TestValidateHeatmap(t *testing.T) {
	valid := []HeatmapEntry{
		{Date: day(0), Intensity: 4},
		{Date: day(-1), Intensity: 1},
	}
	assert.NoError(t, ValidateHeatmap(valid))

	duplicate := []HeatmapEntry{
		{Date: day(0), Intensity: 1},
		{Date: day(0), Intensity: 2},
	}
	assert.ErrorIs(t, ValidateHeatmap(duplicate), shared.ErrStateInvariant)

	outOfRange := []HeatmapEntry{{Date: day(0), Intensity: 5}}
	assert.ErrorIs(t, ValidateHeatmap(outOfRange), shared.ErrStateInvariant)
}
