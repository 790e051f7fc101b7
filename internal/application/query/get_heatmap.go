package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/progress"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
	"github.com/JaoharRaihan/WorkIn-sub001/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET HEATMAP QUERY
// Returns the activity calendar for one roadmap, oldest day first, limited
// to a trailing window. Calendar widgets render this directly.
// ══════════════════════════════════════════════════════════════════════════════

// GetHeatmapQuery contains parameters for the heatmap window.
type GetHeatmapQuery struct {
	// UserID is the learner's ID.
	UserID string

	// RoadmapID is the roadmap whose calendar to return.
	RoadmapID string

	// WindowDays limits the window to the last N days (default: full
	// retention window).
	WindowDays int
}

// Validate checks the query parameters and applies window defaults.
func (q *GetHeatmapQuery) Validate() error {
	if q.UserID == "" {
		return shared.NewDomainError("get_heatmap", "Validate", shared.ErrValidation, "user_id is required")
	}
	if q.RoadmapID == "" {
		return shared.NewDomainError("get_heatmap", "Validate", shared.ErrValidation, "roadmap_id is required")
	}
	if q.WindowDays <= 0 || q.WindowDays > progress.RetentionDays {
		q.WindowDays = progress.RetentionDays
	}
	return nil
}

// HeatmapEntryDTO is one calendar day.
type HeatmapEntryDTO struct {
	Date      string `json:"date"`
	Intensity int    `json:"intensity"`
	Tooltip   string `json:"tooltip,omitempty"`
}

// HeatmapDTO is the calendar window.
type HeatmapDTO struct {
	UserID     string            `json:"user_id"`
	RoadmapID  string            `json:"roadmap_id"`
	WindowDays int               `json:"window_days"`
	Entries    []HeatmapEntryDTO `json:"entries"`
}

// GetHeatmapHandler handles the GetHeatmapQuery.
type GetHeatmapHandler struct {
	progressRepo progress.Repository
	cache        ReadCache
	clock        timeutil.Clock
}

// NewGetHeatmapHandler creates a new GetHeatmapHandler. The cache may be
// nil, in which case every read goes to the repository.
func NewGetHeatmapHandler(progressRepo progress.Repository, cache ReadCache, clock timeutil.Clock) *GetHeatmapHandler {
	if clock == nil {
		clock = timeutil.NewClock(nil)
	}
	return &GetHeatmapHandler{progressRepo: progressRepo, cache: cache, clock: clock}
}

// Handle returns the heatmap window, oldest day first.
func (h *GetHeatmapHandler) Handle(ctx context.Context, q GetHeatmapQuery) (*HeatmapDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	key, err := progressKey(q.UserID, q.RoadmapID)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if dto, err := h.cache.GetHeatmap(ctx, q.UserID, q.RoadmapID, q.WindowDays); err == nil {
			return dto, nil
		}
	}

	record, err := h.progressRepo.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get_heatmap: load progress: %w", err)
	}

	today := shared.NewDay(h.clock.Now(), h.clock.Location())
	oldest := today.AddDays(-(q.WindowDays - 1))

	dto := &HeatmapDTO{
		UserID:     q.UserID,
		RoadmapID:  q.RoadmapID,
		WindowDays: q.WindowDays,
		Entries:    make([]HeatmapEntryDTO, 0, len(record.Heatmap)),
	}

	for _, entry := range record.Heatmap {
		if entry.Date.Before(oldest) {
			continue
		}
		dto.Entries = append(dto.Entries, HeatmapEntryDTO{
			Date:      entry.Date.String(),
			Intensity: entry.Intensity,
			Tooltip:   entry.Tooltip,
		})
	}

	// Storage keeps newest first; the calendar wants oldest first.
	sort.Slice(dto.Entries, func(i, j int) bool {
		return dto.Entries[i].Date < dto.Entries[j].Date
	})

	if h.cache != nil {
		// Best effort; a failed cache write never fails the read.
		_ = h.cache.SetHeatmap(ctx, dto, q.WindowDays)
	}

	return dto, nil
}
