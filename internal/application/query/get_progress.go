// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/progress"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
	"github.com/JaoharRaihan/WorkIn-sub001/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESS QUERY
// Returns the learner's progress summary for one roadmap: XP, streak,
// badges, completed steps and test history. The streak shown is recomputed
// against the current day, so a missed day reads as 0 even before the
// nightly sweep persists the decay.
// ══════════════════════════════════════════════════════════════════════════════

// GetProgressQuery contains parameters for the progress summary.
type GetProgressQuery struct {
	// UserID is the learner's ID.
	UserID string

	// RoadmapID is the roadmap to summarize.
	RoadmapID string
}

// Validate checks the query parameters.
func (q GetProgressQuery) Validate() error {
	if q.UserID == "" {
		return shared.NewDomainError("get_progress", "Validate", shared.ErrValidation, "user_id is required")
	}
	if q.RoadmapID == "" {
		return shared.NewDomainError("get_progress", "Validate", shared.ErrValidation, "roadmap_id is required")
	}
	return nil
}

// ProgressDTO is the learner-facing progress summary.
type ProgressDTO struct {
	UserID            string         `json:"user_id"`
	RoadmapID         string         `json:"roadmap_id"`
	TotalXP           int            `json:"total_xp"`
	CurrentStreak     int            `json:"current_streak"`
	BestStreak        int            `json:"best_streak"`
	Badges            []string       `json:"badges"`
	CompletedSteps    []string       `json:"completed_steps"`
	RoadmapsCompleted int            `json:"roadmaps_completed"`
	TestScores        []float64      `json:"test_scores"`
	ActivityCounts    map[string]int `json:"activity_counts"`
	ActiveDays        int            `json:"active_days"`
	LastActivityAt    string         `json:"last_activity_at,omitempty"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// ReadCache caches query DTOs between the read handlers and storage. The
// write pipeline invalidates entries after every save, so handlers treat any
// cache error as a miss and fall through to the repository.
type ReadCache interface {
	GetProgress(ctx context.Context, userID, roadmapID string) (*ProgressDTO, error)
	SetProgress(ctx context.Context, dto *ProgressDTO) error
	GetHeatmap(ctx context.Context, userID, roadmapID string, windowDays int) (*HeatmapDTO, error)
	SetHeatmap(ctx context.Context, dto *HeatmapDTO, windowDays int) error
}

// GetProgressHandler handles the GetProgressQuery.
type GetProgressHandler struct {
	progressRepo progress.Repository
	cache        ReadCache
	clock        timeutil.Clock
}

// NewGetProgressHandler creates a new GetProgressHandler. The cache may be
// nil, in which case every read goes to the repository.
func NewGetProgressHandler(progressRepo progress.Repository, cache ReadCache, clock timeutil.Clock) *GetProgressHandler {
	if clock == nil {
		clock = timeutil.NewClock(nil)
	}
	return &GetProgressHandler{progressRepo: progressRepo, cache: cache, clock: clock}
}

// Handle returns the progress summary, or shared.ErrProgressNotFound.
func (h *GetProgressHandler) Handle(ctx context.Context, q GetProgressQuery) (*ProgressDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	key, err := progressKey(q.UserID, q.RoadmapID)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if dto, err := h.cache.GetProgress(ctx, q.UserID, q.RoadmapID); err == nil {
			return dto, nil
		}
	}

	record, err := h.progressRepo.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get_progress: load progress: %w", err)
	}

	today := shared.NewDay(h.clock.Now(), h.clock.Location())

	dto := &ProgressDTO{
		UserID:            q.UserID,
		RoadmapID:         q.RoadmapID,
		TotalXP:           record.TotalXP.Int(),
		CurrentStreak:     progress.Streak(record.Heatmap, today),
		BestStreak:        record.BestStreak,
		Badges:            sortedKeys(record.Badges),
		CompletedSteps:    sortedKeys(record.CompletedSteps),
		RoadmapsCompleted: record.RoadmapsCompleted,
		TestScores:        make([]float64, 0, len(record.TestScores)),
		ActivityCounts:    make(map[string]int, len(record.ActivityCounts)),
		ActiveDays:        len(record.Heatmap),
		UpdatedAt:         record.UpdatedAt,
	}
	for _, score := range record.TestScores {
		dto.TestScores = append(dto.TestScores, score.Float64())
	}
	for kind, count := range record.ActivityCounts {
		dto.ActivityCounts[kind.String()] = count
	}
	if !record.LastActivityAt.IsZero() {
		dto.LastActivityAt = record.LastActivityAt.String()
	}

	if h.cache != nil {
		// Best effort; a failed cache write never fails the read.
		_ = h.cache.SetProgress(ctx, dto)
	}

	return dto, nil
}

func progressKey(userID, roadmapID string) (shared.ProgressKey, error) {
	uid, err := shared.NewUserID(userID)
	if err != nil {
		return shared.ProgressKey{}, err
	}
	rid, err := shared.NewRoadmapID(roadmapID)
	if err != nil {
		return shared.ProgressKey{}, err
	}
	return shared.ProgressKey{UserID: uid, RoadmapID: rid}, nil
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
