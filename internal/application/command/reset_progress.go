package command

import (
	"context"
	"fmt"
	"time"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/progress"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
	"github.com/JaoharRaihan/WorkIn-sub001/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESET PROGRESS COMMAND
// The explicit user data wipe. Progress records are never hard-deleted;
// this clears one back to its empty state while keeping the key.
// ══════════════════════════════════════════════════════════════════════════════

// ResetProgressCommand wipes one (user, roadmap) progress record.
type ResetProgressCommand struct {
	// UserID is the learner's ID.
	UserID string

	// RoadmapID is the roadmap whose progress is wiped.
	RoadmapID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c ResetProgressCommand) Validate() error {
	if c.UserID == "" {
		return shared.NewDomainError("reset_progress", "Validate", shared.ErrValidation, "user_id is required")
	}
	if c.RoadmapID == "" {
		return shared.NewDomainError("reset_progress", "Validate", shared.ErrValidation, "roadmap_id is required")
	}
	return nil
}

// ResetProgressResult confirms the wipe.
type ResetProgressResult struct {
	UserID    string
	RoadmapID string
	ResetAt   time.Time
}

// ResetProgressHandler handles the ResetProgressCommand.
type ResetProgressHandler struct {
	progressRepo progress.Repository
	locker       progress.KeyLocker
	publisher    shared.EventPublisher
	clock        timeutil.Clock
}

// NewResetProgressHandler creates a new ResetProgressHandler.
func NewResetProgressHandler(
	progressRepo progress.Repository,
	locker progress.KeyLocker,
	publisher shared.EventPublisher,
	clock timeutil.Clock,
) *ResetProgressHandler {
	if clock == nil {
		clock = timeutil.NewClock(nil)
	}
	return &ResetProgressHandler{
		progressRepo: progressRepo,
		locker:       locker,
		publisher:    publisher,
		clock:        clock,
	}
}

// Handle wipes the record under the same per-key lock the pipeline uses, so
// a reset never interleaves with an in-flight activity.
func (h *ResetProgressHandler) Handle(ctx context.Context, cmd ResetProgressCommand) (*ResetProgressResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return nil, err
	}
	roadmapID, err := shared.NewRoadmapID(cmd.RoadmapID)
	if err != nil {
		return nil, err
	}
	key := shared.ProgressKey{UserID: userID, RoadmapID: roadmapID}

	unlock, err := h.locker.Acquire(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reset_progress: acquire key lock: %w", err)
	}
	defer unlock()

	record, err := h.progressRepo.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reset_progress: load progress: %w", err)
	}

	record.Reset()

	if err := h.progressRepo.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("reset_progress: save progress: %w", err)
	}

	evt := shared.NewProgressResetEvent(cmd.UserID, cmd.RoadmapID)
	evt.BaseEvent = correlate(evt.BaseEvent, cmd.CorrelationID)
	_ = h.publisher.Publish(evt)

	return &ResetProgressResult{
		UserID:    cmd.UserID,
		RoadmapID: cmd.RoadmapID,
		ResetAt:   h.clock.Now(),
	}, nil
}
