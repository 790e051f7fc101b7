// Package eventhandler contains subscribers for domain events.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON PROGRESS CHANGED HANDLER
// Drops cached read models whenever the write side touches a progress
// record. The read handlers repopulate the cache lazily on the next query,
// so eviction is the only coupling between the two sides.
// ═══════════════════════════════════════════════════════════════════════════

// CacheInvalidator evicts cached views for one progress key.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, userID, roadmapID string) error
}

// ProgressChangedHandler invalidates the read cache on progress mutations.
type ProgressChangedHandler struct {
	cache   CacheInvalidator
	logger  *slog.Logger
	timeout time.Duration
}

// NewProgressChangedHandler creates a new handler.
func NewProgressChangedHandler(cache CacheInvalidator, logger *slog.Logger) *ProgressChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressChangedHandler{
		cache:   cache,
		logger:  logger,
		timeout: 5 * time.Second,
	}
}

// mutatingEvents are the event types after which cached views are stale.
// XP, streak and badge events always ride along with an activity_recorded
// event, so subscribing to the envelope events below covers every write.
var mutatingEvents = []shared.EventType{
	shared.EventActivityRecorded,
	shared.EventStreakBroken,
	shared.EventProgressReset,
}

// Register subscribes the handler to every mutating progress event.
func (h *ProgressChangedHandler) Register(subscriber shared.EventSubscriber) error {
	for _, eventType := range mutatingEvents {
		if err := subscriber.Subscribe(eventType, h.Handle); err != nil {
			return fmt.Errorf("subscribe %s: %w", eventType, err)
		}
	}
	return nil
}

// Handle evicts the cache entries named by the event payload.
func (h *ProgressChangedHandler) Handle(event shared.Event) error {
	payload := event.Payload()
	userID, _ := payload["user_id"].(string)
	roadmapID, _ := payload["roadmap_id"].(string)

	if userID == "" || roadmapID == "" {
		h.logger.Warn("progress event without cache key",
			"event_type", string(event.EventType()),
			"aggregate_id", event.AggregateID(),
		)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if err := h.cache.Invalidate(ctx, userID, roadmapID); err != nil {
		// Stale cache entries expire on their TTL anyway; eviction failures
		// are logged, not propagated, so the write path never sees them.
		h.logger.Warn("cache invalidation failed",
			"user_id", userID,
			"roadmap_id", roadmapID,
			"error", err,
		)
	}

	return nil
}
