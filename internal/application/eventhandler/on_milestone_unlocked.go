package eventhandler

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON MILESTONE UNLOCKED HANDLER
// ═══════════════════════════════════════════════════════════════════════════

var milestonesUnlocked = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "progress_engine",
		Subsystem: "milestones",
		Name:      "unlocked_total",
		Help:      "Milestones unlocked by category.",
	},
	[]string{"category"},
)

// MilestoneUnlockedHandler records milestone unlocks for observability.
// The unlock itself is already persisted by the pipeline; this handler only
// exists on the read side of the event stream.
type MilestoneUnlockedHandler struct {
	logger *slog.Logger
}

// NewMilestoneUnlockedHandler creates a new handler.
func NewMilestoneUnlockedHandler(logger *slog.Logger) *MilestoneUnlockedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MilestoneUnlockedHandler{logger: logger}
}

// Register subscribes the handler to milestone unlock events.
func (h *MilestoneUnlockedHandler) Register(subscriber shared.EventSubscriber) error {
	if err := subscriber.Subscribe(shared.EventMilestoneUnlocked, h.Handle); err != nil {
		return fmt.Errorf("subscribe %s: %w", shared.EventMilestoneUnlocked, err)
	}
	return nil
}

// Handle logs the unlock and bumps the per-category counter.
func (h *MilestoneUnlockedHandler) Handle(event shared.Event) error {
	payload := event.Payload()
	category, _ := payload["category"].(string)
	title, _ := payload["title"].(string)
	userID, _ := payload["user_id"].(string)

	if category == "" {
		return nil
	}

	milestonesUnlocked.WithLabelValues(category).Inc()
	h.logger.Info("milestone unlocked",
		"category", category,
		"title", title,
		"user_id", userID,
	)

	return nil
}
