// Package handlers contains HTTP handler interfaces and implementations.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/application/command"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY WEBHOOK HANDLER
// The learning platform pushes activity events over a webhook instead of
// calling the API per event. A push carries one or more events; each event
// becomes one pipeline run.
// ══════════════════════════════════════════════════════════════════════════════

// ActivityPush is the webhook payload from the learning platform.
type ActivityPush struct {
	Source string              `json:"source,omitempty"`
	PushID string              `json:"push_id,omitempty"`
	Events []ActivityPushEvent `json:"events"`
}

// ActivityPushEvent is one activity inside a push.
type ActivityPushEvent struct {
	UserID           string    `json:"user_id"`
	RoadmapID        string    `json:"roadmap_id"`
	Kind             string    `json:"kind"`
	StepID           string    `json:"step_id,omitempty"`
	XPEarned         int       `json:"xp_earned,omitempty"`
	TestScore        *float64  `json:"test_score,omitempty"`
	BadgeEarned      string    `json:"badge_earned,omitempty"`
	TimeSpentMinutes int       `json:"time_spent_minutes,omitempty"`
	OccurredAt       time.Time `json:"occurred_at,omitempty"`
}

// BatchRecorder runs a batch of activity events through the pipeline.
type BatchRecorder interface {
	Handle(ctx context.Context, cmd command.RecordBatchActivityCommand) (*command.RecordBatchActivityResult, error)
}

// ActivityWebhookHandlerImpl implements WebhookHandler for the learning
// platform's activity feed.
type ActivityWebhookHandlerImpl struct {
	mu           sync.RWMutex
	recorder     BatchRecorder
	kindAliases  map[string]progress.ActivityKind
	errorHandler func(error)
}

// NewActivityWebhookHandler creates a new activity webhook handler.
func NewActivityWebhookHandler(recorder BatchRecorder) *ActivityWebhookHandlerImpl {
	return &ActivityWebhookHandlerImpl{
		recorder: recorder,
		// The platform's feed uses dotted lowercase names.
		kindAliases: map[string]progress.ActivityKind{
			"lesson.completed":  progress.KindLessonCompleted,
			"test.passed":       progress.KindTestPassed,
			"project.submitted": progress.KindProjectSubmitted,
			"streak.maintained": progress.KindStreakMaintained,
			"badge.earned":      progress.KindBadgeEarned,
			"roadmap.completed": progress.KindRoadmapCompleted,
			"score.perfect":     progress.KindPerfectScore,
			"help.given":        progress.KindHelpGiven,
		},
	}
}

// RegisterKindAlias maps an additional platform kind name onto an activity
// kind. Canonical uppercase names always pass through unchanged.
func (h *ActivityWebhookHandlerImpl) RegisterKindAlias(alias string, kind progress.ActivityKind) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.kindAliases[strings.ToLower(alias)] = kind
}

// SetErrorHandler sets the per-event error handler.
func (h *ActivityWebhookHandlerImpl) SetErrorHandler(handler func(error)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errorHandler = handler
}

// HandleActivityPush processes an activity push from the learning platform.
func (h *ActivityWebhookHandlerImpl) HandleActivityPush(ctx context.Context, payload []byte) error {
	var push ActivityPush
	if err := json.Unmarshal(payload, &push); err != nil {
		return fmt.Errorf("failed to parse activity push: %w", err)
	}
	if len(push.Events) == 0 {
		return nil
	}

	cmd := command.RecordBatchActivityCommand{
		CorrelationID: push.PushID,
		Activities:    make([]command.RecordActivityCommand, 0, len(push.Events)),
	}
	for _, e := range push.Events {
		cmd.Activities = append(cmd.Activities, command.RecordActivityCommand{
			UserID:           e.UserID,
			RoadmapID:        e.RoadmapID,
			Kind:             h.resolveKind(e.Kind),
			StepID:           e.StepID,
			XPEarned:         e.XPEarned,
			TestScore:        e.TestScore,
			BadgeEarned:      e.BadgeEarned,
			TimeSpentMinutes: e.TimeSpentMinutes,
			OccurredAt:       e.OccurredAt,
			CorrelationID:    push.PushID,
		})
	}

	result, err := h.recorder.Handle(ctx, cmd)
	if err != nil {
		return err
	}

	// Per-event failures are reported, not returned: the platform retries
	// whole pushes, and replaying the succeeded events is harmless but noisy.
	for _, itemErr := range result.Errors {
		h.handleError(itemErr)
	}

	return nil
}

// resolveKind translates a platform kind name into an activity kind.
func (h *ActivityWebhookHandlerImpl) resolveKind(name string) progress.ActivityKind {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if kind, ok := h.kindAliases[strings.ToLower(name)]; ok {
		return kind
	}
	return progress.ActivityKind(name)
}

// handleError calls the error handler if set.
func (h *ActivityWebhookHandlerImpl) handleError(err error) {
	h.mu.RLock()
	handler := h.errorHandler
	h.mu.RUnlock()

	if handler != nil && err != nil {
		handler(err)
	}
}
