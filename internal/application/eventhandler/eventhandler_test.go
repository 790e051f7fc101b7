package eventhandler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

type stubInvalidator struct {
	calls [][2]string
	err   error
}

func (s *stubInvalidator) Invalidate(_ context.Context, userID, roadmapID string) error {
	s.calls = append(s.calls, [2]string{userID, roadmapID})
	return s.err
}

type stubSubscriber struct {
	subscriptions map[shared.EventType][]shared.EventHandler
}

func newStubSubscriber() *stubSubscriber {
	return &stubSubscriber{subscriptions: make(map[shared.EventType][]shared.EventHandler)}
}

func (s *stubSubscriber) Subscribe(t shared.EventType, h shared.EventHandler) error {
	s.subscriptions[t] = append(s.subscriptions[t], h)
	return nil
}

func (s *stubSubscriber) SubscribeAll(h shared.EventHandler) error {
	return nil
}

func TestProgressChangedHandler_InvalidatesOnReset(t *testing.T) {
	cache := &stubInvalidator{}
	handler := NewProgressChangedHandler(cache, nil)

	event := shared.NewProgressResetEvent("user-1", "roadmap-go")
	err := handler.Handle(event)
	require.NoError(t, err)

	require.Len(t, cache.calls, 1)
	assert.Equal(t, "user-1", cache.calls[0][0])
	assert.Equal(t, "roadmap-go", cache.calls[0][1])
}

func TestProgressChangedHandler_IgnoresMalformedPayload(t *testing.T) {
	cache := &stubInvalidator{}
	handler := NewProgressChangedHandler(cache, nil)

	// A sweep completion carries no progress key; the handler must not evict.
	event := shared.NewSweepCompletedEvent(10, 2, 0)
	err := handler.Handle(event)
	require.NoError(t, err)
	assert.Empty(t, cache.calls)
}

func TestProgressChangedHandler_SwallowsCacheErrors(t *testing.T) {
	cache := &stubInvalidator{err: assert.AnError}
	handler := NewProgressChangedHandler(cache, nil)

	event := shared.NewProgressResetEvent("user-1", "roadmap-go")
	err := handler.Handle(event)
	assert.NoError(t, err)
}

func TestProgressChangedHandler_Register(t *testing.T) {
	sub := newStubSubscriber()
	handler := NewProgressChangedHandler(&stubInvalidator{}, nil)

	err := handler.Register(sub)
	require.NoError(t, err)

	assert.Len(t, sub.subscriptions[shared.EventActivityRecorded], 1)
	assert.Len(t, sub.subscriptions[shared.EventStreakBroken], 1)
	assert.Len(t, sub.subscriptions[shared.EventProgressReset], 1)
}

func TestMilestoneUnlockedHandler(t *testing.T) {
	handler := NewMilestoneUnlockedHandler(nil)

	event := shared.NewMilestoneUnlockedEvent(
		"user-1", "roadmap-go", "streak", 7, "Week-long streak", 7)
	err := handler.Handle(event)
	assert.NoError(t, err)

	sub := newStubSubscriber()
	require.NoError(t, handler.Register(sub))
	assert.Len(t, sub.subscriptions[shared.EventMilestoneUnlocked], 1)
}
