package messaging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
	"github.com/JaoharRaihan/WorkIn-sub001/pkg/retry"
)

// recordingBus captures the wrapped handlers the dispatcher forwards, so
// tests can invoke them directly.
type recordingBus struct {
	byType map[shared.EventType]shared.EventHandler
	all    shared.EventHandler
}

func newRecordingBus() *recordingBus {
	return &recordingBus{byType: make(map[shared.EventType]shared.EventHandler)}
}

func (b *recordingBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	b.byType[eventType] = handler
	return nil
}

func (b *recordingBus) SubscribeAll(handler shared.EventHandler) error {
	b.all = handler
	return nil
}

func testDispatcher(bus *recordingBus) *Dispatcher {
	return NewDispatcher(DispatcherConfig{
		Bus: bus,
		RetryOptions: []retry.Option{
			retry.WithInitialDelay(time.Millisecond),
			retry.WithMaxDelay(time.Millisecond),
		},
	})
}

func TestDispatcher_RetriesTransientFailure(t *testing.T) {
	bus := newRecordingBus()
	d := testDispatcher(bus)

	calls := 0
	err := d.Subscribe(shared.EventProgressReset, func(shared.Event) error {
		calls++
		if calls < 3 {
			return errors.New("cache briefly unavailable")
		}
		return nil
	})
	require.NoError(t, err)

	evt := shared.NewProgressResetEvent("user-1", "roadmap-go")
	require.NoError(t, bus.byType[shared.EventProgressReset](evt))

	assert.Equal(t, 3, calls)
	assert.Equal(t, 0, d.DeadLetters().Size())
}

func TestDispatcher_DeadLettersAfterExhaustedRetries(t *testing.T) {
	bus := newRecordingBus()
	d := testDispatcher(bus)

	calls := 0
	require.NoError(t, d.Subscribe(shared.EventProgressReset, func(shared.Event) error {
		calls++
		return errors.New("persistent failure")
	}))

	evt := shared.NewProgressResetEvent("user-1", "roadmap-go")
	err := bus.byType[shared.EventProgressReset](evt)
	require.Error(t, err)

	assert.Equal(t, 3, calls)
	require.Equal(t, 1, d.DeadLetters().Size())
	entry, ok := d.DeadLetters().Pop()
	require.True(t, ok)
	assert.Equal(t, string(shared.EventProgressReset), entry.HandlerName)
	assert.Equal(t, 3, entry.Attempts)
	assert.Equal(t, shared.EventProgressReset, entry.Event.EventType())
}

func TestDispatcher_RecoversHandlerPanic(t *testing.T) {
	bus := newRecordingBus()
	d := testDispatcher(bus)

	require.NoError(t, d.SubscribeAll(func(shared.Event) error {
		panic("corrupt payload")
	}))

	err := bus.all(shared.NewProgressResetEvent("user-1", "roadmap-go"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
	assert.Equal(t, 1, d.DeadLetters().Size())
}

func TestDeadLetterQueue_RedeliverReplaysAndReparks(t *testing.T) {
	q := NewDeadLetterQueue(10)
	q.Add(DeadLetterEntry{Event: shared.NewProgressResetEvent("user-1", "roadmap-go"), HandlerName: "h"})
	q.Add(DeadLetterEntry{Event: shared.NewProgressResetEvent("user-2", "roadmap-go"), HandlerName: "h"})

	succeeded := q.Redeliver(func(evt shared.Event) error {
		if evt.AggregateID() == "user-2" {
			return errors.New("still failing")
		}
		return nil
	})

	assert.Equal(t, 1, succeeded)
	require.Equal(t, 1, q.Size())
	entry, _ := q.Pop()
	assert.Equal(t, "user-2", entry.Event.AggregateID())
}

func TestDeadLetterQueue_EvictsOldestAtCapacity(t *testing.T) {
	q := NewDeadLetterQueue(2)
	q.Add(DeadLetterEntry{HandlerName: "first"})
	q.Add(DeadLetterEntry{HandlerName: "second"})
	q.Add(DeadLetterEntry{HandlerName: "third"})

	entries := q.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].HandlerName)
	assert.Equal(t, "third", entries[1].HandlerName)
}
