package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
	"github.com/JaoharRaihan/WorkIn-sub001/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHER
// Reliable delivery layer between the event bus and the application's event
// subscribers. A handler registered through the dispatcher gets panic
// recovery, per-delivery timeout, retry with backoff, and a dead-letter
// queue for deliveries that exhaust their retries. Cache invalidation and
// milestone side effects subscribe through here so a transient failure
// (redis blip, slow handler) does not silently drop the event.
// ══════════════════════════════════════════════════════════════════════════════

var (
	deliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progress_engine",
		Subsystem: "events",
		Name:      "deliveries_total",
		Help:      "Event deliveries through the dispatcher by handler and outcome.",
	}, []string{"handler", "outcome"})

	deadLetters = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "progress_engine",
		Subsystem: "events",
		Name:      "dead_letters",
		Help:      "Events currently parked in the dead-letter queue.",
	})
)

// DispatcherConfig configures the delivery layer.
type DispatcherConfig struct {
	// Bus is the event bus subscriptions are forwarded to.
	Bus shared.EventSubscriber

	// HandlerTimeout bounds one delivery attempt. Zero means 30s.
	HandlerTimeout time.Duration

	// RetryOptions tune the per-delivery retrier. Defaults: 3 attempts,
	// 100ms initial backoff, 5s cap.
	RetryOptions []retry.Option

	// DeadLetterQueueSize caps the DLQ; oldest entries are evicted first.
	// Zero means 1000.
	DeadLetterQueueSize int

	// Logger for structured logging. Defaults to slog.Default().
	Logger *slog.Logger

	// EnableMetrics exports delivery counters to Prometheus.
	EnableMetrics bool
}

// Dispatcher decorates event subscriptions with delivery guarantees. It
// implements shared.EventSubscriber so application handlers register against
// it exactly as they would against the bus.
type Dispatcher struct {
	bus           shared.EventSubscriber
	retrier       *retry.Retrier
	timeout       time.Duration
	dlq           *DeadLetterQueue
	logger        *slog.Logger
	enableMetrics bool
}

// NewDispatcher creates a dispatcher in front of the given bus.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = 30 * time.Second
	}

	// Deliveries are side effects; any failure is worth retrying unless the
	// handler marks it permanent via retry.Permanent.
	opts := []retry.Option{
		retry.WithMaxAttempts(3),
		retry.WithInitialDelay(100 * time.Millisecond),
		retry.WithMaxDelay(5 * time.Second),
		retry.WithRetryIf(func(error) bool { return true }),
	}
	opts = append(opts, cfg.RetryOptions...)

	return &Dispatcher{
		bus:           cfg.Bus,
		retrier:       retry.New(opts...),
		timeout:       cfg.HandlerTimeout,
		dlq:           NewDeadLetterQueue(cfg.DeadLetterQueueSize),
		logger:        cfg.Logger,
		enableMetrics: cfg.EnableMetrics,
	}
}

// Subscribe registers a handler for one event type, wrapped with the
// dispatcher's delivery guarantees.
func (d *Dispatcher) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	return d.bus.Subscribe(eventType, d.wrap(string(eventType), handler))
}

// SubscribeAll registers a handler for every event type.
func (d *Dispatcher) SubscribeAll(handler shared.EventHandler) error {
	return d.bus.SubscribeAll(d.wrap("all", handler))
}

// DeadLetters returns the dead-letter queue for inspection and redelivery.
func (d *Dispatcher) DeadLetters() *DeadLetterQueue {
	return d.dlq
}

// wrap builds the delivery chain around one handler: recovery, timeout,
// retry, dead-lettering.
func (d *Dispatcher) wrap(name string, handler shared.EventHandler) shared.EventHandler {
	return func(event shared.Event) error {
		attempts := 0
		err := d.retrier.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return d.deliverOnce(ctx, name, handler, event)
		})
		if err == nil {
			if d.enableMetrics {
				deliveriesTotal.WithLabelValues(name, "ok").Inc()
			}
			return nil
		}

		d.dlq.Add(DeadLetterEntry{
			Event:       event,
			HandlerName: name,
			Error:       err,
			Attempts:    attempts,
			FailedAt:    time.Now(),
		})
		if d.enableMetrics {
			deliveriesTotal.WithLabelValues(name, "dead_letter").Inc()
			deadLetters.Set(float64(d.dlq.Size()))
		}
		d.logger.Error("event delivery dead-lettered",
			"handler", name,
			"event_type", event.EventType(),
			"aggregate_id", event.AggregateID(),
			"attempts", attempts,
			"error", err,
		)
		return fmt.Errorf("dispatch %s to %s: %w", event.EventType(), name, err)
	}
}

// deliverOnce runs one attempt under the per-delivery timeout, converting a
// handler panic into an error so the retrier and DLQ see it.
func (d *Dispatcher) deliverOnce(ctx context.Context, name string, handler shared.EventHandler, event shared.Event) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("event handler panic",
					"handler", name,
					"event_type", event.EventType(),
					"panic", r,
					"stack", string(debug.Stack()),
				)
				done <- fmt.Errorf("handler panic: %v", r)
			}
		}()
		done <- handler(event)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("delivery timeout after %v: %w", d.timeout, ctx.Err())
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DEAD LETTER QUEUE
// ══════════════════════════════════════════════════════════════════════════════

// DeadLetterEntry is one delivery that exhausted its retries.
type DeadLetterEntry struct {
	Event       shared.Event
	HandlerName string
	Error       error
	Attempts    int
	FailedAt    time.Time
}

// DeadLetterQueue is a bounded in-memory parking lot for failed deliveries.
// At capacity the oldest entry is evicted.
type DeadLetterQueue struct {
	mu      sync.RWMutex
	entries []DeadLetterEntry
	maxSize int
}

// NewDeadLetterQueue creates a queue holding at most maxSize entries.
func NewDeadLetterQueue(maxSize int) *DeadLetterQueue {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &DeadLetterQueue{maxSize: maxSize}
}

// Add parks a failed delivery.
func (q *DeadLetterQueue) Add(entry DeadLetterEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) >= q.maxSize {
		q.entries = q.entries[1:]
	}
	q.entries = append(q.entries, entry)
}

// Entries returns a copy of the parked entries, oldest first.
func (q *DeadLetterQueue) Entries() []DeadLetterEntry {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]DeadLetterEntry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Size returns the number of parked entries.
func (q *DeadLetterQueue) Size() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.entries)
}

// Pop removes and returns the oldest entry.
func (q *DeadLetterQueue) Pop() (DeadLetterEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return DeadLetterEntry{}, false
	}
	entry := q.entries[0]
	q.entries = q.entries[1:]
	return entry, true
}

// Redeliver pops every parked entry and replays it through the given
// handler. Entries that fail again are re-parked. Returns how many replays
// succeeded.
func (q *DeadLetterQueue) Redeliver(handler shared.EventHandler) int {
	parked := q.drain()

	succeeded := 0
	for _, entry := range parked {
		if err := handler(entry.Event); err != nil {
			entry.Error = err
			entry.Attempts++
			entry.FailedAt = time.Now()
			q.Add(entry)
			continue
		}
		succeeded++
	}
	return succeeded
}

func (q *DeadLetterQueue) drain() []DeadLetterEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	parked := q.entries
	q.entries = nil
	return parked
}
