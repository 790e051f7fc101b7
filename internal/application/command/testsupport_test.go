package command

import (
	"context"
	"sync"
	"time"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/assessment"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/diagnostic"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/progress"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
	"github.com/JaoharRaihan/WorkIn-sub001/pkg/timeutil"
)

const (
	testUserID    = "7ed99bd0-87b2-4dbb-a97b-596c3f29c49b"
	testRoadmapID = "flutter-developer"
)

// memoryProgressRepo is an in-memory progress.Repository for handler tests.
type memoryProgressRepo struct {
	mu      sync.Mutex
	records map[string]*progress.Record
	saveErr error
}

func newMemoryProgressRepo() *memoryProgressRepo {
	return &memoryProgressRepo{records: make(map[string]*progress.Record)}
}

func (r *memoryProgressRepo) Load(_ context.Context, key shared.ProgressKey) (*progress.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[key.String()]
	if !ok {
		return nil, shared.ErrProgressNotFound
	}
	return record.Clone(), nil
}

func (r *memoryProgressRepo) Save(_ context.Context, record *progress.Record) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.Key.String()] = record.Clone()
	return nil
}

func (r *memoryProgressRepo) ListKeys(_ context.Context) ([]shared.ProgressKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]shared.ProgressKey, 0, len(r.records))
	for _, record := range r.records {
		keys = append(keys, record.Key)
	}
	return keys, nil
}

// memoryLocker is an in-memory progress.KeyLocker that counts acquisitions.
type memoryLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	acquired int
	failWith error
}

func newMemoryLocker() *memoryLocker {
	return &memoryLocker{held: make(map[string]bool)}
}

func (l *memoryLocker) Acquire(_ context.Context, key shared.ProgressKey) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failWith != nil {
		return nil, l.failWith
	}
	if l.held[key.String()] {
		return nil, shared.ErrKeyLocked
	}
	l.held[key.String()] = true
	l.acquired++
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.held[key.String()] = false
	}, nil
}

// capturePublisher collects published events.
type capturePublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *capturePublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) ofType(t shared.EventType) []shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.Event
	for _, e := range p.events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}

// stubTestRepo serves a fixed set of test definitions.
type stubTestRepo struct {
	tests map[string]assessment.Definition
}

func (r *stubTestRepo) Get(_ context.Context, id string) (assessment.Definition, error) {
	test, ok := r.tests[id]
	if !ok {
		return assessment.Definition{}, shared.ErrTestNotFound
	}
	return test, nil
}

// stubDiagnosticRepo serves a fixed set of diagnostic definitions.
type stubDiagnosticRepo struct {
	diagnostics map[string]diagnostic.Definition
}

func (r *stubDiagnosticRepo) Get(_ context.Context, id string) (diagnostic.Definition, error) {
	diag, ok := r.diagnostics[id]
	if !ok {
		return diagnostic.Definition{}, shared.ErrDiagnosticNotFound
	}
	return diag, nil
}

// memoryAnalysisRepo stores one analysis per learner.
type memoryAnalysisRepo struct {
	mu       sync.Mutex
	analyses map[string]diagnostic.Analysis
}

func newMemoryAnalysisRepo() *memoryAnalysisRepo {
	return &memoryAnalysisRepo{analyses: make(map[string]diagnostic.Analysis)}
}

func (r *memoryAnalysisRepo) SaveAnalysis(_ context.Context, userID string, analysis diagnostic.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analyses[userID] = analysis
	return nil
}

func (r *memoryAnalysisRepo) LatestAnalysis(_ context.Context, userID string) (diagnostic.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	analysis, ok := r.analyses[userID]
	if !ok {
		return diagnostic.Analysis{}, shared.ErrAnalysisNotFound
	}
	return analysis, nil
}

// fixedClock pins the pipeline to a known calendar day.
func fixedClock() *timeutil.FixedClock {
	return timeutil.NewFixedClock(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))
}
