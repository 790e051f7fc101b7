package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/application/command"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/progress"
)

// captureRecorder records the last batch command it received.
type captureRecorder struct {
	calls  int
	last   command.RecordBatchActivityCommand
	result *command.RecordBatchActivityResult
	err    error
}

func (r *captureRecorder) Handle(_ context.Context, cmd command.RecordBatchActivityCommand) (*command.RecordBatchActivityResult, error) {
	r.calls++
	r.last = cmd
	if r.err != nil {
		return nil, r.err
	}
	if r.result != nil {
		return r.result, nil
	}
	return &command.RecordBatchActivityResult{TotalCount: len(cmd.Activities), SuccessCount: len(cmd.Activities)}, nil
}

func TestActivityWebhookHandler_TranslatesPush(t *testing.T) {
	recorder := &captureRecorder{}
	h := NewActivityWebhookHandler(recorder)

	payload := []byte(`{
		"push_id": "push-42",
		"events": [
			{"user_id": "user-1", "roadmap_id": "go-developer", "kind": "lesson.completed", "step_id": "step-3"},
			{"user_id": "user-1", "roadmap_id": "go-developer", "kind": "TEST_PASSED", "xp_earned": 50, "test_score": 85.0}
		]
	}`)
	require.NoError(t, h.HandleActivityPush(context.Background(), payload))

	require.Equal(t, 1, recorder.calls)
	require.Len(t, recorder.last.Activities, 2)
	assert.Equal(t, "push-42", recorder.last.CorrelationID)

	first := recorder.last.Activities[0]
	assert.Equal(t, progress.KindLessonCompleted, first.Kind)
	assert.Equal(t, "step-3", first.StepID)
	assert.Equal(t, "push-42", first.CorrelationID)

	second := recorder.last.Activities[1]
	assert.Equal(t, progress.KindTestPassed, second.Kind)
	require.NotNil(t, second.TestScore)
	assert.InDelta(t, 85.0, *second.TestScore, 0.001)
}

func TestActivityWebhookHandler_MalformedPayload(t *testing.T) {
	recorder := &captureRecorder{}
	h := NewActivityWebhookHandler(recorder)

	err := h.HandleActivityPush(context.Background(), []byte(`{not json`))
	require.Error(t, err)
	assert.Equal(t, 0, recorder.calls)
}

func TestActivityWebhookHandler_EmptyPushIsNoop(t *testing.T) {
	recorder := &captureRecorder{}
	h := NewActivityWebhookHandler(recorder)

	require.NoError(t, h.HandleActivityPush(context.Background(), []byte(`{"events": []}`)))
	assert.Equal(t, 0, recorder.calls)
}

func TestActivityWebhookHandler_ReportsPerEventErrors(t *testing.T) {
	recorder := &captureRecorder{
		result: &command.RecordBatchActivityResult{
			TotalCount:   1,
			FailedCount:  1,
			Errors:       map[string]error{"0": errors.New("unknown activity kind")},
			SuccessCount: 0,
		},
	}
	h := NewActivityWebhookHandler(recorder)

	var reported []error
	h.SetErrorHandler(func(err error) { reported = append(reported, err) })

	payload := []byte(`{"events": [{"user_id": "user-1", "roadmap_id": "go-developer", "kind": "ghost.kind"}]}`)
	// Per-event failures are surfaced to the error handler, not the caller.
	require.NoError(t, h.HandleActivityPush(context.Background(), payload))
	require.Len(t, reported, 1)
}

func TestActivityWebhookHandler_RegisterKindAlias(t *testing.T) {
	recorder := &captureRecorder{}
	h := NewActivityWebhookHandler(recorder)
	h.RegisterKindAlias("Lesson-Done", progress.KindLessonCompleted)

	payload := []byte(`{"events": [{"user_id": "user-1", "roadmap_id": "go-developer", "kind": "lesson-done"}]}`)
	require.NoError(t, h.HandleActivityPush(context.Background(), payload))
	require.Len(t, recorder.last.Activities, 1)
	assert.Equal(t, progress.KindLessonCompleted, recorder.last.Activities[0].Kind)
}
