package platform

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/assessment"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/diagnostic"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/progress"
)

func TestTestDefinitionDTO_Parsing(t *testing.T) {
	jsonData := `{
    "success": true,
    "data": {
        "id": "test-go-w2",
        "roadmap_id": "roadmap-go",
        "step_id": "step-7",
        "kind": "mcq",
        "passing_score": 80,
        "questions": [
            {
                "id": "q1",
                "prompt": "What does a nil map lookup return?",
                "options": ["panic", "zero value", "error", "nil pointer"],
                "correct_index": 1
            },
            {
                "id": "q2",
                "prompt": "Which keyword starts a goroutine?",
                "options": ["spawn", "go", "async", "run"],
                "correct_index": 1
            }
        ],
        "updated_at": "2026-08-01T10:00:00Z"
    }
}`

	var response APIResponse[TestDefinitionDTO]
	err := json.Unmarshal([]byte(jsonData), &response)
	assert.NoError(t, err)
	assert.True(t, response.Success)

	def := response.Data
	assert.Equal(t, "test-go-w2", def.ID)
	assert.Equal(t, "roadmap-go", def.RoadmapID)
	assert.Equal(t, "mcq", def.Kind)
	assert.Equal(t, 80.0, def.PassingScore)
	assert.Len(t, def.Questions, 2)
	assert.Equal(t, 1, def.Questions[0].CorrectIndex)
}

func TestActivityFeedParsing_WithMeta(t *testing.T) {
	jsonData := `{
    "success": true,
    "data": [
        {
            "id": "act-1",
            "user_id": "9ca4322d-ebd5-4ffa-a340-56fe811bbab1",
            "roadmap_id": "roadmap-go",
            "kind": "lesson_completed",
            "step_id": "step-3",
            "xp_earned": 25,
            "occurred_at": "2026-08-30T14:05:00Z"
        },
        {
            "id": "act-2",
            "user_id": "9ca4322d-ebd5-4ffa-a340-56fe811bbab1",
            "roadmap_id": "roadmap-go",
            "kind": "test_passed",
            "xp_earned": 50,
            "test_score": 92.5,
            "occurred_at": "2026-08-30T15:10:00Z"
        }
    ],
    "meta": {"page": 1, "per_page": 200, "total_count": 2, "total_pages": 1}
}`

	var response APIResponse[[]ActivityDTO]
	err := json.Unmarshal([]byte(jsonData), &response)
	assert.NoError(t, err)
	assert.Len(t, response.Data, 2)
	assert.NotNil(t, response.Meta)
	assert.Equal(t, 1, response.Meta.TotalPages)

	first := response.Data[0]
	assert.Equal(t, "lesson_completed", first.Kind)
	assert.Equal(t, 25, first.XPEarned)
	assert.Nil(t, first.TestScore)

	second := response.Data[1]
	assert.NotNil(t, second.TestScore)
	assert.Equal(t, 92.5, *second.TestScore)
}

func TestMapper_TestDefinitionFromDTO(t *testing.T) {
	mapper := NewMapper()

	dto := &TestDefinitionDTO{
		ID:        "test-1",
		RoadmapID: "roadmap-go",
		StepID:    "step-1",
		Kind:      "mcq",
		Questions: []QuestionDTO{
			{ID: "q1", Prompt: "p", Options: []string{"a", "b"}, CorrectIndex: 0},
		},
	}

	def, err := mapper.TestDefinitionFromDTO(dto)
	assert.NoError(t, err)
	assert.Equal(t, assessment.KindMCQ, def.Kind)
	assert.Equal(t, "roadmap-go", def.RoadmapID.String())
	// Passing score was omitted upstream; the default applies.
	assert.Equal(t, assessment.DefaultPassingScore, def.EffectivePassingScore())
}

func TestMapper_TestDefinitionFromDTO_Invalid(t *testing.T) {
	mapper := NewMapper()

	_, err := mapper.TestDefinitionFromDTO(nil)
	assert.Error(t, err)

	// Unknown kind fails domain validation.
	_, err = mapper.TestDefinitionFromDTO(&TestDefinitionDTO{
		ID:        "test-2",
		RoadmapID: "roadmap-go",
		Kind:      "essay",
	})
	assert.Error(t, err)
}

func TestMapper_DiagnosticFromDTO(t *testing.T) {
	mapper := NewMapper()

	dto := &DiagnosticDefinitionDTO{
		ID:     "diag-go",
		Domain: "backend",
		Title:  "Go fundamentals",
		Questions: []DiagnosticQuestionDTO{
			{ID: "q1", Skill: "concurrency", Difficulty: 2, Prompt: "p", Options: []string{"a", "b"}, CorrectIndex: 1},
			{ID: "q2", Skill: "syntax", Difficulty: 1, Prompt: "p", Options: []string{"a", "b"}, CorrectIndex: 0},
		},
	}

	def, err := mapper.DiagnosticFromDTO(dto)
	assert.NoError(t, err)
	assert.Equal(t, "backend", def.Domain)
	assert.Len(t, def.Questions, 2)
	assert.Equal(t, diagnostic.Difficulty(2), def.Questions[0].Difficulty)
}

func TestMapper_ActivityCommandFromDTO(t *testing.T) {
	mapper := NewMapper()

	occurred := time.Date(2026, 8, 30, 14, 5, 0, 0, time.UTC)
	cmd := mapper.ActivityCommandFromDTO(ActivityDTO{
		ID:         "act-1",
		UserID:     "user-1",
		RoadmapID:  "roadmap-go",
		Kind:       "lesson_completed",
		StepID:     "step-3",
		XPEarned:   25,
		OccurredAt: occurred,
	})

	assert.Equal(t, "user-1", cmd.UserID)
	assert.Equal(t, progress.KindLessonCompleted, cmd.Kind)
	assert.Equal(t, 25, cmd.XPEarned)
	assert.Equal(t, occurred, cmd.OccurredAt)
	// Feed entry ID rides along so replayed entries stay deduplicable.
	assert.Equal(t, "feed:act-1", cmd.CorrelationID)
}

func TestCatalogQuery(t *testing.T) {
	assert.Equal(t, "", catalogQuery(CatalogRequestDTO{}))

	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	q := catalogQuery(CatalogRequestDTO{
		RoadmapID:     "roadmap-go",
		ModifiedSince: &since,
		Page:          2,
		PerPage:       100,
	})
	assert.Contains(t, q, "roadmap_id=roadmap-go")
	assert.Contains(t, q, "page=2")
	assert.Contains(t, q, "per_page=100")
	assert.Contains(t, q, "modified_since=")
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, isRetryable(nil))
	assert.True(t, isRetryable(&RateLimitError{RetryAfter: time.Second, Message: "slow down"}))
	assert.True(t, isRetryable(&APIErrorDTO{Code: "SERVER_ERROR", Message: "boom"}))
	assert.False(t, isRetryable(&APIErrorDTO{Code: "NOT_FOUND", Message: "missing"}))
	assert.True(t, isRetryable(errors.New("dial tcp: connection refused")))
	assert.False(t, isRetryable(errors.New("invalid payload")))
}

func TestRateLimitError_Is(t *testing.T) {
	var target *RateLimitError
	err := error(&RateLimitError{RetryAfter: 30 * time.Second, Message: "rate limit exceeded"})
	assert.True(t, errors.As(err, &target))
	assert.Equal(t, 30*time.Second, target.RetryAfter)
}
