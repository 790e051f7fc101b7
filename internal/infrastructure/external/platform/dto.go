package platform

import "time"

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE ENVELOPE
// ══════════════════════════════════════════════════════════════════════════════

// APIResponse is the standard platform API response envelope.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// APIErrorDTO is a structured error response from the platform.
type APIErrorDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIErrorDTO) Error() string {
	if e.Details != "" {
		return e.Code + ": " + e.Message + " (" + e.Details + ")"
	}
	return e.Code + ": " + e.Message
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG DTOs
// Checkpoint test and diagnostic definitions as the platform serves them.
// ══════════════════════════════════════════════════════════════════════════════

// QuestionDTO is one multiple-choice question in a checkpoint test.
type QuestionDTO struct {
	ID           string   `json:"id"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// ProblemDTO is one coding problem in a checkpoint test.
type ProblemDTO struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CaseCount int    `json:"case_count"`
}

// RequirementDTO is one project requirement in a checkpoint test.
type RequirementDTO struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Points      int    `json:"points"`
	Required    bool   `json:"required"`
}

// TestDefinitionDTO is a checkpoint test definition from the content catalog.
type TestDefinitionDTO struct {
	ID           string           `json:"id"`
	RoadmapID    string           `json:"roadmap_id"`
	StepID       string           `json:"step_id"`
	Kind         string           `json:"kind"` // mcq, coding, project
	PassingScore float64          `json:"passing_score,omitempty"`
	Questions    []QuestionDTO    `json:"questions,omitempty"`
	Problems     []ProblemDTO     `json:"problems,omitempty"`
	Requirements []RequirementDTO `json:"requirements,omitempty"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// DiagnosticQuestionDTO is one skill-tagged diagnostic question.
type DiagnosticQuestionDTO struct {
	ID           string   `json:"id"`
	Skill        string   `json:"skill"`
	Difficulty   int      `json:"difficulty"` // 1..3
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// DiagnosticDefinitionDTO is a skill diagnostic from the content catalog.
type DiagnosticDefinitionDTO struct {
	ID        string                  `json:"id"`
	Domain    string                  `json:"domain"`
	Title     string                  `json:"title"`
	Questions []DiagnosticQuestionDTO `json:"questions"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// CatalogRequestDTO contains filters for catalog listing endpoints.
type CatalogRequestDTO struct {
	RoadmapID     string
	Domain        string
	ModifiedSince *time.Time
	Page          int
	PerPage       int
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY FEED DTOs
// The platform's pull feed, used by the backfill job when webhook pushes
// were missed.
// ══════════════════════════════════════════════════════════════════════════════

// ActivityDTO is one learner activity from the platform feed.
type ActivityDTO struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RoadmapID        string    `json:"roadmap_id"`
	Kind             string    `json:"kind"`
	StepID           string    `json:"step_id,omitempty"`
	XPEarned         int       `json:"xp_earned"`
	TestScore        *float64  `json:"test_score,omitempty"`
	BadgeEarned      string    `json:"badge_earned,omitempty"`
	TimeSpentMinutes int       `json:"time_spent_minutes,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// ActivityFeedRequestDTO contains filters for the activity feed.
type ActivityFeedRequestDTO struct {
	UserID  string
	Since   *time.Time
	Page    int
	PerPage int
}
