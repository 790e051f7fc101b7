package query

import (
	"context"
	"fmt"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/diagnostic"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET RECOMMENDED ROADMAPS QUERY
// Re-runs roadmap personalization from the learner's last stored skill
// analysis. Recommendations stay current with the template catalog without
// re-taking the diagnostic.
// ══════════════════════════════════════════════════════════════════════════════

// GetRecommendedRoadmapsQuery contains parameters for recommendations.
type GetRecommendedRoadmapsQuery struct {
	// UserID is the learner's ID.
	UserID string
}

// Validate checks the query parameters.
func (q GetRecommendedRoadmapsQuery) Validate() error {
	if q.UserID == "" {
		return shared.NewDomainError("get_recommended_roadmaps", "Validate", shared.ErrValidation, "user_id is required")
	}
	return nil
}

// RecommendedRoadmapsDTO contains the personalized roadmap set.
type RecommendedRoadmapsDTO struct {
	UserID       string                           `json:"user_id"`
	OverallLevel string                           `json:"overall_level"`
	Domain       string                           `json:"domain"`
	Roadmaps     []diagnostic.PersonalizedRoadmap `json:"roadmaps"`
}

// GetRecommendedRoadmapsHandler handles the GetRecommendedRoadmapsQuery.
type GetRecommendedRoadmapsHandler struct {
	analyses     diagnostic.AnalysisRepository
	personalizer *diagnostic.Personalizer
}

// NewGetRecommendedRoadmapsHandler creates a new handler. A nil personalizer
// uses the built-in template catalog.
func NewGetRecommendedRoadmapsHandler(
	analyses diagnostic.AnalysisRepository,
	personalizer *diagnostic.Personalizer,
) *GetRecommendedRoadmapsHandler {
	if personalizer == nil {
		personalizer = diagnostic.NewPersonalizer(nil)
	}
	return &GetRecommendedRoadmapsHandler{analyses: analyses, personalizer: personalizer}
}

// Handle returns the personalized roadmaps, or shared.ErrAnalysisNotFound
// when the learner has never taken a diagnostic.
func (h *GetRecommendedRoadmapsHandler) Handle(ctx context.Context, q GetRecommendedRoadmapsQuery) (*RecommendedRoadmapsDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	analysis, err := h.analyses.LatestAnalysis(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("get_recommended_roadmaps: load analysis: %w", err)
	}

	return &RecommendedRoadmapsDTO{
		UserID:       q.UserID,
		OverallLevel: string(analysis.OverallLevel),
		Domain:       analysis.Domain,
		Roadmaps:     h.personalizer.Generate(analysis),
	}, nil
}
