package assessment

import (
	"fmt"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FEEDBACK GENERATION
// Deterministic given (passed, percentage). The engine exposes the tier and
// structured recommendation kinds; localized copy belongs to the caller.
// ══════════════════════════════════════════════════════════════════════════════

// Tier bands the feedback by score.
type Tier string

const (
	// TierExcellent - 90% and above.
	TierExcellent Tier = "excellent"

	// TierGood - 80 to 89%.
	TierGood Tier = "good"

	// TierPassed - 70 to 79%: passed, but the material needs reinforcing.
	TierPassed Tier = "passed"

	// TierRetry - below the pass bar.
	TierRetry Tier = "retry"
)

// RecommendationKind is a structured next-step suggestion. Callers map kinds
// to localized copy and navigation.
type RecommendationKind string

const (
	RecommendAdvance         RecommendationKind = "advance"
	RecommendReviewMaterials RecommendationKind = "review-materials"
	RecommendRetake          RecommendationKind = "retake"
	RecommendSeekHelp        RecommendationKind = "seek-help"
)

// Feedback is the structured evaluation feedback.
type Feedback struct {
	Tier            Tier
	Overall         string
	Strengths       []string
	Improvements    []string
	Recommendations []RecommendationKind
}

// tierFor bands a percentage. Tier boundaries are inclusive at the bottom.
func tierFor(passed bool, percentage shared.Percentage) Tier {
	switch {
	case percentage.AtLeast(90):
		return TierExcellent
	case percentage.AtLeast(80):
		return TierGood
	case passed:
		return TierPassed
	default:
		return TierRetry
	}
}

// BuildFeedback derives the feedback block from a scored breakdown.
func BuildFeedback(passed bool, percentage shared.Percentage, breakdown []UnitResult) Feedback {
	tier := tierFor(passed, percentage)

	fb := Feedback{
		Tier:    tier,
		Overall: overallMessage(tier, percentage),
	}

	for _, unit := range breakdown {
		if unit.Correct {
			fb.Strengths = append(fb.Strengths, unit.Label)
		} else {
			fb.Improvements = append(fb.Improvements, unit.Label)
		}
	}

	switch tier {
	case TierExcellent:
		fb.Recommendations = []RecommendationKind{RecommendAdvance}
	case TierGood:
		fb.Recommendations = []RecommendationKind{RecommendAdvance, RecommendReviewMaterials}
	case TierPassed:
		fb.Recommendations = []RecommendationKind{RecommendReviewMaterials, RecommendAdvance}
	case TierRetry:
		fb.Recommendations = []RecommendationKind{RecommendReviewMaterials, RecommendRetake}
		if !percentage.AtLeast(50) {
			fb.Recommendations = append(fb.Recommendations, RecommendSeekHelp)
		}
	}

	return fb
}

func overallMessage(tier Tier, percentage shared.Percentage) string {
	switch tier {
	case TierExcellent:
		return fmt.Sprintf("Outstanding work - %s. You are ready for the next step.", percentage)
	case TierGood:
		return fmt.Sprintf("Solid result at %s. A quick review will make it stick.", percentage)
	case TierPassed:
		return fmt.Sprintf("Passed with %s. Reinforce the weak spots before moving on.", percentage)
	default:
		return fmt.Sprintf("Scored %s - below the pass bar. Review the material and try again.", percentage)
	}
}
