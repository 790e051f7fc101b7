package assessment

import (
	"fmt"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHECKPOINT TEST EVALUATOR
// Pure scoring. The evaluator consumes sandbox verdicts for coding tests;
// it never executes submitted code.
// ══════════════════════════════════════════════════════════════════════════════

// Evaluate scores a submission against its test definition.
//
// Validation failures (answers referencing unknown questions, incomplete
// required project requirements, missing deliverables) return validation
// errors before any scoring happens - they describe a malformed submission,
// not a low score.
func Evaluate(test Definition, sub Submission) (Result, error) {
	if err := test.Validate(); err != nil {
		return Result{}, err
	}

	switch test.Kind {
	case KindMCQ:
		return evaluateMCQ(test, sub)
	case KindCoding:
		return evaluateCoding(test, sub)
	case KindProject:
		return evaluateProject(test, sub)
	default:
		return Result{}, shared.ErrUnknownTestKind
	}
}

// evaluateMCQ scores one unit per question; correct iff the submitted option
// index equals the question's correct index. Unanswered questions count wrong.
func evaluateMCQ(test Definition, sub Submission) (Result, error) {
	known := make(map[string]bool, len(test.Questions))
	for _, q := range test.Questions {
		known[q.ID] = true
	}
	for id := range sub.Answers {
		if !known[id] {
			return Result{}, shared.WrapError("assessment", "Evaluate", shared.ErrValidation,
				fmt.Sprintf("answer references unknown question %q", id), shared.ErrUnknownQuestionAnswer)
		}
	}

	breakdown := make([]UnitResult, 0, len(test.Questions))
	correct := 0
	for _, q := range test.Questions {
		answer, answered := sub.Answers[q.ID]
		ok := answered && answer == q.CorrectIndex
		if ok {
			correct++
		}
		breakdown = append(breakdown, UnitResult{
			UnitID:  q.ID,
			Label:   q.Prompt,
			Correct: ok,
			Points:  boolToPoint(ok),
		})
	}

	return buildResult(test, correct, len(test.Questions), breakdown), nil
}

// evaluateCoding counts a problem correct only if every sandbox case passed.
func evaluateCoding(test Definition, sub Submission) (Result, error) {
	known := make(map[string]bool, len(test.Problems))
	for _, p := range test.Problems {
		known[p.ID] = true
	}
	for id := range sub.CaseVerdicts {
		if !known[id] {
			return Result{}, shared.WrapError("assessment", "Evaluate", shared.ErrValidation,
				fmt.Sprintf("verdicts reference unknown problem %q", id), shared.ErrUnknownQuestionAnswer)
		}
	}

	breakdown := make([]UnitResult, 0, len(test.Problems))
	correct := 0
	for _, p := range test.Problems {
		ok := allCasesPassed(sub.CaseVerdicts[p.ID], p.CaseCount)
		if ok {
			correct++
		}
		breakdown = append(breakdown, UnitResult{
			UnitID:  p.ID,
			Label:   p.Title,
			Correct: ok,
			Points:  boolToPoint(ok),
		})
	}

	return buildResult(test, correct, len(test.Problems), breakdown), nil
}

// evaluateProject gates on required requirements and an attached deliverable,
// then scores completed points over the total point pool.
func evaluateProject(test Definition, sub Submission) (Result, error) {
	if !sub.HasDeliverable() {
		return Result{}, shared.ErrMissingDeliverable
	}

	known := make(map[string]Requirement, len(test.Requirements))
	for _, r := range test.Requirements {
		known[r.ID] = r
	}

	completed := make(map[string]bool, len(sub.CompletedRequirementIDs))
	for _, id := range sub.CompletedRequirementIDs {
		if _, ok := known[id]; !ok {
			return Result{}, shared.WrapError("assessment", "Evaluate", shared.ErrValidation,
				fmt.Sprintf("submission references unknown requirement %q", id), shared.ErrUnknownQuestionAnswer)
		}
		completed[id] = true
	}

	// Every required requirement must be complete, whatever the points say.
	for _, r := range test.Requirements {
		if r.Required && !completed[r.ID] {
			return Result{}, shared.WrapError("assessment", "Evaluate", shared.ErrValidation,
				fmt.Sprintf("required requirement %q is incomplete", r.ID), shared.ErrRequiredIncomplete)
		}
	}

	breakdown := make([]UnitResult, 0, len(test.Requirements))
	earned, total := 0, 0
	for _, r := range test.Requirements {
		total += r.Points
		points := 0
		if completed[r.ID] {
			points = r.Points
			earned += r.Points
		}
		breakdown = append(breakdown, UnitResult{
			UnitID:  r.ID,
			Label:   r.Description,
			Correct: completed[r.ID],
			Points:  points,
		})
	}

	return buildResult(test, earned, total, breakdown), nil
}

func buildResult(test Definition, score, total int, breakdown []UnitResult) Result {
	percentage := shared.NewPercentage(float64(score), float64(total))
	passed := percentage.AtLeast(test.EffectivePassingScore())

	return Result{
		TestID:     test.ID,
		Kind:       test.Kind,
		Score:      score,
		TotalUnits: total,
		Percentage: percentage,
		Passed:     passed,
		Breakdown:  breakdown,
		Feedback:   BuildFeedback(passed, percentage, breakdown),
	}
}

func allCasesPassed(verdicts []bool, caseCount int) bool {
	if len(verdicts) == 0 || (caseCount > 0 && len(verdicts) != caseCount) {
		return false
	}
	for _, v := range verdicts {
		if !v {
			return false
		}
	}
	return true
}

func boolToPoint(ok bool) int {
	if ok {
		return 1
	}
	return 0
}
