package platform

import (
	"fmt"
	"strings"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/application/command"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/assessment"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/diagnostic"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/progress"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAPPER
// Converts platform API DTOs into domain types. All validation that the
// domain cares about happens in the domain constructors; the mapper only
// reshapes the wire format.
// ══════════════════════════════════════════════════════════════════════════════

// Mapper converts platform DTOs to domain types.
type Mapper struct{}

// NewMapper creates a new Mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// TestDefinitionFromDTO converts a catalog test DTO to a domain definition.
func (m *Mapper) TestDefinitionFromDTO(dto *TestDefinitionDTO) (assessment.Definition, error) {
	if dto == nil {
		return assessment.Definition{}, fmt.Errorf("mapper: nil test definition")
	}

	rid, err := shared.NewRoadmapID(dto.RoadmapID)
	if err != nil {
		return assessment.Definition{}, fmt.Errorf("mapper: test %s: %w", dto.ID, err)
	}

	def := assessment.Definition{
		ID:           dto.ID,
		RoadmapID:    rid,
		StepID:       dto.StepID,
		Kind:         assessment.Kind(dto.Kind),
		PassingScore: dto.PassingScore,
	}

	for _, q := range dto.Questions {
		def.Questions = append(def.Questions, assessment.Question{
			ID:           q.ID,
			Prompt:       q.Prompt,
			Options:      q.Options,
			CorrectIndex: q.CorrectIndex,
		})
	}
	for _, p := range dto.Problems {
		def.Problems = append(def.Problems, assessment.Problem{
			ID:        p.ID,
			Title:     p.Title,
			CaseCount: p.CaseCount,
		})
	}
	for _, r := range dto.Requirements {
		def.Requirements = append(def.Requirements, assessment.Requirement{
			ID:          r.ID,
			Description: r.Description,
			Points:      r.Points,
			Required:    r.Required,
		})
	}

	if err := def.Validate(); err != nil {
		return assessment.Definition{}, fmt.Errorf("mapper: test %s: %w", dto.ID, err)
	}
	return def, nil
}

// DiagnosticFromDTO converts a catalog diagnostic DTO to a domain definition.
func (m *Mapper) DiagnosticFromDTO(dto *DiagnosticDefinitionDTO) (diagnostic.Definition, error) {
	if dto == nil {
		return diagnostic.Definition{}, fmt.Errorf("mapper: nil diagnostic definition")
	}

	def := diagnostic.Definition{
		ID:     dto.ID,
		Domain: dto.Domain,
		Title:  dto.Title,
	}
	for _, q := range dto.Questions {
		def.Questions = append(def.Questions, diagnostic.Question{
			ID:           q.ID,
			Skill:        q.Skill,
			Difficulty:   diagnostic.Difficulty(q.Difficulty),
			Prompt:       q.Prompt,
			Options:      q.Options,
			CorrectIndex: q.CorrectIndex,
		})
	}

	if err := def.Validate(); err != nil {
		return diagnostic.Definition{}, fmt.Errorf("mapper: diagnostic %s: %w", dto.ID, err)
	}
	return def, nil
}

// ActivityCommandFromDTO converts a feed activity to a record command.
// The correlation ID carries the feed entry ID so replays stay traceable.
func (m *Mapper) ActivityCommandFromDTO(dto ActivityDTO) command.RecordActivityCommand {
	return command.RecordActivityCommand{
		UserID:           dto.UserID,
		RoadmapID:        dto.RoadmapID,
		Kind:             progress.ActivityKind(strings.ToUpper(dto.Kind)),
		StepID:           dto.StepID,
		XPEarned:         dto.XPEarned,
		TestScore:        dto.TestScore,
		BadgeEarned:      dto.BadgeEarned,
		TimeSpentMinutes: dto.TimeSpentMinutes,
		OccurredAt:       dto.OccurredAt,
		CorrelationID:    "feed:" + dto.ID,
	}
}
