package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/assessment"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/diagnostic"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG REPOSITORIES
// Test and diagnostic definitions are authored content, written rarely and
// read on every submission. The full document lives in a JSONB body column;
// the relational columns exist only for lookups and listing.
// ══════════════════════════════════════════════════════════════════════════════

// TestRepository implements assessment.Repository for PostgreSQL.
type TestRepository struct {
	conn *Connection
}

// NewTestRepository creates a new TestRepository.
func NewTestRepository(conn *Connection) *TestRepository {
	return &TestRepository{conn: conn}
}

// Get returns a test definition by ID, or shared.ErrTestNotFound.
func (r *TestRepository) Get(ctx context.Context, id string) (assessment.Definition, error) {
	var body []byte
	row := r.conn.QueryRow(ctx, `SELECT body FROM test_definitions WHERE id = $1`, id)
	if err := row.Scan(&body); err != nil {
		if IsNoRows(err) {
			return assessment.Definition{}, shared.ErrTestNotFound
		}
		return assessment.Definition{}, fmt.Errorf("postgres: get test %s: %w", id, err)
	}

	var def assessment.Definition
	if err := json.Unmarshal(body, &def); err != nil {
		return assessment.Definition{}, fmt.Errorf("postgres: decode test %s: %w", id, err)
	}
	return def, nil
}

// Put stores a test definition, replacing any previous version.
func (r *TestRepository) Put(ctx context.Context, def assessment.Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("postgres: encode test %s: %w", def.ID, err)
	}

	query := `
		INSERT INTO test_definitions (id, roadmap_id, step_id, kind, body)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			roadmap_id = EXCLUDED.roadmap_id,
			step_id = EXCLUDED.step_id,
			kind = EXCLUDED.kind,
			body = EXCLUDED.body
	`
	if _, err := r.conn.Exec(ctx, query, def.ID, string(def.RoadmapID), def.StepID, string(def.Kind), body); err != nil {
		return fmt.Errorf("postgres: put test %s: %w", def.ID, err)
	}
	return nil
}

// DiagnosticRepository implements diagnostic.Repository for PostgreSQL.
type DiagnosticRepository struct {
	conn *Connection
}

// NewDiagnosticRepository creates a new DiagnosticRepository.
func NewDiagnosticRepository(conn *Connection) *DiagnosticRepository {
	return &DiagnosticRepository{conn: conn}
}

// Get returns a diagnostic definition by ID, or shared.ErrDiagnosticNotFound.
func (r *DiagnosticRepository) Get(ctx context.Context, id string) (diagnostic.Definition, error) {
	var body []byte
	row := r.conn.QueryRow(ctx, `SELECT body FROM diagnostic_definitions WHERE id = $1`, id)
	if err := row.Scan(&body); err != nil {
		if IsNoRows(err) {
			return diagnostic.Definition{}, shared.ErrDiagnosticNotFound
		}
		return diagnostic.Definition{}, fmt.Errorf("postgres: get diagnostic %s: %w", id, err)
	}

	var def diagnostic.Definition
	if err := json.Unmarshal(body, &def); err != nil {
		return diagnostic.Definition{}, fmt.Errorf("postgres: decode diagnostic %s: %w", id, err)
	}
	return def, nil
}

// Put stores a diagnostic definition, replacing any previous version.
func (r *DiagnosticRepository) Put(ctx context.Context, def diagnostic.Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("postgres: encode diagnostic %s: %w", def.ID, err)
	}

	query := `
		INSERT INTO diagnostic_definitions (id, domain, body)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			domain = EXCLUDED.domain,
			body = EXCLUDED.body
	`
	if _, err := r.conn.Exec(ctx, query, def.ID, def.Domain, body); err != nil {
		return fmt.Errorf("postgres: put diagnostic %s: %w", def.ID, err)
	}
	return nil
}

// AnalysisRepository implements diagnostic.AnalysisRepository for PostgreSQL.
// One row per learner; a retaken diagnostic overwrites the previous analysis.
type AnalysisRepository struct {
	conn *Connection
}

// NewAnalysisRepository creates a new AnalysisRepository.
func NewAnalysisRepository(conn *Connection) *AnalysisRepository {
	return &AnalysisRepository{conn: conn}
}

// SaveAnalysis stores a learner's analysis, replacing any previous one.
func (r *AnalysisRepository) SaveAnalysis(ctx context.Context, userID string, analysis diagnostic.Analysis) error {
	body, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("postgres: encode analysis for %s: %w", userID, err)
	}

	query := `
		INSERT INTO skill_analyses (user_id, diagnostic_id, domain, overall_level, body, scored_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			diagnostic_id = EXCLUDED.diagnostic_id,
			domain = EXCLUDED.domain,
			overall_level = EXCLUDED.overall_level,
			body = EXCLUDED.body,
			scored_at = EXCLUDED.scored_at
	`
	_, err = r.conn.Exec(ctx, query,
		userID, analysis.DiagnosticID, analysis.Domain,
		string(analysis.OverallLevel), body, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("postgres: save analysis for %s: %w", userID, err)
	}
	return nil
}

// LatestAnalysis returns the learner's most recent analysis, or
// shared.ErrAnalysisNotFound.
func (r *AnalysisRepository) LatestAnalysis(ctx context.Context, userID string) (diagnostic.Analysis, error) {
	var body []byte
	row := r.conn.QueryRow(ctx, `SELECT body FROM skill_analyses WHERE user_id = $1`, userID)
	if err := row.Scan(&body); err != nil {
		if IsNoRows(err) {
			return diagnostic.Analysis{}, shared.ErrAnalysisNotFound
		}
		return diagnostic.Analysis{}, fmt.Errorf("postgres: get analysis for %s: %w", userID, err)
	}

	var analysis diagnostic.Analysis
	if err := json.Unmarshal(body, &analysis); err != nil {
		return diagnostic.Analysis{}, fmt.Errorf("postgres: decode analysis for %s: %w", userID, err)
	}
	return analysis, nil
}
