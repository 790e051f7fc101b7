// Package postgres implements the PostgreSQL persistence layer for the
// progress engine.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/progress"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS REPOSITORY IMPLEMENTATION
// Stores one row per (user, roadmap). Saves are optimistic: the row version
// must match the loaded version or the write is rejected, backing up the
// per-key single-writer contract enforced by the redis lock.
// ══════════════════════════════════════════════════════════════════════════════

// ProgressRepository implements progress.Repository for PostgreSQL.
type ProgressRepository struct {
	conn *Connection
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(conn *Connection) *ProgressRepository {
	return &ProgressRepository{conn: conn}
}

// heatmapEntryRow is the JSONB shape of one heatmap day.
type heatmapEntryRow struct {
	Date      string `json:"date"`
	Intensity int    `json:"intensity"`
	Tooltip   string `json:"tooltip,omitempty"`
}

// Load returns the record for a key, or shared.ErrProgressNotFound.
func (r *ProgressRepository) Load(ctx context.Context, key shared.ProgressKey) (*progress.Record, error) {
	query := `
		SELECT total_xp, current_streak, best_streak, roadmaps_completed,
		       heatmap, badges, completed_steps, test_scores, activity_counts,
		       last_activity_at, created_at, updated_at, version
		FROM learner_progress
		WHERE user_id = $1 AND roadmap_id = $2
	`

	var (
		totalXP, currentStreak, bestStreak, roadmapsCompleted int
		heatmapJSON, badgesJSON, stepsJSON                    []byte
		scoresJSON, countsJSON                                []byte
		lastActivityAt                                        *time.Time
		createdAt, updatedAt                                  time.Time
		version                                               int
	)

	row := r.conn.QueryRow(ctx, query, string(key.UserID), string(key.RoadmapID))
	err := row.Scan(
		&totalXP, &currentStreak, &bestStreak, &roadmapsCompleted,
		&heatmapJSON, &badgesJSON, &stepsJSON, &scoresJSON, &countsJSON,
		&lastActivityAt, &createdAt, &updatedAt, &version,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProgressNotFound
		}
		return nil, fmt.Errorf("postgres: load progress %s: %w", key, err)
	}

	record := progress.NewRecord(key)
	record.TotalXP = shared.XP(totalXP)
	record.CurrentStreak = currentStreak
	record.BestStreak = bestStreak
	record.RoadmapsCompleted = roadmapsCompleted
	record.CreatedAt = createdAt
	record.UpdatedAt = updatedAt
	record.Version = version

	if err := r.decodeCollections(record, heatmapJSON, badgesJSON, stepsJSON, scoresJSON, countsJSON); err != nil {
		return nil, fmt.Errorf("postgres: decode progress %s: %w", key, err)
	}
	if lastActivityAt != nil {
		record.LastActivityAt = shared.NewDay(*lastActivityAt, time.UTC)
	}

	return record, nil
}

// Save persists a record, bumping its version. A stale version returns
// shared.ErrOptimisticLock.
func (r *ProgressRepository) Save(ctx context.Context, record *progress.Record) error {
	heatmapJSON, badgesJSON, stepsJSON, scoresJSON, countsJSON, err := r.encodeCollections(record)
	if err != nil {
		return fmt.Errorf("postgres: encode progress %s: %w", record.Key, err)
	}

	var lastActivityAt *time.Time
	if !record.LastActivityAt.IsZero() {
		t := record.LastActivityAt.Time()
		lastActivityAt = &t
	}

	query := `
		INSERT INTO learner_progress (
			user_id, roadmap_id, total_xp, current_streak, best_streak,
			roadmaps_completed, heatmap, badges, completed_steps, test_scores,
			activity_counts, last_activity_at, created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (user_id, roadmap_id) DO UPDATE SET
			total_xp = EXCLUDED.total_xp,
			current_streak = EXCLUDED.current_streak,
			best_streak = EXCLUDED.best_streak,
			roadmaps_completed = EXCLUDED.roadmaps_completed,
			heatmap = EXCLUDED.heatmap,
			badges = EXCLUDED.badges,
			completed_steps = EXCLUDED.completed_steps,
			test_scores = EXCLUDED.test_scores,
			activity_counts = EXCLUDED.activity_counts,
			last_activity_at = EXCLUDED.last_activity_at,
			updated_at = EXCLUDED.updated_at,
			version = EXCLUDED.version
		WHERE learner_progress.version = $16
	`

	newVersion := record.Version + 1
	tag, err := r.conn.Exec(ctx, query,
		string(record.Key.UserID),
		string(record.Key.RoadmapID),
		record.TotalXP.Int(),
		record.CurrentStreak,
		record.BestStreak,
		record.RoadmapsCompleted,
		heatmapJSON,
		badgesJSON,
		stepsJSON,
		scoresJSON,
		countsJSON,
		lastActivityAt,
		record.CreatedAt,
		record.UpdatedAt,
		newVersion,
		record.Version,
	)
	if err != nil {
		return fmt.Errorf("postgres: save progress %s: %w", record.Key, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrOptimisticLock
	}

	record.Version = newVersion
	return nil
}

// ListKeys returns every stored progress key.
func (r *ProgressRepository) ListKeys(ctx context.Context) ([]shared.ProgressKey, error) {
	rows, err := r.conn.Query(ctx, `SELECT user_id, roadmap_id FROM learner_progress ORDER BY user_id, roadmap_id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list progress keys: %w", err)
	}
	defer rows.Close()

	var keys []shared.ProgressKey
	for rows.Next() {
		var userID, roadmapID string
		if err := rows.Scan(&userID, &roadmapID); err != nil {
			return nil, fmt.Errorf("postgres: scan progress key: %w", err)
		}
		keys = append(keys, shared.ProgressKey{
			UserID:    shared.UserID(userID),
			RoadmapID: shared.RoadmapID(roadmapID),
		})
	}

	return keys, rows.Err()
}

func (r *ProgressRepository) encodeCollections(record *progress.Record) (heatmap, badges, steps, scores, counts []byte, err error) {
	entries := make([]heatmapEntryRow, 0, len(record.Heatmap))
	for _, e := range record.Heatmap {
		entries = append(entries, heatmapEntryRow{
			Date:      e.Date.String(),
			Intensity: e.Intensity,
			Tooltip:   e.Tooltip,
		})
	}
	if heatmap, err = json.Marshal(entries); err != nil {
		return
	}

	if badges, err = json.Marshal(setToSlice(record.Badges)); err != nil {
		return
	}
	if steps, err = json.Marshal(setToSlice(record.CompletedSteps)); err != nil {
		return
	}

	scoreValues := make([]float64, 0, len(record.TestScores))
	for _, s := range record.TestScores {
		scoreValues = append(scoreValues, s.Float64())
	}
	if scores, err = json.Marshal(scoreValues); err != nil {
		return
	}

	countValues := make(map[string]int, len(record.ActivityCounts))
	for kind, n := range record.ActivityCounts {
		countValues[kind.String()] = n
	}
	counts, err = json.Marshal(countValues)
	return
}

func (r *ProgressRepository) decodeCollections(record *progress.Record, heatmap, badges, steps, scores, counts []byte) error {
	var entries []heatmapEntryRow
	if err := json.Unmarshal(heatmap, &entries); err != nil {
		return fmt.Errorf("heatmap: %w", err)
	}
	record.Heatmap = make([]progress.HeatmapEntry, 0, len(entries))
	for _, e := range entries {
		day, err := shared.ParseDay(e.Date)
		if err != nil {
			return fmt.Errorf("heatmap date %q: %w", e.Date, err)
		}
		record.Heatmap = append(record.Heatmap, progress.HeatmapEntry{
			Date:      day,
			Intensity: e.Intensity,
			Tooltip:   e.Tooltip,
		})
	}

	var badgeNames []string
	if err := json.Unmarshal(badges, &badgeNames); err != nil {
		return fmt.Errorf("badges: %w", err)
	}
	for _, name := range badgeNames {
		record.Badges[name] = true
	}

	var stepIDs []string
	if err := json.Unmarshal(steps, &stepIDs); err != nil {
		return fmt.Errorf("completed steps: %w", err)
	}
	for _, id := range stepIDs {
		record.CompletedSteps[id] = true
	}

	var scoreValues []float64
	if err := json.Unmarshal(scores, &scoreValues); err != nil {
		return fmt.Errorf("test scores: %w", err)
	}
	for _, v := range scoreValues {
		record.TestScores = append(record.TestScores, shared.Percentage(v))
	}

	var countValues map[string]int
	if err := json.Unmarshal(counts, &countValues); err != nil {
		return fmt.Errorf("activity counts: %w", err)
	}
	for kind, n := range countValues {
		record.ActivityCounts[progress.ActivityKind(kind)] = n
	}

	return nil
}

func setToSlice(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
