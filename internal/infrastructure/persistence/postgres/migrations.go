// Package postgres implements the PostgreSQL persistence layer for the
// progress engine.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE LEARNER PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create learner_progress table
-- Version: 001

-- One row per (user, roadmap). The heatmap and the badge/step sets live in
-- JSONB: they are read and written whole by the pipeline, never queried
-- per-element.
CREATE TABLE IF NOT EXISTS learner_progress (
    user_id UUID NOT NULL,
    roadmap_id VARCHAR(100) NOT NULL,
    total_xp INTEGER NOT NULL DEFAULT 0,
    current_streak INTEGER NOT NULL DEFAULT 0,
    best_streak INTEGER NOT NULL DEFAULT 0,
    roadmaps_completed INTEGER NOT NULL DEFAULT 0,
    heatmap JSONB NOT NULL DEFAULT '[]'::jsonb,
    badges JSONB NOT NULL DEFAULT '[]'::jsonb,
    completed_steps JSONB NOT NULL DEFAULT '[]'::jsonb,
    test_scores JSONB NOT NULL DEFAULT '[]'::jsonb,
    activity_counts JSONB NOT NULL DEFAULT '{}'::jsonb,
    last_activity_at DATE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    version BIGINT NOT NULL DEFAULT 0,

    PRIMARY KEY (user_id, roadmap_id),

    -- Constraints for data integrity
    CONSTRAINT valid_xp CHECK (total_xp >= 0),
    CONSTRAINT valid_streaks CHECK (
        current_streak >= 0 AND best_streak >= 0 AND current_streak <= best_streak
    ),
    CONSTRAINT valid_roadmaps_completed CHECK (roadmaps_completed >= 0)
);

-- The worker sweep scans by staleness
CREATE INDEX IF NOT EXISTS idx_learner_progress_last_activity
    ON learner_progress(last_activity_at)
    WHERE current_streak > 0;

CREATE INDEX IF NOT EXISTS idx_learner_progress_user
    ON learner_progress(user_id);
`

const migration001Down = `
DROP TABLE IF EXISTS learner_progress;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE CATALOGS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create test and diagnostic definition catalogs
-- Version: 002

-- Definitions are immutable and versioned by ID; the body is the full
-- definition document.
CREATE TABLE IF NOT EXISTS test_definitions (
    id VARCHAR(100) PRIMARY KEY,
    roadmap_id VARCHAR(100) NOT NULL,
    step_id VARCHAR(100) NOT NULL DEFAULT '',
    kind VARCHAR(20) NOT NULL,
    body JSONB NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_kind CHECK (kind IN ('mcq', 'coding', 'project'))
);

CREATE INDEX IF NOT EXISTS idx_test_definitions_roadmap
    ON test_definitions(roadmap_id, step_id);

CREATE TABLE IF NOT EXISTS diagnostic_definitions (
    id VARCHAR(100) PRIMARY KEY,
    domain VARCHAR(100) NOT NULL,
    body JSONB NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_diagnostic_definitions_domain
    ON diagnostic_definitions(domain);
`

const migration002Down = `
DROP TABLE IF EXISTS diagnostic_definitions;
DROP TABLE IF EXISTS test_definitions;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE SKILL ANALYSES
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create skill_analyses table
-- Version: 003

-- Latest diagnostic analysis per learner. Roadmap recommendations are
-- re-derived from this row instead of re-running the diagnostic.
CREATE TABLE IF NOT EXISTS skill_analyses (
    user_id UUID PRIMARY KEY,
    diagnostic_id VARCHAR(100) NOT NULL,
    domain VARCHAR(100) NOT NULL,
    overall_level VARCHAR(20) NOT NULL,
    body JSONB NOT NULL,
    scored_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_level CHECK (overall_level IN ('beginner', 'intermediate', 'advanced'))
);
`

const migration003Down = `
DROP TABLE IF EXISTS skill_analyses;
`
