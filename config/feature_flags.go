package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles and A/B testing.
// Supports gradual rollout, user targeting, and cohort-based experiments.
type FeatureFlags struct {
	mu sync.RWMutex

	// Core features
	features map[string]*Feature

	// Override rules (for testing/debugging)
	userOverrides map[string]map[string]bool // userID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Users are assigned based on hash of their ID
	RolloutPercent int

	// Cohort targeting (e.g., "2026-spring", "2026-fall")
	// Empty means all cohorts
	TargetCohorts []string

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time

	// A/B test variant (for experiments)
	Variants []string
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	UserID  string // Learner ID
	Cohort  string // Learner cohort (e.g., "2026-spring")
	IsAdmin bool   // Is admin user
}

// Predefined feature flag names.
const (
	// === Gamification Features ===
	FeatureGamificationStreaks    = "gamification.streaks"     // Daily streaks
	FeatureGamificationMilestones = "gamification.milestones"  // Milestone badges
	FeatureGamificationPerfectXP  = "gamification.perfect_xp"  // Perfect-score bonus XP
	FeatureGamificationStreakSave = "gamification.streak_save" // Same-day streak recovery

	// === Heatmap Features ===
	FeatureHeatmapTooltips  = "heatmap.tooltips"  // Per-cell tooltips
	FeatureHeatmapWideRange = "heatmap.widerange" // Windows beyond one year

	// === Recommendation Features ===
	FeatureRecommendRoadmaps = "recommend.roadmaps" // Diagnostic-driven roadmap ranking
	FeatureRecommendRefresh  = "recommend.refresh"  // Re-rank on every new analysis

	// === Checkpoint Features ===
	FeatureCheckpointPartialCredit = "checkpoint.partial_credit" // Per-question partial scores
	FeatureCheckpointRetries       = "checkpoint.retries"        // Unlimited retakes

	// === Webhook Features ===
	FeatureWebhookActivityPush = "webhook.activity_push" // Platform push ingestion
	FeatureWebhookBatching     = "webhook.batching"      // Batch endpoint for backfills

	// === Experimental Features ===
	FeatureExperimentalAI        = "experimental.ai_suggestions" // AI-powered study suggestions
	FeatureExperimentalAnalytics = "experimental.analytics"      // Advanced analytics
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:      make(map[string]*Feature),
		userOverrides: make(map[string]map[string]bool),
	}

	// Initialize all features with defaults
	ff.initializeDefaults()

	// Load overrides from environment
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	// Gamification features - core to the engine, enabled by default
	ff.features[FeatureGamificationStreaks] = &Feature{
		Name:           FeatureGamificationStreaks,
		Description:    "Track daily learning streaks",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureGamificationMilestones] = &Feature{
		Name:           FeatureGamificationMilestones,
		Description:    "Award milestone badges",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureGamificationPerfectXP] = &Feature{
		Name:           FeatureGamificationPerfectXP,
		Description:    "Bonus XP for perfect checkpoint scores",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureGamificationStreakSave] = &Feature{
		Name:           FeatureGamificationStreakSave,
		Description:    "Recover a streak broken earlier the same day",
		Enabled:        false, // Phase 2
		RolloutPercent: 0,
	}

	// Heatmap features
	ff.features[FeatureHeatmapTooltips] = &Feature{
		Name:           FeatureHeatmapTooltips,
		Description:    "Show per-cell activity tooltips",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureHeatmapWideRange] = &Feature{
		Name:           FeatureHeatmapWideRange,
		Description:    "Allow heatmap windows beyond one year",
		Enabled:        false,
		RolloutPercent: 0,
	}

	// Recommendation features
	ff.features[FeatureRecommendRoadmaps] = &Feature{
		Name:           FeatureRecommendRoadmaps,
		Description:    "Rank roadmaps from diagnostic results",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureRecommendRefresh] = &Feature{
		Name:           FeatureRecommendRefresh,
		Description:    "Re-rank recommendations on each new analysis",
		Enabled:        true,
		RolloutPercent: 50, // A/B test
	}

	// Checkpoint features
	ff.features[FeatureCheckpointPartialCredit] = &Feature{
		Name:           FeatureCheckpointPartialCredit,
		Description:    "Per-question partial credit scoring",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureCheckpointRetries] = &Feature{
		Name:           FeatureCheckpointRetries,
		Description:    "Unlimited checkpoint retakes",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Webhook features
	ff.features[FeatureWebhookActivityPush] = &Feature{
		Name:           FeatureWebhookActivityPush,
		Description:    "Ingest platform activity pushes",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureWebhookBatching] = &Feature{
		Name:           FeatureWebhookBatching,
		Description:    "Batch ingestion endpoint for backfills",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Experimental features - disabled by default
	ff.features[FeatureExperimentalAI] = &Feature{
		Name:           FeatureExperimentalAI,
		Description:    "AI-powered study suggestions",
		Enabled:        false,
		RolloutPercent: 0,
	}

	ff.features[FeatureExperimentalAnalytics] = &Feature{
		Name:           FeatureExperimentalAnalytics,
		Description:    "Advanced analytics dashboard",
		Enabled:        false,
		RolloutPercent: 0,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_GAMIFICATION_STREAKS=true
// Example: FEATURE_RECOMMEND_REFRESH=50 (50% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		if val := os.Getenv(envKey); val != "" {
			// Try parsing as boolean
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
				if b {
					feature.RolloutPercent = 100
				} else {
					feature.RolloutPercent = 0
				}
				continue
			}

			// Try parsing as percentage
			if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
				feature.Enabled = p > 0
				feature.RolloutPercent = p
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "gamification.streaks" -> "FEATURE_GAMIFICATION_STREAKS"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	return ff.isEnabledLocked(featureName, ctx)
}

func (ff *FeatureFlags) isEnabledLocked(featureName string, ctx *FeatureContext) bool {
	// Check user overrides first
	if ctx != nil && ctx.UserID != "" {
		if userOverrides, ok := ff.userOverrides[ctx.UserID]; ok {
			if enabled, ok := userOverrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Admin users get all features
	if ctx != nil && ctx.IsAdmin {
		return true
	}

	// Check if feature is enabled at all
	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Check cohort targeting
	if len(feature.TargetCohorts) > 0 && ctx != nil && ctx.Cohort != "" {
		cohortMatch := false
		for _, c := range feature.TargetCohorts {
			if c == ctx.Cohort {
				cohortMatch = true
				break
			}
		}
		if !cohortMatch {
			return false
		}
	}

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.UserID != "" {
		return ff.isInRollout(ctx.UserID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a user is in the rollout percentage.
// Uses consistent hashing so users stay in their bucket.
func (ff *FeatureFlags) isInRollout(userID string, featureName string, percent int) bool {
	// Create a consistent hash for this user+feature combination
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(userID))
	hash := h.Sum32()

	// Map to 0-99 range
	bucket := int(hash % 100)

	return bucket < percent
}

// GetVariant returns the A/B test variant for a user.
// Returns empty string if no variants defined or feature disabled.
func (ff *FeatureFlags) GetVariant(featureName string, ctx *FeatureContext) string {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[featureName]
	if !ok || !ff.isEnabledLocked(featureName, ctx) {
		return ""
	}

	if len(feature.Variants) == 0 {
		return ""
	}

	// Use consistent hashing to assign variant
	h := fnv.New32a()
	h.Write([]byte(featureName + "_variant"))
	h.Write([]byte(ctx.UserID))
	hash := h.Sum32()

	variantIndex := int(hash % uint32(len(feature.Variants)))
	return feature.Variants[variantIndex]
}

// SetUserOverride sets a feature override for a specific user.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetUserOverride(userID string, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.userOverrides[userID]; !ok {
		ff.userOverrides[userID] = make(map[string]bool)
	}
	ff.userOverrides[userID][featureName] = enabled
}

// ClearUserOverrides removes all overrides for a user.
func (ff *FeatureFlags) ClearUserOverrides(userID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.userOverrides, userID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		// Return a copy
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Convenience methods for common checks ---

// GamificationEnabled checks if core gamification features are enabled.
func (ff *FeatureFlags) GamificationEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureGamificationStreaks, ctx) ||
		ff.IsEnabled(FeatureGamificationMilestones, ctx) ||
		ff.IsEnabled(FeatureGamificationPerfectXP, ctx)
}

// WebhooksEnabled checks if any ingestion webhook is enabled.
func (ff *FeatureFlags) WebhooksEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureWebhookActivityPush, ctx) ||
		ff.IsEnabled(FeatureWebhookBatching, ctx)
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
