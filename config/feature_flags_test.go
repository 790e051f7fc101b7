package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureFlags_Defaults(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.True(t, ff.IsEnabled(FeatureGamificationStreaks, nil))
	assert.True(t, ff.IsEnabled(FeatureWebhookActivityPush, nil))
	assert.False(t, ff.IsEnabled(FeatureExperimentalAI, nil))
	assert.False(t, ff.IsEnabled("no_such_feature", nil))
}

func TestFeatureFlags_RolloutIsDeterministicPerUser(t *testing.T) {
	ff := LoadFeatureFlags()
	require.NoError(t, ff.SetRolloutPercent(FeatureRecommendRefresh, 50))

	ctx := &FeatureContext{UserID: "user-42"}
	first := ff.IsEnabled(FeatureRecommendRefresh, ctx)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ff.IsEnabled(FeatureRecommendRefresh, ctx))
	}
}

func TestFeatureFlags_RolloutBounds(t *testing.T) {
	ff := LoadFeatureFlags()

	require.NoError(t, ff.SetRolloutPercent(FeatureRecommendRefresh, 0))
	assert.False(t, ff.IsEnabled(FeatureRecommendRefresh, &FeatureContext{UserID: "anyone"}))

	require.NoError(t, ff.SetRolloutPercent(FeatureRecommendRefresh, 100))
	assert.True(t, ff.IsEnabled(FeatureRecommendRefresh, &FeatureContext{UserID: "anyone"}))

	assert.Error(t, ff.SetRolloutPercent(FeatureRecommendRefresh, 101))
}

func TestFeatureFlags_UserOverrideWinsOverRollout(t *testing.T) {
	ff := LoadFeatureFlags()
	require.NoError(t, ff.SetRolloutPercent(FeatureRecommendRefresh, 0))

	ff.SetUserOverride("user-1", FeatureRecommendRefresh, true)
	assert.True(t, ff.IsEnabled(FeatureRecommendRefresh, &FeatureContext{UserID: "user-1"}))
	assert.False(t, ff.IsEnabled(FeatureRecommendRefresh, &FeatureContext{UserID: "user-2"}))

	ff.ClearUserOverrides("user-1")
	assert.False(t, ff.IsEnabled(FeatureRecommendRefresh, &FeatureContext{UserID: "user-1"}))
}

func TestFeatureFlags_AdminSeesEverything(t *testing.T) {
	ff := LoadFeatureFlags()

	admin := &FeatureContext{UserID: "admin-1", IsAdmin: true}
	assert.True(t, ff.IsEnabled(FeatureExperimentalAI, admin))
}

func TestFeatureFlags_Convenience(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.True(t, ff.GamificationEnabled(nil))
	assert.True(t, ff.WebhooksEnabled(nil))

	require.NoError(t, ff.DisableFeature(FeatureWebhookActivityPush))
	require.NoError(t, ff.DisableFeature(FeatureWebhookBatching))
	assert.False(t, ff.WebhooksEnabled(nil))
}
