package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFeatureFlagsDefaults(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.True(t, ff.IsEnabled(FeatureQuizGeneration, nil))
	assert.True(t, ff.IsEnabled(FeatureChallengesJoin, nil))
	assert.False(t, ff.IsEnabled(FeatureExperimentalAnalytics, nil))
	assert.False(t, ff.IsEnabled("does.not.exist", nil))
}

func TestFeatureFlagsEnvOverride(t *testing.T) {
	t.Setenv("FEATURE_QUIZ_GENERATION", "false")
	t.Setenv("FEATURE_EXPERIMENTAL_ANALYTICS", "true")

	ff := LoadFeatureFlags()

	assert.False(t, ff.IsEnabled(FeatureQuizGeneration, nil))
	assert.True(t, ff.IsEnabled(FeatureExperimentalAnalytics, nil))
}

func TestFeatureFlagsPercentOverride(t *testing.T) {
	t.Setenv("FEATURE_GAMIFICATION_STREAKS", "0")

	ff := LoadFeatureFlags()

	assert.False(t, ff.IsEnabled(FeatureGamificationStreaks, nil))
}

func TestFeatureFlagsRolloutIsConsistent(t *testing.T) {
	ff := LoadFeatureFlags()
	require.NoError(t, ff.SetRolloutPercent(FeatureExperimentalRoutes, 50))

	ctx := &FeatureContext{UserID: "user-42"}
	first := ff.IsEnabled(FeatureExperimentalRoutes, ctx)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ff.IsEnabled(FeatureExperimentalRoutes, ctx),
			"a user must stay in the same rollout bucket")
	}
}

func TestFeatureFlagsUserOverride(t *testing.T) {
	ff := LoadFeatureFlags()

	ctx := &FeatureContext{UserID: "tester"}
	require.False(t, ff.IsEnabled(FeatureExperimentalAnalytics, ctx))

	ff.SetUserOverride("tester", FeatureExperimentalAnalytics, true)
	assert.True(t, ff.IsEnabled(FeatureExperimentalAnalytics, ctx))

	ff.ClearUserOverrides("tester")
	assert.False(t, ff.IsEnabled(FeatureExperimentalAnalytics, ctx))
}

func TestFeatureFlagsAdminGetsEverything(t *testing.T) {
	ff := LoadFeatureFlags()

	ctx := &FeatureContext{UserID: "admin-1", IsAdmin: true}
	assert.True(t, ff.IsEnabled(FeatureExperimentalAnalytics, ctx))
}

func TestSetRolloutPercentBounds(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.ErrorIs(t, ff.SetRolloutPercent(FeatureQuizGeneration, 150), ErrInvalidRolloutPercent)
	assert.ErrorIs(t, ff.SetRolloutPercent("does.not.exist", 10), ErrFeatureNotFound)
}
