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

	// Cohort targeting (e.g., "beta", "2026-summer")
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
	UserID string // User identifier

	Cohort  string // User cohort (e.g., "beta")
	IsAdmin bool   // Is admin user
}

// Predefined feature flag names.
const (
	// === Leaderboard Features ===
	FeatureLeaderboardRealtime = "leaderboard.realtime" // Redis-backed live standings
	FeatureLeaderboardGlobal   = "leaderboard.global"   // Global points ranking endpoint

	// === Challenge Features ===
	FeatureChallengesJoin       = "challenges.join"        // Joining community challenges
	FeatureChallengesAutoExpire = "challenges.auto_expire" // Background expiry sweep

	// === Quiz Features ===
	FeatureQuizGeneration = "quiz.generation" // Catalog-backed quiz generation
	FeatureQuizFallback   = "quiz.fallback"   // Built-in bank when catalog is down

	// === Gamification Features ===
	FeatureGamificationStreaks    = "gamification.streaks"    // Weekly activity streaks
	FeatureGamificationMilestones = "gamification.milestones" // Milestone achievements
	FeatureGamificationGoals      = "gamification.goals"      // Personal goals

	// === Academy Features ===
	FeatureAcademyCertificates = "academy.certificates" // Course completion certificates

	// === Experimental Features ===
	FeatureExperimentalRoutes    = "experimental.route_maps" // GPS route storage
	FeatureExperimentalAnalytics = "experimental.analytics"  // Advanced stats breakdowns
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
	// Leaderboard features
	ff.features[FeatureLeaderboardRealtime] = &Feature{
		Name:           FeatureLeaderboardRealtime,
		Description:    "Serve challenge standings from Redis sorted sets",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureLeaderboardGlobal] = &Feature{
		Name:           FeatureLeaderboardGlobal,
		Description:    "Global points ranking across all users",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Challenge features - core to the hub, enabled by default
	ff.features[FeatureChallengesJoin] = &Feature{
		Name:           FeatureChallengesJoin,
		Description:    "Allow joining community challenges",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureChallengesAutoExpire] = &Feature{
		Name:           FeatureChallengesAutoExpire,
		Description:    "Sweep ended challenges into completed lists",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Quiz features
	ff.features[FeatureQuizGeneration] = &Feature{
		Name:           FeatureQuizGeneration,
		Description:    "Generate safety quizzes from the question catalog",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureQuizFallback] = &Feature{
		Name:           FeatureQuizFallback,
		Description:    "Serve built-in question bank when catalog is unavailable",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Gamification features
	ff.features[FeatureGamificationStreaks] = &Feature{
		Name:           FeatureGamificationStreaks,
		Description:    "Track weekly activity streaks",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureGamificationMilestones] = &Feature{
		Name:           FeatureGamificationMilestones,
		Description:    "Award milestone achievements",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureGamificationGoals] = &Feature{
		Name:           FeatureGamificationGoals,
		Description:    "Personal daily/weekly/monthly goals",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Academy features
	ff.features[FeatureAcademyCertificates] = &Feature{
		Name:           FeatureAcademyCertificates,
		Description:    "Issue certificates on course completion",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Experimental features - disabled by default
	ff.features[FeatureExperimentalRoutes] = &Feature{
		Name:           FeatureExperimentalRoutes,
		Description:    "Store GPS route tracks with activities",
		Enabled:        true,
		RolloutPercent: 50, // Gradual rollout
	}

	ff.features[FeatureExperimentalAnalytics] = &Feature{
		Name:           FeatureExperimentalAnalytics,
		Description:    "Advanced stats breakdowns",
		Enabled:        false,
		RolloutPercent: 0,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_QUIZ_GENERATION=true
// Example: FEATURE_EXPERIMENTAL_ROUTE_MAPS=50 (50% rollout)
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
// "quiz.generation" -> "FEATURE_QUIZ_GENERATION"
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
		return isInRollout(ctx.UserID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a user is in the rollout percentage.
// Uses consistent hashing so users stay in their bucket.
func isInRollout(userID, featureName string, percent int) bool {
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

	if len(feature.Variants) == 0 || ctx == nil {
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
func (ff *FeatureFlags) SetUserOverride(userID, featureName string, enabled bool) {
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
