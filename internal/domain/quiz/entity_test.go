package quiz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
)

func intPtr(v int) *int { return &v }

func quizWithQuestions(n, required int, difficulty shared.Difficulty) *Quiz {
	questions := make([]Question, n)
	for i := range questions {
		questions[i] = Question{ID: "q", CorrectAnswer: 0, Options: []string{"a", "b"}}
	}
	return &Quiz{
		ID:            "quiz-1",
		Category:      CategoryNavigation,
		Difficulty:    difficulty,
		Questions:     questions,
		RequiredScore: required,
	}
}

func TestRequiredScoreFor(t *testing.T) {
	assert.Equal(t, 6, RequiredScoreFor(shared.DifficultyBeginner, 10))
	assert.Equal(t, 7, RequiredScoreFor(shared.DifficultyIntermediate, 10))
	assert.Equal(t, 8, RequiredScoreFor(shared.DifficultyAdvanced, 10))
	assert.Equal(t, 9, RequiredScoreFor(shared.DifficultyExpert, 10))

	// Ceil rounds partial questions up.
	assert.Equal(t, 2, RequiredScoreFor(shared.DifficultyBeginner, 3))
	assert.Equal(t, 3, RequiredScoreFor(shared.DifficultyExpert, 3))
}

func TestStatus_Lifecycle(t *testing.T) {
	q := quizWithQuestions(4, 3, shared.DifficultyIntermediate)
	assert.Equal(t, StatusNotStarted, q.Status())

	q.Questions[0].UserAnswer = intPtr(0)
	assert.Equal(t, StatusInProgress, q.Status())

	require.NoError(t, q.Submit(3, time.Now()))
	assert.Equal(t, StatusPassed, q.Status())
}

func TestStatus_Failed(t *testing.T) {
	q := quizWithQuestions(4, 3, shared.DifficultyIntermediate)

	require.NoError(t, q.Submit(2, time.Now()))
	assert.Equal(t, StatusFailed, q.Status())
	assert.False(t, q.IsPassed())
}

func TestSubmit_Validation(t *testing.T) {
	q := quizWithQuestions(4, 3, shared.DifficultyBeginner)

	assert.ErrorIs(t, q.Submit(-1, time.Now()), ErrInvalidScore)
	assert.ErrorIs(t, q.Submit(5, time.Now()), ErrInvalidScore)

	require.NoError(t, q.Submit(4, time.Now()))
	assert.ErrorIs(t, q.Submit(4, time.Now()), ErrAlreadySubmitted)
}

func TestScorePercentage(t *testing.T) {
	q := quizWithQuestions(8, 6, shared.DifficultyAdvanced)
	assert.Equal(t, 0.0, q.ScorePercentage())

	require.NoError(t, q.Submit(6, time.Now()))
	assert.Equal(t, 75.0, q.ScorePercentage())
}

func TestRewardPoints(t *testing.T) {
	tests := []struct {
		name       string
		difficulty shared.Difficulty
		questions  int
		score      int
		want       int
	}{
		{"perfect beginner", shared.DifficultyBeginner, 10, 10, 50},
		{"perfect expert", shared.DifficultyExpert, 10, 10, 125},
		{"partial advanced", shared.DifficultyAdvanced, 10, 8, 80},
		{"half intermediate", shared.DifficultyIntermediate, 4, 2, 38},
		{"zero score", shared.DifficultyExpert, 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := quizWithQuestions(tt.questions, 1, tt.difficulty)
			require.NoError(t, q.Submit(tt.score, time.Now()))
			assert.Equal(t, tt.want, q.RewardPoints())
		})
	}
}

func TestCorrectAnswersCount(t *testing.T) {
	q := quizWithQuestions(3, 2, shared.DifficultyBeginner)
	q.Questions[0].UserAnswer = intPtr(0)
	q.Questions[1].UserAnswer = intPtr(1)

	assert.Equal(t, 1, q.CorrectAnswersCount())
}

func TestCategoryCatalogKeys(t *testing.T) {
	want := map[Category]string{
		CategorySafetyBasics:           "safetyBasics",
		CategoryEquipment:              "equipmentKnowledge",
		CategoryNavigation:             "navigationSkills",
		CategorySurvival:               "survivalSkills",
		CategoryFirstAid:               "firstAid",
		CategoryEnvironmentalAwareness: "environmentalAwareness",
		CategoryWeatherKnowledge:       "weatherKnowledge",
		CategoryTechniqueBasics:        "techniqueBasics",
	}

	for cat, key := range want {
		assert.Equal(t, key, cat.CatalogKey())
	}
	assert.Len(t, AllCategories(), 8)
}
