// Package quiz contains the quiz domain model and the generation and
// scoring engine: categories, question banks, the pass threshold per
// difficulty, and the point award formula.
package quiz

import (
	"errors"
	"math"
	"time"

	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Category identifies a quiz topic area.
type Category string

const (
	CategorySafetyBasics           Category = "safety_basics"
	CategoryEquipment              Category = "equipment"
	CategoryNavigation             Category = "navigation"
	CategorySurvival               Category = "survival"
	CategoryFirstAid               Category = "first_aid"
	CategoryEnvironmentalAwareness Category = "environmental_awareness"
	CategoryWeatherKnowledge       Category = "weather_knowledge"
	CategoryTechniqueBasics        Category = "technique_basics"
)

// AllCategories returns every known quiz category.
func AllCategories() []Category {
	return []Category{
		CategorySafetyBasics,
		CategoryEquipment,
		CategoryNavigation,
		CategorySurvival,
		CategoryFirstAid,
		CategoryEnvironmentalAwareness,
		CategoryWeatherKnowledge,
		CategoryTechniqueBasics,
	}
}

// IsValid checks that the category is one of the known topics.
func (c Category) IsValid() bool {
	switch c {
	case CategorySafetyBasics, CategoryEquipment, CategoryNavigation, CategorySurvival,
		CategoryFirstAid, CategoryEnvironmentalAwareness, CategoryWeatherKnowledge, CategoryTechniqueBasics:
		return true
	default:
		return false
	}
}

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// DisplayName returns the human-readable name of the category.
func (c Category) DisplayName() string {
	switch c {
	case CategorySafetyBasics:
		return "Safety Basics"
	case CategoryEquipment:
		return "Equipment Knowledge"
	case CategoryNavigation:
		return "Navigation Skills"
	case CategorySurvival:
		return "Survival Skills"
	case CategoryFirstAid:
		return "First Aid"
	case CategoryEnvironmentalAwareness:
		return "Environmental Awareness"
	case CategoryWeatherKnowledge:
		return "Weather Knowledge"
	case CategoryTechniqueBasics:
		return "Technique Basics"
	default:
		return string(c)
	}
}

// CatalogKey returns the key the external question catalog uses for
// this category.
func (c Category) CatalogKey() string {
	switch c {
	case CategorySafetyBasics:
		return "safetyBasics"
	case CategoryEquipment:
		return "equipmentKnowledge"
	case CategoryNavigation:
		return "navigationSkills"
	case CategorySurvival:
		return "survivalSkills"
	case CategoryFirstAid:
		return "firstAid"
	case CategoryEnvironmentalAwareness:
		return "environmentalAwareness"
	case CategoryWeatherKnowledge:
		return "weatherKnowledge"
	case CategoryTechniqueBasics:
		return "techniqueBasics"
	default:
		return string(c)
	}
}

// Status is the lifecycle state of a quiz instance. It is derived
// from answers and completion date, never stored.
type Status string

const (
	// StatusNotStarted - no question answered yet.
	StatusNotStarted Status = "not_started"
	// StatusInProgress - some answers given, not yet submitted.
	StatusInProgress Status = "in_progress"
	// StatusPassed - submitted with a score at or above the threshold.
	StatusPassed Status = "passed"
	// StatusFailed - submitted with a score below the threshold.
	StatusFailed Status = "failed"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Question is one multiple-choice question in a quiz.
type Question struct {
	// ID - unique identifier.
	ID string `json:"id"`

	// Text - the question prompt.
	Text string `json:"text"`

	// Options - the answer choices, in presentation order.
	Options []string `json:"options"`

	// CorrectAnswer - index into Options of the correct choice.
	CorrectAnswer int `json:"correct_answer"`

	// Explanation shown after answering.
	Explanation string `json:"explanation"`

	// UserAnswer - index the user chose, nil while unanswered.
	UserAnswer *int `json:"user_answer,omitempty"`
}

// IsCorrect reports whether the user's answer matches the correct
// option. Returns false while unanswered.
func (q *Question) IsCorrect() bool {
	return q.UserAnswer != nil && *q.UserAnswer == q.CorrectAnswer
}

// Quiz is one generated quiz instance.
type Quiz struct {
	// ID - unique identifier (UUID string).
	ID string `json:"id"`

	// Title - display name, taken from the category catalog entry.
	Title string `json:"title"`

	// Description of the quiz topic.
	Description string `json:"description,omitempty"`

	// Category - the topic area.
	Category Category `json:"category"`

	// Difficulty - drives the pass threshold and reward multiplier.
	Difficulty shared.Difficulty `json:"difficulty"`

	// Questions in the order they are presented.
	Questions []Question `json:"questions"`

	// RequiredScore - number of correct answers needed to pass.
	// An absolute count, not a percentage.
	RequiredScore int `json:"required_score"`

	// UserScore - correct answers on the last submission, nil before.
	UserScore *int `json:"user_score,omitempty"`

	// CompletionDate - when the quiz was last submitted.
	CompletionDate *time.Time `json:"completion_date,omitempty"`

	// RelatedCourseID - academy course the quiz belongs to, if any.
	RelatedCourseID string `json:"related_course_id,omitempty"`

	// RelatedAdventureID - adventure the quiz belongs to, if any.
	RelatedAdventureID string `json:"related_adventure_id,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidCategory - unknown quiz category.
	ErrInvalidCategory = errors.New("invalid quiz category")

	// ErrInvalidQuestionCount - question count must be positive.
	ErrInvalidQuestionCount = errors.New("invalid question count: must be positive")

	// ErrInvalidScore - score outside [0, question count].
	ErrInvalidScore = errors.New("invalid score: must be between 0 and the question count")

	// ErrAlreadySubmitted - the quiz already has a completion date.
	ErrAlreadySubmitted = errors.New("quiz already submitted")
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// Progress returns the answered share of the quiz, 0.0 to 1.0.
func (q *Quiz) Progress() float64 {
	if len(q.Questions) == 0 {
		return 0
	}

	answered := 0
	for i := range q.Questions {
		if q.Questions[i].UserAnswer != nil {
			answered++
		}
	}
	return float64(answered) / float64(len(q.Questions))
}

// Status derives the lifecycle state from answers and completion date.
func (q *Quiz) Status() Status {
	if q.CompletionDate != nil {
		if q.IsPassed() {
			return StatusPassed
		}
		return StatusFailed
	}
	if q.Progress() > 0 {
		return StatusInProgress
	}
	return StatusNotStarted
}

// IsPassed reports whether the recorded score meets the threshold.
// Both sides are absolute correct-answer counts.
func (q *Quiz) IsPassed() bool {
	return q.UserScore != nil && *q.UserScore >= q.RequiredScore
}

// ScorePercentage returns the last score on a 0-100 scale.
func (q *Quiz) ScorePercentage() float64 {
	if q.UserScore == nil || len(q.Questions) == 0 {
		return 0
	}
	return float64(*q.UserScore) / float64(len(q.Questions)) * 100
}

// CorrectAnswersCount counts the questions answered correctly.
func (q *Quiz) CorrectAnswersCount() int {
	count := 0
	for i := range q.Questions {
		if q.Questions[i].IsCorrect() {
			count++
		}
	}
	return count
}

// Submit records the score and stamps the completion date. The score
// is a raw count of correct answers.
func (q *Quiz) Submit(score int, at time.Time) error {
	if q.CompletionDate != nil {
		return ErrAlreadySubmitted
	}
	if score < 0 || score > len(q.Questions) {
		return ErrInvalidScore
	}

	q.UserScore = &score
	completedAt := at.UTC()
	q.CompletionDate = &completedAt
	return nil
}

// RewardPoints returns the points awarded for the recorded score:
// a 50-point base scaled by the difficulty multiplier and the share
// of questions answered correctly. Failing still earns the scaled
// share; a perfect expert run earns 125.
func (q *Quiz) RewardPoints() int {
	if q.UserScore == nil || len(q.Questions) == 0 {
		return 0
	}

	share := float64(*q.UserScore) / float64(len(q.Questions))
	return int(math.Round(50 * q.Difficulty.RewardMultiplier() * share))
}

// RequiredScoreFor computes the pass threshold for a quiz of the
// given size: ceil(questionCount x passRatio(difficulty)).
func RequiredScoreFor(difficulty shared.Difficulty, questionCount int) int {
	return int(math.Ceil(float64(questionCount) * difficulty.PassRatio()))
}
