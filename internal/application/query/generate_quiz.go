package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blen-hub/blen-progress-hub/internal/domain/quiz"
	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GENERATE QUIZ QUERY
// Builds a quiz from the category question bank. Catalog outages
// degrade to the built-in fallback bank inside the generator, so this
// query only fails on invalid input.
// ══════════════════════════════════════════════════════════════════════════════

// GenerateQuizQuery contains the quiz generation parameters.
type GenerateQuizQuery struct {
	// Category - the topic area to draw questions from.
	Category string

	// Difficulty - drives the pass threshold (default beginner).
	Difficulty string

	// QuestionCount - questions to include (default 5, maximum 20).
	QuestionCount int
}

// Validate validates the query parameters.
func (q *GenerateQuizQuery) Validate() error {
	if q.Category == "" {
		return errors.New("category is required")
	}
	if !quiz.Category(q.Category).IsValid() {
		return fmt.Errorf("unknown category %q", q.Category)
	}
	if q.Difficulty == "" {
		q.Difficulty = shared.DifficultyBeginner.String()
	}
	if !shared.Difficulty(q.Difficulty).IsValid() {
		return fmt.Errorf("unknown difficulty %q", q.Difficulty)
	}
	if q.QuestionCount < 0 {
		return errors.New("question count cannot be negative")
	}
	if q.QuestionCount == 0 {
		q.QuestionCount = 5
	}
	if q.QuestionCount > 20 {
		q.QuestionCount = 20
	}
	return nil
}

// QuizQuestionDTO is one question as presented to the user.
// The correct answer index is deliberately absent.
type QuizQuestionDTO struct {
	// ID - question identifier.
	ID string `json:"id"`

	// Text - the question itself.
	Text string `json:"text"`

	// Options - the answer choices in presentation order.
	Options []string `json:"options"`
}

// GenerateQuizResult contains the generated quiz.
type GenerateQuizResult struct {
	// Quiz - the full quiz including the answer key. Kept by the
	// caller for grading; never serialized to the client as-is.
	Quiz *quiz.Quiz `json:"-"`

	// QuizID - identifier for the submission round-trip.
	QuizID string `json:"quiz_id"`

	// Title - display name.
	Title string `json:"title"`

	// Category of the quiz.
	Category string `json:"category"`

	// Difficulty of the quiz.
	Difficulty string `json:"difficulty"`

	// RequiredScore - correct answers needed to pass.
	RequiredScore int `json:"required_score"`

	// Questions without the answer key.
	Questions []QuizQuestionDTO `json:"questions"`

	// GeneratedAt - when the quiz was built.
	GeneratedAt time.Time `json:"generated_at"`
}

// GenerateQuizHandler handles quiz generation requests.
type GenerateQuizHandler struct {
	generator *quiz.Generator
}

// NewGenerateQuizHandler creates a new GenerateQuizHandler.
func NewGenerateQuizHandler(generator *quiz.Generator) *GenerateQuizHandler {
	return &GenerateQuizHandler{generator: generator}
}

// Handle executes the generate quiz query.
func (h *GenerateQuizHandler) Handle(ctx context.Context, query GenerateQuizQuery) (*GenerateQuizResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GenerateQuiz", shared.ErrValidation, err.Error(), err)
	}

	q, err := h.generator.Generate(ctx, quiz.Category(query.Category), shared.Difficulty(query.Difficulty), query.QuestionCount)
	if err != nil {
		return nil, shared.WrapError("query", "GenerateQuiz", shared.ErrInvalidInput, "failed to generate quiz", err)
	}

	questions := make([]QuizQuestionDTO, 0, len(q.Questions))
	for i := range q.Questions {
		questions = append(questions, QuizQuestionDTO{
			ID:      q.Questions[i].ID,
			Text:    q.Questions[i].Text,
			Options: q.Questions[i].Options,
		})
	}

	return &GenerateQuizResult{
		Quiz:          q,
		QuizID:        q.ID,
		Title:         q.Title,
		Category:      string(q.Category),
		Difficulty:    q.Difficulty.String(),
		RequiredScore: q.RequiredScore,
		Questions:     questions,
		GeneratedAt:   time.Now().UTC(),
	}, nil
}
