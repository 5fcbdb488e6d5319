package quiz

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
)

type stubSource struct {
	bank *CategoryBank
	err  error
}

func (s *stubSource) CategoryBank(_ context.Context, _ Category) (*CategoryBank, error) {
	return s.bank, s.err
}

func bankOfSize(n int) *CategoryBank {
	questions := make([]BankQuestion, n)
	for i := range questions {
		questions[i] = BankQuestion{
			ID:            fmt.Sprintf("q-%d", i),
			Text:          fmt.Sprintf("Question %d", i),
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: i % 4,
		}
	}
	return &CategoryBank{Name: "Navigation Skills", Description: "Map and compass", Questions: questions}
}

func TestGenerate_TakesRequestedCount(t *testing.T) {
	gen := NewSeededGenerator(&stubSource{bank: bankOfSize(15)}, 42)

	q, err := gen.Generate(context.Background(), CategoryNavigation, shared.DifficultyAdvanced, 10)
	require.NoError(t, err)

	assert.Len(t, q.Questions, 10)
	assert.Equal(t, 8, q.RequiredScore)
	assert.Equal(t, "Navigation Skills", q.Title)
	assert.Equal(t, CategoryNavigation, q.Category)
	assert.NotEmpty(t, q.ID)
}

func TestGenerate_BankSmallerThanRequested(t *testing.T) {
	gen := NewSeededGenerator(&stubSource{bank: bankOfSize(4)}, 42)

	q, err := gen.Generate(context.Background(), CategorySurvival, shared.DifficultyBeginner, 10)
	require.NoError(t, err)

	assert.Len(t, q.Questions, 4)
	// The threshold follows the actual question count, not the request.
	assert.Equal(t, 3, q.RequiredScore)
}

func TestGenerate_FallsBackOnSourceError(t *testing.T) {
	gen := NewSeededGenerator(&stubSource{err: errors.New("catalog unreachable")}, 42)

	q, err := gen.Generate(context.Background(), CategoryFirstAid, shared.DifficultyIntermediate, 10)
	require.NoError(t, err)

	require.Len(t, q.Questions, 3)
	assert.Equal(t, "Outdoor Safety Essentials", q.Title)
	assert.Equal(t, 3, q.RequiredScore) // ceil(3 * 0.7)
}

func TestGenerate_FallsBackOnEmptyBank(t *testing.T) {
	gen := NewSeededGenerator(&stubSource{bank: &CategoryBank{Name: "Empty"}}, 42)

	q, err := gen.Generate(context.Background(), CategoryWeatherKnowledge, shared.DifficultyBeginner, 5)
	require.NoError(t, err)

	assert.Len(t, q.Questions, 3)
}

func TestGenerate_InvalidInput(t *testing.T) {
	gen := NewSeededGenerator(&stubSource{bank: bankOfSize(5)}, 42)

	_, err := gen.Generate(context.Background(), "astrology", shared.DifficultyBeginner, 5)
	assert.ErrorIs(t, err, ErrInvalidCategory)

	_, err = gen.Generate(context.Background(), CategoryNavigation, shared.DifficultyBeginner, 0)
	assert.ErrorIs(t, err, ErrInvalidQuestionCount)
}

func TestGenerate_ShufflesBank(t *testing.T) {
	source := &stubSource{bank: bankOfSize(30)}

	first, err := NewSeededGenerator(source, 1).Generate(context.Background(), CategoryEquipment, shared.DifficultyBeginner, 30)
	require.NoError(t, err)
	second, err := NewSeededGenerator(source, 2).Generate(context.Background(), CategoryEquipment, shared.DifficultyBeginner, 30)
	require.NoError(t, err)

	order := func(q *Quiz) []string {
		texts := make([]string, len(q.Questions))
		for i, question := range q.Questions {
			texts[i] = question.Text
		}
		return texts
	}

	assert.ElementsMatch(t, order(first), order(second))
	assert.NotEqual(t, order(first), order(second))
}

func TestFallbackBank_CorrectAnswers(t *testing.T) {
	bank := FallbackBank()

	require.Len(t, bank.Questions, 3)
	assert.Equal(t, 0, bank.Questions[0].CorrectAnswer)
	assert.Equal(t, 1, bank.Questions[1].CorrectAnswer)
	assert.Equal(t, 1, bank.Questions[2].CorrectAnswer)
}
