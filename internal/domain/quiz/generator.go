package quiz

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUESTION BANK SOURCE
// ══════════════════════════════════════════════════════════════════════════════

// BankQuestion is an authored question in a category's bank.
type BankQuestion struct {
	ID            string
	Text          string
	Options       []string
	CorrectAnswer int
	Explanation   string
}

// CategoryBank is the authored content for one quiz category.
type CategoryBank struct {
	Name        string
	Description string
	Questions   []BankQuestion
}

// Source provides question banks per category. Implementations may
// fetch from an external catalog; returning an error or an empty bank
// degrades generation to the fallback bank rather than failing.
type Source interface {
	CategoryBank(ctx context.Context, category Category) (*CategoryBank, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// FALLBACK BANK
// ══════════════════════════════════════════════════════════════════════════════

// FallbackBank returns the built-in generic safety questions used when
// a category's bank is missing or empty.
func FallbackBank() CategoryBank {
	return CategoryBank{
		Name:        "Outdoor Safety Essentials",
		Description: "General outdoor safety knowledge",
		Questions: []BankQuestion{
			{
				ID:   "fallback_1",
				Text: "What is the most important safety rule in outdoor activities?",
				Options: []string{
					"Always tell someone your plans",
					"Carry expensive equipment",
					"Take lots of photos",
					"Go alone for peace",
				},
				CorrectAnswer: 0,
				Explanation:   "Always inform someone about your plans and expected return time for safety.",
			},
			{
				ID:   "fallback_2",
				Text: "Why is proper hydration important during hiking?",
				Options: []string{
					"It's not very important",
					"Prevents dehydration and maintains energy",
					"Makes you walk faster",
					"Only matters in hot weather",
				},
				CorrectAnswer: 1,
				Explanation:   "Proper hydration prevents dehydration and helps maintain energy levels.",
			},
			{
				ID:   "fallback_3",
				Text: "What should you do if you get lost in the wilderness?",
				Options: []string{
					"Panic and run in any direction",
					"Stay calm and stay in one place",
					"Keep walking until you find something",
					"Yell continuously for help",
				},
				CorrectAnswer: 1,
				Explanation:   "Staying calm and in one place makes you easier to find and conserves energy.",
			},
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// GENERATOR
// ══════════════════════════════════════════════════════════════════════════════

// Generator builds quiz instances from a question bank source.
// Safe for concurrent use.
type Generator struct {
	source Source

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator creates a Generator over the given bank source.
func NewGenerator(source Source) *Generator {
	return &Generator{
		source: source,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewSeededGenerator creates a Generator with a fixed shuffle seed.
// Used in tests for deterministic question selection.
func NewSeededGenerator(source Source, seed int64) *Generator {
	return &Generator{
		source: source,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Generate builds a quiz for the category and difficulty. The bank is
// shuffled and at most questionCount questions are taken; a missing or
// empty bank degrades to the built-in fallback questions. The pass
// threshold is computed from the actual number of questions taken.
func (g *Generator) Generate(ctx context.Context, category Category, difficulty shared.Difficulty, questionCount int) (*Quiz, error) {
	if !category.IsValid() {
		return nil, ErrInvalidCategory
	}
	if !difficulty.IsValid() {
		difficulty = shared.DifficultyBeginner
	}
	if questionCount <= 0 {
		return nil, ErrInvalidQuestionCount
	}

	bank := g.lookupBank(ctx, category)

	picked := g.pick(bank.Questions, questionCount)

	questions := make([]Question, 0, len(picked))
	for _, bq := range picked {
		questions = append(questions, Question{
			ID:            uuid.NewString(),
			Text:          bq.Text,
			Options:       bq.Options,
			CorrectAnswer: bq.CorrectAnswer,
			Explanation:   bq.Explanation,
		})
	}

	return &Quiz{
		ID:            uuid.NewString(),
		Title:         bank.Name,
		Description:   bank.Description,
		Category:      category,
		Difficulty:    difficulty,
		Questions:     questions,
		RequiredScore: RequiredScoreFor(difficulty, len(questions)),
	}, nil
}

// lookupBank fetches the category's bank, falling back to the built-in
// questions when the source fails or the bank is empty.
func (g *Generator) lookupBank(ctx context.Context, category Category) CategoryBank {
	if g.source != nil {
		bank, err := g.source.CategoryBank(ctx, category)
		if err == nil && bank != nil && len(bank.Questions) > 0 {
			return *bank
		}
	}
	return FallbackBank()
}

// pick shuffles a copy of the bank and takes at most n questions.
func (g *Generator) pick(bank []BankQuestion, n int) []BankQuestion {
	shuffled := make([]BankQuestion, len(bank))
	copy(shuffled, bank)

	g.mu.Lock()
	g.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	g.mu.Unlock()

	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}
