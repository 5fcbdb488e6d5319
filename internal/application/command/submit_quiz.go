package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/blen-hub/blen-progress-hub/internal/domain/progress"
	"github.com/blen-hub/blen-progress-hub/internal/domain/quiz"
	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT QUIZ COMMAND
// Grades the answers, awards scaled points pass or fail, and issues a
// quiz certificate on a pass. A quiz accepts exactly one submission.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitQuizCommand submits a user's answers for a generated quiz.
type SubmitQuizCommand struct {
	// UserID identifies whose progress is updated.
	UserID string

	// Quiz is the quiz being submitted.
	Quiz *quiz.Quiz

	// Answers holds the chosen option index per question, in question
	// order. Missing or out-of-range answers count as wrong.
	Answers []int

	// CourseTitle overrides the certificate title snapshot.
	CourseTitle string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c SubmitQuizCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("submit_quiz: user_id is required")
	}
	if c.Quiz == nil {
		return errors.New("submit_quiz: quiz is required")
	}
	if len(c.Answers) > len(c.Quiz.Questions) {
		return errors.New("submit_quiz: more answers than questions")
	}
	return nil
}

// SubmitQuizResult contains the result of a quiz submission.
type SubmitQuizResult struct {
	// Score is the number of correct answers.
	Score int

	// OutOf is the number of questions.
	OutOf int

	// Passed indicates the score met the quiz threshold.
	Passed bool

	// PointsAwarded for the submission, pass or fail.
	PointsAwarded int

	// Certificate issued for a pass, nil otherwise.
	Certificate *progress.Certificate

	// TotalPoints is the user's lifetime points after the call.
	TotalPoints int
}

// SubmitQuizHandler handles the SubmitQuizCommand.
type SubmitQuizHandler struct {
	repo      progress.Repository
	archiver  CertificateArchiver
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewSubmitQuizHandler creates a new SubmitQuizHandler.
// The archiver is optional; certificates always live on the aggregate.
func NewSubmitQuizHandler(
	repo progress.Repository,
	archiver CertificateArchiver,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *SubmitQuizHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmitQuizHandler{
		repo:      repo,
		archiver:  archiver,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle executes the submit quiz command.
func (h *SubmitQuizHandler) Handle(ctx context.Context, cmd SubmitQuizCommand) (*SubmitQuizResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	q := cmd.Quiz

	// Grade against the answer key.
	for i := range q.Questions {
		if i < len(cmd.Answers) {
			answer := cmd.Answers[i]
			q.Questions[i].UserAnswer = &answer
		}
	}
	score := q.CorrectAnswersCount()

	p, err := progress.LoadOrCreate(ctx, h.repo, cmd.UserID, now)
	if err != nil {
		return nil, fmt.Errorf("submit_quiz: load progress: %w", err)
	}

	res, err := p.SubmitQuiz(q, score, cmd.CourseTitle, now)
	if err != nil {
		return nil, fmt.Errorf("submit_quiz: %w", err)
	}

	if err := h.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("submit_quiz: save progress: %w", err)
	}

	if res.Certificate != nil && h.archiver != nil {
		if err := h.archiver.ArchiveCertificate(ctx, cmd.UserID, *res.Certificate); err != nil {
			h.logger.Warn("failed to archive certificate", "certificate_id", res.Certificate.ID, "error", err)
		}
	}

	h.publishEvents(cmd, score, res)

	return &SubmitQuizResult{
		Score:         score,
		OutOf:         len(q.Questions),
		Passed:        res.Passed,
		PointsAwarded: res.Points,
		Certificate:   res.Certificate,
		TotalPoints:   p.TotalPoints,
	}, nil
}

func (h *SubmitQuizHandler) publishEvents(cmd SubmitQuizCommand, score int, res *progress.SubmitQuizResult) {
	if h.publisher == nil {
		return
	}

	publish := func(event shared.Event) {
		if err := h.publisher.Publish(event); err != nil {
			h.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
		}
	}

	event := shared.NewQuizSubmittedEvent(
		cmd.UserID, cmd.Quiz.ID, score, len(cmd.Quiz.Questions),
		res.Passed, res.Points, cmd.Quiz.Difficulty.String(),
	)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	publish(event)

	if res.Certificate != nil {
		publish(shared.NewCertificateIssuedEvent(
			cmd.UserID, res.Certificate.ID, res.Certificate.CourseID,
			string(res.Certificate.Grade), true,
		))
	}
}
