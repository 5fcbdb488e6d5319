package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/blen-hub/blen-progress-hub/internal/domain/academy"
	"github.com/blen-hub/blen-progress-hub/internal/domain/progress"
	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE LESSON COMMAND
// Marks an academy lesson completed and, when the whole course is done,
// issues a course certificate with a grade from the completion percentage.
// ══════════════════════════════════════════════════════════════════════════════

// CertificateArchiver records issued certificates in durable storage.
type CertificateArchiver interface {
	ArchiveCertificate(ctx context.Context, userID string, cert progress.Certificate) error
}

// CompleteLessonCommand marks a lesson as completed.
type CompleteLessonCommand struct {
	// UserID identifies whose progress is updated.
	UserID string

	// LessonID identifies the completed lesson.
	LessonID string

	// Course is the lesson's course, used for completion checking.
	// When nil, only the lesson is recorded.
	Course *academy.Course

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CompleteLessonCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("complete_lesson: user_id is required")
	}
	if c.LessonID == "" {
		return errors.New("complete_lesson: lesson_id is required")
	}
	return nil
}

// CompleteLessonResult contains the result of completing a lesson.
type CompleteLessonResult struct {
	// PointsAwarded covers the lesson and, if earned, the course bonus.
	PointsAwarded int

	// AlreadyCompleted indicates a repeat completion.
	AlreadyCompleted bool

	// CourseCompleted indicates the whole course finished with this lesson.
	CourseCompleted bool

	// Certificate is the issued course certificate, if any.
	Certificate *progress.Certificate

	// TotalPoints is the user's lifetime points after the call.
	TotalPoints int

	// Level is the user's level after the call.
	Level int
}

// CompleteLessonHandler handles the CompleteLessonCommand.
type CompleteLessonHandler struct {
	repo      progress.Repository
	archiver  CertificateArchiver
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewCompleteLessonHandler creates a new CompleteLessonHandler.
// The archiver is optional; certificates always live on the aggregate.
func NewCompleteLessonHandler(
	repo progress.Repository,
	archiver CertificateArchiver,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *CompleteLessonHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompleteLessonHandler{
		repo:      repo,
		archiver:  archiver,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle executes the complete lesson command.
func (h *CompleteLessonHandler) Handle(ctx context.Context, cmd CompleteLessonCommand) (*CompleteLessonResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	p, err := progress.LoadOrCreate(ctx, h.repo, cmd.UserID, now)
	if err != nil {
		return nil, fmt.Errorf("complete_lesson: load progress: %w", err)
	}

	pointsBefore := p.TotalPoints
	lessonPoints := p.MarkLessonCompleted(cmd.LessonID, now)

	result := &CompleteLessonResult{
		AlreadyCompleted: lessonPoints == 0,
	}

	var cert *progress.Certificate
	if cmd.Course != nil {
		if cert = p.CheckCourseCompletion(cmd.Course, now); cert != nil {
			result.CourseCompleted = true
			result.Certificate = cert
		}
	}
	result.PointsAwarded = p.TotalPoints - pointsBefore

	if err := h.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("complete_lesson: save progress: %w", err)
	}

	if cert != nil && h.archiver != nil {
		if err := h.archiver.ArchiveCertificate(ctx, cmd.UserID, *cert); err != nil {
			h.logger.Warn("failed to archive certificate", "certificate_id", cert.ID, "error", err)
		}
	}

	h.publishEvents(cmd, lessonPoints, cert)

	result.TotalPoints = p.TotalPoints
	result.Level = p.Level
	return result, nil
}

func (h *CompleteLessonHandler) publishEvents(cmd CompleteLessonCommand, lessonPoints int, cert *progress.Certificate) {
	if h.publisher == nil {
		return
	}

	publish := func(event shared.Event) {
		if err := h.publisher.Publish(event); err != nil {
			h.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
		}
	}

	if lessonPoints > 0 {
		publish(shared.NewLessonCompletedEvent(cmd.UserID, cmd.LessonID, lessonPoints))
	}

	if cert != nil {
		publish(shared.NewCourseCompletedEvent(cmd.UserID, cert.CourseID, string(cert.Grade)))
		event := shared.NewCertificateIssuedEvent(cmd.UserID, cert.ID, cert.CourseID, string(cert.Grade), cert.RelatedToQuiz)
		if cmd.CorrelationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		publish(event)
	}
}
