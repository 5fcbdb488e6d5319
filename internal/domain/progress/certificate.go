package progress

import (
	"time"

	"github.com/blen-hub/blen-progress-hub/internal/domain/academy"
)

// Certificate records a course completion or a passed quiz. The list
// of certificates on the aggregate is append-only.
type Certificate struct {
	// ID - unique identifier (UUID string).
	ID string `json:"id"`

	// CourseID - the completed course, empty for standalone quizzes.
	CourseID string `json:"course_id,omitempty"`

	// UserID - the certificate holder.
	UserID string `json:"user_id"`

	// IssueDate - when the certificate was issued.
	IssueDate time.Time `json:"issue_date"`

	// Grade - letter grade on the A-F scale.
	Grade academy.Grade `json:"grade"`

	// RelatedToQuiz - true when issued for a passed quiz.
	RelatedToQuiz bool `json:"related_to_quiz"`

	// Score - correct answers, set for quiz certificates only.
	Score *int `json:"score,omitempty"`

	// TotalQuestions - quiz size, set for quiz certificates only.
	TotalQuestions *int `json:"total_questions,omitempty"`

	// CourseTitle - display title snapshot at issue time.
	CourseTitle string `json:"course_title,omitempty"`
}
