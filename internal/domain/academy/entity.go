// Package academy contains the e-learning catalog model: courses made
// of modules made of lessons, and the letter-grade scale shared by
// course certificates and quiz certificates.
package academy

import (
	"errors"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// GRADES
// ══════════════════════════════════════════════════════════════════════════════

// Grade is a letter grade on an A-F scale.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// GradeForPercentage maps a 0-100 percentage to a letter grade.
func GradeForPercentage(pct float64) Grade {
	switch {
	case pct >= 90:
		return GradeA
	case pct >= 80:
		return GradeB
	case pct >= 70:
		return GradeC
	case pct >= 60:
		return GradeD
	default:
		return GradeF
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Lesson is a single unit of learning content.
type Lesson struct {
	// ID - unique identifier (UUID string).
	ID string `json:"id"`

	// Title - display name of the lesson.
	Title string `json:"title"`

	// Duration - estimated time to complete, in seconds.
	Duration float64 `json:"duration,omitempty"`
}

// Module groups an ordered list of lessons.
type Module struct {
	// ID - unique identifier (UUID string).
	ID string `json:"id"`

	// Title - display name of the module.
	Title string `json:"title"`

	// Lessons in presentation order.
	Lessons []Lesson `json:"lessons"`
}

// Course is a complete academy course.
type Course struct {
	// ID - unique identifier (UUID string).
	ID string `json:"id"`

	// Title - display name of the course.
	Title string `json:"title"`

	// Description - what the course teaches.
	Description string `json:"description,omitempty"`

	// Modules in presentation order.
	Modules []Module `json:"modules"`

	// PublishedAt - when the course was added to the catalog.
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// ErrEmptyCourse - a course must contain at least one lesson.
var ErrEmptyCourse = errors.New("course has no lessons")

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS
// ══════════════════════════════════════════════════════════════════════════════

// LessonIDs returns every lesson id across all modules.
func (c *Course) LessonIDs() []string {
	var ids []string
	for _, m := range c.Modules {
		for _, l := range m.Lessons {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

// TotalLessons returns the lesson count across all modules.
func (c *Course) TotalLessons() int {
	count := 0
	for _, m := range c.Modules {
		count += len(m.Lessons)
	}
	return count
}

// IsCompletedBy reports whether every lesson of the course appears in
// the given completed-lesson set. A course with no lessons is never
// considered complete.
func (c *Course) IsCompletedBy(completedLessons map[string]bool) bool {
	total := c.TotalLessons()
	if total == 0 {
		return false
	}

	for _, m := range c.Modules {
		for _, l := range m.Lessons {
			if !completedLessons[l.ID] {
				return false
			}
		}
	}
	return true
}

// CompletionPercentage returns the share of the course's lessons
// present in the completed-lesson set, on a 0-100 scale.
func (c *Course) CompletionPercentage(completedLessons map[string]bool) float64 {
	total := c.TotalLessons()
	if total == 0 {
		return 0
	}

	done := 0
	for _, m := range c.Modules {
		for _, l := range m.Lessons {
			if completedLessons[l.ID] {
				done++
			}
		}
	}
	return float64(done) / float64(total) * 100
}
