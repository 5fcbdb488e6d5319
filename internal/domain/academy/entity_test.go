package academy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGradeForPercentage(t *testing.T) {
	tests := []struct {
		pct  float64
		want Grade
	}{
		{100, GradeA},
		{90, GradeA},
		{89.9, GradeB},
		{80, GradeB},
		{79, GradeC},
		{70, GradeC},
		{69, GradeD},
		{60, GradeD},
		{59.9, GradeF},
		{0, GradeF},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, GradeForPercentage(tt.pct), "pct=%v", tt.pct)
	}
}

func testCourse() *Course {
	return &Course{
		ID:    "course-1",
		Title: "Trail Safety Fundamentals",
		Modules: []Module{
			{ID: "m-1", Title: "Basics", Lessons: []Lesson{
				{ID: "l-1", Title: "Planning"},
				{ID: "l-2", Title: "Gear"},
			}},
			{ID: "m-2", Title: "Field", Lessons: []Lesson{
				{ID: "l-3", Title: "Navigation"},
			}},
		},
	}
}

func TestCourseTotals(t *testing.T) {
	c := testCourse()

	assert.Equal(t, 3, c.TotalLessons())
	assert.Equal(t, []string{"l-1", "l-2", "l-3"}, c.LessonIDs())
}

func TestIsCompletedBy(t *testing.T) {
	c := testCourse()

	done := map[string]bool{"l-1": true, "l-2": true}
	assert.False(t, c.IsCompletedBy(done))

	done["l-3"] = true
	assert.True(t, c.IsCompletedBy(done))
}

func TestIsCompletedBy_EmptyCourse(t *testing.T) {
	c := &Course{ID: "empty"}
	assert.False(t, c.IsCompletedBy(map[string]bool{}))
}

func TestCompletionPercentage(t *testing.T) {
	c := testCourse()

	assert.Equal(t, 0.0, c.CompletionPercentage(map[string]bool{}))
	assert.InDelta(t, 66.66, c.CompletionPercentage(map[string]bool{"l-1": true, "l-3": true}), 0.01)
	assert.Equal(t, 100.0, c.CompletionPercentage(map[string]bool{"l-1": true, "l-2": true, "l-3": true}))
}
