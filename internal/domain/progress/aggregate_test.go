package progress

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blen-hub/blen-progress-hub/internal/domain/academy"
	"github.com/blen-hub/blen-progress-hub/internal/domain/activity"
	"github.com/blen-hub/blen-progress-hub/internal/domain/challenge"
	"github.com/blen-hub/blen-progress-hub/internal/domain/quiz"
	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
)

var baseTime = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func newAggregate(t *testing.T) *UserProgress {
	t.Helper()

	p, err := New("user-1", baseTime)
	require.NoError(t, err)
	return p
}

func hikeAt(id string, start time.Time, distanceKm float64) *activity.SportActivity {
	act := &activity.SportActivity{
		ID:         id,
		Type:       activity.TypeHiking,
		StartTime:  start,
		Duration:   600,
		Calories:   100,
		Difficulty: shared.DifficultyAdvanced,
	}
	if distanceKm > 0 {
		act.Distance = &distanceKm
	}
	return act
}

// assertDerivedStats checks that the cumulative stats equal the sums
// over the recorded activities, and that the level follows the points.
func assertDerivedStats(t *testing.T, p *UserProgress) {
	t.Helper()

	var distance, duration float64
	var calories int
	counts := map[activity.Type]int{}
	for i := range p.Activities {
		distance += p.Activities[i].DistanceKm()
		duration += p.Activities[i].Duration
		calories += p.Activities[i].Calories
		counts[p.Activities[i].Type]++
	}

	assert.Equal(t, distance, p.TotalDistance)
	assert.Equal(t, duration, p.TotalDuration)
	assert.Equal(t, calories, p.TotalCalories)
	assert.Equal(t, counts, p.ActivityCount)
	assert.Equal(t, p.TotalPoints/100+1, p.Level)
}

func TestNew_SeededDefaults(t *testing.T) {
	p := newAggregate(t)

	assert.Equal(t, 0, p.TotalPoints)
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, 0, p.WeeklyStreak)
	assert.Nil(t, p.LastActivityDate)

	require.Len(t, p.Goals, 3)
	assert.Equal(t, GoalDistance, p.Goals[0].Type)
	assert.Equal(t, 5.0, p.Goals[0].Target)
	assert.Equal(t, GoalDuration, p.Goals[1].Type)
	assert.Equal(t, 30.0, p.Goals[1].Target)
	assert.Equal(t, GoalCalories, p.Goals[2].Type)
	assert.Equal(t, 300.0, p.Goals[2].Target)
	for _, g := range p.Goals {
		assert.Equal(t, PeriodDaily, g.Period)
	}

	require.Len(t, p.Milestones, 2)
	assert.Equal(t, "Novice Traveler", p.Milestones[0].Title)
	assert.Equal(t, 10.0, p.Milestones[0].Threshold)
	assert.Equal(t, 100, p.Milestones[0].Reward)
	assert.Equal(t, "Active Explorer", p.Milestones[1].Title)
	assert.Equal(t, 18000.0, p.Milestones[1].Threshold)
	assert.Equal(t, 150, p.Milestones[1].Reward)
}

func TestNew_RequiresUserID(t *testing.T) {
	_, err := New("", baseTime)
	assert.ErrorIs(t, err, shared.ErrInvalidUserID)
}

func TestRecordActivity_PointsAndStats(t *testing.T) {
	p := newAggregate(t)

	// 600s advanced, no link: 10 + floor(600/300) + 15 = 27.
	result, err := p.RecordActivity(hikeAt("a-1", baseTime, 2), baseTime)
	require.NoError(t, err)

	assert.Equal(t, 27, result.ActivityPoints)
	assert.Equal(t, 27, p.TotalPoints)
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, 2.0, p.TotalDistance)
	assert.Equal(t, 600.0, p.TotalDuration)
	assert.Equal(t, 100, p.TotalCalories)
	assert.Equal(t, 1, p.ActivityCount[activity.TypeHiking])
	assertDerivedStats(t, p)
}

func TestRecordActivity_Streak(t *testing.T) {
	p := newAggregate(t)

	_, err := p.RecordActivity(hikeAt("a-1", baseTime, 1), baseTime)
	require.NoError(t, err)
	assert.Equal(t, 1, p.WeeklyStreak)

	// Next day extends the streak.
	_, err = p.RecordActivity(hikeAt("a-2", baseTime.AddDate(0, 0, 1), 1), baseTime)
	require.NoError(t, err)
	assert.Equal(t, 2, p.WeeklyStreak)

	// Same day leaves it untouched.
	_, err = p.RecordActivity(hikeAt("a-3", baseTime.AddDate(0, 0, 1).Add(2*time.Hour), 1), baseTime)
	require.NoError(t, err)
	assert.Equal(t, 2, p.WeeklyStreak)

	// A three-day gap resets to 1.
	_, err = p.RecordActivity(hikeAt("a-4", baseTime.AddDate(0, 0, 4), 1), baseTime)
	require.NoError(t, err)
	assert.Equal(t, 1, p.WeeklyStreak)

	assert.Equal(t, baseTime.AddDate(0, 0, 4), *p.LastActivityDate)
}

func TestRecordActivity_MilestoneAchievedOnce(t *testing.T) {
	p := newAggregate(t)

	result, err := p.RecordActivity(hikeAt("a-1", baseTime, 12), baseTime)
	require.NoError(t, err)

	require.Len(t, result.MilestonesAchieved, 1)
	assert.Equal(t, "Novice Traveler", result.MilestonesAchieved[0].Title)

	// 27 activity points + 100 milestone reward.
	assert.Equal(t, 127, p.TotalPoints)
	assert.Equal(t, 2, p.Level)

	m := p.Milestones[0]
	assert.True(t, m.IsAchieved)
	require.NotNil(t, m.AchievedDate)
	firstAchieved := *m.AchievedDate

	// Another big hike must not re-award or restamp.
	result, err = p.RecordActivity(hikeAt("a-2", baseTime.AddDate(0, 0, 1), 20), baseTime.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, result.MilestonesAchieved)
	assert.True(t, p.Milestones[0].IsAchieved)
	assert.Equal(t, firstAchieved, *p.Milestones[0].AchievedDate)
	assertDerivedStats(t, p)
}

func TestRecordActivity_SpecificActivityMilestone(t *testing.T) {
	p := newAggregate(t)
	p.Milestones = append(p.Milestones, Milestone{
		ID:           "m-yoga",
		Title:        "Zen Student",
		Type:         MilestoneSpecificActivity,
		ActivityType: activity.TypeYoga,
		Threshold:    2,
		Reward:       50,
	})

	yoga := func(id string, day int) *activity.SportActivity {
		return &activity.SportActivity{
			ID:         id,
			Type:       activity.TypeYoga,
			StartTime:  baseTime.AddDate(0, 0, day),
			Duration:   1800,
			Calories:   100,
			Difficulty: shared.DifficultyBeginner,
		}
	}

	_, err := p.RecordActivity(yoga("y-1", 0), baseTime)
	require.NoError(t, err)
	assert.False(t, p.Milestones[2].IsAchieved)

	result, err := p.RecordActivity(yoga("y-2", 1), baseTime)
	require.NoError(t, err)
	require.Len(t, result.MilestonesAchieved, 1)
	assert.Equal(t, "Zen Student", result.MilestonesAchieved[0].Title)
}

func TestRecordActivity_CompletesChallenge(t *testing.T) {
	p := newAggregate(t)

	ch, err := challenge.New(challenge.NewParams{
		ID:        "ch-1",
		Title:     "May Miles",
		Type:      challenge.TypeDistance,
		Target:    10,
		StartDate: baseTime.AddDate(0, 0, -1),
		EndDate:   baseTime.AddDate(0, 0, 7),
		Reward:    200,
	})
	require.NoError(t, err)
	require.True(t, p.JoinChallenge(*ch, baseTime))

	result, err := p.RecordActivity(hikeAt("a-1", baseTime, 6), baseTime)
	require.NoError(t, err)
	assert.Empty(t, result.ChallengesCompleted)
	require.Len(t, p.ActiveChallenges, 1)

	result, err = p.RecordActivity(hikeAt("a-2", baseTime.AddDate(0, 0, 1), 5), baseTime)
	require.NoError(t, err)
	require.Len(t, result.ChallengesCompleted, 1)
	assert.Equal(t, "ch-1", result.ChallengesCompleted[0].ID)

	// Exactly one of active/completed holds the challenge.
	assert.Empty(t, p.ActiveChallenges)
	require.Len(t, p.CompletedChallenges, 1)

	// 200 challenge points were added on top of activity points.
	assert.Equal(t, 27+27+200, p.TotalPoints)
	assertDerivedStats(t, p)
}

func TestRecordActivity_OutsideChallengeWindow(t *testing.T) {
	p := newAggregate(t)

	ch, err := challenge.New(challenge.NewParams{
		ID:        "ch-1",
		Title:     "June Miles",
		Type:      challenge.TypeDistance,
		Target:    5,
		StartDate: baseTime.AddDate(0, 1, 0),
		EndDate:   baseTime.AddDate(0, 1, 7),
		Reward:    200,
	})
	require.NoError(t, err)
	p.JoinChallenge(*ch, baseTime)

	_, err = p.RecordActivity(hikeAt("a-1", baseTime, 20), baseTime)
	require.NoError(t, err)

	require.Len(t, p.ActiveChallenges, 1)
	entry, err := p.ActiveChallenges[0].EntryFor("user-1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, entry.Progress)
}

func TestToggleFavorite(t *testing.T) {
	p := newAggregate(t)

	assert.True(t, p.ToggleFavorite("adv-1", baseTime))
	assert.True(t, p.FavoriteAdventures["adv-1"])

	assert.False(t, p.ToggleFavorite("adv-1", baseTime))
	assert.False(t, p.FavoriteAdventures["adv-1"])
	assert.Equal(t, 0, p.TotalPoints)
}

func TestMarkAdventureCompleted_PointsByDifficulty(t *testing.T) {
	p := newAggregate(t)

	points, err := p.MarkAdventureCompleted("adv-1", shared.DifficultyExpert, baseTime)
	require.NoError(t, err)
	assert.Equal(t, 50, points)
	assert.Equal(t, 50, p.TotalPoints)
	assert.Equal(t, 1, p.Level)

	points, err = p.MarkAdventureCompleted("adv-2", shared.DifficultyBeginner, baseTime)
	require.NoError(t, err)
	assert.Equal(t, 10, points)
	assert.Equal(t, 60, p.TotalPoints)
}

func TestMarkAdventureCompleted_Idempotent(t *testing.T) {
	p := newAggregate(t)

	_, err := p.MarkAdventureCompleted("adv-1", shared.DifficultyAdvanced, baseTime)
	require.NoError(t, err)

	points, err := p.MarkAdventureCompleted("adv-1", shared.DifficultyAdvanced, baseTime)
	require.NoError(t, err)
	assert.Equal(t, 0, points)
	assert.Equal(t, 30, p.TotalPoints)
}

func TestMarkLessonCompleted(t *testing.T) {
	p := newAggregate(t)

	assert.Equal(t, 10, p.MarkLessonCompleted("l-1", baseTime))
	assert.Equal(t, 0, p.MarkLessonCompleted("l-1", baseTime))
	assert.Equal(t, 10, p.TotalPoints)
}

func courseWithLessons(ids ...string) *academy.Course {
	lessons := make([]academy.Lesson, len(ids))
	for i, id := range ids {
		lessons[i] = academy.Lesson{ID: id}
	}
	return &academy.Course{
		ID:      "course-1",
		Title:   "Trail Safety",
		Modules: []academy.Module{{ID: "m-1", Lessons: lessons}},
	}
}

func TestCheckCourseCompletion(t *testing.T) {
	p := newAggregate(t)
	course := courseWithLessons("l-1", "l-2")

	p.MarkLessonCompleted("l-1", baseTime)
	assert.Nil(t, p.CheckCourseCompletion(course, baseTime))

	p.MarkLessonCompleted("l-2", baseTime)
	cert := p.CheckCourseCompletion(course, baseTime)
	require.NotNil(t, cert)
	assert.Equal(t, "course-1", cert.CourseID)
	assert.Equal(t, academy.GradeA, cert.Grade)
	assert.Equal(t, "Trail Safety", cert.CourseTitle)
	assert.False(t, cert.RelatedToQuiz)

	// 2 lessons + course completion.
	assert.Equal(t, 10+10+100, p.TotalPoints)
	assert.Equal(t, 2, p.Level)

	// Second check must not issue another certificate.
	assert.Nil(t, p.CheckCourseCompletion(course, baseTime))
	assert.Len(t, p.Certificates, 1)
}

func TestJoinChallenge_ExclusiveMembership(t *testing.T) {
	p := newAggregate(t)

	ch, err := challenge.New(challenge.NewParams{
		ID:        "ch-1",
		Title:     "Weekender",
		Type:      challenge.TypeActivities,
		Target:    1,
		StartDate: baseTime,
		EndDate:   baseTime.AddDate(0, 0, 7),
		Reward:    100,
	})
	require.NoError(t, err)

	require.True(t, p.JoinChallenge(*ch, baseTime))
	assert.False(t, p.JoinChallenge(*ch, baseTime))
	require.Len(t, p.ActiveChallenges, 1)

	entry, err := p.ActiveChallenges[0].EntryFor("user-1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, entry.Progress)
	assert.Equal(t, 1, entry.Rank)

	// Complete it, then a re-join must still be refused.
	_, err = p.RecordActivity(hikeAt("a-1", baseTime.Add(time.Hour), 1), baseTime)
	require.NoError(t, err)
	require.Len(t, p.CompletedChallenges, 1)
	assert.False(t, p.JoinChallenge(*ch, baseTime))
	assert.Empty(t, p.ActiveChallenges)
}

func TestExpireChallenges(t *testing.T) {
	p := newAggregate(t)

	ch, err := challenge.New(challenge.NewParams{
		ID:        "ch-1",
		Title:     "Flash Sprint",
		Type:      challenge.TypeDuration,
		Target:    36000,
		StartDate: baseTime,
		EndDate:   baseTime.AddDate(0, 0, 2),
		Reward:    300,
	})
	require.NoError(t, err)
	p.JoinChallenge(*ch, baseTime)

	assert.Empty(t, p.ExpireChallenges(baseTime.AddDate(0, 0, 1)))

	expired := p.ExpireChallenges(baseTime.AddDate(0, 0, 3))
	require.Len(t, expired, 1)
	assert.Empty(t, p.ActiveChallenges)
	assert.Len(t, p.CompletedChallenges, 1)
	// Expiry pays nothing.
	assert.Equal(t, 0, p.TotalPoints)
}

func TestUpdateGoalProgress_AwardsOnce(t *testing.T) {
	p := newAggregate(t)
	goalID := p.Goals[0].ID // distance, target 5.0

	completed, err := p.UpdateGoalProgress(goalID, 3, baseTime)
	require.NoError(t, err)
	assert.False(t, completed)
	assert.Equal(t, 0, p.TotalPoints)

	completed, err = p.UpdateGoalProgress(goalID, 5.5, baseTime)
	require.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, 50, p.TotalPoints)

	// Pushing further past the target must not re-award.
	completed, err = p.UpdateGoalProgress(goalID, 9, baseTime)
	require.NoError(t, err)
	assert.False(t, completed)
	assert.Equal(t, 50, p.TotalPoints)
}

func TestUpdateGoalProgress_UnknownGoal(t *testing.T) {
	p := newAggregate(t)

	_, err := p.UpdateGoalProgress("missing", 1, baseTime)
	assert.ErrorIs(t, err, shared.ErrGoalNotFound)
}

func TestRolloverGoals(t *testing.T) {
	p := newAggregate(t)
	goalID := p.Goals[0].ID

	_, err := p.UpdateGoalProgress(goalID, 6, baseTime)
	require.NoError(t, err)

	// Still inside the daily window: nothing rolls.
	assert.Equal(t, 0, p.RolloverGoals(baseTime.Add(2*time.Hour)))

	nextDay := baseTime.AddDate(0, 0, 1)
	assert.Equal(t, 3, p.RolloverGoals(nextDay))
	assert.Equal(t, 0.0, p.Goals[0].Progress)
	assert.False(t, p.Goals[0].IsCompleted)
	assert.Equal(t, nextDay, p.Goals[0].StartDate)

	// A completed goal can be earned again in the new window.
	completed, err := p.UpdateGoalProgress(goalID, 7, nextDay)
	require.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, 100, p.TotalPoints)
}

func submittableQuiz(n, required int, difficulty shared.Difficulty) *quiz.Quiz {
	questions := make([]quiz.Question, n)
	for i := range questions {
		questions[i] = quiz.Question{ID: "q", Options: []string{"a", "b"}}
	}
	return &quiz.Quiz{
		ID:            "quiz-1",
		Title:         "Navigation Skills",
		Category:      quiz.CategoryNavigation,
		Difficulty:    difficulty,
		Questions:     questions,
		RequiredScore: required,
	}
}

func TestSubmitQuiz_Pass(t *testing.T) {
	p := newAggregate(t)
	q := submittableQuiz(10, 8, shared.DifficultyAdvanced)

	result, err := p.SubmitQuiz(q, 9, "", baseTime)
	require.NoError(t, err)

	assert.True(t, result.Passed)
	// round(50 * 2.0 * 9/10) = 90.
	assert.Equal(t, 90, result.Points)
	assert.Equal(t, 90, p.TotalPoints)
	assert.Equal(t, 9, p.QuizScores["quiz-1"])

	require.NotNil(t, result.Certificate)
	assert.True(t, result.Certificate.RelatedToQuiz)
	assert.Equal(t, academy.GradeA, result.Certificate.Grade)
	assert.Equal(t, 9, *result.Certificate.Score)
	assert.Equal(t, 10, *result.Certificate.TotalQuestions)
	assert.Equal(t, "Navigation Skills", result.Certificate.CourseTitle)
	assert.Len(t, p.Certificates, 1)
}

func TestSubmitQuiz_FailStillEarnsScaledPoints(t *testing.T) {
	p := newAggregate(t)
	q := submittableQuiz(10, 8, shared.DifficultyAdvanced)

	result, err := p.SubmitQuiz(q, 5, "", baseTime)
	require.NoError(t, err)

	assert.False(t, result.Passed)
	assert.Nil(t, result.Certificate)
	// round(50 * 2.0 * 5/10) = 50, awarded even on a fail.
	assert.Equal(t, 50, result.Points)
	assert.Empty(t, p.Certificates)
}

func TestSubmitQuiz_Twice(t *testing.T) {
	p := newAggregate(t)
	q := submittableQuiz(4, 3, shared.DifficultyBeginner)

	_, err := p.SubmitQuiz(q, 3, "", baseTime)
	require.NoError(t, err)

	_, err = p.SubmitQuiz(q, 4, "", baseTime)
	assert.ErrorIs(t, err, quiz.ErrAlreadySubmitted)
}

func TestJSONRoundTrip(t *testing.T) {
	p := newAggregate(t)

	ch, err := challenge.New(challenge.NewParams{
		ID:        "ch-1",
		Title:     "May Miles",
		Type:      challenge.TypeDistance,
		Target:    100,
		StartDate: baseTime,
		EndDate:   baseTime.AddDate(0, 0, 30),
		Reward:    500,
	})
	require.NoError(t, err)
	p.JoinChallenge(*ch, baseTime)

	_, err = p.RecordActivity(hikeAt("a-1", baseTime, 12), baseTime)
	require.NoError(t, err)
	_, err = p.MarkAdventureCompleted("adv-1", shared.DifficultyExpert, baseTime)
	require.NoError(t, err)
	p.MarkLessonCompleted("l-1", baseTime)

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var restored UserProgress
	require.NoError(t, json.Unmarshal(data, &restored))

	assert.Equal(t, *p, restored)
	assertDerivedStats(t, &restored)
}
