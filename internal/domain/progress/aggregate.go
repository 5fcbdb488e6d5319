// Package progress contains the UserProgress aggregate, the single
// consistency boundary for a user's gamification state: activities,
// streaks, milestones, challenges, goals, certificates, and points.
//
// The aggregate is mutated only through the operations defined here.
// Every operation keeps the derived fields consistent: the level is
// always recomputed from the point total, and the cumulative stats
// always equal the sums over the recorded activities.
package progress

import (
	"time"

	"github.com/google/uuid"

	"github.com/blen-hub/blen-progress-hub/internal/domain/academy"
	"github.com/blen-hub/blen-progress-hub/internal/domain/activity"
	"github.com/blen-hub/blen-progress-hub/internal/domain/challenge"
	"github.com/blen-hub/blen-progress-hub/internal/domain/quiz"
	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
	"github.com/blen-hub/blen-progress-hub/pkg/timeutil"
)

// Point awards for the fixed-value operations.
const (
	lessonCompletionPoints = 10
	courseCompletionPoints = 100
	goalCompletionPoints   = 50
	pointsPerLevel         = 100
)

// Achievement is a legacy unlock record. It is kept in the persisted
// shape for compatibility but no operation mutates it.
type Achievement struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Icon         string     `json:"icon,omitempty"`
	UnlockedDate *time.Time `json:"unlocked_date,omitempty"`
	Points       int        `json:"points"`
	Type         string     `json:"type"`
}

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATE ROOT
// ══════════════════════════════════════════════════════════════════════════════

// UserProgress is the aggregate root holding all of a user's progress
// state. One logical instance exists per user; it is persisted as a
// single JSON document.
type UserProgress struct {
	// UserID - owner of the aggregate.
	UserID string `json:"user_id"`

	// CompletedAdventures - adventure ids, membership only.
	CompletedAdventures map[string]bool `json:"completed_adventures"`

	// FavoriteAdventures - adventure ids marked as favorites.
	FavoriteAdventures map[string]bool `json:"favorite_adventures"`

	// CompletedLessons - lesson ids across all courses.
	CompletedLessons map[string]bool `json:"completed_lessons"`

	// Certificates - append-only list of issued certificates.
	Certificates []Certificate `json:"certificates"`

	// QuizScores - last score per quiz id.
	QuizScores map[string]int `json:"quiz_scores"`

	// Activities - append-only list of recorded sessions.
	Activities []activity.SportActivity `json:"activities"`

	// Goals - recurring personal targets.
	Goals []Goal `json:"goals"`

	// ActiveChallenges - joined challenges still in play. A challenge
	// lives in exactly one of the two challenge lists.
	ActiveChallenges []challenge.Challenge `json:"active_challenges"`

	// CompletedChallenges - challenges that finished.
	CompletedChallenges []challenge.Challenge `json:"completed_challenges"`

	// Milestones - one-time achievements over cumulative stats.
	Milestones []Milestone `json:"milestones"`

	// TotalPoints - lifetime points earned.
	TotalPoints int `json:"total_points"`

	// Level - derived from TotalPoints, never set independently.
	Level int `json:"level"`

	// Achievements - legacy unlock records, persisted but inert.
	Achievements []Achievement `json:"achievements"`

	// WeeklyStreak - consecutive-day activity streak.
	WeeklyStreak int `json:"weekly_streak"`

	// LastActivityDate - start time of the most recent activity.
	LastActivityDate *time.Time `json:"last_activity_date,omitempty"`

	// TotalDistance - cumulative kilometers, derived from Activities.
	TotalDistance float64 `json:"total_distance"`

	// TotalDuration - cumulative seconds, derived from Activities.
	TotalDuration float64 `json:"total_duration"`

	// TotalCalories - cumulative kilocalories, derived from Activities.
	TotalCalories int `json:"total_calories"`

	// ActivityCount - sessions per activity type, derived.
	ActivityCount map[activity.Type]int `json:"activity_count"`

	// CreatedAt - when the aggregate was first seeded.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt - time of the last mutation.
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a freshly seeded aggregate for the user: empty history,
// the default daily goals, the default milestones, level 1.
func New(userID string, now time.Time) (*UserProgress, error) {
	if userID == "" {
		return nil, shared.ErrInvalidUserID
	}

	now = now.UTC()
	return &UserProgress{
		UserID:              userID,
		CompletedAdventures: map[string]bool{},
		FavoriteAdventures:  map[string]bool{},
		CompletedLessons:    map[string]bool{},
		Certificates:        []Certificate{},
		QuizScores:          map[string]int{},
		Activities:          []activity.SportActivity{},
		Goals:               DefaultGoals(now),
		ActiveChallenges:    []challenge.Challenge{},
		CompletedChallenges: []challenge.Challenge{},
		Milestones:          DefaultMilestones(),
		TotalPoints:         0,
		Level:               1,
		Achievements:        []Achievement{},
		WeeklyStreak:        0,
		ActivityCount:       map[activity.Type]int{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RECORD ACTIVITY
// ══════════════════════════════════════════════════════════════════════════════

// RecordActivityResult reports everything a recorded activity changed.
type RecordActivityResult struct {
	// ActivityPoints - points from the activity itself.
	ActivityPoints int

	// MilestonesAchieved - milestones that flipped during this call.
	MilestonesAchieved []Milestone

	// ChallengesCompleted - challenges that finished during this call.
	ChallengesCompleted []challenge.Challenge

	// StreakBefore and StreakAfter - streak around the call.
	StreakBefore int
	StreakAfter  int

	// LevelBefore and LevelAfter - level around the call.
	LevelBefore int
	LevelAfter  int
}

// TotalPointsAwarded sums every point source of the call.
func (r *RecordActivityResult) TotalPointsAwarded() int {
	total := r.ActivityPoints
	for _, m := range r.MilestonesAchieved {
		total += m.Reward
	}
	for _, c := range r.ChallengesCompleted {
		total += c.Reward
	}
	return total
}

// RecordActivity appends the activity and runs the full gamification
// pass: cumulative stats, streak, milestone checks, active challenge
// progress, and point awards.
func (p *UserProgress) RecordActivity(act *activity.SportActivity, now time.Time) (*RecordActivityResult, error) {
	if act == nil || act.ID == "" {
		return nil, activity.ErrMissingID
	}
	if !act.Type.IsValid() {
		return nil, activity.ErrInvalidType
	}

	result := &RecordActivityResult{
		StreakBefore: p.WeeklyStreak,
		LevelBefore:  p.Level,
	}

	p.Activities = append(p.Activities, *act)

	p.TotalDistance += act.DistanceKm()
	p.TotalDuration += act.Duration
	p.TotalCalories += act.Calories
	p.ActivityCount[act.Type]++

	p.updateStreak(act.StartTime)
	result.MilestonesAchieved = p.checkMilestones(now)
	result.ChallengesCompleted = p.applyActivityToChallenges(act)

	result.ActivityPoints = act.CompletionPoints()
	p.TotalPoints += result.ActivityPoints

	p.recalculateLevel()
	p.touch(now)

	result.StreakAfter = p.WeeklyStreak
	result.LevelAfter = p.Level
	return result, nil
}

// updateStreak advances the consecutive-day streak. A one-day gap
// extends the streak, a longer gap resets it to 1, and a same-day or
// out-of-order activity leaves it untouched. The last activity date
// moves forward unconditionally.
func (p *UserProgress) updateStreak(activityDate time.Time) {
	activityDate = activityDate.UTC()

	if p.LastActivityDate == nil {
		p.WeeklyStreak = 1
	} else {
		switch gap := timeutil.DayGap(*p.LastActivityDate, activityDate); {
		case gap == 1:
			p.WeeklyStreak++
		case gap > 1:
			p.WeeklyStreak = 1
		}
	}

	p.LastActivityDate = &activityDate
}

// checkMilestones evaluates every unachieved milestone against its
// cumulative metric and awards the reward for each one that flips.
func (p *UserProgress) checkMilestones(now time.Time) []Milestone {
	var achieved []Milestone

	for i := range p.Milestones {
		m := &p.Milestones[i]
		if m.IsAchieved {
			continue
		}

		var metric float64
		switch m.Type {
		case MilestoneTotalDistance:
			metric = p.TotalDistance
		case MilestoneTotalDuration:
			metric = p.TotalDuration
		case MilestoneTotalCalories:
			metric = float64(p.TotalCalories)
		case MilestoneTotalActivities:
			metric = float64(len(p.Activities))
		case MilestoneSpecificActivity:
			metric = float64(p.ActivityCount[m.ActivityType])
		default:
			continue
		}

		if metric >= m.Threshold && m.achieve(now) {
			p.TotalPoints += m.Reward
			achieved = append(achieved, *m)
		}
	}
	return achieved
}

// applyActivityToChallenges adds the activity's contribution to every
// active challenge whose window contains it, completing challenges
// whose target is reached. A completed challenge moves to the
// completed list in the same call.
func (p *UserProgress) applyActivityToChallenges(act *activity.SportActivity) []challenge.Challenge {
	var completed []challenge.Challenge

	remaining := p.ActiveChallenges[:0]
	for i := range p.ActiveChallenges {
		ch := p.ActiveChallenges[i]

		done, err := ch.ApplyActivity(p.UserID, act)
		if err != nil {
			// Not on the leaderboard; leave the challenge untouched.
			remaining = append(remaining, ch)
			continue
		}

		if done {
			p.TotalPoints += ch.Reward
			p.CompletedChallenges = append(p.CompletedChallenges, ch)
			completed = append(completed, ch)
		} else {
			remaining = append(remaining, ch)
		}
	}
	p.ActiveChallenges = remaining

	return completed
}

// ══════════════════════════════════════════════════════════════════════════════
// ADVENTURES & ACADEMY
// ══════════════════════════════════════════════════════════════════════════════

// ToggleFavorite flips the adventure's membership in the favorites
// set and reports whether it is now a favorite.
func (p *UserProgress) ToggleFavorite(adventureID string, now time.Time) bool {
	if p.FavoriteAdventures[adventureID] {
		delete(p.FavoriteAdventures, adventureID)
		p.touch(now)
		return false
	}
	p.FavoriteAdventures[adventureID] = true
	p.touch(now)
	return true
}

// MarkAdventureCompleted adds the adventure to the completed set and
// awards points by difficulty. Completing the same adventure again
// awards nothing.
func (p *UserProgress) MarkAdventureCompleted(adventureID string, difficulty shared.Difficulty, now time.Time) (int, error) {
	if !difficulty.IsValid() {
		return 0, activity.ErrInvalidDifficulty
	}
	if p.CompletedAdventures[adventureID] {
		return 0, nil
	}

	p.CompletedAdventures[adventureID] = true
	points := difficulty.AdventureReward()
	p.TotalPoints += points
	p.recalculateLevel()
	p.touch(now)
	return points, nil
}

// MarkLessonCompleted adds the lesson to the completed set and awards
// a flat reward. Re-completing a lesson awards nothing.
func (p *UserProgress) MarkLessonCompleted(lessonID string, now time.Time) int {
	if p.CompletedLessons[lessonID] {
		return 0
	}

	p.CompletedLessons[lessonID] = true
	p.TotalPoints += lessonCompletionPoints
	p.recalculateLevel()
	p.touch(now)
	return lessonCompletionPoints
}

// HasCertificateForCourse reports whether a course certificate was
// already issued for the course.
func (p *UserProgress) HasCertificateForCourse(courseID string) bool {
	for i := range p.Certificates {
		if p.Certificates[i].CourseID == courseID && !p.Certificates[i].RelatedToQuiz {
			return true
		}
	}
	return false
}

// CheckCourseCompletion issues a certificate and awards points when
// every lesson of the course has been completed. Returns nil when the
// course is unfinished or a certificate was already issued.
func (p *UserProgress) CheckCourseCompletion(course *academy.Course, now time.Time) *Certificate {
	if course == nil || !course.IsCompletedBy(p.CompletedLessons) {
		return nil
	}
	if p.HasCertificateForCourse(course.ID) {
		return nil
	}

	cert := Certificate{
		ID:          uuid.NewString(),
		CourseID:    course.ID,
		UserID:      p.UserID,
		IssueDate:   now.UTC(),
		Grade:       academy.GradeForPercentage(course.CompletionPercentage(p.CompletedLessons)),
		CourseTitle: course.Title,
	}
	p.Certificates = append(p.Certificates, cert)
	p.TotalPoints += courseCompletionPoints
	p.recalculateLevel()
	p.touch(now)
	return &cert
}

// ══════════════════════════════════════════════════════════════════════════════
// CHALLENGES
// ══════════════════════════════════════════════════════════════════════════════

// JoinChallenge adds the challenge to the active list with the user on
// its leaderboard. Joining a challenge already held, active or
// completed, is a no-op.
func (p *UserProgress) JoinChallenge(ch challenge.Challenge, now time.Time) bool {
	if p.hasChallenge(ch.ID) {
		return false
	}

	ch.Join(uuid.NewString(), p.UserID)
	p.ActiveChallenges = append(p.ActiveChallenges, ch)
	p.touch(now)
	return true
}

func (p *UserProgress) hasChallenge(id string) bool {
	for i := range p.ActiveChallenges {
		if p.ActiveChallenges[i].ID == id {
			return true
		}
	}
	for i := range p.CompletedChallenges {
		if p.CompletedChallenges[i].ID == id {
			return true
		}
	}
	return false
}

// ExpireChallenges moves every active challenge whose window has fully
// passed to the completed list, without awarding points. Returns the
// challenges that expired.
func (p *UserProgress) ExpireChallenges(now time.Time) []challenge.Challenge {
	var expired []challenge.Challenge

	remaining := p.ActiveChallenges[:0]
	for i := range p.ActiveChallenges {
		ch := p.ActiveChallenges[i]
		if ch.IsExpired(now) {
			p.CompletedChallenges = append(p.CompletedChallenges, ch)
			expired = append(expired, ch)
		} else {
			remaining = append(remaining, ch)
		}
	}
	p.ActiveChallenges = remaining

	if len(expired) > 0 {
		p.touch(now)
	}
	return expired
}

// ══════════════════════════════════════════════════════════════════════════════
// GOALS
// ══════════════════════════════════════════════════════════════════════════════

// AddGoal appends a goal to the aggregate.
func (p *UserProgress) AddGoal(goal Goal, now time.Time) error {
	if !goal.Type.IsValid() {
		return ErrInvalidGoalType
	}
	if !goal.Period.IsValid() {
		return ErrInvalidGoalPeriod
	}
	if goal.Target <= 0 {
		return ErrInvalidGoalTarget
	}

	p.Goals = append(p.Goals, goal)
	p.touch(now)
	return nil
}

// UpdateGoalProgress sets the goal's progress. Reaching the target
// marks the goal completed and awards the completion reward exactly
// once per period window. Reports whether the goal completed now.
func (p *UserProgress) UpdateGoalProgress(goalID string, progressValue float64, now time.Time) (bool, error) {
	for i := range p.Goals {
		goal := &p.Goals[i]
		if goal.ID != goalID {
			continue
		}

		goal.Progress = progressValue
		p.touch(now)

		if goal.IsCompleted || goal.Progress < goal.Target {
			return false, nil
		}

		goal.IsCompleted = true
		p.TotalPoints += goalCompletionPoints
		p.recalculateLevel()
		return true, nil
	}
	return false, shared.ErrGoalNotFound
}

// RolloverGoals resets every goal whose period window has elapsed and
// returns how many were reset.
func (p *UserProgress) RolloverGoals(now time.Time) int {
	rolled := 0
	for i := range p.Goals {
		if p.Goals[i].NeedsRollover(now) {
			p.Goals[i].Rollover(now)
			rolled++
		}
	}
	if rolled > 0 {
		p.touch(now)
	}
	return rolled
}

// ══════════════════════════════════════════════════════════════════════════════
// QUIZZES
// ══════════════════════════════════════════════════════════════════════════════

// SubmitQuizResult reports the outcome of a quiz submission.
type SubmitQuizResult struct {
	// Passed - whether the score met the quiz threshold.
	Passed bool

	// Points awarded for the submission.
	Points int

	// Certificate issued for a pass, nil otherwise.
	Certificate *Certificate
}

// SubmitQuiz records the score, awards scaled points, and issues a
// quiz certificate on a pass. The quiz itself is stamped with the
// score and completion date. courseTitle overrides the certificate's
// title snapshot; the quiz title is used when empty.
func (p *UserProgress) SubmitQuiz(q *quiz.Quiz, score int, courseTitle string, now time.Time) (*SubmitQuizResult, error) {
	if err := q.Submit(score, now); err != nil {
		return nil, err
	}

	p.QuizScores[q.ID] = score

	result := &SubmitQuizResult{Passed: q.IsPassed()}

	if result.Passed {
		if courseTitle == "" {
			courseTitle = q.Title
		}
		total := len(q.Questions)
		cert := Certificate{
			ID:             uuid.NewString(),
			CourseID:       q.RelatedCourseID,
			UserID:         p.UserID,
			IssueDate:      now.UTC(),
			Grade:          academy.GradeForPercentage(q.ScorePercentage()),
			RelatedToQuiz:  true,
			Score:          &score,
			TotalQuestions: &total,
			CourseTitle:    courseTitle,
		}
		p.Certificates = append(p.Certificates, cert)
		result.Certificate = &cert
	}

	result.Points = q.RewardPoints()
	p.TotalPoints += result.Points
	p.recalculateLevel()
	p.touch(now)
	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DERIVED STATE
// ══════════════════════════════════════════════════════════════════════════════

// recalculateLevel derives the level from the point total.
func (p *UserProgress) recalculateLevel() {
	p.Level = p.TotalPoints/pointsPerLevel + 1
}

func (p *UserProgress) touch(now time.Time) {
	p.UpdatedAt = now.UTC()
}
