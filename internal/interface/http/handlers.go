// Package http implements the REST API for Blen Progress Hub.
package http

import (
	"github.com/blen-hub/blen-progress-hub/internal/application/command"
	"github.com/blen-hub/blen-progress-hub/internal/application/query"
	"github.com/blen-hub/blen-progress-hub/internal/domain/academy"
	"github.com/blen-hub/blen-progress-hub/internal/domain/activity"
	"github.com/blen-hub/blen-progress-hub/internal/domain/progress"
	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
	"github.com/blen-hub/blen-progress-hub/pkg/logger"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "Blen Progress Hub API",
		"version":     "v1",
		"description": "REST API for outdoor activity progress, challenges and safety quizzes",
		"endpoints": map[string]string{
			"health":      "/health",
			"progress":    "/api/v1/progress",
			"stats":       "/api/v1/progress/stats",
			"activities":  "/api/v1/activities",
			"challenges":  "/api/v1/challenges",
			"leaderboard": "/api/v1/leaderboard",
			"quizzes":     "/api/v1/quizzes/generate",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	// Default health response
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS & STATS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetProgress handles GET /api/v1/progress
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}
	if s.deps.GetProgressHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Progress handler not configured")
		return
	}

	q := query.GetProgressQuery{
		UserID:              userID,
		RecentActivityLimit: getQueryParamInt(r, "recent", 10),
	}

	result, err := s.deps.GetProgressHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeHandlerError(w, err, "failed to get progress")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetStats handles GET /api/v1/progress/stats
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}
	if s.deps.GetStatsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Stats handler not configured")
		return
	}

	q := query.GetStatsQuery{
		UserID: userID,
		Period: query.StatsPeriod(getQueryParam(r, "period", "all")),
	}

	result, err := s.deps.GetStatsHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeHandlerError(w, err, "failed to get stats")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// recordActivityRequest is the POST /api/v1/activities body.
type recordActivityRequest struct {
	ActivityID         string                     `json:"activity_id,omitempty"`
	Type               string                     `json:"type"`
	Name               string                     `json:"name,omitempty"`
	StartTime          time.Time                  `json:"start_time"`
	Duration           float64                    `json:"duration"`
	Distance           *float64                   `json:"distance,omitempty"`
	Calories           int                        `json:"calories,omitempty"`
	Steps              *int                       `json:"steps,omitempty"`
	HeartRate          *activity.HeartRateSummary `json:"heart_rate,omitempty"`
	Route              []activity.TrackPoint      `json:"route,omitempty"`
	Difficulty         string                     `json:"difficulty,omitempty"`
	RelatedAdventureID string                     `json:"related_adventure_id,omitempty"`
	RelatedCourseID    string                     `json:"related_course_id,omitempty"`
	Notes              string                     `json:"notes,omitempty"`
}

// handleRecordActivity handles POST /api/v1/activities
func (s *Server) handleRecordActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}
	if s.deps.RecordActivityHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Activity handler not configured")
		return
	}

	var req recordActivityRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	difficulty := shared.Difficulty(req.Difficulty)
	if req.Difficulty == "" {
		difficulty = shared.DifficultyBeginner
	}
	startTime := req.StartTime
	if startTime.IsZero() {
		startTime = time.Now().UTC()
	}

	cmd := command.RecordActivityCommand{
		UserID:             userID,
		ActivityID:         req.ActivityID,
		Type:               activity.Type(req.Type),
		Name:               req.Name,
		StartTime:          startTime,
		Duration:           req.Duration,
		Distance:           req.Distance,
		Calories:           req.Calories,
		Steps:              req.Steps,
		HeartRate:          req.HeartRate,
		Route:              req.Route,
		Difficulty:         difficulty,
		RelatedAdventureID: req.RelatedAdventureID,
		RelatedCourseID:    req.RelatedCourseID,
		Notes:              req.Notes,
		CorrelationID:      getRequestID(r.Context()),
	}

	result, err := s.deps.RecordActivityHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeHandlerError(w, err, "failed to record activity")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ADVENTURE & LESSON HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleCompleteAdventure handles POST /api/v1/adventures/{id}/complete
func (s *Server) handleCompleteAdventure(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}
	adventureID := r.PathValue("id")
	if s.deps.CompleteAdventureHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Adventure handler not configured")
		return
	}

	var req struct {
		Difficulty string `json:"difficulty"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Difficulty == "" {
		req.Difficulty = shared.DifficultyBeginner.String()
	}

	cmd := command.CompleteAdventureCommand{
		UserID:        userID,
		AdventureID:   adventureID,
		Difficulty:    shared.Difficulty(req.Difficulty),
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.CompleteAdventureHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeHandlerError(w, err, "failed to complete adventure")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleToggleFavorite handles POST /api/v1/adventures/{id}/favorite
func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}
	if s.deps.ToggleFavoriteHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Favorite handler not configured")
		return
	}

	cmd := command.ToggleFavoriteCommand{
		UserID:      userID,
		AdventureID: r.PathValue("id"),
	}

	result, err := s.deps.ToggleFavoriteHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeHandlerError(w, err, "failed to toggle favorite")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleCompleteLesson handles POST /api/v1/lessons/{id}/complete
// The body may carry the course document so course completion and
// certificate issue can be evaluated in the same call.
func (s *Server) handleCompleteLesson(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}
	if s.deps.CompleteLessonHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Lesson handler not configured")
		return
	}

	var req struct {
		Course *academy.Course `json:"course,omitempty"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	cmd := command.CompleteLessonCommand{
		UserID:        userID,
		LessonID:      r.PathValue("id"),
		Course:        req.Course,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.CompleteLessonHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeHandlerError(w, err, "failed to complete lesson")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGenerateQuiz handles POST /api/v1/quizzes/generate
func (s *Server) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}
	if s.deps.GenerateQuizHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Quiz handler not configured")
		return
	}

	var req struct {
		Category      string `json:"category"`
		Difficulty    string `json:"difficulty,omitempty"`
		QuestionCount int    `json:"question_count,omitempty"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	q := query.GenerateQuizQuery{
		Category:      req.Category,
		Difficulty:    req.Difficulty,
		QuestionCount: req.QuestionCount,
	}

	result, err := s.deps.GenerateQuizHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeHandlerError(w, err, "failed to generate quiz")
		return
	}

	// Park the quiz, answer key included, until submission.
	if s.deps.PendingQuizzes != nil {
		if err := s.deps.PendingQuizzes.Put(r.Context(), userID, result.Quiz); err != nil {
			s.logger.Error("failed to store pending quiz", logger.Err(err), logger.QuizID(result.QuizID))
			writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to store quiz")
			return
		}
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleSubmitQuiz handles POST /api/v1/quizzes/submit
func (s *Server) handleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}
	if s.deps.SubmitQuizHandler == nil || s.deps.PendingQuizzes == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Quiz submission not configured")
		return
	}

	var req struct {
		QuizID      string `json:"quiz_id"`
		Answers     []int  `json:"answers"`
		CourseTitle string `json:"course_title,omitempty"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.QuizID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "quiz_id is required")
		return
	}

	quiz, err := s.deps.PendingQuizzes.Take(r.Context(), userID, req.QuizID)
	if err != nil {
		s.writeHandlerError(w, err, "quiz not found")
		return
	}

	cmd := command.SubmitQuizCommand{
		UserID:        userID,
		Quiz:          quiz,
		Answers:       req.Answers,
		CourseTitle:   req.CourseTitle,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.SubmitQuizHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeHandlerError(w, err, "failed to submit quiz")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// CHALLENGE & LEADERBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListChallenges handles GET /api/v1/challenges
func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	if s.deps.Challenges == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Challenge directory not configured")
		return
	}

	open, err := s.deps.Challenges.ListOpen(r.Context(), time.Now().UTC())
	if err != nil {
		s.writeHandlerError(w, err, "failed to list challenges")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"challenges": open})
}

// handleJoinChallenge handles POST /api/v1/challenges/join
func (s *Server) handleJoinChallenge(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}
	if s.deps.JoinChallengeHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Challenge handler not configured")
		return
	}

	var req struct {
		ChallengeID string `json:"challenge_id"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.ChallengeID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "challenge_id is required")
		return
	}

	cmd := command.JoinChallengeCommand{
		UserID:        userID,
		ChallengeID:   req.ChallengeID,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.JoinChallengeHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeHandlerError(w, err, "failed to join challenge")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetLeaderboard handles GET /api/v1/challenges/{id}/leaderboard
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLeaderboardHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Leaderboard handler not configured")
		return
	}

	q := query.GetLeaderboardQuery{
		ChallengeID: r.PathValue("id"),
		UserID:      s.userID(r),
		Limit:       getQueryParamInt(r, "limit", 10),
	}

	result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeHandlerError(w, err, "failed to get leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetGlobalLeaderboard handles GET /api/v1/leaderboard
func (s *Server) handleGetGlobalLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetGlobalLeaderboardHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Global leaderboard not configured")
		return
	}

	q := query.GetGlobalLeaderboardQuery{
		Limit: getQueryParamInt(r, "limit", 10),
	}

	result, err := s.deps.GetGlobalLeaderboardHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeHandlerError(w, err, "failed to get global leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// GOAL HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleAddGoal handles POST /api/v1/goals
func (s *Server) handleAddGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}
	if s.deps.AddGoalHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Goal handler not configured")
		return
	}

	var req struct {
		Type   string  `json:"type"`
		Target float64 `json:"target"`
		Period string  `json:"period"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	cmd := command.AddGoalCommand{
		UserID: userID,
		Type:   progress.GoalType(req.Type),
		Target: req.Target,
		Period: progress.GoalPeriod(req.Period),
	}

	result, err := s.deps.AddGoalHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeHandlerError(w, err, "failed to add goal")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleUpdateGoalProgress handles PUT /api/v1/goals/{id}/progress
func (s *Server) handleUpdateGoalProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}
	if s.deps.UpdateGoalProgressHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Goal handler not configured")
		return
	}

	var req struct {
		Value float64 `json:"value"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	cmd := command.UpdateGoalProgressCommand{
		UserID:        userID,
		GoalID:        r.PathValue("id"),
		Value:         req.Value,
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.UpdateGoalProgressHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeHandlerError(w, err, "failed to update goal progress")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// userID reads the acting user's id from the configured header.
func (s *Server) userID(r *http.Request) string {
	return r.Header.Get(s.config.UserIDHeader)
}

// requireUserID reads the user id header and rejects the request when
// it is missing.
func (s *Server) requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := s.userID(r)
	if id == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", s.config.UserIDHeader+" header is required")
		return "", false
	}
	return id, true
}

// decodeBody decodes a JSON request body. An empty body decodes into
// the zero value so endpoints with optional bodies keep working.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return false
	}
	return true
}

// writeHandlerError maps a domain error to an HTTP response.
func (s *Server) writeHandlerError(w http.ResponseWriter, err error, message string) {
	s.logger.Error(message, logger.Err(err))

	switch {
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, shared.ErrInvalidState) || errors.Is(err, shared.ErrAlreadyProcessed) || errors.Is(err, shared.ErrExpired):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	case shared.IsExternalService(err):
		writeJSONError(w, http.StatusBadGateway, "upstream_error", message)
	default:
		writeJSONError(w, http.StatusInternalServerError, "internal_error", message)
	}
}
