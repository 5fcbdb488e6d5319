// Package activity contains the sport activity domain model: activity
// types, recorded sessions, GPS routes, and the point/calorie formulas
// derived from them. It has no external dependencies.
package activity

import (
	"errors"
	"time"

	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Type identifies the kind of sport activity.
type Type string

const (
	// TypeHiking - hiking on trails.
	TypeHiking Type = "hiking"
	// TypeClimbing - rock climbing.
	TypeClimbing Type = "climbing"
	// TypeBiking - mountain biking.
	TypeBiking Type = "biking"
	// TypeSwimming - open water or pool swimming.
	TypeSwimming Type = "swimming"
	// TypeRunning - trail or road running.
	TypeRunning Type = "running"
	// TypeYoga - yoga sessions.
	TypeYoga Type = "yoga"
)

// AllTypes returns every known activity type.
func AllTypes() []Type {
	return []Type{TypeHiking, TypeClimbing, TypeBiking, TypeSwimming, TypeRunning, TypeYoga}
}

// IsValid checks that the type is one of the known activity types.
func (t Type) IsValid() bool {
	switch t {
	case TypeHiking, TypeClimbing, TypeBiking, TypeSwimming, TypeRunning, TypeYoga:
		return true
	default:
		return false
	}
}

// String returns the string representation of the type.
func (t Type) String() string {
	return string(t)
}

// DisplayName returns the human-readable name of the activity type.
func (t Type) DisplayName() string {
	switch t {
	case TypeHiking:
		return "Hiking"
	case TypeClimbing:
		return "Rock Climbing"
	case TypeBiking:
		return "Mountain Biking"
	case TypeSwimming:
		return "Swimming"
	case TypeRunning:
		return "Running"
	case TypeYoga:
		return "Yoga"
	default:
		return string(t)
	}
}

// MET returns the metabolic equivalent used for calorie estimation.
func (t Type) MET() float64 {
	switch t {
	case TypeHiking:
		return 6.0
	case TypeClimbing:
		return 8.0
	case TypeBiking:
		return 7.5
	case TypeSwimming:
		return 7.0
	case TypeRunning:
		return 8.5
	case TypeYoga:
		return 3.0
	default:
		return 5.0
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// TrackPoint is a single GPS sample along an activity route.
type TrackPoint struct {
	// Latitude in decimal degrees.
	Latitude float64 `json:"latitude"`

	// Longitude in decimal degrees.
	Longitude float64 `json:"longitude"`

	// Altitude in meters above sea level.
	Altitude float64 `json:"altitude"`

	// Timestamp when the point was sampled.
	Timestamp time.Time `json:"timestamp"`
}

// HeartRateSummary holds aggregated heart-rate readings for a session.
type HeartRateSummary struct {
	// Average heart rate over the session, beats per minute.
	Average int `json:"average"`

	// Max heart rate reached during the session.
	Max int `json:"max"`

	// Min heart rate during the session.
	Min int `json:"min"`
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: SPORT ACTIVITY
// ══════════════════════════════════════════════════════════════════════════════

// SportActivity is one completed and recorded sport session.
type SportActivity struct {
	// ID - unique identifier (UUID string).
	ID string `json:"id"`

	// Type - kind of activity performed.
	Type Type `json:"type"`

	// Name - optional user-provided label for the session.
	Name string `json:"name,omitempty"`

	// StartTime - when the session started. Drives streak and
	// challenge-window calculations.
	StartTime time.Time `json:"start_time"`

	// Duration of the session in seconds.
	Duration float64 `json:"duration"`

	// Distance covered in kilometers. Nil for stationary activities.
	Distance *float64 `json:"distance,omitempty"`

	// Calories burned during the session.
	Calories int `json:"calories"`

	// Steps counted during the session, when a pedometer was available.
	Steps *int `json:"steps,omitempty"`

	// HeartRate - aggregated heart-rate readings, when available.
	HeartRate *HeartRateSummary `json:"heart_rate,omitempty"`

	// Route - GPS track of the session. Empty for indoor sessions.
	Route []TrackPoint `json:"route,omitempty"`

	// Difficulty of the session.
	Difficulty shared.Difficulty `json:"difficulty"`

	// RelatedAdventureID - adventure this session belongs to, if any.
	RelatedAdventureID string `json:"related_adventure_id,omitempty"`

	// RelatedCourseID - academy course this session belongs to, if any.
	RelatedCourseID string `json:"related_course_id,omitempty"`

	// Notes - free-form user notes.
	Notes string `json:"notes,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrMissingID - the activity has no identifier.
	ErrMissingID = errors.New("activity id is required")

	// ErrInvalidType - unknown activity type.
	ErrInvalidType = errors.New("invalid activity type")

	// ErrInvalidDifficulty - unknown difficulty grade.
	ErrInvalidDifficulty = errors.New("invalid activity difficulty")

	// ErrInvalidDuration - duration must be positive.
	ErrInvalidDuration = errors.New("invalid duration: must be positive")

	// ErrInvalidDistance - distance must be non-negative when present.
	ErrInvalidDistance = errors.New("invalid distance: must be non-negative")

	// ErrZeroStartTime - start time is required.
	ErrZeroStartTime = errors.New("activity start time is required")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewParams holds the parameters for recording a new sport activity.
type NewParams struct {
	ID                 string
	Type               Type
	Name               string
	StartTime          time.Time
	Duration           float64
	Distance           *float64
	Calories           int
	Steps              *int
	HeartRate          *HeartRateSummary
	Route              []TrackPoint
	Difficulty         shared.Difficulty
	RelatedAdventureID string
	RelatedCourseID    string
	Notes              string
}

// New creates a validated SportActivity. When Calories is zero it is
// estimated from the activity type's MET value and the duration.
func New(params NewParams) (*SportActivity, error) {
	if params.ID == "" {
		return nil, ErrMissingID
	}
	if !params.Type.IsValid() {
		return nil, ErrInvalidType
	}
	if !params.Difficulty.IsValid() {
		return nil, ErrInvalidDifficulty
	}
	if params.Duration <= 0 {
		return nil, ErrInvalidDuration
	}
	if params.Distance != nil && *params.Distance < 0 {
		return nil, ErrInvalidDistance
	}
	if params.StartTime.IsZero() {
		return nil, ErrZeroStartTime
	}

	calories := params.Calories
	if calories == 0 {
		calories = EstimateCalories(params.Type, params.Duration)
	}

	return &SportActivity{
		ID:                 params.ID,
		Type:               params.Type,
		Name:               params.Name,
		StartTime:          params.StartTime.UTC(),
		Duration:           params.Duration,
		Distance:           params.Distance,
		Calories:           calories,
		Steps:              params.Steps,
		HeartRate:          params.HeartRate,
		Route:              params.Route,
		Difficulty:         params.Difficulty,
		RelatedAdventureID: params.RelatedAdventureID,
		RelatedCourseID:    params.RelatedCourseID,
		Notes:              params.Notes,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// referenceWeightKg is the body weight assumed by the calorie estimator.
const referenceWeightKg = 70.0

// EstimateCalories estimates calories burned from the MET value of the
// activity type: MET x weight(kg) x hours.
func EstimateCalories(t Type, durationSeconds float64) int {
	hours := durationSeconds / 3600.0
	return int(t.MET() * referenceWeightKg * hours)
}

// DistanceKm returns the recorded distance, or zero when absent.
func (a *SportActivity) DistanceKm() float64 {
	if a.Distance == nil {
		return 0
	}
	return *a.Distance
}

// ElevationGain sums the positive altitude deltas along the route.
// Returns zero when no route was recorded.
func (a *SportActivity) ElevationGain() float64 {
	if len(a.Route) < 2 {
		return 0
	}

	var gain float64
	for i := 1; i < len(a.Route); i++ {
		delta := a.Route[i].Altitude - a.Route[i-1].Altitude
		if delta > 0 {
			gain += delta
		}
	}
	return gain
}

// HasRelatedContent reports whether the session was part of an
// adventure or an academy course.
func (a *SportActivity) HasRelatedContent() bool {
	return a.RelatedAdventureID != "" || a.RelatedCourseID != ""
}

// CompletionPoints returns the points awarded for recording this
// activity: a flat base, one point per five minutes, a difficulty
// bonus, and a bonus for adventure/course sessions.
func (a *SportActivity) CompletionPoints() int {
	points := 10
	points += int(a.Duration / 300)
	points += a.Difficulty.ActivityBonus()
	if a.HasRelatedContent() {
		points += 15
	}
	return points
}
