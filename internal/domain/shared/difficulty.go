package shared

// Difficulty grades activities, adventures, and quizzes.
// It drives point bonuses, pass thresholds, and reward multipliers.
type Difficulty string

const (
	// DifficultyBeginner - suitable for first-timers.
	DifficultyBeginner Difficulty = "beginner"
	// DifficultyIntermediate - requires some experience.
	DifficultyIntermediate Difficulty = "intermediate"
	// DifficultyAdvanced - requires solid experience and fitness.
	DifficultyAdvanced Difficulty = "advanced"
	// DifficultyExpert - for seasoned practitioners only.
	DifficultyExpert Difficulty = "expert"
)

// IsValid checks that the difficulty is one of the known grades.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced, DifficultyExpert:
		return true
	default:
		return false
	}
}

// String returns the string representation of the difficulty.
func (d Difficulty) String() string {
	return string(d)
}

// ActivityBonus returns the bonus points added when recording an
// activity of this difficulty.
func (d Difficulty) ActivityBonus() int {
	switch d {
	case DifficultyBeginner:
		return 5
	case DifficultyIntermediate:
		return 10
	case DifficultyAdvanced:
		return 15
	case DifficultyExpert:
		return 20
	default:
		return 0
	}
}

// AdventureReward returns the points awarded for completing an
// adventure of this difficulty.
func (d Difficulty) AdventureReward() int {
	switch d {
	case DifficultyBeginner:
		return 10
	case DifficultyIntermediate:
		return 20
	case DifficultyAdvanced:
		return 30
	case DifficultyExpert:
		return 50
	default:
		return 0
	}
}

// PassRatio returns the fraction of quiz questions that must be
// answered correctly to pass at this difficulty.
func (d Difficulty) PassRatio() float64 {
	switch d {
	case DifficultyBeginner:
		return 0.60
	case DifficultyIntermediate:
		return 0.70
	case DifficultyAdvanced:
		return 0.80
	case DifficultyExpert:
		return 0.90
	default:
		return 0.60
	}
}

// RewardMultiplier returns the quiz point multiplier for this difficulty.
func (d Difficulty) RewardMultiplier() float64 {
	switch d {
	case DifficultyBeginner:
		return 1.0
	case DifficultyIntermediate:
		return 1.5
	case DifficultyAdvanced:
		return 2.0
	case DifficultyExpert:
		return 2.5
	default:
		return 1.0
	}
}
