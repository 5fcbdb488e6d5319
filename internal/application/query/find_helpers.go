package query

import (
	"github.com/blen-hub/blen-progress-hub/internal/domain/challenge"
	"github.com/blen-hub/blen-progress-hub/internal/domain/progress"
)

// findChallenge locates a challenge on the aggregate by id, checking
// the active list first. Returns nil when the user never joined it.
func findChallenge(p *progress.UserProgress, id string) *challenge.Challenge {
	for i := range p.ActiveChallenges {
		if p.ActiveChallenges[i].ID == id {
			return &p.ActiveChallenges[i]
		}
	}
	for i := range p.CompletedChallenges {
		if p.CompletedChallenges[i].ID == id {
			return &p.CompletedChallenges[i]
		}
	}
	return nil
}
