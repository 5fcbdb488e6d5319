package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/blen-hub/blen-progress-hub/internal/domain/challenge"
	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHALLENGE DIRECTORY
// ══════════════════════════════════════════════════════════════════════════════

// ChallengeDirectory stores the shared catalog of challenges users can join.
// Joined copies live inside each user's aggregate; the directory only holds
// the definitions.
type ChallengeDirectory struct {
	conn *Connection
}

// NewChallengeDirectory creates a challenge directory over the given connection.
func NewChallengeDirectory(conn *Connection) *ChallengeDirectory {
	return &ChallengeDirectory{conn: conn}
}

// Create stores a new challenge definition.
func (d *ChallengeDirectory) Create(ctx context.Context, ch *challenge.Challenge) error {
	if ch == nil || ch.ID == "" {
		return challenge.ErrMissingID
	}

	_, err := d.conn.Exec(ctx, `
		INSERT INTO challenges (id, title, description, challenge_type, target, start_date, end_date, reward)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ch.ID, ch.Title, ch.Description, string(ch.Type), ch.Target, ch.StartDate, ch.EndDate, ch.Reward,
	)
	if err != nil {
		return shared.WrapError("challenge", "Create", shared.ErrExternalService, "failed to store challenge", err)
	}
	return nil
}

// GetByID loads a challenge definition. Participants and leaderboard start empty.
func (d *ChallengeDirectory) GetByID(ctx context.Context, id string) (*challenge.Challenge, error) {
	if id == "" {
		return nil, challenge.ErrMissingID
	}

	row := d.conn.QueryRow(ctx, `
		SELECT id, title, description, challenge_type, target, start_date, end_date, reward
		FROM challenges WHERE id = $1`, id)

	ch, err := scanChallenge(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrChallengeNotFound
		}
		return nil, shared.WrapError("challenge", "GetByID", shared.ErrExternalService, "failed to load challenge", err)
	}
	return ch, nil
}

// ListOpen returns challenges whose window contains the given time.
func (d *ChallengeDirectory) ListOpen(ctx context.Context, now time.Time) ([]*challenge.Challenge, error) {
	return d.list(ctx, `
		SELECT id, title, description, challenge_type, target, start_date, end_date, reward
		FROM challenges
		WHERE start_date <= $1 AND end_date >= $1
		ORDER BY end_date`, now)
}

// ListExpired returns challenges whose window ended before the given time.
func (d *ChallengeDirectory) ListExpired(ctx context.Context, now time.Time) ([]*challenge.Challenge, error) {
	return d.list(ctx, `
		SELECT id, title, description, challenge_type, target, start_date, end_date, reward
		FROM challenges
		WHERE end_date < $1
		ORDER BY end_date DESC`, now)
}

// Delete removes a challenge definition.
func (d *ChallengeDirectory) Delete(ctx context.Context, id string) error {
	if id == "" {
		return challenge.ErrMissingID
	}
	if _, err := d.conn.Exec(ctx, `DELETE FROM challenges WHERE id = $1`, id); err != nil {
		return shared.WrapError("challenge", "Delete", shared.ErrExternalService, "failed to delete challenge", err)
	}
	return nil
}

func (d *ChallengeDirectory) list(ctx context.Context, query string, now time.Time) ([]*challenge.Challenge, error) {
	rows, err := d.conn.Query(ctx, query, now)
	if err != nil {
		return nil, shared.WrapError("challenge", "List", shared.ErrExternalService, "failed to list challenges", err)
	}
	defer rows.Close()

	var result []*challenge.Challenge
	for rows.Next() {
		ch, err := scanChallenge(rows)
		if err != nil {
			return nil, shared.WrapError("challenge", "List", shared.ErrExternalService, "failed to scan challenge row", err)
		}
		result = append(result, ch)
	}
	return result, rows.Err()
}

func scanChallenge(row pgx.Row) (*challenge.Challenge, error) {
	var ch challenge.Challenge
	var chType string
	if err := row.Scan(&ch.ID, &ch.Title, &ch.Description, &chType,
		&ch.Target, &ch.StartDate, &ch.EndDate, &ch.Reward); err != nil {
		return nil, err
	}
	ch.Type = challenge.Type(chType)
	ch.Participants = []string{}
	ch.Leaderboard = []challenge.LeaderboardEntry{}
	return &ch, nil
}
