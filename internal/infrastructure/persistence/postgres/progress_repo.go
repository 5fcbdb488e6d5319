package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/blen-hub/blen-progress-hub/internal/domain/progress"
	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
	"github.com/blen-hub/blen-progress-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT STORE
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotStore persists UserProgress aggregates as JSONB documents.
// Denormalized columns (total_points, level, weekly_streak) are kept
// alongside the document for cross-user queries without unmarshalling.
type SnapshotStore struct {
	conn    *Connection
	retrier *retry.Retrier
}

// NewSnapshotStore creates a snapshot store over the given connection.
func NewSnapshotStore(conn *Connection) *SnapshotStore {
	return &SnapshotStore{
		conn:    conn,
		retrier: retry.DatabaseRetrier(),
	}
}

// compile-time interface check
var _ progress.Repository = (*SnapshotStore)(nil)

// Load reads the aggregate for a user. Returns shared.ErrProgressNotFound
// when no snapshot exists.
func (s *SnapshotStore) Load(ctx context.Context, userID string) (*progress.UserProgress, error) {
	if userID == "" {
		return nil, shared.ErrInvalidUserID
	}

	var document []byte
	err := s.conn.QueryRow(ctx,
		`SELECT document FROM progress_snapshots WHERE user_id = $1`,
		userID,
	).Scan(&document)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrProgressNotFound
		}
		return nil, shared.WrapError("progress", "Load", shared.ErrExternalService, "failed to load snapshot", err)
	}

	var p progress.UserProgress
	if err := json.Unmarshal(document, &p); err != nil {
		return nil, shared.WrapError("progress", "Load", shared.ErrNotFound, "stored snapshot is unreadable", err)
	}
	return &p, nil
}

// Save upserts the aggregate snapshot, refreshing the denormalized columns.
func (s *SnapshotStore) Save(ctx context.Context, p *progress.UserProgress) error {
	if p == nil || p.UserID == "" {
		return shared.ErrInvalidUserID
	}

	document, err := json.Marshal(p)
	if err != nil {
		return shared.WrapError("progress", "Save", shared.ErrInvalidFormat, "failed to encode snapshot", err)
	}

	return s.retrier.Do(ctx, func(ctx context.Context) error {
		_, err := s.conn.Exec(ctx, `
			INSERT INTO progress_snapshots (user_id, document, total_points, level, weekly_streak, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (user_id) DO UPDATE SET
				document = EXCLUDED.document,
				total_points = EXCLUDED.total_points,
				level = EXCLUDED.level,
				weekly_streak = EXCLUDED.weekly_streak,
				updated_at = EXCLUDED.updated_at`,
			p.UserID, document, p.TotalPoints, p.Level, p.WeeklyStreak, time.Now().UTC(),
		)
		if err != nil {
			return shared.WrapError("progress", "Save", shared.ErrExternalService, "failed to save snapshot", err)
		}
		return nil
	})
}

// Delete removes a user's snapshot. Deleting a missing snapshot is not an error.
func (s *SnapshotStore) Delete(ctx context.Context, userID string) error {
	if userID == "" {
		return shared.ErrInvalidUserID
	}

	if _, err := s.conn.Exec(ctx,
		`DELETE FROM progress_snapshots WHERE user_id = $1`, userID,
	); err != nil {
		return shared.WrapError("progress", "Delete", shared.ErrExternalService, "failed to delete snapshot", err)
	}
	return nil
}

// ListUserIDs returns every user with a stored snapshot.
func (s *SnapshotStore) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.conn.Query(ctx, `SELECT user_id FROM progress_snapshots ORDER BY user_id`)
	if err != nil {
		return nil, shared.WrapError("progress", "ListUserIDs", shared.ErrExternalService, "failed to list snapshots", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, shared.WrapError("progress", "ListUserIDs", shared.ErrExternalService, "failed to scan user id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// CROSS-USER QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// PointsEntry is one row of the global points standings.
type PointsEntry struct {
	UserID      string `json:"userId"`
	TotalPoints int    `json:"totalPoints"`
	Level       int    `json:"level"`
}

// TopByPoints returns the highest scoring users, most points first.
func (s *SnapshotStore) TopByPoints(ctx context.Context, limit int) ([]PointsEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.conn.Query(ctx, `
		SELECT user_id, total_points, level
		FROM progress_snapshots
		ORDER BY total_points DESC, user_id
		LIMIT $1`, limit)
	if err != nil {
		return nil, shared.WrapError("progress", "TopByPoints", shared.ErrExternalService, "failed to query standings", err)
	}
	defer rows.Close()

	var entries []PointsEntry
	for rows.Next() {
		var e PointsEntry
		if err := rows.Scan(&e.UserID, &e.TotalPoints, &e.Level); err != nil {
			return nil, shared.WrapError("progress", "TopByPoints", shared.ErrExternalService, "failed to scan standings row", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ArchiveCertificate records an issued certificate in the durable archive.
// Duplicate inserts for the same certificate id are ignored.
func (s *SnapshotStore) ArchiveCertificate(ctx context.Context, userID string, cert progress.Certificate) error {
	if userID == "" {
		return shared.ErrInvalidUserID
	}

	_, err := s.conn.Exec(ctx, `
		INSERT INTO certificates
			(id, user_id, course_id, course_title, grade, related_to_quiz, score, total_questions, issue_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`,
		cert.ID, userID, cert.CourseID, cert.CourseTitle, string(cert.Grade),
		cert.RelatedToQuiz, cert.Score, cert.TotalQuestions, cert.IssueDate,
	)
	if err != nil {
		return shared.WrapError("progress", "ArchiveCertificate", shared.ErrExternalService, "failed to archive certificate", err)
	}
	return nil
}
