package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: PROGRESS SNAPSHOTS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS progress_snapshots (
    user_id TEXT PRIMARY KEY,
    document JSONB NOT NULL,
    total_points INTEGER NOT NULL DEFAULT 0,
    level INTEGER NOT NULL DEFAULT 1,
    weekly_streak INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_progress_snapshots_points
    ON progress_snapshots (total_points DESC);

CREATE INDEX IF NOT EXISTS idx_progress_snapshots_updated
    ON progress_snapshots (updated_at);
`

const migration001Down = `
DROP TABLE IF EXISTS progress_snapshots;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CHALLENGE DIRECTORY
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS challenges (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    challenge_type TEXT NOT NULL,
    target DOUBLE PRECISION NOT NULL CHECK (target > 0),
    start_date TIMESTAMP WITH TIME ZONE NOT NULL,
    end_date TIMESTAMP WITH TIME ZONE NOT NULL,
    reward INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT chk_challenge_window CHECK (end_date > start_date)
);

CREATE INDEX IF NOT EXISTS idx_challenges_end_date
    ON challenges (end_date);

CREATE INDEX IF NOT EXISTS idx_challenges_type
    ON challenges (challenge_type);
`

const migration002Down = `
DROP TABLE IF EXISTS challenges;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CERTIFICATE ARCHIVE
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS certificates (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    course_id TEXT NOT NULL,
    course_title TEXT NOT NULL DEFAULT '',
    grade TEXT NOT NULL,
    related_to_quiz BOOLEAN NOT NULL DEFAULT FALSE,
    score INTEGER,
    total_questions INTEGER,
    issue_date TIMESTAMP WITH TIME ZONE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_certificates_user
    ON certificates (user_id, issue_date DESC);
`

const migration003Down = `
DROP TABLE IF EXISTS certificates;
`

// GetMigrations returns all migrations in version order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_progress_snapshots",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_challenges",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_certificates",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}
