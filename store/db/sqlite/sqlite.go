package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/lanternworks/lanternworks/internal/profile"
	"github.com/lanternworks/lanternworks/store"
)

// SQLite is supported on a best-effort basis for demo and development use.
// Production deployments run on PostgreSQL.

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the SQLite database at the DSN from the profile.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	// With the modernc.org/sqlite driver each pragma is passed as a
	// `_pragma=` query parameter. WAL journal mode avoids most locking
	// issues for this single-process server.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	// A single connection is optimal for SQLite with WAL.
	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)
	sqliteDB.SetConnMaxIdleTime(0)

	return &DB{db: sqliteDB, profile: profile}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS clients (
	id TEXT PRIMARY KEY,
	slug TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	access_code TEXT NOT NULL,
	created_ts INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS contacts (
	id TEXT PRIMARY KEY,
	client_id TEXT NOT NULL,
	name TEXT NOT NULL,
	company TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	created_ts INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS workflow_runs (
	id TEXT PRIMARY KEY,
	client_id TEXT NOT NULL,
	contact_id TEXT NOT NULL DEFAULT '',
	context TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	created_ts INTEGER NOT NULL,
	completed_ts INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS workflow_outputs (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	key_stats TEXT NOT NULL DEFAULT '{}',
	sections TEXT NOT NULL DEFAULT '{}',
	created_ts INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS book_projects (
	id TEXT PRIMARY KEY,
	client_id TEXT NOT NULL,
	title TEXT NOT NULL,
	subject_name TEXT NOT NULL,
	target_age TEXT NOT NULL DEFAULT '',
	art_style TEXT NOT NULL DEFAULT '',
	ancestry_data TEXT NOT NULL DEFAULT '',
	oral_history TEXT NOT NULL DEFAULT '',
	chapter_outline TEXT NOT NULL DEFAULT '[]',
	character_guide TEXT NOT NULL DEFAULT '',
	created_ts INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS book_chapters (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	chapter_number INTEGER NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	narrative TEXT NOT NULL DEFAULT '',
	illustration_prompt TEXT NOT NULL DEFAULT '',
	image_url TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'draft',
	feedback TEXT NOT NULL DEFAULT '',
	created_ts INTEGER NOT NULL,
	approved_ts INTEGER NOT NULL DEFAULT 0,
	UNIQUE (project_id, chapter_number)
);
`

// Migrate creates the schema. Statements are idempotent so re-running on
// startup is safe.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
