package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"

	"github.com/lanternworks/lanternworks/internal/profile"
	"github.com/lanternworks/lanternworks/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a PostgreSQL connection with the DSN from the profile.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	pgDB, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	pgDB.SetMaxOpenConns(10)
	pgDB.SetMaxIdleConns(5)

	return &DB{db: pgDB, profile: profile}, nil
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
	created_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS contacts (
	id TEXT PRIMARY KEY,
	client_id TEXT NOT NULL REFERENCES clients(id),
	name TEXT NOT NULL,
	company TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	created_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS workflow_runs (
	id TEXT PRIMARY KEY,
	client_id TEXT NOT NULL REFERENCES clients(id),
	contact_id TEXT NOT NULL DEFAULT '',
	context TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	created_ts BIGINT NOT NULL,
	completed_ts BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS workflow_outputs (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL REFERENCES workflow_runs(id),
	key_stats JSONB NOT NULL DEFAULT '{}',
	sections JSONB NOT NULL DEFAULT '{}',
	created_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS book_projects (
	id TEXT PRIMARY KEY,
	client_id TEXT NOT NULL REFERENCES clients(id),
	title TEXT NOT NULL,
	subject_name TEXT NOT NULL,
	target_age TEXT NOT NULL DEFAULT '',
	art_style TEXT NOT NULL DEFAULT '',
	ancestry_data TEXT NOT NULL DEFAULT '',
	oral_history TEXT NOT NULL DEFAULT '',
	chapter_outline JSONB NOT NULL DEFAULT '[]',
	character_guide TEXT NOT NULL DEFAULT '',
	created_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS book_chapters (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES book_projects(id),
	chapter_number INTEGER NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	narrative TEXT NOT NULL DEFAULT '',
	illustration_prompt TEXT NOT NULL DEFAULT '',
	image_url TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'draft',
	feedback TEXT NOT NULL DEFAULT '',
	created_ts BIGINT NOT NULL,
	approved_ts BIGINT NOT NULL DEFAULT 0,
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

// placeholder returns the nth positional parameter ($1, $2, ...).
func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// placeholders returns "$1, $2, ..., $n".
func placeholders(n int) string {
	list := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		list = append(list, placeholder(i))
	}
	return strings.Join(list, ", ")
}
