package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is one ordered schema step. Versions are applied sequentially and
// recorded in schema_migrations; a step runs inside its own transaction.
type migration struct {
	version     string
	description string
	statements  string
}

var migrations = []migration{
	{
		version:     "001",
		description: "directory tables",
		statements: `
CREATE TABLE IF NOT EXISTS buildings (
	id      TEXT PRIMARY KEY,
	name    TEXT NOT NULL,
	address TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS staff_members (
	id        TEXT PRIMARY KEY,
	full_name TEXT NOT NULL,
	role      TEXT NOT NULL CHECK (role IN ('staff', 'supervisor'))
);
`,
	},
	{
		version:     "002",
		description: "schedule entries",
		statements: `
CREATE TABLE IF NOT EXISTS schedule_entries (
	id                TEXT PRIMARY KEY,
	building_id       TEXT NOT NULL REFERENCES buildings(id),
	date              TEXT NOT NULL,
	slot_start        INTEGER NOT NULL,
	slot_end          INTEGER NOT NULL,
	collection_type   TEXT NOT NULL CHECK (collection_type IN ('wet', 'dry', 'mixed', 'all')),
	status            TEXT NOT NULL CHECK (status IN ('scheduled', 'in-progress', 'completed', 'cancelled')),
	assigned_staff_id TEXT REFERENCES staff_members(id),
	notes             TEXT NOT NULL DEFAULT '',
	created_at        TEXT NOT NULL,
	updated_at        TEXT NOT NULL,
	CHECK (slot_end > slot_start)
);
CREATE INDEX IF NOT EXISTS idx_schedule_entries_building_date ON schedule_entries(building_id, date);
CREATE INDEX IF NOT EXISTS idx_schedule_entries_date ON schedule_entries(date);
`,
	},
}

// Migrate applies all pending migrations in order.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := cp.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version     TEXT PRIMARY KEY,
	description TEXT NOT NULL,
	applied_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
);
`); err != nil {
		return fmt.Errorf("sqlite: initialise schema_migrations: %w", err)
	}

	applied, err := cp.appliedVersions(ctx)
	if err != nil {
		return err
	}

	for _, step := range migrations {
		if _, ok := applied[step.version]; ok {
			continue
		}
		if err := cp.applyMigration(ctx, step); err != nil {
			return fmt.Errorf("sqlite: apply migration %s (%s): %w", step.version, step.description, err)
		}
	}

	return nil
}

func (cp *ConnectionPool) appliedVersions(ctx context.Context) (map[string]struct{}, error) {
	rows, err := cp.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("sqlite: read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]struct{})
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("sqlite: scan schema_migrations: %w", err)
		}
		applied[version] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate schema_migrations: %w", err)
	}
	return applied, nil
}

func (cp *ConnectionPool) applyMigration(ctx context.Context, step migration) error {
	return cp.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(step.statements); err != nil {
			return err
		}
		_, err := tx.Exec(
			"INSERT INTO schema_migrations (version, description) VALUES (?, ?)",
			step.version, step.description,
		)
		return err
	})
}
