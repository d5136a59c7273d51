package store

import (
	"context"
	"fmt"

	"github.com/nhle/todo/internal/model"
)

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations per driver.
// Each migration's version must be sequential starting from 1.
var migrations = map[string][]migration{
	model.DriverSQLite: {
		{
			version: 1,
			sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	name              TEXT NOT NULL,
	description       TEXT NOT NULL,
	target_end        DATETIME,
	extra_information TEXT,
	closed            INTEGER NOT NULL DEFAULT 0 CHECK(closed IN (0, 1))
);

CREATE INDEX IF NOT EXISTS idx_tasks_closed ON tasks(closed);
CREATE INDEX IF NOT EXISTS idx_tasks_target_end ON tasks(target_end);

CREATE TABLE IF NOT EXISTS addresses (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	address_name  TEXT NOT NULL,
	address_line1 TEXT NOT NULL,
	address_line2 TEXT,
	address_line3 TEXT,
	address_line4 TEXT,
	zip_code      TEXT NOT NULL,
	city          TEXT NOT NULL,
	country_code  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_addresses_name ON addresses(address_name);

CREATE TABLE IF NOT EXISTS appointments (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	name              TEXT NOT NULL,
	start_time        DATETIME NOT NULL,
	end_time          DATETIME NOT NULL,
	address_id        INTEGER REFERENCES addresses(id) ON DELETE SET NULL,
	extra_information TEXT
);

CREATE INDEX IF NOT EXISTS idx_appointments_start ON appointments(start_time);
CREATE INDEX IF NOT EXISTS idx_appointments_end ON appointments(end_time);
CREATE INDEX IF NOT EXISTS idx_appointments_address_id ON appointments(address_id);

INSERT INTO schema_version (version) VALUES (1);
`,
		},
	},
	model.DriverPostgres: {
		{
			version: 1,
			sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id                BIGSERIAL PRIMARY KEY,
	name              TEXT NOT NULL,
	description       TEXT NOT NULL,
	target_end        TIMESTAMPTZ,
	extra_information TEXT,
	closed            BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_tasks_closed ON tasks(closed);
CREATE INDEX IF NOT EXISTS idx_tasks_target_end ON tasks(target_end);

CREATE TABLE IF NOT EXISTS addresses (
	id            BIGSERIAL PRIMARY KEY,
	address_name  TEXT NOT NULL,
	address_line1 TEXT NOT NULL,
	address_line2 TEXT,
	address_line3 TEXT,
	address_line4 TEXT,
	zip_code      TEXT NOT NULL,
	city          TEXT NOT NULL,
	country_code  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_addresses_name ON addresses(address_name);

CREATE TABLE IF NOT EXISTS appointments (
	id                BIGSERIAL PRIMARY KEY,
	name              TEXT NOT NULL,
	start_time        TIMESTAMPTZ NOT NULL,
	end_time          TIMESTAMPTZ NOT NULL,
	address_id        BIGINT REFERENCES addresses(id) ON DELETE SET NULL,
	extra_information TEXT
);

CREATE INDEX IF NOT EXISTS idx_appointments_start ON appointments(start_time);
CREATE INDEX IF NOT EXISTS idx_appointments_end ON appointments(end_time);
CREATE INDEX IF NOT EXISTS idx_appointments_address_id ON appointments(address_id);

INSERT INTO schema_version (version) VALUES (1);
`,
		},
	},
}

// tableExistsQuery reports whether schema_version exists, per driver.
var tableExistsQuery = map[string]string{
	model.DriverSQLite:   "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	model.DriverPostgres: "SELECT COUNT(*) FROM information_schema.tables WHERE table_name='schema_version'",
}

// SchemaVersion returns the highest applied migration, 0 for an empty
// database.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var tableCount int
	if err := s.db.GetContext(ctx, &tableCount, tableExistsQuery[s.driver]); err != nil {
		return 0, fmt.Errorf("checking schema_version table: %w", err)
	}
	if tableCount == 0 {
		return 0, nil
	}

	var version int
	err := s.db.GetContext(ctx, &version, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *Store) runMigrations(ctx context.Context) error {
	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations[s.driver] {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Migrate applies pending migrations and returns the resulting version.
func (s *Store) Migrate(ctx context.Context) (int, error) {
	if err := s.runMigrations(ctx); err != nil {
		return 0, err
	}
	return s.SchemaVersion(ctx)
}
