package store

import (
	"fmt"
)

func (s *Store) migrate() error {
	if err := s.migrateV1(); err != nil {
		return err
	}
	return s.migrateV2()
}

func (s *Store) schemaVersion() string {
	var version string
	if err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version); err != nil {
		return ""
	}
	return version
}

func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO meta(key, value) VALUES ('schema_version', '1');
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute migration v1: %w", err)
	}
	return nil
}

func (s *Store) migrateV2() error {
	if s.schemaVersion() >= "2" {
		return nil
	}

	schema := `
	CREATE TABLE IF NOT EXISTS approvals (
		id           TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL,
		service      TEXT NOT NULL,
		brief        TEXT NOT NULL,
		decision     TEXT,
		requested_at INTEGER NOT NULL,
		decided_at   INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_approvals_conversation ON approvals(user_id, service, requested_at);
	CREATE INDEX IF NOT EXISTS idx_approvals_requested ON approvals(requested_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute migration v2: %w", err)
	}
	if _, err := s.db.Exec(`INSERT OR REPLACE INTO meta(key, value) VALUES ('schema_version', '2')`); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}
	return nil
}
