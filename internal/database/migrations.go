package database

import (
	"fmt"

	"haulmon/internal/log"
)

// Migration is one schema change, applied in ID order exactly once.
type Migration struct {
	ID          int
	Description string
	SQL         string
}

var migrations = []Migration{
	{
		ID:          1,
		Description: "Initial schema creation",
		SQL: `
CREATE TABLE IF NOT EXISTS session_state (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	payload TEXT NOT NULL,
	saved_at DATETIME DEFAULT CURRENT_TIMESTAMP
);`,
	},
}

// runMigrations applies all pending migrations.
func (d *SQLiteDatabase) runMigrations() error {
	if err := d.ensureSchemaVersionTable(); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	current, err := d.getCurrentSchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}
	for _, m := range migrations {
		if m.ID <= current {
			continue
		}
		if err := d.applyMigration(m); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", m.ID, err)
		}
		log.Debug("applied migration", "id", m.ID, "description", m.Description)
	}
	return nil
}

func (d *SQLiteDatabase) ensureSchemaVersionTable() error {
	_, err := d.db.Exec(`
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`)
	return err
}

func (d *SQLiteDatabase) getCurrentSchemaVersion() (int, error) {
	var version int
	err := d.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	return version, err
}

func (d *SQLiteDatabase) applyMigration(m Migration) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(m.SQL); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, m.ID); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
