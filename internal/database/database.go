package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"haulmon/internal/log"
	"haulmon/internal/missions"
)

// Database persists session snapshots between restarts.
type Database interface {
	Open(filename string) error
	Close() error

	SaveSession(snap missions.Snapshot) error
	// LoadSession returns false when no session has been saved yet.
	LoadSession() (missions.Snapshot, bool, error)
}

// SQLiteDatabase implements Database on a local sqlite file.
type SQLiteDatabase struct {
	db       *sql.DB
	dbOpen   bool
	filename string
}

// NewDatabase creates an unopened database handle.
func NewDatabase() *SQLiteDatabase {
	return &SQLiteDatabase{}
}

// Open opens or creates the database file and applies migrations.
func (d *SQLiteDatabase) Open(filename string) error {
	if d.dbOpen {
		return fmt.Errorf("database already open")
	}

	var err error
	d.db, err = sql.Open("sqlite", filename)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err = d.db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if err = d.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.filename = filename
	d.dbOpen = true
	log.Info("state database opened", "path", filename)
	return nil
}

// Close closes the underlying connection.
func (d *SQLiteDatabase) Close() error {
	if !d.dbOpen {
		return nil
	}
	d.dbOpen = false
	return d.db.Close()
}

// SaveSession writes the snapshot. The table holds a single row that is
// replaced on every save.
func (d *SQLiteDatabase) SaveSession(snap missions.Snapshot) error {
	if !d.dbOpen {
		return fmt.Errorf("database not open")
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	_, err = d.db.Exec(`
		INSERT INTO session_state (id, payload, saved_at)
		VALUES (1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		payload)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// LoadSession reads the stored snapshot if one exists.
func (d *SQLiteDatabase) LoadSession() (missions.Snapshot, bool, error) {
	var snap missions.Snapshot
	if !d.dbOpen {
		return snap, false, fmt.Errorf("database not open")
	}
	var payload []byte
	err := d.db.QueryRow(`SELECT payload FROM session_state WHERE id = 1`).Scan(&payload)
	if err == sql.ErrNoRows {
		return snap, false, nil
	}
	if err != nil {
		return snap, false, fmt.Errorf("failed to load session: %w", err)
	}
	if err := json.Unmarshal(payload, &snap); err != nil {
		// A corrupt snapshot should not prevent startup.
		log.Warn("discarding unreadable session payload", "error", err)
		return missions.Snapshot{}, false, nil
	}
	return snap, true, nil
}
