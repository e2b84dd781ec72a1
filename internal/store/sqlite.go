package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"nickandperla.net/keycalc/internal/engine"
)

// Current schema version
const SchemaVersion = "2"

// SQLite is a SQLite-backed store.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLite creates a new SQLite store at the given path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}

	// Create tables if not exists
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			name TEXT PRIMARY KEY,
			state TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLite{db: db}

	// Check/set schema version (use unlocked versions since we're in init)
	version, err := s.getMetadataUnlocked("schema_version")
	if err != nil {
		db.Close()
		return nil, err
	}

	switch version {
	case "", "1":
		// New DB or migrate from v1 to v2: add the tape
		if err := s.migrateToV2(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate to schema v2: %w", err)
		}
		if err := s.setMetadataUnlocked("schema_version", SchemaVersion); err != nil {
			db.Close()
			return nil, err
		}
	case SchemaVersion:
	default:
		db.Close()
		return nil, fmt.Errorf("unsupported schema version: %s (expected %s)", version, SchemaVersion)
	}

	return s, nil
}

// migrateToV2 creates the tape table.
func (s *SQLite) migrateToV2() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tape (
			session TEXT NOT NULL,
			seq INTEGER NOT NULL,
			token TEXT NOT NULL,
			display TEXT NOT NULL,
			ts TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			PRIMARY KEY (session, seq)
		);
	`)
	return err
}

// Get retrieves the state saved under session.
func (s *SQLite) Get(session string) (engine.State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value string
	err := s.db.QueryRow("SELECT state FROM sessions WHERE name = ?", session).Scan(&value)
	if err == sql.ErrNoRows {
		return engine.State{}, false, nil
	}
	if err != nil {
		return engine.State{}, false, err
	}

	var st engine.State
	if err := json.Unmarshal([]byte(value), &st); err != nil {
		return engine.State{}, false, fmt.Errorf("decode session %q: %w", session, err)
	}
	if st.Display == "" {
		st.Display = "0"
	}
	return st, true, nil
}

// Put saves the state under session.
func (s *SQLite) Put(session string, st engine.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session %q: %w", session, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO sessions (name, state) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET state = excluded.state
	`, session, string(value))
	return err
}

// Delete removes the session and its tape.
func (s *SQLite) Delete(session string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM sessions WHERE name = ?", session); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM tape WHERE session = ?", session)
	return err
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// AppendTape records a keypress. Seq is assigned when zero.
func (s *SQLite) AppendTape(session string, e TapeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.Seq == 0 {
		err := s.db.QueryRow("SELECT COALESCE(MAX(seq), 0) + 1 FROM tape WHERE session = ?", session).Scan(&e.Seq)
		if err != nil {
			return err
		}
	}
	if e.Ts == "" {
		_, err := s.db.Exec(`INSERT INTO tape (session, seq, token, display) VALUES (?, ?, ?, ?)`,
			session, e.Seq, e.Token, e.Display)
		return err
	}
	_, err := s.db.Exec(`INSERT INTO tape (session, seq, token, display, ts) VALUES (?, ?, ?, ?, ?)`,
		session, e.Seq, e.Token, e.Display, e.Ts)
	return err
}

// GetTape returns the session's tape newest first.
func (s *SQLite) GetTape(session string, limit int) ([]TapeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := "SELECT seq, token, display, ts FROM tape WHERE session = ? ORDER BY seq DESC"
	args := []any{session}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []TapeEntry
	for rows.Next() {
		var e TapeEntry
		if err := rows.Scan(&e.Seq, &e.Token, &e.Display, &e.Ts); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetMetadata retrieves a metadata value by key.
func (s *SQLite) GetMetadata(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getMetadataUnlocked(key)
}

// getMetadataUnlocked retrieves metadata without locking (caller must hold lock).
func (s *SQLite) getMetadataUnlocked(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetMetadata stores a metadata value by key.
func (s *SQLite) SetMetadata(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setMetadataUnlocked(key, value)
}

// setMetadataUnlocked stores metadata without locking (caller must hold lock).
func (s *SQLite) setMetadataUnlocked(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
