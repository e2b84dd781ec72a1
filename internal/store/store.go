// Package store persists calculator sessions and their tapes.
package store

import "nickandperla.net/keycalc/internal/engine"

// Store is the interface for session persistence.
type Store interface {
	// Get retrieves the state saved under session. The bool is false if
	// nothing was saved.
	Get(session string) (engine.State, bool, error)
	// Put saves the state under session, overwriting any previous one.
	Put(session string, s engine.State) error
	// Delete removes the session and its tape.
	Delete(session string) error
	// Close releases resources.
	Close() error
}

// TapeEntry is one recorded keypress and the display it produced.
type TapeEntry struct {
	Seq     int
	Token   string
	Display string
	Ts      string
}

// TapeStore extends Store with the keypress tape.
type TapeStore interface {
	AppendTape(session string, e TapeEntry) error
	// GetTape returns entries newest first. A limit of 0 returns all.
	GetTape(session string, limit int) ([]TapeEntry, error)
}
