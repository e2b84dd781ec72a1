// Package keycalc provides the public API for the keypad calculator.
package keycalc

import (
	"fmt"
	"log/slog"
	"strings"

	"nickandperla.net/keycalc/internal/store"
)

// Option configures a Calculator.
type Option func(*Calculator)

// WithSQLiteStore configures SQLite persistence at the given path.
func WithSQLiteStore(path string) Option {
	return func(c *Calculator) {
		s, err := store.NewSQLite(path)
		if err != nil {
			if c.initErr == nil {
				c.initErr = fmt.Errorf("open %s: %w", path, err)
			}
			return
		}
		c.store = s
	}
}

// WithMemoryStore configures an in-memory store (for testing).
func WithMemoryStore() Option {
	return func(c *Calculator) {
		c.store = store.NewMemory()
	}
}

// Store interface for custom stores.
type Store = store.Store

// WithStore configures a custom store. The Calculator closes it on Close.
func WithStore(s Store) Option {
	return func(c *Calculator) {
		c.store = s
	}
}

// WithSession sets the session name the state is saved under.
func WithSession(name string) Option {
	return func(c *Calculator) {
		if name != "" {
			c.session = name
		}
	}
}

// WithLogger sets the logger that traces keypresses at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTapeLimit sets the default number of entries returned by Tape.
func WithTapeLimit(n int) Option {
	return func(c *Calculator) {
		c.tapeLimit = n
	}
}

// PersistMode controls when the session is persisted.
type PersistMode int

const (
	// PersistOnDemand is the default - explicit Save/Load calls only.
	PersistOnDemand PersistMode = iota
	// PersistAlways restores the session on start and saves it, with a tape
	// entry, after every keypress.
	PersistAlways
	// PersistNever makes Save and Load no-ops (memory-only mode).
	PersistNever
)

// String returns the string representation of a PersistMode.
func (m PersistMode) String() string {
	switch m {
	case PersistOnDemand:
		return "ON_DEMAND"
	case PersistAlways:
		return "ALWAYS"
	case PersistNever:
		return "NEVER"
	default:
		return "UNKNOWN"
	}
}

// ParsePersistMode parses a string into a PersistMode.
func ParsePersistMode(s string) (PersistMode, bool) {
	switch strings.ToUpper(s) {
	case "ON_DEMAND":
		return PersistOnDemand, true
	case "ALWAYS":
		return PersistAlways, true
	case "NEVER":
		return PersistNever, true
	default:
		return PersistOnDemand, false
	}
}

// WithPersistMode sets the persistence mode.
func WithPersistMode(mode PersistMode) Option {
	return func(c *Calculator) {
		c.persistMode = mode
	}
}
