package keycalc

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"nickandperla.net/keycalc/internal/engine"
	"nickandperla.net/keycalc/internal/scanner"
	"nickandperla.net/keycalc/internal/store"
	"nickandperla.net/keycalc/internal/token"
)

// DefaultSession is the session name used when none is configured.
const DefaultSession = "default"

// Calculator owns one calculator state and applies keypresses to it.
type Calculator struct {
	mu          sync.Mutex
	state       engine.State
	store       store.Store
	session     string
	persistMode PersistMode
	logger      *slog.Logger
	tapeLimit   int
	initErr     error // First error raised by an Option
}

// New creates a calculator with the given options. In PersistAlways mode the
// saved session, if any, is restored.
func New(opts ...Option) (*Calculator, error) {
	c := &Calculator{
		state:   engine.New(),
		session: DefaultSession,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.initErr != nil {
		c.Close()
		return nil, c.initErr
	}

	if c.persistMode == PersistAlways {
		if _, err := c.Load(); err != nil {
			c.Close()
			return nil, err
		}
	}
	return c, nil
}

// Press applies one token and returns the new display. The error is only
// ever a persistence failure; the keypress itself always takes effect.
func (c *Calculator) Press(t token.Token) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pressLocked(t)
}

func (c *Calculator) pressLocked(t token.Token) (string, error) {
	before := c.state.Display
	c.state = engine.Apply(c.state, t)
	c.logger.Debug("press",
		"session", c.session,
		"token", t.String(),
		"before", before,
		"display", c.state.Display,
		"pending", c.state.Pending.String(),
		"awaiting", c.state.AwaitingOperand)

	if c.persistMode != PersistAlways || c.store == nil {
		return c.state.Display, nil
	}
	if err := c.store.Put(c.session, c.state); err != nil {
		return c.state.Display, fmt.Errorf("save session %q: %w", c.session, err)
	}
	if ts, ok := c.store.(store.TapeStore); ok {
		err := ts.AppendTape(c.session, store.TapeEntry{Token: t.String(), Display: c.state.Display})
		if err != nil {
			return c.state.Display, fmt.Errorf("record tape: %w", err)
		}
	}
	return c.state.Display, nil
}

// Input scans text into tokens and presses each in order. Unrecognized
// characters are ignored. It returns the display after the last token.
func (c *Calculator) Input(text string) (string, error) {
	items, err := scanner.ScanAll(text)
	if err != nil {
		return c.Display(), err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range items {
		if it.Token == token.Illegal {
			c.logger.Debug("ignored input", "text", it.Value, "line", it.Line, "col", it.Col)
			continue
		}
		if _, err := c.pressLocked(it.Token); err != nil {
			return c.state.Display, err
		}
	}
	return c.state.Display, nil
}

// Display returns the current display text.
func (c *Calculator) Display() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Display
}

// State returns a copy of the current state.
func (c *Calculator) State() engine.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	if s.Accumulator != nil {
		v := *s.Accumulator
		s.Accumulator = &v
	}
	return s
}

// Session returns the session name.
func (c *Calculator) Session() string {
	return c.session
}

// Reset is equivalent to pressing AC.
func (c *Calculator) Reset() error {
	_, err := c.Press(token.ClearAll)
	return err
}

// Save writes the current state to the store. It is a no-op without a
// store or in PersistNever mode.
func (c *Calculator) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil || c.persistMode == PersistNever {
		return nil
	}
	if err := c.store.Put(c.session, c.state); err != nil {
		return fmt.Errorf("save session %q: %w", c.session, err)
	}
	c.logger.Debug("saved", "session", c.session, "display", c.state.Display)
	return nil
}

// Load replaces the current state with the saved one. It reports whether a
// saved state was found.
func (c *Calculator) Load() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil || c.persistMode == PersistNever {
		return false, nil
	}
	s, ok, err := c.store.Get(c.session)
	if err != nil {
		return false, fmt.Errorf("load session %q: %w", c.session, err)
	}
	if !ok {
		return false, nil
	}
	c.state = s
	c.logger.Debug("loaded", "session", c.session, "display", s.Display)
	return true, nil
}

// Forget deletes the saved session and its tape, then resets the
// calculator to the initial state.
func (c *Calculator) Forget() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = engine.New()
	if c.store == nil || c.persistMode == PersistNever {
		return nil
	}
	if err := c.store.Delete(c.session); err != nil {
		return fmt.Errorf("forget session %q: %w", c.session, err)
	}
	c.logger.Debug("forgot", "session", c.session)
	return nil
}

// Tape returns the recorded keypresses of the session, newest first.
// A limit of 0 falls back to the configured tape limit.
func (c *Calculator) Tape(limit int) ([]store.TapeEntry, error) {
	ts, ok := c.store.(store.TapeStore)
	if !ok {
		return nil, nil
	}
	if limit == 0 {
		limit = c.tapeLimit
	}
	return ts.GetTape(c.session, limit)
}

// Close releases the store.
func (c *Calculator) Close() error {
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}
