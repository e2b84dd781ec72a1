package store

import (
	"sync"
	"time"

	"nickandperla.net/keycalc/internal/engine"
)

// Memory is an in-memory store for testing.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]engine.State
	tapes    map[string][]TapeEntry
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]engine.State),
		tapes:    make(map[string][]TapeEntry),
	}
}

// Get retrieves the state saved under session.
func (m *Memory) Get(session string) (engine.State, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[session]
	if !ok {
		return engine.State{}, false, nil
	}
	return cloneState(s), true, nil
}

// Put saves the state under session.
func (m *Memory) Put(session string, s engine.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session] = cloneState(s)
	return nil
}

// Delete removes the session and its tape.
func (m *Memory) Delete(session string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, session)
	delete(m.tapes, session)
	return nil
}

// Close is a no-op for memory store.
func (m *Memory) Close() error {
	return nil
}

// AppendTape records a keypress. Seq and Ts are assigned when zero.
func (m *Memory) AppendTape(session string, e TapeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tape := m.tapes[session]
	if e.Seq == 0 {
		e.Seq = len(tape) + 1
	}
	if e.Ts == "" {
		e.Ts = time.Now().UTC().Format(time.RFC3339)
	}
	m.tapes[session] = append(tape, e)
	return nil
}

// GetTape returns the session's tape newest first.
func (m *Memory) GetTape(session string, limit int) ([]TapeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tape := m.tapes[session]
	if len(tape) == 0 {
		return nil, nil
	}
	n := len(tape)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]TapeEntry, 0, n)
	for i := len(tape) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, tape[i])
	}
	return out, nil
}

// cloneState copies the accumulator so stored states share no memory with callers.
func cloneState(s engine.State) engine.State {
	if s.Accumulator != nil {
		v := *s.Accumulator
		s.Accumulator = &v
	}
	return s
}
