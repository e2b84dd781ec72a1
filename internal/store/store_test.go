package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"nickandperla.net/keycalc/internal/engine"
)

func sampleState() engine.State {
	acc := 12.5
	return engine.State{Display: "3", Accumulator: &acc, Pending: engine.OpMul, AwaitingOperand: false}
}

func sameState(a, b engine.State) bool {
	if a.Display != b.Display || a.Pending != b.Pending || a.AwaitingOperand != b.AwaitingOperand {
		return false
	}
	if (a.Accumulator == nil) != (b.Accumulator == nil) {
		return false
	}
	return a.Accumulator == nil || *a.Accumulator == *b.Accumulator
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "keycalc-test.db")
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory()
	defer s.Close()

	_, ok, err := s.Get("main")
	if err != nil || ok {
		t.Fatalf("expected missing session, got ok=%v err=%v", ok, err)
	}

	want := sampleState()
	if err := s.Put("main", want); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	*want.Accumulator = 99 // stored copy must not alias the caller's value

	got, ok, err := s.Get("main")
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	if *got.Accumulator != 12.5 || got.Display != "3" || got.Pending != engine.OpMul {
		t.Errorf("unexpected state: %+v", got)
	}

	if err := s.Delete("main"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := s.Get("main"); ok {
		t.Error("expected session gone after delete")
	}
}

func TestSQLiteStore(t *testing.T) {
	path := tempDB(t)

	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("Failed to create SQLite store: %v", err)
	}

	want := sampleState()
	if err := s.Put("main", want); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put("blank", engine.New()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok, err := s.Get("main")
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	if !sameState(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	// Close and reopen to verify persistence
	s.Close()

	s2, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("Failed to reopen SQLite store: %v", err)
	}
	defer s2.Close()

	got, ok, err = s2.Get("main")
	if err != nil || !ok {
		t.Fatalf("Get after reopen failed: ok=%v err=%v", ok, err)
	}
	if !sameState(got, want) {
		t.Errorf("expected %+v after reopen, got %+v", want, got)
	}

	blank, ok, err := s2.Get("blank")
	if err != nil || !ok {
		t.Fatalf("Get blank failed: ok=%v err=%v", ok, err)
	}
	if blank != engine.New() {
		t.Errorf("expected initial state, got %+v", blank)
	}

	if _, ok, _ := s2.Get("nope"); ok {
		t.Error("expected missing session")
	}
}

func testTape(t *testing.T, s interface {
	Store
	TapeStore
}) {
	t.Helper()

	for i, e := range []TapeEntry{
		{Token: "1", Display: "1"},
		{Token: "+", Display: "1"},
		{Token: "2", Display: "2"},
		{Token: "=", Display: "3"},
	} {
		if err := s.AppendTape("main", e); err != nil {
			t.Fatalf("AppendTape %d: %v", i, err)
		}
	}
	s.AppendTape("other", TapeEntry{Token: "9", Display: "9"})

	entries, err := s.GetTape("main", 0)
	if err != nil {
		t.Fatalf("GetTape: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	if entries[0].Seq != 4 || entries[0].Token != "=" || entries[0].Display != "3" {
		t.Errorf("entry[0]: expected #4 '=' -> '3', got #%d '%s' -> '%s'", entries[0].Seq, entries[0].Token, entries[0].Display)
	}
	if entries[3].Seq != 1 || entries[3].Token != "1" {
		t.Errorf("entry[3]: expected #1 '1', got #%d '%s'", entries[3].Seq, entries[3].Token)
	}
	if entries[0].Ts == "" {
		t.Error("expected non-empty timestamp")
	}

	entries, err = s.GetTape("main", 2)
	if err != nil {
		t.Fatalf("GetTape with limit: %v", err)
	}
	if len(entries) != 2 || entries[0].Seq != 4 || entries[1].Seq != 3 {
		t.Errorf("expected newest two entries, got %+v", entries)
	}

	entries, err = s.GetTape("nope", 0)
	if err != nil {
		t.Fatalf("GetTape nonexistent: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %v", entries)
	}

	// Delete removes the tape with the session
	s.Put("main", engine.New())
	s.Delete("main")
	entries, _ = s.GetTape("main", 0)
	if len(entries) != 0 {
		t.Errorf("expected 0 after delete, got %d", len(entries))
	}
	entries, _ = s.GetTape("other", 0)
	if len(entries) != 1 {
		t.Errorf("other session tape should survive, got %d", len(entries))
	}
}

func TestMemoryTape(t *testing.T) {
	testTape(t, NewMemory())
}

func TestSQLiteTape(t *testing.T) {
	s, err := NewSQLite(tempDB(t))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer s.Close()
	testTape(t, s)
}

func TestSQLiteMigrationV1toV2(t *testing.T) {
	path := tempDB(t)

	// Create a v1 database manually
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	_, err = db.Exec(`
		CREATE TABLE sessions (name TEXT PRIMARY KEY, state TEXT NOT NULL);
		CREATE TABLE metadata (key TEXT PRIMARY KEY, value TEXT NOT NULL);
		INSERT INTO metadata (key, value) VALUES ('schema_version', '1');
		INSERT INTO sessions (name, state) VALUES ('old', '{"display":"42","accumulator":null,"pending":0,"awaiting_operand":true}');
	`)
	db.Close()
	if err != nil {
		t.Fatalf("seed v1 database: %v", err)
	}

	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite after migration: %v", err)
	}
	defer s.Close()

	got, ok, err := s.Get("old")
	if err != nil || !ok {
		t.Fatalf("Get after migration: ok=%v err=%v", ok, err)
	}
	if got.Display != "42" || !got.AwaitingOperand || got.Accumulator != nil {
		t.Errorf("unexpected migrated state: %+v", got)
	}

	version, err := s.GetMetadata("schema_version")
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("expected schema version %s, got %s", SchemaVersion, version)
	}

	if err := s.AppendTape("old", TapeEntry{Token: "AC", Display: "0"}); err != nil {
		t.Errorf("tape should be usable after migration: %v", err)
	}
}

func TestSQLiteRejectsUnknownSchema(t *testing.T) {
	path := tempDB(t)

	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	if err := s.SetMetadata("schema_version", "99"); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}
	s.Close()

	if _, err := NewSQLite(path); err == nil {
		t.Error("expected error for unsupported schema version")
	}
}
