package repository

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileGardenRepository_Accumulates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garden.json")
	g, err := NewFileGardenRepository(path)
	if err != nil {
		t.Fatalf("new garden: %v", err)
	}
	if err := g.Add(30000); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := g.Add(5000); err != nil {
		t.Fatalf("add: %v", err)
	}

	state := g.State()
	if state.Saved != 35000 || state.SavedCount != 2 {
		t.Fatalf("unexpected tally: %+v", state)
	}

	reloaded, err := NewFileGardenRepository(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := reloaded.State(); got != state {
		t.Fatalf("tally lost on reload: %+v != %+v", got, state)
	}
}

func TestFileGardenRepository_CorruptFileResets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garden.json")
	if err := os.WriteFile(path, []byte("??"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	g, err := NewFileGardenRepository(path)
	if err != nil {
		t.Fatalf("corrupt garden should not fail: %v", err)
	}
	if state := g.State(); state.Saved != 0 || state.SavedCount != 0 {
		t.Fatalf("expected zero tally, got %+v", state)
	}
}
