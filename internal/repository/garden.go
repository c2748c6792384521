package repository

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/example/purchase-guardian/internal/model"
)

// FileGardenRepository persists the savings garden: a running tally of
// money kept by declining purchases.
type FileGardenRepository struct {
	path string

	mu    sync.Mutex
	state model.GardenState
}

func NewFileGardenRepository(path string) (*FileGardenRepository, error) {
	r := &FileGardenRepository{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return r, nil
		}
		return nil, err
	}
	// A corrupt garden file just resets the tally.
	if err := json.Unmarshal(data, &r.state); err != nil {
		r.state = model.GardenState{}
	}
	return r, nil
}

// Add credits a declined purchase's price to the garden.
func (r *FileGardenRepository) Add(amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Saved += amount
	r.state.SavedCount++
	return r.saveLocked()
}

func (r *FileGardenRepository) State() model.GardenState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *FileGardenRepository) saveLocked() error {
	data, err := json.MarshalIndent(r.state, "", "  ")
	if err != nil {
		return &PersistenceError{Op: "garden", Err: err}
	}
	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".garden-*.json")
	if err != nil {
		return &PersistenceError{Op: "garden", Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &PersistenceError{Op: "garden", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &PersistenceError{Op: "garden", Err: err}
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		os.Remove(tmp.Name())
		return &PersistenceError{Op: "garden", Err: err}
	}
	return nil
}
