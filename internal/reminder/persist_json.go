package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// File names inside the data directory.
const (
	UsersFile     = "user_data.json"
	RemindersFile = "reminders.json"
)

// JSONPersister keeps the two tables as two JSON files in one directory.
// Each Save rewrites both files in full; the pair is not written atomically.
type JSONPersister struct {
	dir string
}

// NewJSONPersister creates the data directory if needed.
func NewJSONPersister(dir string) (*JSONPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &JSONPersister{dir: dir}, nil
}

// Load reads both files. A missing file counts as an empty table.
func (p *JSONPersister) Load(_ context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		Users:     make(map[int64]*UserState),
		Reminders: make(map[string]*Reminder),
	}

	if err := readJSON(filepath.Join(p.dir, UsersFile), &snap.Users); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(p.dir, RemindersFile), &snap.Reminders); err != nil {
		return nil, err
	}
	return snap, nil
}

// Save rewrites the users file, then the reminders file.
func (p *JSONPersister) Save(_ context.Context, snap *Snapshot) error {
	if err := writeJSON(filepath.Join(p.dir, UsersFile), snap.Users); err != nil {
		return err
	}
	return writeJSON(filepath.Join(p.dir, RemindersFile), snap.Reminders)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
