// Package jsonfile provides a JSON file-based tab session store.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hay-kot/morph/internal/core/tab"
)

// SessionFile is the root JSON structure stored on disk.
type SessionFile struct {
	SavedAt time.Time `json:"saved_at"`
	Tabs    []tab.Tab `json:"tabs"`
}

// TabStore implements tab.Store using a JSON file for persistence.
type TabStore struct {
	path string
	mu   sync.RWMutex
}

var _ tab.Store = (*TabStore)(nil)

// NewTabStore creates a new JSON file tab store at the given path.
func NewTabStore(path string) *TabStore {
	return &TabStore{path: path}
}

// Load returns the saved tabs, current tab first.
func (s *TabStore) Load(ctx context.Context) ([]tab.Tab, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.load()
	if err != nil {
		return nil, err
	}

	return file.Tabs, nil
}

// Save replaces the saved tabs.
func (s *TabStore) Save(ctx context.Context, tabs []tab.Tab) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tabs == nil {
		tabs = []tab.Tab{}
	}

	return s.save(SessionFile{SavedAt: time.Now().UTC(), Tabs: tabs})
}

// load reads the session file from disk.
// Returns empty SessionFile if file doesn't exist.
func (s *TabStore) load() (SessionFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return SessionFile{}, nil
		}
		return SessionFile{}, fmt.Errorf("read session file: %w", err)
	}

	if len(data) == 0 {
		return SessionFile{}, nil
	}

	var file SessionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return SessionFile{}, fmt.Errorf("parse session file: %w", err)
	}

	return file, nil
}

// save writes the session file to disk atomically.
func (s *TabStore) save(file SessionFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
