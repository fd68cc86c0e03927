// Package score persists the best score across runs.
package score

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/teslashibe/go-ballrunner/internal/log"
)

// Store is a key-value home for the high score.
type Store interface {
	// HighScore returns the best score so far, 0 if none was recorded
	HighScore() (int, error)

	// SetHighScore overwrites the best score
	SetHighScore(score int) error
}

// Run is a finished game.
type Run struct {
	ID       string    `json:"id"`
	Score    int       `json:"score"`
	Record   bool      `json:"record"`
	Finished time.Time `json:"finished"`
}

// History is implemented by stores that also keep recent runs.
type History interface {
	AddRun(run Run) error
	Runs() ([]Run, error)
}

// MaxRuns bounds the stored run history.
const MaxRuns = 50

// Record compares final against the stored high score and saves it if it is
// better. It returns the best score after the update and whether final set it.
func Record(store Store, final int) (best int, newRecord bool, err error) {
	best, err = store.HighScore()
	if err != nil {
		return 0, false, errors.Wrap(err, "read high score")
	}
	if final <= best {
		return best, false, nil
	}
	if err := store.SetHighScore(final); err != nil {
		return best, false, errors.Wrap(err, "save high score")
	}
	return final, true, nil
}

// JSONStore implements Store and History using a JSON file for persistence.
type JSONStore struct {
	path string
	data storeData
	mu   sync.RWMutex
}

// storeData is the JSON structure for the store file.
type storeData struct {
	Version   int    `json:"version"`
	UpdatedAt string `json:"updated_at"`
	HighScore int    `json:"high_score"`
	Runs      []Run  `json:"runs"`
}

const currentVersion = 1

// NewJSONStore creates a new JSON-based store at the given path.
// If the file doesn't exist, it will be created on first save. A file that
// does not parse is moved to path+".corrupt" and the store starts empty.
func NewJSONStore(path string) (*JSONStore, error) {
	store := &JSONStore{path: path}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "create store directory")
	}

	if _, err := os.Stat(path); err == nil {
		if err := store.load(); err != nil {
			return nil, errors.Wrapf(err, "load %s", path)
		}
	}

	return store, nil
}

// NewDefaultStore creates a store at ~/.ballrunner/scores.json.
func NewDefaultStore() (*JSONStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, "get home directory")
	}
	return NewJSONStore(filepath.Join(home, ".ballrunner", "scores.json"))
}

// Path returns the backing file.
func (s *JSONStore) Path() string {
	return s.path
}

func (s *JSONStore) load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return errors.Wrap(err, "read file")
	}

	var stored storeData
	if err := json.Unmarshal(raw, &stored); err != nil {
		aside := s.path + ".corrupt"
		log.Component("score").Warn("score file unreadable, starting empty",
			"path", s.path, "moved_to", aside, "error", err)
		if err := os.Rename(s.path, aside); err != nil {
			return errors.Wrap(err, "move corrupt file aside")
		}
		return nil
	}
	if stored.HighScore < 0 {
		stored.HighScore = 0
	}

	s.mu.Lock()
	s.data = stored
	s.mu.Unlock()
	return nil
}

// save writes the store to disk. Caller holds s.mu.
func (s *JSONStore) save() error {
	s.data.Version = currentVersion
	s.data.UpdatedAt = time.Now().Format(time.RFC3339)

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal JSON")
	}

	// Write to temp file first, then rename (atomic write)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0644); err != nil {
		return errors.Wrap(err, "write temp file")
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "rename temp file")
	}
	return nil
}

// HighScore returns the stored best score.
func (s *JSONStore) HighScore() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.HighScore, nil
}

// SetHighScore stores a new best score.
func (s *JSONStore) SetHighScore(score int) error {
	if score < 0 {
		return errors.Errorf("negative score %d", score)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.HighScore = score
	return s.save()
}

// AddRun appends a finished run, dropping the oldest beyond MaxRuns.
func (s *JSONStore) AddRun(run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Runs = appendRun(s.data.Runs, run)
	return s.save()
}

// Runs returns stored runs, newest first.
func (s *JSONStore) Runs() ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.data.Runs), nil
}

// MemoryStore implements Store and History in memory.
type MemoryStore struct {
	mu   sync.RWMutex
	best int
	runs []Run
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// HighScore returns the best score.
func (m *MemoryStore) HighScore() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.best, nil
}

// SetHighScore stores a new best score.
func (m *MemoryStore) SetHighScore(score int) error {
	if score < 0 {
		return errors.Errorf("negative score %d", score)
	}
	m.mu.Lock()
	m.best = score
	m.mu.Unlock()
	return nil
}

// AddRun appends a finished run.
func (m *MemoryStore) AddRun(run Run) error {
	m.mu.Lock()
	m.runs = appendRun(m.runs, run)
	m.mu.Unlock()
	return nil
}

// Runs returns stored runs, newest first.
func (m *MemoryStore) Runs() ([]Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newestFirst(m.runs), nil
}

func appendRun(runs []Run, run Run) []Run {
	if run.Finished.IsZero() {
		run.Finished = time.Now()
	}
	runs = append(runs, run)
	if len(runs) > MaxRuns {
		runs = append([]Run(nil), runs[len(runs)-MaxRuns:]...)
	}
	return runs
}

func newestFirst(runs []Run) []Run {
	out := make([]Run, len(runs))
	for i, r := range runs {
		out[len(runs)-1-i] = r
	}
	return out
}
