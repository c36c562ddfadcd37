package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/esgaming/catalogops/internal/database"
)

const (
	StateVersion     = "3.0"
	DefaultStateFile = "output/.catops-state.json"
)

// HistoryEntry represents a single action in the history
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`  // import, export, etc.
	Source    string    `json:"source"`  // file name or destination
	Count     int       `json:"count"`   // Number of entries affected
	Details   string    `json:"details"` // Human-readable description
}

// EntryRecord is a catalog entry with its child records
type EntryRecord struct {
	Entry  database.CatalogEntry    `json:"entry"`
	Prices []database.Price         `json:"prices,omitempty"`
	Images []database.Image         `json:"images,omitempty"`
	Specs  []database.Specification `json:"specifications,omitempty"`
}

// StateFile represents the state file structure
type StateFile struct {
	Version     string                  `json:"version"`
	Categories  []database.Category     `json:"categories"`
	Entries     map[string]*EntryRecord `json:"entries"` // Keyed by entry ID
	History     []HistoryEntry          `json:"history"`
	NextID      int64                   `json:"next_id"`
	LastUpdated time.Time               `json:"last_updated"`
}

func newStateFile() *StateFile {
	return &StateFile{
		Version:    StateVersion,
		Categories: []database.Category{},
		Entries:    make(map[string]*EntryRecord),
		History:    []HistoryEntry{},
		NextID:     1,
	}
}

func (f *StateFile) nextID() int64 {
	id := f.NextID
	f.NextID++
	return id
}

// clone deep-copies the state through its JSON form
func (f *StateFile) clone() (*StateFile, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	out := newStateFile()
	if err := json.Unmarshal(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Store persists the catalog in a single JSON file. It implements
// database.Catalog and database.Transactor so the importer can run without a
// database server.
type Store struct {
	mu       sync.RWMutex
	filePath string
	state    *StateFile
}

// NewStore creates a new state store
func NewStore(filePath string) *Store {
	if filePath == "" {
		filePath = DefaultStateFile
	}

	return &Store{
		filePath: filePath,
		state:    newStateFile(),
	}
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.filePath
}

// Load reads the state from disk. A missing file leaves an empty catalog.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.state = newStateFile()
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	state := newStateFile()
	if err := json.Unmarshal(data, state); err != nil {
		return fmt.Errorf("failed to parse state file: %w", err)
	}
	if state.Version != StateVersion {
		return fmt.Errorf("unsupported state file version %q (want %s)", state.Version, StateVersion)
	}
	if state.Entries == nil {
		state.Entries = make(map[string]*EntryRecord)
	}
	if state.NextID < 1 {
		state.NextID = 1
	}
	s.state = state

	return nil
}

// saveInternal writes the state file; the caller holds the lock
func (s *Store) saveInternal() error {
	s.state.LastUpdated = time.Now()

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}

	// write-then-rename
	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.filePath)
}

// Count returns the number of entries
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.Entries)
}

// GetHistory returns the history entries
func (s *Store) GetHistory() []HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]HistoryEntry, len(s.state.History))
	copy(history, s.state.History)
	return history
}

// InTx applies fn to a private copy of the catalog and swaps it in, then
// persists, only when fn succeeds.
func (s *Store) InTx(ctx context.Context, fn func(database.Catalog) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, err := s.state.clone()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&view{data: draft}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	previous := s.state
	s.state = draft
	if err := s.saveInternal(); err != nil {
		s.state = previous
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Categories() database.CategoryRepository {
	return &categoryRepo{v: &view{store: s}}
}

func (s *Store) Entries() database.EntryRepository {
	return &entryRepo{v: &view{store: s}}
}

func (s *Store) Prices() database.PriceRepository {
	return &priceRepo{v: &view{store: s}}
}

func (s *Store) Images() database.ImageRepository {
	return &imageRepo{v: &view{store: s}}
}

func (s *Store) Specifications() database.SpecificationRepository {
	return &specRepo{v: &view{store: s}}
}

func (s *Store) History() database.HistoryRepository {
	return &historyRepo{v: &view{store: s}}
}

// view routes repository calls either through the store's lock, persisting
// every write, or straight to a transaction draft.
type view struct {
	store *Store
	data  *StateFile
}

func (v *view) Categories() database.CategoryRepository { return &categoryRepo{v: v} }

func (v *view) Entries() database.EntryRepository { return &entryRepo{v: v} }

func (v *view) Prices() database.PriceRepository { return &priceRepo{v: v} }

func (v *view) Images() database.ImageRepository { return &imageRepo{v: v} }

func (v *view) Specifications() database.SpecificationRepository { return &specRepo{v: v} }

func (v *view) History() database.HistoryRepository { return &historyRepo{v: v} }

func (v *view) read(fn func(*StateFile) error) error {
	if v.store == nil {
		return fn(v.data)
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	return fn(v.store.state)
}

func (v *view) write(fn func(*StateFile) error) error {
	if v.store == nil {
		return fn(v.data)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	if err := fn(v.store.state); err != nil {
		return err
	}
	return v.store.saveInternal()
}
