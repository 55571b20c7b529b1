// Package catalog holds the reference card database a scan is matched
// against. The catalog is loaded once from disk (or fetched from a remote
// endpoint) and served as immutable snapshots so a reload can never be
// observed halfway through a scan.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Card is a single reference record. Only ID and Name are required; the
// remaining fields improve match quality when present.
type Card struct {
	ID       string  `json:"id"       yaml:"id"`
	Name     string  `json:"name"     yaml:"name"`
	Number   string  `json:"number"   yaml:"number"`
	SetName  string  `json:"set_name" yaml:"set_name"`
	SetCode  string  `json:"set_code" yaml:"set_code"`
	Type     string  `json:"type"     yaml:"type"`
	Flavor   string  `json:"flavor"   yaml:"flavor"`
	Effect   string  `json:"effect"   yaml:"effect"`
	Image    string  `json:"image"    yaml:"image"`
	Price    float64 `json:"price"    yaml:"price"`
}

// Snapshot is an immutable view of the catalog. The Cards slice must not be
// mutated by callers.
type Snapshot struct {
	Cards   []Card
	Version uint64
}

// Store serves catalog snapshots and supports atomic replacement.
type Store struct {
	mu      sync.RWMutex
	cards   []Card
	version uint64
}

// NewStore creates an empty store at version 0.
func NewStore() *Store {
	return &Store{}
}

// Replace installs cards as the new catalog and bumps the version. The
// slice is copied so later mutation by the caller cannot leak in.
func (s *Store) Replace(cards []Card) {
	copied := make([]Card, len(cards))
	copy(copied, cards)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards = copied
	s.version++
}

// Snapshot returns the current catalog view. Concurrent Replace calls do not
// affect a snapshot already taken.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Cards: s.cards, Version: s.version}
}

// Len returns the number of cards currently loaded.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cards)
}

// Load reads a catalog file. The format is chosen by extension: .json, or
// .yaml/.yml.
func Load(path string) ([]Card, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var cards []Card
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, &cards); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cards); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q (want .json, .yaml, or .yml)", ext)
	}

	for i := range cards {
		if cards[i].Number == "" {
			cards[i].Number = NumberFromID(cards[i].ID)
		}
	}
	return cards, nil
}

// LoadInto loads path and installs the result into the store.
func LoadInto(s *Store, path string) (int, error) {
	cards, err := Load(path)
	if err != nil {
		return 0, err
	}
	s.Replace(cards)
	return len(cards), nil
}

// Save writes cards as pretty-printed JSON, creating parent directories.
func Save(path string, cards []Card) error {
	data, err := json.MarshalIndent(cards, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create catalog dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}
