// Package location provides the static geographic point table used to
// resolve request location names into coordinates.
package location

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// Location identifies a named geographic point. Immutable after load.
type Location struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Prefecture string  `json:"prefecture"`
	Region     string  `json:"region"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

// Validate checks the coordinate and name invariants.
func (l Location) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return errors.New("location name cannot be empty")
	}
	if l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90,90]", l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180,180]", l.Longitude)
	}
	return nil
}

// ErrNotFound is returned when a location name does not match the table.
var ErrNotFound = errors.New("location not found")

// Table is a read-only registry of locations keyed by name and ID.
// Built once at startup; safe for concurrent readers.
type Table struct {
	mu     sync.RWMutex
	byName map[string]Location
	byID   map[string]Location
	all    []Location
}

// NewTable builds a table from the given locations. Entries failing
// validation are rejected; duplicate names are an error.
func NewTable(locs []Location) (*Table, error) {
	t := &Table{
		byName: make(map[string]Location, len(locs)),
		byID:   make(map[string]Location, len(locs)),
	}
	for _, l := range locs {
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("location %q: %w", l.Name, err)
		}
		key := normalize(l.Name)
		if _, dup := t.byName[key]; dup {
			return nil, fmt.Errorf("duplicate location name %q", l.Name)
		}
		t.byName[key] = l
		t.byID[l.ID] = l
		t.all = append(t.all, l)
	}
	sort.Slice(t.all, func(i, j int) bool { return t.all[i].ID < t.all[j].ID })
	return t, nil
}

// Default returns a table built from the embedded coordinate set.
func Default() *Table {
	t, err := NewTable(defaultLocations)
	if err != nil {
		// The embedded table is validated by tests; a failure here is
		// a programming error.
		panic(err)
	}
	return t
}

// LoadFile reads a JSON array of locations and builds a table.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read location table: %w", err)
	}
	var locs []Location
	if err := json.Unmarshal(data, &locs); err != nil {
		return nil, fmt.Errorf("parse location table: %w", err)
	}
	return NewTable(locs)
}

// Find resolves a location by display name. Matching is
// case-insensitive and tolerant of surrounding whitespace.
func (t *Table) Find(name string) (Location, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	l, ok := t.byName[normalize(name)]
	if !ok {
		return Location{}, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return l, nil
}

// FindByID resolves a location by its stable identifier.
func (t *Table) FindByID(id string) (Location, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	l, ok := t.byID[id]
	if !ok {
		return Location{}, fmt.Errorf("id %q: %w", id, ErrNotFound)
	}
	return l, nil
}

// All returns every location ordered by ID.
func (t *Table) All() []Location {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Location, len(t.all))
	copy(out, t.all)
	return out
}

// Len reports the number of registered locations.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.all)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
