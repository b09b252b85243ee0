package location

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultTable(t *testing.T) {
	table := Default()

	if table.Len() == 0 {
		t.Fatal("default table is empty")
	}

	for _, l := range table.All() {
		if err := l.Validate(); err != nil {
			t.Errorf("embedded location %q invalid: %v", l.Name, err)
		}
	}
}

func TestTable_Find(t *testing.T) {
	table := Default()

	tests := []struct {
		name       string
		query      string
		wantPref   string
		wantErr    bool
	}{
		{"exact match", "Tokyo", "Tokyo", false},
		{"case insensitive", "tokyo", "Tokyo", false},
		{"surrounding whitespace", "  Osaka ", "Osaka", false},
		{"okinawa point", "Naha", "Okinawa", false},
		{"unknown", "Atlantis", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := table.Find(tt.query)
			if tt.wantErr {
				if !errors.Is(err, ErrNotFound) {
					t.Fatalf("expected ErrNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Find(%q) failed: %v", tt.query, err)
			}
			if loc.Prefecture != tt.wantPref {
				t.Errorf("expected prefecture %q, got %q", tt.wantPref, loc.Prefecture)
			}
		})
	}
}

func TestTable_FindByID(t *testing.T) {
	table := Default()

	loc, err := table.FindByID("130010")
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if loc.Name != "Tokyo" {
		t.Errorf("expected Tokyo, got %q", loc.Name)
	}

	if _, err := table.FindByID("999999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown ID, got %v", err)
	}
}

func TestNewTable_Validation(t *testing.T) {
	tests := []struct {
		name string
		locs []Location
	}{
		{"empty name", []Location{{ID: "1", Name: "  ", Latitude: 35, Longitude: 139}}},
		{"latitude out of range", []Location{{ID: "1", Name: "X", Latitude: 91, Longitude: 139}}},
		{"longitude out of range", []Location{{ID: "1", Name: "X", Latitude: 35, Longitude: -181}}},
		{"duplicate name", []Location{
			{ID: "1", Name: "X", Latitude: 35, Longitude: 139},
			{ID: "2", Name: "x", Latitude: 36, Longitude: 140},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTable(tt.locs); err == nil {
				t.Error("expected construction error")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "locations.json")

	locs := []Location{
		{ID: "900001", Name: "Testville", Prefecture: "Test", Region: "Test", Latitude: 35.0, Longitude: 139.0},
	}
	data, err := json.Marshal(locs)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if _, err := table.Find("Testville"); err != nil {
		t.Errorf("expected Testville in loaded table: %v", err)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
