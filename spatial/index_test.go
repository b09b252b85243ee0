package spatial

import (
	"math"
	"testing"
)

// Tokyo station and Shinagawa are about 6.7 km apart; Osaka is ~400 km
// from both.
var testPoints = []Point{
	{ID: "tokyo", Latitude: 35.6812, Longitude: 139.7671},
	{ID: "shinagawa", Latitude: 35.6284, Longitude: 139.7387},
	{ID: "osaka", Latitude: 34.6937, Longitude: 135.5023},
}

func TestHaversine(t *testing.T) {
	tests := []struct {
		name             string
		lat1, lon1       float64
		lat2, lon2       float64
		wantKm, tolerance float64
	}{
		{"same point", 35.0, 139.0, 35.0, 139.0, 0, 0.001},
		{"tokyo-shinagawa", 35.6812, 139.7671, 35.6284, 139.7387, 6.4, 1.0},
		{"tokyo-osaka", 35.6812, 139.7671, 34.6937, 135.5023, 400, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("expected ~%v km, got %v km", tt.wantKm, got)
			}
		})
	}
}

func TestIndex_Nearest(t *testing.T) {
	ix := NewIndex(testPoints)

	t.Run("finds neighbor within radius", func(t *testing.T) {
		// Query from Tokyo; Shinagawa is within 10 km, Osaka is not.
		got := ix.Nearest(35.6812, 139.7671, 5, 10)
		if len(got) != 2 {
			t.Fatalf("expected 2 results (self + shinagawa), got %d", len(got))
		}
		if got[0].ID != "tokyo" || got[0].DistanceKm > 0.01 {
			t.Errorf("expected self first at distance 0, got %+v", got[0])
		}
		if got[1].ID != "shinagawa" {
			t.Errorf("expected shinagawa second, got %q", got[1].ID)
		}
	})

	t.Run("respects k limit", func(t *testing.T) {
		got := ix.Nearest(35.6812, 139.7671, 1, 10)
		if len(got) != 1 {
			t.Fatalf("expected 1 result, got %d", len(got))
		}
	})

	t.Run("respects radius", func(t *testing.T) {
		got := ix.Nearest(35.6812, 139.7671, 5, 1)
		if len(got) != 1 || got[0].ID != "tokyo" {
			t.Fatalf("expected only self within 1 km, got %+v", got)
		}
	})

	t.Run("empty for zero k or radius", func(t *testing.T) {
		if got := ix.Nearest(35, 139, 0, 10); got != nil {
			t.Errorf("expected nil for k=0, got %v", got)
		}
		if got := ix.Nearest(35, 139, 5, 0); got != nil {
			t.Errorf("expected nil for radius=0, got %v", got)
		}
	})

	t.Run("ordered by distance", func(t *testing.T) {
		got := ix.Nearest(35.65, 139.75, 5, 500)
		for i := 1; i < len(got); i++ {
			if got[i].DistanceKm < got[i-1].DistanceKm {
				t.Errorf("results not sorted at %d: %v", i, got)
			}
		}
	})
}
