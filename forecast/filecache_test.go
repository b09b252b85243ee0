package forecast

import (
	"os"
	"testing"
	"time"
)

func TestFileCache_RoundTrip(t *testing.T) {
	fc := newFileCache(t.TempDir(), 6*time.Hour)
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	col := NewCollection("130010", []WeatherForecast{{
		LocationID:      "130010",
		DateTime:        now,
		Condition:       Rainy,
		PrecipitationMM: 6,
		TemperatureC:    19,
		FeelsLikeC:      18.5,
		HumidityPct:     88,
		PressureHPa:     1008,
		WindSpeedMPS:    4,
		WindDirection:   "SSE",
		CloudCoverPct:   95,
		VisibilityKm:    8,
		UVIndex:         1,
	}})

	if err := fc.Put(col, now); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok := fc.Get("130010", now.Add(time.Hour))
	if !ok {
		t.Fatal("expected L2 hit")
	}
	if got.Len() != 1 {
		t.Fatalf("expected 1 sample, got %d", got.Len())
	}
	s := got.Samples[0]
	if s.Condition != Rainy || s.TemperatureC != 19 || s.HumidityPct != 88 || s.WindDirection != "SSE" {
		t.Errorf("round-trip mismatch: %+v", s)
	}
}

func TestFileCache_TTL(t *testing.T) {
	fc := newFileCache(t.TempDir(), 6*time.Hour)
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	col := hourly("130010", now, 2)
	if err := fc.Put(col, now); err != nil {
		t.Fatal(err)
	}

	if _, ok := fc.Get("130010", now.Add(5*time.Hour)); !ok {
		t.Error("batch within TTL should be served")
	}
	if _, ok := fc.Get("130010", now.Add(7*time.Hour)); ok {
		t.Error("batch past TTL should be ignored")
	}
}

func TestFileCache_NewestBatchWins(t *testing.T) {
	fc := newFileCache(t.TempDir(), 6*time.Hour)
	base := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	old := NewCollection("130010", []WeatherForecast{{LocationID: "130010", DateTime: base, TemperatureC: 10, Condition: Cloudy}})
	fresh := NewCollection("130010", []WeatherForecast{{LocationID: "130010", DateTime: base, TemperatureC: 20, Condition: Clear}})

	if err := fc.Put(old, base); err != nil {
		t.Fatal(err)
	}
	if err := fc.Put(fresh, base.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	got, ok := fc.Get("130010", base.Add(2*time.Hour))
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Samples[0].TemperatureC != 20 {
		t.Errorf("expected newest batch, got temp %v", got.Samples[0].TemperatureC)
	}
}

func TestFileCache_ToleratesTornTail(t *testing.T) {
	dir := t.TempDir()
	fc := newFileCache(dir, 6*time.Hour)
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	if err := fc.Put(hourly("130010", now, 2), now); err != nil {
		t.Fatal(err)
	}

	// Simulate a writer crash mid-row.
	f, err := os.OpenFile(fc.path("130010"), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("2024-06-10T12:00:00Z,2024-06-10T1"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	got, ok := fc.Get("130010", now.Add(time.Hour))
	if !ok {
		t.Fatal("torn tail should not break reads")
	}
	if got.Len() != 2 {
		t.Errorf("expected the 2 complete rows, got %d", got.Len())
	}
}

func TestFileCache_MissingFile(t *testing.T) {
	fc := newFileCache(t.TempDir(), 6*time.Hour)
	if _, ok := fc.Get("999999", time.Now()); ok {
		t.Error("expected miss for unknown location")
	}
}
