package forecast

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// fileCache is the L2 on-disk forecast cache: one append-only CSV per
// location, rows carrying (forecast_time, fetched_at, payload fields).
//
// Readers tolerate a partially written tail by skipping rows that do
// not parse as a complete record. Writes append whole fetch batches;
// compaction rewrites the file through an atomic rename.
type fileCache struct {
	dir string
	ttl time.Duration

	mu sync.Mutex // serializes writers per process

	// compactAfter bounds file growth: when a file exceeds this many
	// rows, stale batches are dropped during the next write.
	compactAfter int
}

const fileCacheFields = 13

func newFileCache(dir string, ttl time.Duration) *fileCache {
	return &fileCache{dir: dir, ttl: ttl, compactAfter: 5000}
}

func (fc *fileCache) path(locationID string) string {
	return filepath.Join(fc.dir, fmt.Sprintf("forecast_cache_%s.csv", locationID))
}

// Get returns the most recently fetched batch for the location whose
// fetched_at is still within the TTL window.
func (fc *fileCache) Get(locationID string, now time.Time) (Collection, bool) {
	rows, err := fc.readRows(locationID)
	if err != nil || len(rows) == 0 {
		return Collection{}, false
	}

	// Rows group into batches by fetched_at; the newest valid batch wins.
	cutoff := now.Add(-fc.ttl)
	var best time.Time
	for _, r := range rows {
		if r.fetchedAt.After(cutoff) && r.fetchedAt.After(best) {
			best = r.fetchedAt
		}
	}
	if best.IsZero() {
		return Collection{}, false
	}
	var samples []WeatherForecast
	for _, r := range rows {
		if r.fetchedAt.Equal(best) {
			samples = append(samples, r.sample)
		}
	}
	return NewCollection(locationID, samples), true
}

// Put appends the collection as one batch stamped with fetchedAt.
func (fc *fileCache) Put(col Collection, fetchedAt time.Time) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if err := os.MkdirAll(fc.dir, 0o755); err != nil {
		return err
	}

	path := fc.path(col.LocationID)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	for _, s := range col.Samples {
		if err := w.Write(encodeRow(s, fetchedAt)); err != nil {
			_ = f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return fc.maybeCompact(col.LocationID, fetchedAt)
}

// maybeCompact rewrites the file keeping only in-TTL batches, using a
// temp file and atomic rename so readers never see a torn file.
func (fc *fileCache) maybeCompact(locationID string, now time.Time) error {
	rows, err := fc.readRowsLocked(locationID)
	if err != nil || len(rows) <= fc.compactAfter {
		return nil
	}
	cutoff := now.Add(-fc.ttl)

	tmp, err := os.CreateTemp(fc.dir, "forecast_cache_*.tmp")
	if err != nil {
		return err
	}
	w := csv.NewWriter(tmp)
	for _, r := range rows {
		if r.fetchedAt.After(cutoff) {
			if err := w.Write(encodeRow(r.sample, r.fetchedAt)); err != nil {
				_ = tmp.Close()
				_ = os.Remove(tmp.Name())
				return err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), fc.path(locationID))
}

type fileRow struct {
	fetchedAt time.Time
	sample    WeatherForecast
}

func (fc *fileCache) readRows(locationID string) ([]fileRow, error) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.readRowsLocked(locationID)
}

func (fc *fileCache) readRowsLocked(locationID string) ([]fileRow, error) {
	f, err := os.Open(fc.path(locationID))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var rows []fileRow
	for {
		record, err := r.Read()
		if err != nil {
			// Includes io.EOF and a torn final line; parsing stops at
			// the last complete row either way.
			break
		}
		row, ok := decodeRow(locationID, record)
		if !ok {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func encodeRow(s WeatherForecast, fetchedAt time.Time) []string {
	return []string{
		s.DateTime.UTC().Format(time.RFC3339),
		fetchedAt.UTC().Format(time.RFC3339),
		string(s.Condition),
		formatFloat(s.PrecipitationMM),
		formatFloat(s.TemperatureC),
		formatFloat(s.FeelsLikeC),
		formatFloat(s.HumidityPct),
		formatFloat(s.PressureHPa),
		formatFloat(s.WindSpeedMPS),
		string(s.WindDirection),
		formatFloat(s.CloudCoverPct),
		formatFloat(s.VisibilityKm),
		formatFloat(s.UVIndex),
	}
}

func decodeRow(locationID string, record []string) (fileRow, bool) {
	if len(record) != fileCacheFields {
		return fileRow{}, false
	}
	ft, err := time.Parse(time.RFC3339, record[0])
	if err != nil {
		return fileRow{}, false
	}
	fa, err := time.Parse(time.RFC3339, record[1])
	if err != nil {
		return fileRow{}, false
	}
	nums := make([]float64, 0, 10)
	for _, idx := range []int{3, 4, 5, 6, 7, 8, 10, 11, 12} {
		v, err := strconv.ParseFloat(record[idx], 64)
		if err != nil {
			return fileRow{}, false
		}
		nums = append(nums, v)
	}
	return fileRow{
		fetchedAt: fa,
		sample: WeatherForecast{
			LocationID:      locationID,
			DateTime:        ft,
			Condition:       Condition(record[2]),
			PrecipitationMM: nums[0],
			TemperatureC:    nums[1],
			FeelsLikeC:      nums[2],
			HumidityPct:     nums[3],
			PressureHPa:     nums[4],
			WindSpeedMPS:    nums[5],
			WindDirection:   WindDirection(record[9]),
			CloudCoverPct:   nums[6],
			VisibilityKm:    nums[7],
			UVIndex:         nums[8],
		},
	}, true
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
