package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps generation history in a single-file database.
// WAL mode lets API reads run while the batch writer appends.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
}

// NewSQLiteStore opens (or creates) the database at path. ":memory:"
// gives an in-memory database for tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	table := `
		CREATE TABLE IF NOT EXISTS generation_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL DEFAULT '',
			timestamp_utc TEXT NOT NULL,
			location_id TEXT NOT NULL,
			llm_provider TEXT NOT NULL,
			success INTEGER NOT NULL,
			weather_text TEXT NOT NULL DEFAULT '',
			advice_text TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT ''
		)
	`
	if _, err := s.db.ExecContext(ctx, table); err != nil {
		return fmt.Errorf("create generation_history: %w", err)
	}
	for _, idx := range []string{
		"CREATE INDEX IF NOT EXISTS idx_history_timestamp ON generation_history(timestamp_utc)",
		"CREATE INDEX IF NOT EXISTS idx_history_location ON generation_history(location_id)",
	} {
		if _, err := s.db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// Append inserts one record.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return fmt.Errorf("history store is closed")
	}
	s.mu.RUnlock()

	query := `
		INSERT INTO generation_history
		(run_id, timestamp_utc, location_id, llm_provider, success, weather_text, advice_text, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.RunID,
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
		rec.LocationID,
		rec.Provider,
		boolToInt(rec.Success),
		rec.WeatherText,
		rec.AdviceText,
		rec.Error,
	)
	if err != nil {
		return fmt.Errorf("append history record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, fmt.Errorf("history store is closed")
	}
	s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT run_id, timestamp_utc, location_id, llm_provider, success, weather_text, advice_text, error
		FROM generation_history
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var (
			rec     Record
			ts      string
			success int
		)
		if err := rows.Scan(&rec.RunID, &ts, &rec.LocationID, &rec.Provider, &success,
			&rec.WeatherText, &rec.AdviceText, &rec.Error); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		rec.Success = success != 0
		if rec.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parse history timestamp: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return records, nil
}

// Ping verifies the database connection is alive.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return fmt.Errorf("history store is closed")
	}
	s.mu.RUnlock()
	return s.db.PingContext(ctx)
}

// Close closes the database. Double-close is a no-op.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ Store = (*SQLiteStore)(nil)
