// Package history records every generation attempt for later review.
// Two backends exist: an append-only JSON-lines file with gzip rotation
// and a single-file sqlite database.
package history

import (
	"context"
	"time"

	"github.com/wxcomment/wxcomment-go/workflow"
)

// Record is one generation attempt.
type Record struct {
	RunID       string    `json:"run_id,omitempty"`
	Timestamp   time.Time `json:"timestamp_utc"`
	LocationID  string    `json:"location_id"`
	Provider    string    `json:"llm_provider"`
	Success     bool      `json:"success"`
	WeatherText string    `json:"weather_text,omitempty"`
	AdviceText  string    `json:"advice_text,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// FromResult builds a record from a finished workflow run.
func FromResult(res *workflow.Result) Record {
	rec := Record{
		RunID:      res.RunID,
		Timestamp:  res.GeneratedAt,
		LocationID: res.Location.ID,
		Provider:   res.Provider,
		Success:    res.Success,
	}
	if res.Success {
		rec.WeatherText = res.Comment
		rec.AdviceText = res.AdviceComment
	}
	if e := res.Error(); e != nil {
		rec.Error = e.Code + ": " + e.Message
	}
	return rec
}

// Store persists generation records.
type Store interface {
	// Append adds one record.
	Append(ctx context.Context, rec Record) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)

	Close() error
}
