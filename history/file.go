package history

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FileStore appends records to a JSON-lines file. When the file grows
// past the size limit it is gzipped into an archive directory next to
// it and the live file starts over.
type FileStore struct {
	path       string
	archiveDir string
	maxBytes   int64
	log        *zap.Logger

	mu  sync.Mutex
	now func() time.Time
}

// NewFileStore opens (or creates) the history file. maxSizeMB bounds
// the live file; zero disables rotation.
func NewFileStore(path string, maxSizeMB int, log *zap.Logger) (*FileStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("history dir: %w", err)
	}
	return &FileStore{
		path:       path,
		archiveDir: filepath.Join(dir, "archive"),
		maxBytes:   int64(maxSizeMB) * 1024 * 1024,
		log:        log,
		now:        time.Now,
	}, nil
}

// Append writes one record. Appends are serialized under a mutex so
// concurrent workers never interleave lines.
func (s *FileStore) Append(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal history record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rotateLocked(); err != nil {
		// Rotation failure must not lose the record.
		s.log.Warn("history rotation failed", zap.Error(err))
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append history record: %w", err)
	}
	return nil
}

// rotateLocked archives the live file when it exceeds the size limit.
// Caller holds s.mu.
func (s *FileStore) rotateLocked() error {
	if s.maxBytes <= 0 {
		return nil
	}
	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Size() < s.maxBytes {
		return nil
	}

	if err := os.MkdirAll(s.archiveDir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("generation_history_%s.json.gz", s.now().UTC().Format("20060102T150405"))
	dst := filepath.Join(s.archiveDir, name)

	src, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, src); err != nil {
		gz.Close()
		out.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	s.log.Info("history archived", zap.String("archive", dst), zap.Int64("bytes", info.Size()))
	return os.Truncate(s.path, 0)
}

// Recent returns up to limit records from the live file, newest first.
// Corrupt lines are skipped with a warning.
func (s *FileStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()

	var records []Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			s.log.Warn("skipping corrupt history line", zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read history file: %w", err)
	}

	// File order is oldest first; serve newest first.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Close is a no-op; the file is opened per append.
func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
