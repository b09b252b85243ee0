package corpus

import (
	"container/list"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// ErrNotFound is returned when the corpus directory does not exist.
var ErrNotFound = errors.New("corpus not found")

// maxTextLen is the normalized phrase length cap, in runes.
const maxTextLen = 200

// Repository is the lazy phrase store. Files are listed at
// construction but read only when a (season, type) query first needs
// them; parsed lists live in a TTL-limited LRU.
type Repository struct {
	dir string
	log *zap.Logger

	mu      sync.Mutex
	ttl     time.Duration
	maxKeys int
	order   *list.List
	cache   map[cacheKey]*list.Element

	now func() time.Time
}

type cacheKey struct {
	season Season
	typ    CommentType
}

type cacheEntry struct {
	key      cacheKey
	comments []PastComment
	loadedAt time.Time
}

// RepositoryOption tunes cache behavior.
type RepositoryOption func(*Repository)

// WithCacheTTL overrides the 60 minute default entry lifetime.
func WithCacheTTL(ttl time.Duration) RepositoryOption {
	return func(r *Repository) { r.ttl = ttl }
}

// WithCacheSize overrides the default 12 cached (season, type) lists.
func WithCacheSize(n int) RepositoryOption {
	return func(r *Repository) { r.maxKeys = n }
}

// NewRepository opens the corpus directory. No file content is read
// here; only the directory's existence is verified.
func NewRepository(dir string, log *zap.Logger, opts ...RepositoryOption) (*Repository, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%q: %w", dir, ErrNotFound)
	}
	if log == nil {
		log = zap.NewNop()
	}
	r := &Repository{
		dir:     dir,
		log:     log,
		ttl:     60 * time.Minute,
		maxKeys: 12,
		order:   list.New(),
		cache:   make(map[cacheKey]*list.Element),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// GetBySeasonAndType returns phrases for one (season, type), sorted by
// count descending. A missing file yields an empty list and a warning,
// not an error.
func (r *Repository) GetBySeasonAndType(season Season, typ CommentType) ([]PastComment, error) {
	if !season.Valid() {
		return nil, fmt.Errorf("unknown season %q", season)
	}
	key := cacheKey{season: season, typ: typ}

	r.mu.Lock()
	defer r.mu.Unlock()

	if el, ok := r.cache[key]; ok {
		ent := el.Value.(*cacheEntry)
		if r.now().Sub(ent.loadedAt) < r.ttl {
			r.order.MoveToFront(el)
			return ent.comments, nil
		}
		r.removeLocked(el)
	}

	comments := r.loadFile(season, typ)
	for r.order.Len() >= r.maxKeys {
		r.removeLocked(r.order.Back())
	}
	ent := &cacheEntry{key: key, comments: comments, loadedAt: r.now()}
	r.cache[key] = r.order.PushFront(ent)
	return comments, nil
}

// GetBySeason returns the season's weather and advice phrases merged,
// weather first, each sorted by count descending.
func (r *Repository) GetBySeason(season Season) ([]PastComment, error) {
	weather, err := r.GetBySeasonAndType(season, TypeWeather)
	if err != nil {
		return nil, err
	}
	advice, err := r.GetBySeasonAndType(season, TypeAdvice)
	if err != nil {
		return nil, err
	}
	out := make([]PastComment, 0, len(weather)+len(advice))
	out = append(out, weather...)
	out = append(out, advice...)
	return out, nil
}

// Preload eagerly reads both phrase types for a season.
func (r *Repository) Preload(season Season) error {
	if _, err := r.GetBySeasonAndType(season, TypeWeather); err != nil {
		return err
	}
	_, err := r.GetBySeasonAndType(season, TypeAdvice)
	return err
}

// Search scans for phrases containing keyword, optionally filtered by
// season and type, stopping after limit matches.
func (r *Repository) Search(keyword string, season *Season, typ *CommentType, limit int) ([]PastComment, error) {
	if limit <= 0 {
		limit = 50
	}
	seasons := Seasons
	if season != nil {
		seasons = []Season{*season}
	}
	types := []CommentType{TypeWeather, TypeAdvice}
	if typ != nil {
		types = []CommentType{*typ}
	}

	var out []PastComment
	for _, s := range seasons {
		for _, ct := range types {
			comments, err := r.GetBySeasonAndType(s, ct)
			if err != nil {
				return nil, err
			}
			for _, c := range comments {
				if strings.Contains(c.Text, keyword) {
					out = append(out, c)
					if len(out) >= limit {
						return out, nil
					}
				}
			}
		}
	}
	return out, nil
}

// RefreshCache drops every cached list; subsequent queries re-read
// the files.
func (r *Repository) RefreshCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order.Init()
	r.cache = make(map[cacheKey]*list.Element)
}

// invalidate drops one cached (season, type) list. Used by the
// directory watcher.
func (r *Repository) invalidate(season Season, typ CommentType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if el, ok := r.cache[cacheKey{season: season, typ: typ}]; ok {
		r.removeLocked(el)
	}
}

func (r *Repository) removeLocked(el *list.Element) {
	if el == nil {
		return
	}
	ent := el.Value.(*cacheEntry)
	delete(r.cache, ent.key)
	r.order.Remove(el)
}

func (r *Repository) fileName(season Season, typ CommentType) string {
	return fmt.Sprintf("%s_%s_enhanced100.csv", season, typ)
}

// loadFile reads and normalizes one corpus CSV. All failures demote to
// an empty list with a warning; the repository never errors on a
// missing or malformed file.
func (r *Repository) loadFile(season Season, typ CommentType) []PastComment {
	path := filepath.Join(r.dir, r.fileName(season, typ))
	f, err := os.Open(path)
	if err != nil {
		r.log.Warn("corpus file missing",
			zap.String("season", string(season)),
			zap.String("type", string(typ)),
			zap.Error(err))
		return nil
	}
	defer f.Close()

	comments := r.parse(f, season, typ, path)
	sort.SliceStable(comments, func(i, j int) bool { return comments[i].Count > comments[j].Count })
	return comments
}

func (r *Repository) parse(f io.Reader, season Season, typ CommentType, path string) []PastComment {
	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var comments []PastComment
	first := true
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			r.log.Warn("corpus row unreadable", zap.String("file", path), zap.Error(err))
			continue
		}
		if first {
			first = false
			// Header row; tolerate a UTF-8 BOM on the first field.
			continue
		}
		if len(record) < 2 {
			continue
		}
		text := strings.TrimSpace(strings.TrimPrefix(record[0], "\ufeff"))
		if text == "" {
			continue
		}
		if utf8.RuneCountInString(text) > maxTextLen {
			r.log.Warn("corpus phrase truncated",
				zap.String("file", path),
				zap.Int("length", utf8.RuneCountInString(text)))
			text = truncateRunes(text, maxTextLen)
		}
		count, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil || count < 0 {
			r.log.Warn("corpus row dropped: bad count",
				zap.String("file", path),
				zap.String("count", record[1]))
			continue
		}
		comments = append(comments, PastComment{
			Text:   text,
			Type:   typ,
			Season: season,
			Count:  count,
		})
	}
	return comments
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
