package forecast

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/wxcomment/wxcomment-go/config"
	"github.com/wxcomment/wxcomment-go/location"
	"github.com/wxcomment/wxcomment-go/spatial"
)

// Provider fetches a normalized forecast collection from the external
// weather service. The adapter is the sole translator of provider
// condition codes into the Condition enum.
type Provider interface {
	Fetch(ctx context.Context, lat, lon float64, target time.Time, hours int) (Collection, error)
}

// FetchError tags.
const (
	TagTimeout       = "timeout"
	TagRateLimited   = "rate_limited"
	TagAPIKeyInvalid = "api_key_invalid"
	TagNetwork       = "network"
	TagUnknown       = "unknown"
)

// FetchError is a weather retrieval failure with a stable tag.
type FetchError struct {
	Tag   string
	Cause error
}

func (e *FetchError) Error() string {
	return "weather fetch failed (" + e.Tag + "): " + e.Cause.Error()
}

func (e *FetchError) Unwrap() error { return e.Cause }

// Retryable reports whether the failure class is worth another attempt.
func (e *FetchError) Retryable() bool {
	return e.Tag == TagTimeout || e.Tag == TagRateLimited || e.Tag == TagNetwork || e.Tag == TagUnknown
}

// Result is a forecast served by the Service, annotated with how it
// was obtained.
type Result struct {
	Collection Collection
	// Tier is the cache tier that served the result: "l1", "l2",
	// "spatial" or "api".
	Tier string
	// SpatialBorrowFrom is the source location ID when the result was
	// adopted from a neighbor's cache.
	SpatialBorrowFrom string
}

// Service resolves forecasts through the three-tier cache hierarchy:
// L1 memory LRU, L2 on-disk CSV, L3 spatial neighbor borrow, then the
// external provider. At most one in-flight external fetch runs per
// (location, target hour) key; concurrent callers share the result.
type Service struct {
	provider Provider
	l1       *memCache
	l2       *fileCache
	index    *spatial.Index
	locs     *location.Table
	log      *zap.Logger
	metrics  *Metrics

	spatialEnabled   bool
	spatialRadiusKm  float64
	spatialNeighbors int
	hoursAhead       int
	thresholds       config.Thresholds

	flight singleflight.Group

	apiCalls       atomic.Int64
	spatialBorrows atomic.Int64
	l2Hits         atomic.Int64

	// now is swappable for tests.
	now func() time.Time
}

// ServiceConfig carries the cache tuning knobs from config.Config.
type ServiceConfig struct {
	MemoryCacheSize       int
	MemoryCacheTTL        time.Duration
	FileCacheDir          string
	FileCacheTTL          time.Duration
	EnableSpatialCache    bool
	SpatialCacheRadiusKm  float64
	SpatialCacheNeighbors int
	ForecastHoursAhead    int
	Thresholds            config.Thresholds
}

// ServiceConfigFrom extracts the service knobs from the app config.
func ServiceConfigFrom(cfg config.Config) ServiceConfig {
	return ServiceConfig{
		MemoryCacheSize:       cfg.MemoryCacheSize,
		MemoryCacheTTL:        cfg.MemoryCacheTTL,
		FileCacheDir:          cfg.ForecastCacheDir,
		FileCacheTTL:          cfg.WeatherCacheTTL,
		EnableSpatialCache:    cfg.EnableSpatialCache,
		SpatialCacheRadiusKm:  cfg.SpatialCacheRadiusKm,
		SpatialCacheNeighbors: cfg.SpatialCacheNeighbors,
		ForecastHoursAhead:    cfg.ForecastHoursAhead,
		Thresholds:            cfg.Thresholds,
	}
}

// NewService builds the cached forecast service. The spatial index is
// built once from the location table and read-only thereafter.
func NewService(provider Provider, locs *location.Table, sc ServiceConfig, log *zap.Logger, metrics *Metrics) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if sc.Thresholds == (config.Thresholds{}) {
		sc.Thresholds = config.DefaultThresholds()
	}
	points := make([]spatial.Point, 0, locs.Len())
	for _, l := range locs.All() {
		points = append(points, spatial.Point{ID: l.ID, Latitude: l.Latitude, Longitude: l.Longitude})
	}
	return &Service{
		provider:         provider,
		l1:               newMemCache(sc.MemoryCacheSize, sc.MemoryCacheTTL),
		l2:               newFileCache(sc.FileCacheDir, sc.FileCacheTTL),
		index:            spatial.NewIndex(points),
		locs:             locs,
		log:              log,
		metrics:          metrics,
		spatialEnabled:   sc.EnableSpatialCache,
		spatialRadiusKm:  sc.SpatialCacheRadiusKm,
		spatialNeighbors: sc.SpatialCacheNeighbors,
		hoursAhead:       sc.ForecastHoursAhead,
		thresholds:       sc.Thresholds,
		now:              time.Now,
	}
}

// Get resolves a forecast collection for the location covering
// [target-12h, target+12h]. Cache errors demote to misses and never
// surface to the caller.
func (s *Service) Get(ctx context.Context, loc location.Location, target time.Time) (Result, error) {
	now := s.now()
	key := cacheKey(loc.ID, target)

	if col, ok := s.l1.Get(key, now); ok {
		s.metrics.cacheHit("l1")
		return Result{Collection: col, Tier: "l1"}, nil
	}
	s.metrics.cacheMiss("l1")

	if col, ok := s.l2.Get(loc.ID, now); ok {
		if _, has := col.At(target); has {
			s.l2Hits.Add(1)
			s.metrics.cacheHit("l2")
			s.l1.Put(key, col, now)
			return Result{Collection: col, Tier: "l2"}, nil
		}
	}
	s.metrics.cacheMiss("l2")

	if s.spatialEnabled {
		if col, src, ok := s.borrowFromNeighbor(loc, target, now); ok {
			s.spatialBorrows.Add(1)
			s.metrics.spatialBorrow()
			s.l1.Put(key, col, now)
			return Result{Collection: col, Tier: "spatial", SpatialBorrowFrom: src}, nil
		}
	}

	col, err := s.fetchShared(ctx, key, loc, target)
	if err != nil {
		return Result{}, err
	}
	return Result{Collection: col, Tier: "api"}, nil
}

// borrowFromNeighbor queries the spatial index for close locations
// with a valid L1 or L2 entry and adopts the nearest one, rewriting
// the location ID on the borrowed records.
func (s *Service) borrowFromNeighbor(loc location.Location, target, now time.Time) (Collection, string, bool) {
	neighbors := s.index.Nearest(loc.Latitude, loc.Longitude, s.spatialNeighbors, s.spatialRadiusKm)
	for _, n := range neighbors {
		if n.ID == loc.ID {
			continue
		}
		if col, ok := s.l1.Get(cacheKey(n.ID, target), now); ok {
			return col.WithLocationID(loc.ID), n.ID, true
		}
		if col, ok := s.l2.Get(n.ID, now); ok {
			if _, has := col.At(target); has {
				return col.WithLocationID(loc.ID), n.ID, true
			}
		}
	}
	return Collection{}, "", false
}

// fetchShared funnels concurrent misses for the same key into one
// provider call.
func (s *Service) fetchShared(ctx context.Context, key string, loc location.Location, target time.Time) (Collection, error) {
	v, err, _ := s.flight.Do(key, func() (interface{}, error) {
		return s.fetchRemote(ctx, loc, target)
	})
	if err != nil {
		return Collection{}, err
	}
	return v.(Collection), nil
}

// fetchRemote calls the provider with exponential backoff, validates
// the samples, and populates L1 and L2. Failed fetches never poison
// the caches.
func (s *Service) fetchRemote(ctx context.Context, loc location.Location, target time.Time) (Collection, error) {
	const (
		baseDelay   = 500 * time.Millisecond
		maxAttempts = 3
		jitterFrac  = 0.20
	)

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(baseDelay, attempt, jitterFrac)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return Collection{}, &FetchError{Tag: TagTimeout, Cause: ctx.Err()}
			}
		}

		s.apiCalls.Add(1)
		s.metrics.apiCall()
		col, err := s.provider.Fetch(ctx, loc.Latitude, loc.Longitude, target, s.hoursAhead)
		if err == nil {
			col = s.sanitize(loc, col)
			if col.Len() == 0 {
				return Collection{}, &FetchError{Tag: TagUnknown, Cause: errors.New("provider returned no valid samples")}
			}
			now := s.now()
			s.l1.Put(cacheKey(loc.ID, target), col, now)
			if werr := s.l2.Put(col, now); werr != nil {
				// Cache errors are non-fatal.
				s.log.Warn("l2 cache write failed", zap.String("location", loc.ID), zap.Error(werr))
			}
			return col, nil
		}

		lastErr = err
		s.metrics.apiError(tagOf(err))
		var fe *FetchError
		if errors.As(err, &fe) && !fe.Retryable() {
			return Collection{}, err
		}
	}

	var fe *FetchError
	if errors.As(lastErr, &fe) {
		return Collection{}, lastErr
	}
	return Collection{}, &FetchError{Tag: TagUnknown, Cause: lastErr}
}

// sanitize relabels samples for the requested location, refines rain
// classes against the measured precipitation rate, and drops any
// sample violating the physical range invariants.
func (s *Service) sanitize(loc location.Location, col Collection) Collection {
	kept := col.Samples[:0]
	for _, sample := range col.Samples {
		sample.LocationID = loc.ID
		sample.Condition = ClassifyPrecip(sample.Condition, sample.PrecipitationMM, s.thresholds)
		if err := sample.Validate(); err != nil {
			s.log.Warn("dropping out-of-range forecast sample",
				zap.String("location", loc.ID),
				zap.Time("datetime", sample.DateTime),
				zap.Error(err))
			continue
		}
		kept = append(kept, sample)
	}
	return NewCollection(loc.ID, kept)
}

// Preload fetches and caches a forecast without returning it. Used by
// the cache warmer; errors are the caller's to log.
func (s *Service) Preload(ctx context.Context, loc location.Location, target time.Time) error {
	_, err := s.Get(ctx, loc, target)
	return err
}

// ShrinkMemory halves the L1 cache under memory pressure.
func (s *Service) ShrinkMemory() { s.l1.Shrink() }

// RelaxMemory lifts the memory-pressure constraint on L1.
func (s *Service) RelaxMemory() { s.l1.Relax() }

// Stats is a point-in-time snapshot of cache effectiveness.
type Stats struct {
	L1Hits         int64 `json:"l1_hits"`
	L1Misses       int64 `json:"l1_misses"`
	L2Hits         int64 `json:"l2_hits"`
	SpatialBorrows int64 `json:"spatial_borrows"`
	APICalls       int64 `json:"api_calls"`
	L1Entries      int   `json:"l1_entries"`
	MemoryBytes    int64 `json:"memory_bytes_estimate"`
}

// Stats reports cumulative counters and a coarse memory estimate.
func (s *Service) Stats() Stats {
	hits, misses := s.l1.Stats()
	entries := s.l1.Len()
	return Stats{
		L1Hits:         hits,
		L1Misses:       misses,
		L2Hits:         s.l2Hits.Load(),
		SpatialBorrows: s.spatialBorrows.Load(),
		APICalls:       s.apiCalls.Load(),
		L1Entries:      entries,
		// ~25 samples per entry, ~200 bytes per sample.
		MemoryBytes: int64(entries) * 25 * 200,
	}
}

func backoffDelay(base time.Duration, attempt int, jitterFrac float64) time.Duration {
	d := base * (1 << (attempt - 1))
	jitter := time.Duration(jitterFrac * float64(d) * (rand.Float64()*2 - 1)) // #nosec G404 -- retry jitter, not security
	return d + jitter
}

func tagOf(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Tag
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return TagTimeout
	}
	return TagUnknown
}
