package forecast

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wxcomment/wxcomment-go/location"
)

// PopularLocation is one row of the popular-locations file tracked by
// recent access counts.
type PopularLocation struct {
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Priority    int     `json:"priority"`
	AccessCount int     `json:"access_count"`
}

// Warmer preloads forecasts for popular locations on a fixed interval.
// Warming is best-effort: failures are logged, never surfaced.
type Warmer struct {
	svc      *Service
	locs     *location.Table
	path     string
	interval time.Duration
	parallel int
	log      *zap.Logger
}

// NewWarmer builds a warming task reading the popular-locations file
// at path every interval.
func NewWarmer(svc *Service, locs *location.Table, path string, interval time.Duration, parallel int, log *zap.Logger) *Warmer {
	if log == nil {
		log = zap.NewNop()
	}
	if parallel < 1 {
		parallel = 2
	}
	return &Warmer{svc: svc, locs: locs, path: path, interval: interval, parallel: parallel, log: log}
}

// Run warms immediately and then on every tick until ctx is done.
func (w *Warmer) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.warmOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.warmOnce(ctx)
		}
	}
}

func (w *Warmer) warmOnce(ctx context.Context) {
	popular, err := w.readPopular()
	if err != nil {
		w.log.Warn("cache warming: cannot read popular locations", zap.Error(err))
		return
	}
	if len(popular) == 0 {
		return
	}

	target := time.Now().Add(time.Hour).Truncate(time.Hour)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.parallel)
	for _, p := range popular {
		loc, err := w.locs.Find(p.Name)
		if err != nil {
			w.log.Debug("cache warming: unknown location", zap.String("name", p.Name))
			continue
		}
		g.Go(func() error {
			if err := w.svc.Preload(gctx, loc, target); err != nil {
				w.log.Warn("cache warming failed",
					zap.String("location", loc.Name), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
}

// readPopular loads and orders the popular-locations file by priority
// then access count, both descending.
func (w *Warmer) readPopular() ([]PopularLocation, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return nil, err
	}
	var popular []PopularLocation
	if err := json.Unmarshal(data, &popular); err != nil {
		return nil, err
	}
	sort.Slice(popular, func(i, j int) bool {
		if popular[i].Priority != popular[j].Priority {
			return popular[i].Priority > popular[j].Priority
		}
		return popular[i].AccessCount > popular[j].AccessCount
	})
	return popular, nil
}
