// Package sysmon watches system memory pressure and sheds cache weight
// when usage crosses the critical line.
package sysmon

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"
)

// Shedder is the cache surface the monitor drives. The forecast
// service's memory tier implements it.
type Shedder interface {
	// ShrinkMemory halves cache capacity under pressure.
	ShrinkMemory()
	// RelaxMemory restores the configured capacity.
	RelaxMemory()
}

const (
	defaultInterval    = 30 * time.Second
	defaultCriticalPct = 90.0
	// Recovery sits below critical so usage hovering at the line does
	// not flap the cache size.
	defaultRecoverPct = 80.0
)

// Option adjusts monitor construction.
type Option func(*Monitor)

// WithInterval sets the sampling period.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) { m.interval = d }
}

// WithThresholds sets the critical and recovery percentages.
func WithThresholds(criticalPct, recoverPct float64) Option {
	return func(m *Monitor) {
		m.criticalPct = criticalPct
		m.recoverPct = recoverPct
	}
}

// Monitor samples memory usage on a ticker and toggles the shedder
// between shrunk and relaxed states with hysteresis.
type Monitor struct {
	shedder     Shedder
	interval    time.Duration
	criticalPct float64
	recoverPct  float64
	log         *zap.Logger
	metrics     *Metrics

	sample   func() (float64, error)
	critical bool
}

// New builds a monitor over the given shedder.
func New(shedder Shedder, log *zap.Logger, metrics *Metrics, opts ...Option) *Monitor {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Monitor{
		shedder:     shedder,
		interval:    defaultInterval,
		criticalPct: defaultCriticalPct,
		recoverPct:  defaultRecoverPct,
		log:         log,
		metrics:     metrics,
		sample:      sampleVirtualMemory,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func sampleVirtualMemory() (float64, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return v.UsedPercent, nil
}

// Run samples until the context is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check()
		}
	}
}

func (m *Monitor) check() {
	pct, err := m.sample()
	if err != nil {
		m.log.Warn("memory sample failed", zap.Error(err))
		return
	}
	m.metrics.usedPercent(pct)

	switch {
	case !m.critical && pct >= m.criticalPct:
		m.critical = true
		m.shedder.ShrinkMemory()
		m.metrics.shed()
		m.log.Warn("memory critical, shrinking caches", zap.Float64("used_pct", pct))
	case m.critical && pct <= m.recoverPct:
		m.critical = false
		m.shedder.RelaxMemory()
		m.log.Info("memory recovered, relaxing caches", zap.Float64("used_pct", pct))
	}
}
