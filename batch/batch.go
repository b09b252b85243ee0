// Package batch fans the comment workflow out across many locations
// with bounded parallelism and progressive delivery of results.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wxcomment/wxcomment-go/config"
	"github.com/wxcomment/wxcomment-go/workflow"
)

// Generator is the slice of the workflow the orchestrator drives.
type Generator interface {
	Generate(ctx context.Context, req workflow.Request) (*workflow.Result, error)
}

// ItemResult is the outcome of one input, carrying its original index.
type ItemResult struct {
	Index   int              `json:"index"`
	Input   workflow.Request `json:"-"`
	Result  *workflow.Result `json:"result,omitempty"`
	Err     error            `json:"-"`
	Loading bool             `json:"loading"`
	Elapsed time.Duration    `json:"-"`
}

// Success reports whether the item produced a successful generation.
func (r ItemResult) Success() bool {
	return r.Err == nil && r.Result != nil && r.Result.Success
}

// TimedOut reports whether the item hit its per-item deadline.
func (r ItemResult) TimedOut() bool {
	if errors.Is(r.Err, context.DeadlineExceeded) {
		return true
	}
	if r.Result != nil {
		if e := r.Result.Error(); e != nil && e.Code == workflow.CodeTimeoutError {
			return true
		}
	}
	return false
}

// Callback receives each item as soon as it settles. Invocations are
// serialized but not ordered by index.
type Callback func(ItemResult)

// Stats summarizes one batch.
type Stats struct {
	Processed   int           `json:"processed"`
	Succeeded   int           `json:"succeeded"`
	TimedOut    int           `json:"timed_out"`
	Errored     int           `json:"errored"`
	MeanLatency time.Duration `json:"mean_latency"`
}

// Orchestrator schedules workflow runs in chunks of the worker count,
// waiting for each chunk to settle before starting the next. Chunk
// settling keeps the progressive-display cadence predictable and bounds
// concurrent load on the LLM provider.
type Orchestrator struct {
	gen            Generator
	workers        int
	perItemTimeout time.Duration
	serialAbove    int
	log            *zap.Logger
	metrics        *Metrics
}

// New builds an orchestrator from the application config.
func New(gen Generator, cfg config.Config, log *zap.Logger, metrics *Metrics) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	workers := cfg.MaxParallelWorkers
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		gen:            gen,
		workers:        workers,
		perItemTimeout: cfg.CommentTimeout,
		serialAbove:    cfg.MaxParallelLocations,
		log:            log,
		metrics:        metrics,
	}
}

// Report is the settled batch: input-ordered results plus stats.
type Report struct {
	Results []ItemResult `json:"results"`
	Stats   Stats        `json:"stats"`

	orch *Orchestrator
}

// Run processes every input and returns one result per input, ordered
// by input index. cb may be nil. Item failures are isolated: a failed
// item yields success=false without affecting its neighbors.
func (o *Orchestrator) Run(ctx context.Context, inputs []workflow.Request, cb Callback) (*Report, error) {
	if len(inputs) == 0 {
		return &Report{orch: o}, nil
	}

	workers := o.workers
	if o.serialAbove > 0 && len(inputs) > o.serialAbove {
		o.log.Warn("batch size above parallel limit, running serially",
			zap.Int("inputs", len(inputs)), zap.Int("limit", o.serialAbove))
		workers = 1
	}

	start := time.Now()
	results := make([]ItemResult, len(inputs))
	var cbMu sync.Mutex
	deliver := func(item ItemResult) {
		if cb == nil {
			return
		}
		cbMu.Lock()
		defer cbMu.Unlock()
		cb(item)
	}

	for base := 0; base < len(inputs); base += workers {
		end := base + workers
		if end > len(inputs) {
			end = len(inputs)
		}

		var g errgroup.Group
		for i := base; i < end; i++ {
			i := i
			if err := ctx.Err(); err != nil {
				results[i] = ItemResult{Index: i, Input: inputs[i], Err: err}
				deliver(results[i])
				continue
			}
			g.Go(func() error {
				item := o.runOne(ctx, i, inputs[i])
				results[i] = item
				deliver(item)
				return nil
			})
		}
		// Chunk settles before the next chunk dispatches.
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	rep := &Report{Results: results, Stats: summarize(results), orch: o}
	o.metrics.batchDone(time.Since(start))
	o.log.Info("batch complete",
		zap.Int("processed", rep.Stats.Processed),
		zap.Int("succeeded", rep.Stats.Succeeded),
		zap.Int("timed_out", rep.Stats.TimedOut),
		zap.Int("errored", rep.Stats.Errored),
		zap.Duration("mean_latency", rep.Stats.MeanLatency))
	return rep, nil
}

func (o *Orchestrator) runOne(ctx context.Context, idx int, req workflow.Request) ItemResult {
	if o.perItemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.perItemTimeout)
		defer cancel()
	}
	o.metrics.itemStarted()
	start := time.Now()
	res, err := o.gen.Generate(ctx, req)
	item := ItemResult{
		Index:   idx,
		Input:   req,
		Result:  res,
		Err:     err,
		Elapsed: time.Since(start),
	}
	o.metrics.itemDone(item)
	return item
}

// Regenerate re-runs one item with the previous attempt's texts
// excluded, replacing the result in place.
func (r *Report) Regenerate(ctx context.Context, index int) (ItemResult, error) {
	if index < 0 || index >= len(r.Results) {
		return ItemResult{}, fmt.Errorf("batch index %d out of range [0,%d)", index, len(r.Results))
	}
	prev := r.Results[index]
	req := prev.Input
	req.ExcludePrevious = append(req.ExcludePrevious, prev.Result.ExcludableTexts()...)
	item := r.orch.runOne(ctx, index, req)
	r.Results[index] = item
	r.Stats = summarize(r.Results)
	return item, nil
}

func summarize(results []ItemResult) Stats {
	s := Stats{Processed: len(results)}
	var total time.Duration
	for _, r := range results {
		total += r.Elapsed
		switch {
		case r.Success():
			s.Succeeded++
		case r.TimedOut():
			s.TimedOut++
		default:
			s.Errored++
		}
	}
	if len(results) > 0 {
		s.MeanLatency = total / time.Duration(len(results))
	}
	return s
}
