package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wxcomment/wxcomment-go/config"
	"github.com/wxcomment/wxcomment-go/corpus"
	"github.com/wxcomment/wxcomment-go/forecast"
	"github.com/wxcomment/wxcomment-go/llm"
	"github.com/wxcomment/wxcomment-go/location"
	"github.com/wxcomment/wxcomment-go/validator"
	"github.com/wxcomment/wxcomment-go/workflow/emit"
)

// Node IDs of the generation state machine.
const (
	NodeInput          = "input"
	NodeFetchForecast  = "fetch_forecast"
	NodeRetrieveCorpus = "retrieve_corpus"
	NodeSelectPair     = "select_pair"
	NodeEvaluate       = "evaluate"
	NodeGenerate       = "generate"
	NodeUnified        = "unified_select_generate"
	NodeOutput         = "output"
)

// maxCandidates caps each corpus list handed to the selection prompt.
const maxCandidates = 100

// ForecastSource is the slice of the forecast service the workflow
// consumes.
type ForecastSource interface {
	Get(ctx context.Context, loc location.Location, target time.Time) (forecast.Result, error)
}

// CorpusSource is the slice of the corpus repository the workflow
// consumes.
type CorpusSource interface {
	GetBySeasonAndType(season corpus.Season, typ corpus.CommentType) ([]corpus.PastComment, error)
}

// Request is one generation request.
type Request struct {
	LocationName    string
	TargetTime      time.Time // zero value: next day 09:00 JST
	Provider        string    // empty: configured default
	Temperature     float64   // zero: llm default
	ExcludePrevious []string
	UseUnifiedPath  *bool // nil: configured default
}

// Result is the serialized product of a run.
type Result struct {
	RunID         string                     `json:"id"`
	Success       bool                       `json:"success"`
	Comment       string                     `json:"comment"`
	AdviceComment string                     `json:"adviceComment"`
	Forecast      forecast.WeatherForecast   `json:"forecast"`
	ForecastTail  []forecast.WeatherForecast `json:"forecast_tail"`
	Timeline      forecast.Timeline          `json:"timeline"`
	Trend         string                     `json:"trend,omitempty"`
	Location      location.Location          `json:"location"`
	Provider      string                     `json:"provider"`
	Confidence    float64                    `json:"confidence"`
	Metadata      Metadata                   `json:"metadata"`
	Errors        []StateError               `json:"errors,omitempty"`
	GeneratedAt   time.Time                  `json:"timestamp"`
}

// ExcludableTexts returns the candidate texts a follow-up request must
// exclude to avoid reselecting this result: the selected corpus phrases
// plus the final texts, deduplicated. Exclusion is matched against
// corpus candidates, so the pre-adaptation phrases are the ones that
// matter; the final texts cover the no-adaptation case.
func (r *Result) ExcludableTexts() []string {
	if r == nil {
		return nil
	}
	candidates := []string{
		r.Metadata.SelectedWeatherComment,
		r.Metadata.SelectedAdviceComment,
		r.Comment,
		r.AdviceComment,
	}
	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, t := range candidates {
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Error returns the first recorded failure, or nil.
func (r *Result) Error() *StateError {
	if len(r.Errors) == 0 {
		return nil
	}
	return &r.Errors[0]
}

// Generator wires the services into the engine and runs requests.
type Generator struct {
	cfg       config.Config
	locations *location.Table
	forecasts ForecastSource
	corpus    CorpusSource
	clients   map[string]llm.Client
	pipeline  *validator.Pipeline
	engine    *Engine
	metrics   *Metrics
	log       *zap.Logger

	now func() time.Time
}

// NewGenerator assembles the state machine. clients maps provider
// names to adapters; requests naming an absent provider fail at the
// Input node.
func NewGenerator(
	cfg config.Config,
	locations *location.Table,
	forecasts ForecastSource,
	corpusSrc CorpusSource,
	clients map[string]llm.Client,
	pipeline *validator.Pipeline,
	emitter emit.Emitter,
	metrics *Metrics,
	log *zap.Logger,
) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	g := &Generator{
		cfg:       cfg,
		locations: locations,
		forecasts: forecasts,
		corpus:    corpusSrc,
		clients:   clients,
		pipeline:  pipeline,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
	}

	e := NewEngine(emitter, metrics, log, Options{})
	e.Add(NodeInput, NodeFunc(g.inputNode))
	e.Add(NodeFetchForecast, NodeFunc(g.fetchForecastNode))
	e.Add(NodeRetrieveCorpus, NodeFunc(g.retrieveCorpusNode))
	e.Add(NodeSelectPair, NodeFunc(g.selectPairNode))
	e.Add(NodeEvaluate, NodeFunc(g.evaluateNode))
	e.Add(NodeGenerate, NodeFunc(g.generateNode))
	e.Add(NodeUnified, NodeFunc(g.unifiedNode))
	e.Add(NodeOutput, NodeFunc(g.outputNode))

	e.Connect(NodeInput, NodeFetchForecast, nil)
	e.Connect(NodeFetchForecast, NodeRetrieveCorpus, nil)
	e.Connect(NodeRetrieveCorpus, NodeUnified, func(st *GenerationState) bool {
		return st.UseUnifiedPath && !st.UnifiedFallback
	})
	e.Connect(NodeRetrieveCorpus, NodeSelectPair, nil)
	e.Connect(NodeSelectPair, NodeEvaluate, func(st *GenerationState) bool {
		return g.client(st.ProviderName) != nil
	})
	e.Connect(NodeSelectPair, NodeGenerate, nil)
	e.Connect(NodeGenerate, NodeOutput, nil)

	e.StartAt(NodeInput)
	e.OnError(NodeOutput)
	g.engine = e
	return g
}

func (g *Generator) client(provider string) llm.Client {
	if g.clients == nil {
		return nil
	}
	return g.clients[provider]
}

// Generate runs one request through the state machine. A deadline of
// the configured comment timeout is applied when the caller has not
// set one.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if _, ok := ctx.Deadline(); !ok && g.cfg.CommentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.CommentTimeout)
		defer cancel()
	}

	st := &GenerationState{
		LocationName:   req.LocationName,
		TargetTime:     req.TargetTime,
		ProviderName:   req.Provider,
		Temperature:    req.Temperature,
		UseUnifiedPath: g.cfg.UseUnifiedPath,
	}
	if req.UseUnifiedPath != nil {
		st.UseUnifiedPath = *req.UseUnifiedPath
	}
	if len(req.ExcludePrevious) > 0 {
		st.ExcludePrevious = make(map[string]bool, len(req.ExcludePrevious))
		for _, text := range req.ExcludePrevious {
			st.ExcludePrevious[text] = true
		}
	}

	runID := uuid.New().String()
	if err := g.engine.Run(ctx, runID, st); err != nil {
		return nil, err
	}
	g.metrics.observeRun(st.Success, st.RetryCount)

	if st.Result == nil {
		// The output node did not run (engine-level failure); build the
		// failure shape directly.
		st.Result = g.buildResult(runID, st)
	}
	st.Result.RunID = runID
	return st.Result, nil
}
