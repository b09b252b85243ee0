package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wxcomment/wxcomment-go/batch"
	"github.com/wxcomment/wxcomment-go/config"
	"github.com/wxcomment/wxcomment-go/corpus"
	"github.com/wxcomment/wxcomment-go/forecast"
	"github.com/wxcomment/wxcomment-go/forecast/wxtech"
	"github.com/wxcomment/wxcomment-go/history"
	"github.com/wxcomment/wxcomment-go/llm"
	"github.com/wxcomment/wxcomment-go/llm/anthropic"
	"github.com/wxcomment/wxcomment-go/llm/google"
	"github.com/wxcomment/wxcomment-go/llm/openai"
	"github.com/wxcomment/wxcomment-go/location"
	"github.com/wxcomment/wxcomment-go/sysmon"
	"github.com/wxcomment/wxcomment-go/validator"
	"github.com/wxcomment/wxcomment-go/workflow"
	"github.com/wxcomment/wxcomment-go/workflow/emit"
)

// app holds the wired service graph shared by the subcommands.
type app struct {
	cfg       config.Config
	log       *zap.Logger
	locations *location.Table
	forecasts *forecast.Service
	repo      *corpus.Repository
	gen       *workflow.Generator
	orch      *batch.Orchestrator
	hist      history.Store
	monitor   *sysmon.Monitor
	tp        *sdktrace.TracerProvider

	closers []func() error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log}
	a.locations = location.Default()

	// All collectors go on the default registry; the server exposes it
	// at /metrics.
	reg := prometheus.DefaultRegisterer

	provider := wxtech.NewClient(cfg.WxTechAPIKey)
	a.forecasts = forecast.NewService(provider, a.locations,
		forecast.ServiceConfigFrom(cfg), log, forecast.NewMetrics(reg))

	a.repo, err = corpus.NewRepository(cfg.CorpusDir, log)
	if err != nil {
		return nil, fmt.Errorf("corpus: %w", err)
	}

	clients := a.buildClients(ctx)
	pipeline := validator.New(validator.Mode(cfg.ValidationMode), cfg.Thresholds, log, validator.NewMetrics(reg))

	a.tp = sdktrace.NewTracerProvider()
	otel.SetTracerProvider(a.tp)
	a.closers = append(a.closers, func() error { return a.tp.Shutdown(context.Background()) })

	emitter := emit.Multi(
		emit.NewLogEmitter(log),
		emit.NewOTelEmitter(a.tp.Tracer("wxcomment/workflow")),
	)
	a.gen = workflow.NewGenerator(cfg, a.locations, a.forecasts, a.repo, clients,
		pipeline, emitter, workflow.NewMetrics(reg), log)
	a.orch = batch.New(a.gen, cfg, log, batch.NewMetrics(reg))

	a.hist, err = newHistoryStore(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	a.closers = append(a.closers, a.hist.Close)

	a.monitor = sysmon.New(a.forecasts, log, sysmon.NewMetrics(reg))
	return a, nil
}

// buildClients constructs an adapter per configured API key. The
// default provider missing its key surfaces at request time, not here.
func (a *app) buildClients(ctx context.Context) map[string]llm.Client {
	clients := make(map[string]llm.Client)
	if a.cfg.OpenAIAPIKey != "" {
		clients[config.ProviderOpenAI] = openai.NewClient(a.cfg.OpenAIAPIKey)
	}
	if a.cfg.AnthropicAPIKey != "" {
		clients[config.ProviderAnthropic] = anthropic.NewClient(a.cfg.AnthropicAPIKey)
	}
	if a.cfg.GeminiAPIKey != "" {
		c, err := google.NewClient(ctx, a.cfg.GeminiAPIKey)
		if err != nil {
			a.log.Warn("gemini client init failed", zap.Error(err))
		} else {
			clients[config.ProviderGemini] = c
			a.closers = append(a.closers, c.Close)
		}
	}
	a.log.Info("llm providers configured", zap.Int("count", len(clients)))
	return clients
}

// newHistoryStore picks the backend from the configured path: a .db or
// .sqlite suffix selects sqlite, anything else the JSON-lines file.
func newHistoryStore(cfg config.Config, log *zap.Logger) (history.Store, error) {
	if strings.HasSuffix(cfg.HistoryPath, ".db") || strings.HasSuffix(cfg.HistoryPath, ".sqlite") {
		return history.NewSQLiteStore(cfg.HistoryPath)
	}
	return history.NewFileStore(cfg.HistoryPath, cfg.HistoryMaxSizeMB, log)
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Env == config.EnvDevelopment {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("shutdown step failed", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}
