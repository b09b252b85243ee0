// Package config loads typed application configuration from the
// environment with defaults and bounds validation.
//
// Configuration is a value passed down from the entry point. Packages
// never read environment variables themselves; they receive the parts
// of Config they need.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Environment names accepted in APP_ENV.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Provider names accepted in DEFAULT_LLM_PROVIDER.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Config is the complete application configuration.
//
// Field bounds are declared as validator tags and enforced by Load.
// Out-of-range values are a startup error, not a clamp.
type Config struct {
	Env      string `validate:"oneof=development staging production"`
	LogLevel string `validate:"oneof=debug info warn error"`

	// API keys for external services.
	WxTechAPIKey    string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	GeminiAPIKey    string

	DefaultLLMProvider string `validate:"oneof=openai gemini anthropic"`
	LLMPerformanceMode bool
	ValidationMode     string `validate:"oneof=strict moderate relaxed"`
	UseUnifiedPath     bool

	MaxLLMWorkers        int `validate:"min=1,max=64"`
	MaxEvaluationRetries int `validate:"min=0,max=20"`

	ForecastHoursAhead int           `validate:"min=1,max=168"`
	WeatherCacheTTL    time.Duration `validate:"min=1m,max=48h"`
	MemoryCacheSize    int           `validate:"min=10,max=100000"`
	MemoryCacheTTL     time.Duration `validate:"min=10s,max=24h"`

	EnableSpatialCache    bool
	SpatialCacheRadiusKm  float64 `validate:"min=0.1,max=500"`
	SpatialCacheNeighbors int     `validate:"min=1,max=50"`

	MaxParallelWorkers    int           `validate:"min=1,max=32"`
	CommentTimeout        time.Duration `validate:"min=5s,max=300s"`
	MaxParallelLocations  int           `validate:"min=1,max=500"`
	HistoryMaxSizeMB      int           `validate:"min=1,max=10240"`
	PopularLocationsPath  string
	WarmingInterval       time.Duration `validate:"min=1m,max=24h"`
	CorpusDir             string
	ForecastCacheDir      string
	HistoryPath           string

	APIHost     string
	APIPort     int `validate:"min=1,max=65535"`
	CORSOrigins []string

	Thresholds Thresholds
}

// Load reads configuration from the environment, applies defaults,
// and validates bounds. In production mode at least one LLM key and
// the weather API key are required.
func Load() (Config, error) {
	cfg := Config{
		Env:      envString("APP_ENV", EnvDevelopment),
		LogLevel: envString("LOG_LEVEL", "info"),

		WxTechAPIKey:    os.Getenv("WXTECH_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),

		DefaultLLMProvider: envString("DEFAULT_LLM_PROVIDER", ProviderGemini),
		LLMPerformanceMode: envBool("LLM_PERFORMANCE_MODE", false),
		ValidationMode:     envString("VALIDATION_MODE", "strict"),
		UseUnifiedPath:     envBool("USE_UNIFIED_PATH", true),

		MaxLLMWorkers:        envInt("MAX_LLM_WORKERS", 4),
		MaxEvaluationRetries: envInt("MAX_EVALUATION_RETRIES", 5),

		ForecastHoursAhead: envInt("WEATHER_FORECAST_HOURS_AHEAD", 12),
		WeatherCacheTTL:    envDuration("WEATHER_CACHE_TTL", 6*time.Hour),
		MemoryCacheSize:    envInt("MEMORY_CACHE_SIZE", 500),
		MemoryCacheTTL:     envDuration("MEMORY_CACHE_TTL", 300*time.Second),

		EnableSpatialCache:    envBool("ENABLE_SPATIAL_CACHE", true),
		SpatialCacheRadiusKm:  envFloat("SPATIAL_CACHE_RADIUS_KM", 10),
		SpatialCacheNeighbors: envInt("SPATIAL_CACHE_NEIGHBORS", 5),

		MaxParallelWorkers:   envInt("MAX_PARALLEL_WORKERS", 4),
		CommentTimeout:       envDuration("COMMENT_TIMEOUT_SECONDS", 30*time.Second),
		MaxParallelLocations: envInt("MAX_PARALLEL_LOCATIONS", 20),
		HistoryMaxSizeMB:     envInt("GENERATION_HISTORY_MAX_SIZE_MB", 100),
		PopularLocationsPath: envString("POPULAR_LOCATIONS_PATH", "data/popular_locations.json"),
		WarmingInterval:      envDuration("CACHE_WARMING_INTERVAL", time.Hour),
		CorpusDir:            envString("CORPUS_DIR", "output"),
		ForecastCacheDir:     envString("FORECAST_CACHE_DIR", "data/forecast_cache"),
		HistoryPath:          envString("GENERATION_HISTORY_PATH", "data/generation_history.json"),

		APIHost:     envString("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", 8080),
		CORSOrigins: envList("CORS_ORIGINS", []string{"*"}),

		Thresholds: loadThresholds(),
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validate enforces field bounds and production-mode key requirements.
func validate(cfg Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return &Error{Field: firstFieldName(err), Cause: err}
	}
	if err := cfg.Thresholds.validate(); err != nil {
		return err
	}
	if cfg.Env == EnvProduction {
		if cfg.WxTechAPIKey == "" {
			return &Error{Field: "WXTECH_API_KEY", Cause: errMissingKey}
		}
		if cfg.OpenAIAPIKey == "" && cfg.AnthropicAPIKey == "" && cfg.GeminiAPIKey == "" {
			return &Error{Field: "LLM API keys", Cause: errMissingKey}
		}
	}
	return nil
}

// HasLLMKey reports whether an API key for the named provider is set.
func (c Config) HasLLMKey(provider string) bool {
	switch provider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey != ""
	case ProviderAnthropic:
		return c.AnthropicAPIKey != ""
	case ProviderGemini:
		return c.GeminiAPIKey != ""
	}
	return false
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envBool(key string, def bool) bool {
	v := strings.ToLower(os.Getenv(key))
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

// envDuration accepts either a Go duration string ("30s", "6h") or a
// bare integer interpreted as seconds, matching the *_SECONDS variables.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func firstFieldName(err error) string {
	var verrs validator.ValidationErrors
	if ok := asValidationErrors(err, &verrs); ok && len(verrs) > 0 {
		return verrs[0].Field()
	}
	return "config"
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	v, ok := err.(validator.ValidationErrors)
	if ok {
		*target = v
	}
	return ok
}

var errMissingKey = fmt.Errorf("required in production")

// Error reports an invalid or missing configuration value.
type Error struct {
	Field string
	Cause error
}

func (e *Error) Error() string {
	return "config: " + e.Field + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error { return e.Cause }
