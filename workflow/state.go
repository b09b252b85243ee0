package workflow

import (
	"time"

	"github.com/wxcomment/wxcomment-go/corpus"
	"github.com/wxcomment/wxcomment-go/forecast"
	"github.com/wxcomment/wxcomment-go/location"
	"github.com/wxcomment/wxcomment-go/validator"
)

// GenerationState is the single mutable state a run's nodes share.
// Nodes run serially, so no locking is needed; the engine owns the
// pointer for the duration of the run.
type GenerationState struct {
	// Request inputs.
	LocationName    string
	TargetTime      time.Time
	ProviderName    string
	Temperature     float64
	UseUnifiedPath  bool
	ExcludePrevious map[string]bool

	// Resolved by Input.
	Location location.Location
	Season   corpus.Season

	// Written by FetchForecast.
	Forecast         forecast.Collection
	ForecastAtTarget forecast.WeatherForecast
	Timeline         forecast.Timeline
	ForecastTier     string

	// Written by RetrieveCorpus.
	WeatherCandidates []corpus.PastComment
	AdviceCandidates  []corpus.PastComment

	// Written by SelectPair / UnifiedSelectGenerate.
	Selected corpus.CommentPair

	// Written by GenerateComment / UnifiedSelectGenerate.
	FinalWeather string
	FinalAdvice  string

	// Validation result for the current candidate.
	Validation validator.Result
	RetryCount int
	// PreviousCandidates lists candidate weather texts already tried,
	// in retry order.
	PreviousCandidates []string

	// UnifiedFallback marks that the unified path failed and the run
	// fell back to the classic path.
	UnifiedFallback bool

	Success bool
	Errors  []StateError

	Metadata Metadata

	// Result is filled by the output node.
	Result *Result
}

// StateError is one captured node failure.
type StateError struct {
	Node    string `json:"node"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Metadata is the run's observability record, serialized into the
// response metadata block.
type Metadata struct {
	NodeExecutionTimes     map[string]float64 `json:"node_execution_times"` // milliseconds
	ExecutedNodes          []string           `json:"executed_nodes"`
	RetryCount             int                `json:"retry_count"`
	Forced                 bool               `json:"forced"`
	Fallback               string             `json:"fallback,omitempty"`
	SpatialBorrow          string             `json:"spatial_borrow,omitempty"`
	SelectedWeatherComment string             `json:"selected_weather_comment"`
	SelectedAdviceComment  string             `json:"selected_advice_comment"`
	CacheTier              string             `json:"cache_tier,omitempty"`
}

// Stable error codes appended to state.Errors.
const (
	CodeLocationNotFound  = "LocationNotFound"
	CodeWeatherFetchError = "WeatherFetchError"
	CodeCorpusNotFound    = "CorpusNotFound"
	CodeLLMError          = "LLMError"
	CodeValidationFailed  = "ValidationFailed"
	CodeTimeoutError      = "TimeoutError"
	CodeInternalError     = "InternalError"
)

func (s *GenerationState) recordError(node, code, msg string) {
	s.Errors = append(s.Errors, StateError{Node: node, Code: code, Message: msg})
}

// excluded reports whether a candidate text was already tried.
func (s *GenerationState) excluded(text string) bool {
	return s.ExcludePrevious[text]
}

// excludeCandidate adds the current candidate texts to the exclusion
// set before a retry.
func (s *GenerationState) excludeCandidate() {
	if s.ExcludePrevious == nil {
		s.ExcludePrevious = make(map[string]bool)
	}
	if s.Selected.Weather.Text != "" {
		s.ExcludePrevious[s.Selected.Weather.Text] = true
	}
	if s.Selected.Advice.Text != "" {
		s.ExcludePrevious[s.Selected.Advice.Text] = true
	}
}

// Confidence is the score attached to the emitted pair: the
// validator's normalized score, or zero when the pair was forced out
// after retry exhaustion.
func (s *GenerationState) Confidence() float64 {
	if s.Metadata.Forced {
		return 0
	}
	return s.Validation.Score
}
