// Package validator implements the comment acceptance pipeline that
// gates every generated pair before it is returned.
package validator

import (
	"time"

	"go.uber.org/zap"

	"github.com/wxcomment/wxcomment-go/config"
	"github.com/wxcomment/wxcomment-go/forecast"
	"github.com/wxcomment/wxcomment-go/location"
)

// Mode selects how aggressive the pipeline is.
type Mode string

const (
	// Strict runs every checker. Threshold 0.6.
	Strict Mode = "strict"
	// Moderate runs every checker but drops the stylistic half of the
	// banned-word rules. Threshold 0.45.
	Moderate Mode = "moderate"
	// Relaxed keeps only the weather-contradiction core and the
	// NG-word screen. Threshold 0.3.
	Relaxed Mode = "relaxed"
)

func (m Mode) threshold() float64 {
	switch m {
	case Moderate:
		return 0.45
	case Relaxed:
		return 0.3
	default:
		return 0.6
	}
}

// Input is one candidate pair plus the context the checkers judge it
// against.
type Input struct {
	Weather string
	Advice  string

	Forecast forecast.WeatherForecast
	Location location.Location
	Target   time.Time

	// Stable is set when the surrounding timeline shows no condition
	// change; stable cloudy forecasts reject "sudden change" phrasing.
	Stable bool
}

// Result is the pipeline verdict.
type Result struct {
	OK      bool     `json:"ok"`
	Reasons []string `json:"reasons"`
	// Score is the fraction of enabled checkers that passed before the
	// run stopped; 1.0 when everything passed.
	Score float64 `json:"score"`
}

// Checker is one acceptance rule.
type Checker interface {
	Name() string
	// Check returns ok and, when rejecting, the reason.
	Check(in Input) (bool, string)
}

// Pipeline runs checkers in order, short-circuiting on the first
// rejection.
type Pipeline struct {
	mode      Mode
	threshold float64
	checkers  []Checker
	log       *zap.Logger
	metrics   *Metrics
}

// New assembles the pipeline for a mode. Numeric boundaries come only
// from th; checkers hold no literal temperatures.
func New(mode Mode, th config.Thresholds, log *zap.Logger, metrics *Metrics) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	var checkers []Checker
	switch mode {
	case Relaxed:
		checkers = []Checker{
			&WeatherConditionChecker{},
			&LengthAndBannedWordChecker{},
		}
	case Moderate:
		checkers = []Checker{
			&WeatherConditionChecker{},
			&TemperatureConditionChecker{Thresholds: th},
			&HumidityChecker{Thresholds: th},
			&RegionalChecker{},
			&SeasonalChecker{},
			&ConsistencyChecker{Thresholds: th},
			&LengthAndBannedWordChecker{},
		}
	default:
		mode = Strict
		checkers = []Checker{
			&WeatherConditionChecker{},
			&TemperatureConditionChecker{Thresholds: th},
			&HumidityChecker{Thresholds: th},
			&RegionalChecker{},
			&SeasonalChecker{},
			&ConsistencyChecker{Thresholds: th},
			&LengthAndBannedWordChecker{StylisticRules: true},
		}
	}
	return &Pipeline{
		mode:      mode,
		threshold: mode.threshold(),
		checkers:  checkers,
		log:       log,
		metrics:   metrics,
	}
}

// Mode returns the mode the pipeline was built for.
func (p *Pipeline) Mode() Mode { return p.mode }

// Validate runs the checkers against one candidate. The first
// rejection stops the run.
func (p *Pipeline) Validate(in Input) Result {
	passed := 0
	for _, c := range p.checkers {
		ok, reason := c.Check(in)
		p.metrics.observe(c.Name(), ok)
		if !ok {
			score := float64(passed) / float64(len(p.checkers))
			p.log.Debug("candidate rejected",
				zap.String("checker", c.Name()),
				zap.String("reason", reason),
				zap.String("weather", in.Weather),
				zap.String("advice", in.Advice))
			return Result{OK: false, Reasons: []string{reason}, Score: score}
		}
		passed++
	}
	score := 1.0
	return Result{OK: score >= p.threshold, Score: score}
}
