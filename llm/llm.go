// Package llm defines the text-generation interface the comment
// workflow speaks, with provider adapters in subpackages.
package llm

import (
	"context"
	"time"
)

// Client is a single LLM provider.
//
// Implementations handle authentication, request shaping, and error
// classification for one vendor API. They respect context cancellation
// and apply Options.Timeout per call.
type Client interface {
	// Generate sends one prompt and returns the raw model text.
	Generate(ctx context.Context, prompt string, opts Options) (string, error)

	// Provider returns the short provider name ("openai", "gemini",
	// "anthropic", "mock").
	Provider() string
}

// Default generation knobs. Out-of-range values clamp rather than
// error so a bad env var degrades instead of failing.
const (
	DefaultTemperature = 0.7
	MinTemperature     = 0.0
	MaxTemperature     = 2.0

	DefaultMaxTokens = 1000
	MinMaxTokens     = 100
	MaxMaxTokens     = 4000

	DefaultTimeout = 30 * time.Second
)

// Options tunes a single Generate call.
type Options struct {
	// Model overrides the provider's default model name.
	Model string

	// Temperature in [0, 2]; zero value means DefaultTemperature.
	Temperature float64

	// MaxTokens in [100, 4000]; zero value means DefaultMaxTokens.
	MaxTokens int

	// Timeout bounds the call; zero value means DefaultTimeout.
	Timeout time.Duration

	// Performance selects the provider's fast, cheaper model variant
	// when Model is not set explicitly.
	Performance bool
}

// Normalized returns a copy with defaults filled in and out-of-range
// values clamped.
func (o Options) Normalized() Options {
	out := o
	if out.Temperature == 0 {
		out.Temperature = DefaultTemperature
	}
	if out.Temperature < MinTemperature {
		out.Temperature = MinTemperature
	}
	if out.Temperature > MaxTemperature {
		out.Temperature = MaxTemperature
	}
	if out.MaxTokens == 0 {
		out.MaxTokens = DefaultMaxTokens
	}
	if out.MaxTokens < MinMaxTokens {
		out.MaxTokens = MinMaxTokens
	}
	if out.MaxTokens > MaxMaxTokens {
		out.MaxTokens = MaxMaxTokens
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	return out
}
