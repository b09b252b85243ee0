// Package google adapts the Gemini API to llm.Client.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/wxcomment/wxcomment-go/llm"
)

const (
	defaultModel = "gemini-1.5-pro"
	fastModel    = "gemini-1.5-flash"
)

// Client implements llm.Client for Google Gemini.
type Client struct {
	api generateAPI
	sdk *genai.Client
}

type generateAPI interface {
	generate(ctx context.Context, model, prompt string, temperature float64, maxTokens int) (string, error)
}

// NewClient builds a Gemini-backed client.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	sdk, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{api: &sdkAPI{client: sdk}, sdk: sdk}, nil
}

// Close releases the underlying client.
func (c *Client) Close() error {
	if c.sdk != nil {
		return c.sdk.Close()
	}
	return nil
}

func (c *Client) Provider() string { return "gemini" }

// Generate implements llm.Client.
func (c *Client) Generate(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	opts = opts.Normalized()
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	model := opts.Model
	if model == "" {
		model = defaultModel
		if opts.Performance {
			model = fastModel
		}
	}

	return llm.Do(ctx, func(ctx context.Context) (string, error) {
		out, err := c.api.generate(ctx, model, prompt, opts.Temperature, opts.MaxTokens)
		if err != nil {
			return "", classify(err)
		}
		return out, nil
	})
}

type sdkAPI struct {
	client *genai.Client
}

func (s *sdkAPI) generate(ctx context.Context, model, prompt string, temperature float64, maxTokens int) (string, error) {
	gm := s.client.GenerativeModel(model)
	temp := float32(temperature)
	tokens := int32(maxTokens)
	gm.Temperature = &temp
	gm.MaxOutputTokens = &tokens

	resp, err := gm.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("empty candidates")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

// classify relies on message matching; the Gemini SDK does not expose
// structured status codes on all error paths.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &llm.Error{Provider: "gemini", Code: llm.CodeTimeout, Message: "request timed out", Retryable: true, Cause: err}
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "api key") || strings.Contains(lower, "unauthorized") || strings.Contains(lower, "authentication"):
		return &llm.Error{Provider: "gemini", Code: llm.CodeInvalidAPIKey, Message: "API key rejected", Cause: err}
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "resource_exhausted") || strings.Contains(lower, "too many requests"):
		return &llm.Error{Provider: "gemini", Code: llm.CodeRateLimited, Message: "rate limit exceeded", Retryable: true, Cause: err}
	case strings.Contains(lower, "quota") || strings.Contains(lower, "billing"):
		return &llm.Error{Provider: "gemini", Code: llm.CodeQuotaExceeded, Message: err.Error(), Cause: err}
	case strings.Contains(lower, "500") || strings.Contains(lower, "502") || strings.Contains(lower, "503") || strings.Contains(lower, "unavailable") || strings.Contains(lower, "internal"):
		return &llm.Error{Provider: "gemini", Code: llm.CodeServerError, Message: err.Error(), Retryable: true, Cause: err}
	case strings.Contains(lower, "connection") || strings.Contains(lower, "network") || strings.Contains(lower, "timeout"):
		return &llm.Error{Provider: "gemini", Code: llm.CodeNetworkError, Message: err.Error(), Retryable: true, Cause: err}
	}
	return &llm.Error{Provider: "gemini", Code: llm.CodeAPIError, Message: err.Error(), Cause: err}
}
