// Package anthropic adapts the Anthropic Messages API to llm.Client.
package anthropic

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/wxcomment/wxcomment-go/llm"
)

const (
	defaultModel = "claude-3-5-sonnet-20241022"
	fastModel    = "claude-3-5-haiku-20241022"
)

// Client implements llm.Client for Anthropic.
type Client struct {
	api messagesAPI
}

type messagesAPI interface {
	create(ctx context.Context, model, prompt string, temperature float64, maxTokens int) (string, error)
}

// NewClient builds an Anthropic-backed client.
func NewClient(apiKey string) *Client {
	sdk := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Client{api: &sdkAPI{client: &sdk}}
}

func (c *Client) Provider() string { return "anthropic" }

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
		out, err := c.api.create(ctx, model, prompt, opts.Temperature, opts.MaxTokens)
		if err != nil {
			return "", classify(err)
		}
		return out, nil
	})
}

type sdkAPI struct {
	client *anthropic.Client
}

func (s *sdkAPI) create(ctx context.Context, model, prompt string, temperature float64, maxTokens int) (string, error) {
	message, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &llm.Error{Provider: "anthropic", Code: llm.CodeTimeout, Message: "request timed out", Retryable: true, Cause: err}
	}

	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == http.StatusUnauthorized || apierr.StatusCode == http.StatusForbidden:
			return &llm.Error{Provider: "anthropic", Code: llm.CodeInvalidAPIKey, Message: "API key rejected", Cause: err}
		case apierr.StatusCode == http.StatusTooManyRequests:
			return &llm.Error{Provider: "anthropic", Code: llm.CodeRateLimited, Message: "rate limit exceeded", Retryable: true, Cause: err}
		case apierr.StatusCode >= 500:
			return &llm.Error{Provider: "anthropic", Code: llm.CodeServerError, Message: apierr.Error(), Retryable: true, Cause: err}
		case apierr.StatusCode >= 400:
			return &llm.Error{Provider: "anthropic", Code: llm.CodeBadRequest, Message: apierr.Error(), Cause: err}
		}
	}

	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "connection") || strings.Contains(lower, "network") || strings.Contains(lower, "timeout") {
		return &llm.Error{Provider: "anthropic", Code: llm.CodeNetworkError, Message: err.Error(), Retryable: true, Cause: err}
	}
	return &llm.Error{Provider: "anthropic", Code: llm.CodeAPIError, Message: err.Error(), Cause: err}
}
