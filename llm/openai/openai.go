// Package openai adapts the OpenAI chat completion API to llm.Client.
package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/wxcomment/wxcomment-go/llm"
)

const (
	defaultModel = "gpt-4o"
	fastModel    = "gpt-4o-mini"
)

// Client implements llm.Client for OpenAI.
type Client struct {
	api chatAPI
}

// chatAPI is the slice of the SDK the adapter needs. Tests substitute
// a fake here.
type chatAPI interface {
	complete(ctx context.Context, model, prompt string, temperature float64, maxTokens int) (string, error)
}

// NewClient builds an OpenAI-backed client.
func NewClient(apiKey string) *Client {
	sdk := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{api: &sdkAPI{client: &sdk}}
}

func (c *Client) Provider() string { return "openai" }

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
		out, err := c.api.complete(ctx, model, prompt, opts.Temperature, opts.MaxTokens)
		if err != nil {
			return "", classify(err)
		}
		return out, nil
	})
}

type sdkAPI struct {
	client *openai.Client
}

func (s *sdkAPI) complete(ctx context.Context, model, prompt string, temperature float64, maxTokens int) (string, error) {
	completion, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(int64(maxTokens)),
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("empty completion")
	}
	return completion.Choices[0].Message.Content, nil
}

func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &llm.Error{Provider: "openai", Code: llm.CodeTimeout, Message: "request timed out", Retryable: true, Cause: err}
	}

	var apierr *openai.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == http.StatusUnauthorized || apierr.StatusCode == http.StatusForbidden:
			return &llm.Error{Provider: "openai", Code: llm.CodeInvalidAPIKey, Message: "API key rejected", Cause: err}
		case apierr.StatusCode == http.StatusTooManyRequests:
			return &llm.Error{Provider: "openai", Code: llm.CodeRateLimited, Message: "rate limit exceeded", Retryable: true, RetryAfter: retryAfter(apierr.Response), Cause: err}
		case apierr.StatusCode >= 500:
			return &llm.Error{Provider: "openai", Code: llm.CodeServerError, Message: apierr.Error(), Retryable: true, Cause: err}
		case apierr.StatusCode >= 400:
			return &llm.Error{Provider: "openai", Code: llm.CodeBadRequest, Message: apierr.Error(), Cause: err}
		}
	}

	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "connection") || strings.Contains(lower, "network") || strings.Contains(lower, "timeout") {
		return &llm.Error{Provider: "openai", Code: llm.CodeNetworkError, Message: err.Error(), Retryable: true, Cause: err}
	}
	return &llm.Error{Provider: "openai", Code: llm.CodeAPIError, Message: err.Error(), Cause: err}
}

func retryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	if v := resp.Header.Get("Retry-After"); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			return d
		}
	}
	return 0
}
