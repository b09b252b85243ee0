package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/wxcomment/wxcomment-go/llm"
)

type fakeAPI struct {
	out   string
	err   error
	calls int
	model string
}

func (f *fakeAPI) complete(ctx context.Context, model, prompt string, temperature float64, maxTokens int) (string, error) {
	f.calls++
	f.model = model
	return f.out, f.err
}

func TestGenerate(t *testing.T) {
	api := &fakeAPI{out: "weather: 晴れ\nadvice: 日焼け注意"}
	c := &Client{api: api}

	out, err := c.Generate(context.Background(), "prompt", llm.Options{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != api.out {
		t.Errorf("unexpected output %q", out)
	}
	if api.model != defaultModel {
		t.Errorf("expected default model, got %s", api.model)
	}
}

func TestGenerate_PerformanceModeSelectsFastModel(t *testing.T) {
	api := &fakeAPI{out: "ok"}
	c := &Client{api: api}

	if _, err := c.Generate(context.Background(), "p", llm.Options{Performance: true}); err != nil {
		t.Fatal(err)
	}
	if api.model != fastModel {
		t.Errorf("performance mode should pick %s, got %s", fastModel, api.model)
	}
}

func TestGenerate_ExplicitModelWins(t *testing.T) {
	api := &fakeAPI{out: "ok"}
	c := &Client{api: api}

	if _, err := c.Generate(context.Background(), "p", llm.Options{Model: "gpt-4-turbo", Performance: true}); err != nil {
		t.Fatal(err)
	}
	if api.model != "gpt-4-turbo" {
		t.Errorf("explicit model should win, got %s", api.model)
	}
}

func TestGenerate_NonRetryableFailsFast(t *testing.T) {
	api := &fakeAPI{err: errors.New("invalid request")}
	c := &Client{api: api}

	_, err := c.Generate(context.Background(), "p", llm.Options{})
	var le *llm.Error
	if !errors.As(err, &le) {
		t.Fatalf("expected llm.Error, got %v", err)
	}
	if api.calls != 1 {
		t.Errorf("non-retryable failure should not retry, calls=%d", api.calls)
	}
}

func TestClassify_ContextDeadline(t *testing.T) {
	err := classify(context.DeadlineExceeded)
	var le *llm.Error
	if !errors.As(err, &le) || le.Code != llm.CodeTimeout || !le.Retryable {
		t.Fatalf("deadline should classify as retryable timeout, got %v", err)
	}
}

func TestClassify_NetworkError(t *testing.T) {
	err := classify(errors.New("dial tcp: connection refused"))
	var le *llm.Error
	if !errors.As(err, &le) || le.Code != llm.CodeNetworkError || !le.Retryable {
		t.Fatalf("connection failure should classify as retryable network error, got %v", err)
	}
}
