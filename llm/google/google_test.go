package google

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

func (f *fakeAPI) generate(ctx context.Context, model, prompt string, temperature float64, maxTokens int) (string, error) {
	f.calls++
	f.model = model
	return f.out, f.err
}

func TestGenerate_ModelSelection(t *testing.T) {
	api := &fakeAPI{out: "ok"}
	c := &Client{api: api}

	if _, err := c.Generate(context.Background(), "p", llm.Options{}); err != nil {
		t.Fatal(err)
	}
	if api.model != defaultModel {
		t.Errorf("model = %s, want %s", api.model, defaultModel)
	}

	if _, err := c.Generate(context.Background(), "p", llm.Options{Performance: true}); err != nil {
		t.Fatal(err)
	}
	if api.model != fastModel {
		t.Errorf("performance mode should pick %s, got %s", fastModel, api.model)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantCode      string
		wantRetryable bool
	}{
		{"api key", errors.New("API key not valid"), llm.CodeInvalidAPIKey, false},
		{"rate limit", errors.New("googleapi: Error 429: RESOURCE_EXHAUSTED"), llm.CodeRateLimited, true},
		{"server", errors.New("googleapi: Error 503: service unavailable"), llm.CodeServerError, true},
		{"other", errors.New("blocked by safety filter"), llm.CodeAPIError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var le *llm.Error
			if !errors.As(classify(tt.err), &le) {
				t.Fatal("expected llm.Error")
			}
			if le.Code != tt.wantCode || le.Retryable != tt.wantRetryable {
				t.Errorf("classify(%v) = %s retryable=%v, want %s retryable=%v",
					tt.err, le.Code, le.Retryable, tt.wantCode, tt.wantRetryable)
			}
		})
	}
}

func TestGenerate_NonRetryableFailsFast(t *testing.T) {
	api := &fakeAPI{err: errors.New("blocked by safety filter")}
	c := &Client{api: api}

	_, err := c.Generate(context.Background(), "p", llm.Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	if api.calls != 1 {
		t.Errorf("non-retryable failure should not retry, calls=%d", api.calls)
	}
}
