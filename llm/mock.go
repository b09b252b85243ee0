package llm

import (
	"context"
	"sync"
)

// MockClient is a test implementation of Client.
//
// Responses are returned in sequence; when exhausted, the last one
// repeats. Every call is recorded in Calls so tests can assert on the
// prompts a node actually sent.
type MockClient struct {
	// Responses contains the sequence of texts to return.
	Responses []string

	// Err, if set, is returned instead of a response.
	Err error

	// Calls tracks the history of Generate invocations.
	Calls []MockCall

	mu        sync.Mutex
	callIndex int
}

// MockCall records a single Generate invocation.
type MockCall struct {
	Prompt  string
	Options Options
}

func (m *MockClient) Provider() string { return "mock" }

// Generate implements Client.
func (m *MockClient) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{Prompt: prompt, Options: opts})

	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", nil
	}

	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	} else {
		m.callIndex++
	}
	return m.Responses[idx], nil
}

// Reset clears call history and rewinds the response sequence.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
	m.callIndex = 0
}

// CallCount returns how many times Generate has been called.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
