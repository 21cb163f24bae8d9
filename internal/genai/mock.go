package genai

import (
	"context"
	"sync"

	"github.com/openai/openai-go"
)

// MockClient is an in-memory ClientInterface implementation for tests. It
// returns queued responses in order, or a fixed default once the queue is
// drained, and records every call it receives.
type MockClient struct {
	mu sync.Mutex

	// Responses are returned in order; when exhausted, DefaultResponse is used.
	Responses       []string
	DefaultResponse string
	// Err, when set, is returned by every call.
	Err error

	// Calls records the message lists passed to generation calls.
	Calls [][]openai.ChatCompletionMessageParamUnion
}

// NewMockClient creates a mock that always returns defaultResponse.
func NewMockClient(defaultResponse string) *MockClient {
	return &MockClient{DefaultResponse: defaultResponse}
}

func (m *MockClient) next() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) > 0 {
		resp := m.Responses[0]
		m.Responses = m.Responses[1:]
		return resp, nil
	}
	return m.DefaultResponse, nil
}

// GeneratePrompt implements ClientInterface.
func (m *MockClient) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.record([]openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(userPrompt),
	})
	return m.next()
}

// GenerateWithMessages implements ClientInterface.
func (m *MockClient) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	m.record(messages)
	return m.next()
}

// GenerateAssessment implements ClientInterface.
func (m *MockClient) GenerateAssessment(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	m.record(messages)
	return m.next()
}

func (m *MockClient) record(messages []openai.ChatCompletionMessageParamUnion) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, messages)
}

// CallCount returns how many generation calls the mock has received.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
