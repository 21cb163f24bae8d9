package genai

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewClient(); err == nil {
		t.Error("expected error when no API key is available")
	}
}

func TestNewClientReadsEnvKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	c, err := NewClient()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c == nil {
		t.Fatal("nil client")
	}
}

func TestNewClientOptionOverridesEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	c, err := NewClient(WithAPIKey("opt-key"), WithModel("gpt-4o"), WithTemperature(0.2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c == nil {
		t.Fatal("nil client")
	}
}

func TestMockClientQueue(t *testing.T) {
	m := NewMockClient("default")
	m.Responses = []string{"first", "second"}

	ctx := context.Background()
	msgs := []openai.ChatCompletionMessageParamUnion{openai.UserMessage("hi")}

	for i, want := range []string{"first", "second", "default", "default"} {
		got, err := m.GenerateWithMessages(ctx, msgs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("call %d = %q, want %q", i, got, want)
		}
	}
	if m.CallCount() != 4 {
		t.Errorf("call count = %d, want 4", m.CallCount())
	}
}

func TestMockClientError(t *testing.T) {
	m := NewMockClient("default")
	m.Err = errors.New("down")
	if _, err := m.GeneratePrompt(context.Background(), "sys", "user"); err == nil {
		t.Error("expected forced error")
	}
}
