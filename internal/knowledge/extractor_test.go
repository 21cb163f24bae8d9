package knowledge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/valuecompass/valuecompass/internal/genai"
	"github.com/valuecompass/valuecompass/internal/models"
)

const sampleExtraction = `{
  "goals_mentioned": ["switch careers into data science"],
  "values_mentioned": ["growth", "autonomy"],
  "emotional_tone": "hopeful",
  "obstacles_mentioned": ["lack of time"],
  "key_phrases": ["I feel stuck", "something new"],
  "context_details": ["works in accounting"],
  "message_length": "medium",
  "engagement_level": "high"
}`

func TestParseFactsPlainJSON(t *testing.T) {
	facts, err := ParseFacts(sampleExtraction)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(facts.GoalsMentioned) != 1 || facts.GoalsMentioned[0] != "switch careers into data science" {
		t.Errorf("goals not parsed: %v", facts.GoalsMentioned)
	}
	if len(facts.ValuesMentioned) != 2 {
		t.Errorf("values not parsed: %v", facts.ValuesMentioned)
	}
	if facts.EmotionalTone != "hopeful" {
		t.Errorf("tone not parsed: %q", facts.EmotionalTone)
	}
	if facts.MessageLength != models.MessageLengthMedium || facts.EngagementLevel != models.EngagementHigh {
		t.Error("length/engagement not parsed")
	}
}

func TestParseFactsFencedJSON(t *testing.T) {
	content := "Here is the analysis:\n```json\n" + sampleExtraction + "\n```\nHope that helps!"
	facts, err := ParseFacts(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(facts.GoalsMentioned) != 1 {
		t.Errorf("fenced JSON not extracted: %v", facts.GoalsMentioned)
	}
}

func TestParseFactsCapsKeyPhrases(t *testing.T) {
	content := `{"key_phrases": ["one", "two", "three", "four", "five"]}`
	facts, err := ParseFacts(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(facts.KeyPhrases) != models.MaxKeyPhrases {
		t.Errorf("expected %d key phrases, got %d", models.MaxKeyPhrases, len(facts.KeyPhrases))
	}
}

func TestParseFactsRejectsGarbage(t *testing.T) {
	if _, err := ParseFacts("I could not produce JSON, sorry."); err == nil {
		t.Error("expected error for non-JSON content")
	}
}

func TestExtractFallsBackOnError(t *testing.T) {
	mock := genai.NewMockClient("")
	mock.Err = errors.New("service unavailable")
	e := NewExtractor(mock)

	msg := "I want to change something about my work life"
	facts := e.Extract(context.Background(), msg)

	if facts.EmotionalTone != "neutral" {
		t.Errorf("fallback tone = %q, want neutral", facts.EmotionalTone)
	}
	if len(facts.KeyPhrases) != 1 || facts.KeyPhrases[0] != msg {
		t.Errorf("fallback key phrase wrong: %v", facts.KeyPhrases)
	}
	if facts.MessageLength != models.MessageLengthShort {
		t.Errorf("fallback length = %s, want short", facts.MessageLength)
	}
	if facts.EngagementLevel != models.EngagementMedium {
		t.Errorf("fallback engagement = %s, want medium", facts.EngagementLevel)
	}
	if len(facts.GoalsMentioned) != 0 || len(facts.ValuesMentioned) != 0 {
		t.Error("fallback invented goals or values")
	}
}

func TestExtractFallsBackOnUnparseableResponse(t *testing.T) {
	mock := genai.NewMockClient("Sure! Let me think about that...")
	e := NewExtractor(mock)

	facts := e.Extract(context.Background(), "hello")
	if facts.EmotionalTone != "neutral" || len(facts.KeyPhrases) != 1 {
		t.Error("unparseable response did not yield fallback facts")
	}
}

func TestFallbackFactsTruncatesLongKeyPhrase(t *testing.T) {
	msg := strings.Repeat("a", 250)
	facts := FallbackFacts(msg)
	if len(facts.KeyPhrases[0]) != 100 {
		t.Errorf("key phrase length = %d, want 100", len(facts.KeyPhrases[0]))
	}
	if facts.MessageLength != models.MessageLengthShort {
		// 250 chars but a single word
		t.Errorf("length = %s, want short", facts.MessageLength)
	}
}

func TestFallbackFactsIsDeterministic(t *testing.T) {
	a := FallbackFacts("the same message")
	b := FallbackFacts("the same message")
	if a.EmotionalTone != b.EmotionalTone || a.KeyPhrases[0] != b.KeyPhrases[0] ||
		a.MessageLength != b.MessageLength || a.EngagementLevel != b.EngagementLevel {
		t.Error("identical inputs produced different fallback facts")
	}
}
