// Package knowledge provides structured knowledge extraction from user
// messages and accumulation of that knowledge into a user profile.
package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/openai/openai-go"

	"github.com/valuecompass/valuecompass/internal/genai"
	"github.com/valuecompass/valuecompass/internal/models"
)

const extractionSystemPrompt = "You are a precise knowledge extraction system. Always return valid JSON only."

const extractionPromptTemplate = `Analyze the user's response and extract structured information.

User's response: "%s"

Extract and return ONLY valid JSON (no markdown, no explanation):
{
  "goals_mentioned": ["list of any goals or objectives mentioned"],
  "values_mentioned": ["list of underlying values, motivations, or what matters to them"],
  "emotional_tone": "description of emotional tone (e.g., excited, anxious, hopeful, frustrated)",
  "obstacles_mentioned": ["list of any barriers or concerns mentioned"],
  "key_phrases": ["important phrases in their own words, max 3"],
  "context_details": ["specific details about their situation"],
  "message_length": "short|medium|long",
  "engagement_level": "low|medium|high"
}

Guidelines:
- Only include what is clearly present in the response
- Be thorough but accurate
- Infer values from what they care about
- message_length: short (<20 words), medium (20-50 words), long (>50 words)
- engagement_level: assess based on depth and specificity of response`

// fencedJSONPattern matches the first fenced JSON object in an LLM response.
var fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// Extractor turns one free-text user message into a Facts bundle via the LLM.
// It never fails: any extraction or parse error yields deterministic fallback
// Facts derived from the input text alone.
type Extractor struct {
	genaiClient genai.ClientInterface
}

// NewExtractor creates a knowledge extractor.
func NewExtractor(genaiClient genai.ClientInterface) *Extractor {
	return &Extractor{genaiClient: genaiClient}
}

// Extract analyzes a user message and returns structured Facts.
func (e *Extractor) Extract(ctx context.Context, userMessage string) models.Facts {
	prompt := fmt.Sprintf(extractionPromptTemplate, userMessage)

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(extractionSystemPrompt),
		openai.UserMessage(prompt),
	}

	content, err := e.genaiClient.GenerateWithMessages(ctx, messages)
	if err != nil {
		slog.Warn("knowledge.Extract: extraction call failed, using fallback", "error", err)
		return FallbackFacts(userMessage)
	}

	facts, err := ParseFacts(content)
	if err != nil {
		slog.Warn("knowledge.Extract: extraction response unparseable, using fallback", "error", err)
		return FallbackFacts(userMessage)
	}

	slog.Debug("knowledge.Extract: extraction succeeded",
		"goals", len(facts.GoalsMentioned), "values", len(facts.ValuesMentioned), "tone", facts.EmotionalTone)
	return facts
}

// ParseFacts parses the extraction service's response body into Facts. It
// prefers the first fenced JSON block and falls back to parsing the whole
// body. This is the only place raw extraction output is deserialized.
func ParseFacts(content string) (models.Facts, error) {
	payload := content
	if match := fencedJSONPattern.FindStringSubmatch(content); match != nil {
		payload = match[1]
	}

	var facts models.Facts
	if err := json.Unmarshal([]byte(payload), &facts); err != nil {
		return models.Facts{}, fmt.Errorf("failed to parse extraction JSON: %w", err)
	}

	if len(facts.KeyPhrases) > models.MaxKeyPhrases {
		facts.KeyPhrases = facts.KeyPhrases[:models.MaxKeyPhrases]
	}
	return facts, nil
}

// FallbackFacts builds Facts deterministically from the user text alone, for
// when the extraction service fails or returns malformed output.
func FallbackFacts(userMessage string) models.Facts {
	keyPhrase := userMessage
	if len(keyPhrase) > 100 {
		keyPhrase = keyPhrase[:100]
	}

	return models.Facts{
		GoalsMentioned:     []string{},
		ValuesMentioned:    []string{},
		EmotionalTone:      "neutral",
		ObstaclesMentioned: []string{},
		KeyPhrases:         []string{keyPhrase},
		MessageLength:      models.BucketMessageLength(len(strings.Fields(userMessage))),
		EngagementLevel:    models.EngagementMedium,
	}
}
