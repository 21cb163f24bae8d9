// Package models defines the data structures for the value discovery interview.
package models

// MessageLength buckets a user message by word count.
type MessageLength string

// EngagementLevel describes how engaged a user message reads.
type EngagementLevel string

// Message length buckets.
const (
	MessageLengthShort  MessageLength = "short"  // fewer than 20 words
	MessageLengthMedium MessageLength = "medium" // 20-49 words
	MessageLengthLong   MessageLength = "long"   // 50 words or more
)

// Engagement levels.
const (
	EngagementLow    EngagementLevel = "low"
	EngagementMedium EngagementLevel = "medium"
	EngagementHigh   EngagementLevel = "high"
)

// MaxKeyPhrases caps how many key phrases one extraction may carry.
const MaxKeyPhrases = 3

// Facts is the structured knowledge extracted from a single user message.
// Instances are constructed only by knowledge.ParseFacts or
// knowledge.FallbackFacts; other code never handles the raw LLM output.
type Facts struct {
	GoalsMentioned     []string        `json:"goals_mentioned"`
	ValuesMentioned    []string        `json:"values_mentioned"`
	EmotionalTone      string          `json:"emotional_tone"`
	ObstaclesMentioned []string        `json:"obstacles_mentioned"`
	KeyPhrases         []string        `json:"key_phrases"`
	ContextDetails     []string        `json:"context_details,omitempty"`
	MessageLength      MessageLength   `json:"message_length"`
	EngagementLevel    EngagementLevel `json:"engagement_level"`
}

// BucketMessageLength computes the length bucket from a word count.
func BucketMessageLength(wordCount int) MessageLength {
	switch {
	case wordCount < 20:
		return MessageLengthShort
	case wordCount < 50:
		return MessageLengthMedium
	default:
		return MessageLengthLong
	}
}
