// Package models defines the data structures for the value discovery interview.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Stage identifies a phase of the interview. Stages are strictly ordered and
// a session's stage never decreases.
type Stage int

// Interview stages in conversation order.
const (
	StageIntroduction Stage = iota
	StageRapport
	StageValueDiscovery
	StageActionPlanning
	StageSummary
	StageEnd
)

var stageNames = map[Stage]string{
	StageIntroduction:   "introduction",
	StageRapport:        "rapport_building",
	StageValueDiscovery: "value_discovery",
	StageActionPlanning: "action_planning",
	StageSummary:        "summary_feedback",
	StageEnd:            "end",
}

// String returns the stage's canonical name.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage_%d", int(s))
}

// Next returns the stage that follows s in conversation order.
func (s Stage) Next() Stage {
	if s >= StageEnd {
		return StageEnd
	}
	return s + 1
}

// Terminal reports whether the stage ends the conversation.
func (s Stage) Terminal() bool {
	return s >= StageEnd
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn in the session's conversation log.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// StageMetric tracks turn count and token usage for one stage. A metric is
// open while EndTime is unset; closing it is a one-way transition.
type StageMetric struct {
	StageName   string    `json:"stage_name"`
	TurnCount   int       `json:"turn_count"`
	TotalTokens int       `json:"total_tokens"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time,omitempty"`
}

// Open reports whether the metric has not been closed yet.
func (m *StageMetric) Open() bool {
	return m.EndTime.IsZero()
}

// Close marks the metric finished. Closing an already closed metric is a no-op.
func (m *StageMetric) Close() {
	if m.Open() {
		m.EndTime = time.Now().UTC()
	}
}

// Session is the complete state of one interview conversation. It is
// exclusively owned by one caller at a time; concurrent sessions never share
// state.
type Session struct {
	ID            string         `json:"id"`
	Stage         Stage          `json:"stage"`
	Messages      []Message      `json:"messages,omitempty"`
	Profile       *UserProfile   `json:"user_profile"`
	StageMetrics  []*StageMetric `json:"stage_metrics,omitempty"`
	FinalSummary  string         `json:"final_summary,omitempty"`
	FinalFeedback string         `json:"final_feedback,omitempty"`
	TotalTurns    int            `json:"total_turns"`
	SessionStart  time.Time      `json:"session_start"`
}

// NewSession creates a fresh session in the introduction stage.
func NewSession(id string) *Session {
	return &Session{
		ID:           id,
		Stage:        StageIntroduction,
		Profile:      NewUserProfile(),
		SessionStart: time.Now().UTC(),
	}
}

// AppendUserMessage appends a user turn to the message log.
func (s *Session) AppendUserMessage(content string) {
	s.Messages = append(s.Messages, Message{Role: RoleUser, Content: content, Timestamp: time.Now().UTC()})
}

// AppendAssistantMessage appends an assistant turn to the message log.
func (s *Session) AppendAssistantMessage(content string) {
	s.Messages = append(s.Messages, Message{Role: RoleAssistant, Content: content, Timestamp: time.Now().UTC()})
}

// LastUserMessage returns the content of the most recent user turn, or "".
func (s *Session) LastUserMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i].Content
		}
	}
	return ""
}

// RecentMessages returns up to n most recent messages in order.
func (s *Session) RecentMessages(n int) []Message {
	if n <= 0 || len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}

// Advance moves the session to next if it is a forward transition. Stage
// regression is impossible by construction: backward moves are ignored.
func (s *Session) Advance(next Stage) bool {
	if next <= s.Stage {
		return false
	}
	s.Stage = next
	return true
}

// OpenMetric finds the open metric for the named stage, creating one if
// absent. At most one open metric exists per stage.
func (s *Session) OpenMetric(stageName string) *StageMetric {
	for _, m := range s.StageMetrics {
		if m.StageName == stageName && m.Open() {
			return m
		}
	}
	m := &StageMetric{StageName: stageName, StartTime: time.Now().UTC()}
	s.StageMetrics = append(s.StageMetrics, m)
	return m
}

// CloseMetric closes the open metric for the named stage, if any.
func (s *Session) CloseMetric(stageName string) {
	for _, m := range s.StageMetrics {
		if m.StageName == stageName && m.Open() {
			m.Close()
			return
		}
	}
}

// StageTurnCount returns the user-turn count recorded for the named stage's
// open metric, or zero when the stage has no open metric.
func (s *Session) StageTurnCount(stageName string) int {
	for _, m := range s.StageMetrics {
		if m.StageName == stageName && m.Open() {
			return m.TurnCount
		}
	}
	return 0
}

// SetFinalSummary records the summary. Write-once: later calls are ignored.
func (s *Session) SetFinalSummary(summary string) bool {
	if s.FinalSummary != "" {
		return false
	}
	s.FinalSummary = summary
	return true
}

// SetFinalFeedback records the closing feedback. Write-once.
func (s *Session) SetFinalFeedback(feedback string) bool {
	if s.FinalFeedback != "" {
		return false
	}
	s.FinalFeedback = feedback
	return true
}

// ToJSON serializes the session to a JSON string for snapshotting.
func (s *Session) ToJSON() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}
	return string(data), nil
}

// FromJSON deserializes a session from a JSON snapshot.
func (s *Session) FromJSON(jsonStr string) error {
	if err := json.Unmarshal([]byte(jsonStr), s); err != nil {
		return fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if s.Profile == nil {
		s.Profile = NewUserProfile()
	}
	return nil
}

// SessionSnapshot is the opaque persistence unit handed to the store.
type SessionSnapshot struct {
	ID        string    `json:"id"`
	State     string    `json:"state"` // JSON-encoded Session
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
