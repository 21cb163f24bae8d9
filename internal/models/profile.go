// Package models defines the data structures for the value discovery interview.
package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Value represents a discovered user value with a confidence weight and
// supporting rationale collected across the conversation.
type Value struct {
	Name      string    `json:"name"`
	Weight    float64   `json:"weight"`
	Rationale []string  `json:"rationale,omitempty"`
	Confirmed bool      `json:"confirmed"`
	CreatedAt time.Time `json:"created_at"`
}

// AddRationale appends a supporting phrase unless it is already recorded.
func (v *Value) AddRationale(phrase string) {
	if phrase == "" {
		return
	}
	for _, existing := range v.Rationale {
		if existing == phrase {
			return
		}
	}
	v.Rationale = append(v.Rationale, phrase)
}

// Confirm marks the value as user-confirmed. The transition is one-way.
func (v *Value) Confirm() {
	v.Confirmed = true
}

// Goal represents a user goal with linked values and known obstacles.
type Goal struct {
	ID               string    `json:"id"`
	Statement        string    `json:"statement"`
	OriginalPhrasing string    `json:"original_phrasing"`
	Confirmed        bool      `json:"confirmed"`
	Values           []string  `json:"values,omitempty"` // references to value names
	Rationale        []string  `json:"rationale,omitempty"`
	Obstacles        []string  `json:"obstacles,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// AddObstacle appends an obstacle unless it is already recorded.
func (g *Goal) AddObstacle(obstacle string) {
	if obstacle == "" {
		return
	}
	for _, existing := range g.Obstacles {
		if existing == obstacle {
			return
		}
	}
	g.Obstacles = append(g.Obstacles, obstacle)
}

// IntentContext captures the current best guess at the user's intent.
// Fields are overwritten as better signal arrives, not accumulated.
type IntentContext struct {
	GoalStatement  string `json:"goal_statement,omitempty"`
	DesiredOutcome string `json:"desired_outcome,omitempty"`
	EmotionalTone  string `json:"emotional_tone,omitempty"`
}

// ActionSuggestion represents a proposed action aligned with discovered values.
type ActionSuggestion struct {
	Description  string   `json:"description"`
	LinkedValues []string `json:"linked_values,omitempty"`
	UserFeedback string   `json:"user_feedback,omitempty"`
	FitScore     float64  `json:"fit_score"`
}

// UserProfile is the accumulated knowledge about one interview participant:
// goals, values, intent context, and suggested actions. A profile is owned by
// exactly one session and never shared.
type UserProfile struct {
	Goals            []*Goal             `json:"goals,omitempty"`
	Values           map[string]*Value   `json:"values,omitempty"`
	IntentContext    IntentContext       `json:"intent_context"`
	SuggestedActions []*ActionSuggestion `json:"suggested_actions,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// NewUserProfile creates an empty profile.
func NewUserProfile() *UserProfile {
	now := time.Now().UTC()
	return &UserProfile{
		Values:    make(map[string]*Value),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddGoal creates a new goal with the next sequential id and returns it.
// Goal ids are g1..gN in issuance order and stable for the profile lifetime.
func (up *UserProfile) AddGoal(statement string) *Goal {
	goal := &Goal{
		ID:               fmt.Sprintf("g%d", len(up.Goals)+1),
		Statement:        statement,
		OriginalPhrasing: statement,
		CreatedAt:        time.Now().UTC(),
	}
	up.Goals = append(up.Goals, goal)
	up.UpdatedAt = time.Now().UTC()
	return goal
}

// GoalByID returns the goal with the given id, or nil.
func (up *UserProfile) GoalByID(id string) *Goal {
	for _, g := range up.Goals {
		if g.ID == id {
			return g
		}
	}
	return nil
}

// FirstGoal returns the earliest created goal, or nil if none exist.
func (up *UserProfile) FirstGoal() *Goal {
	if len(up.Goals) == 0 {
		return nil
	}
	return up.Goals[0]
}

// LatestGoal returns the most recently created goal, or nil if none exist.
func (up *UserProfile) LatestGoal() *Goal {
	if len(up.Goals) == 0 {
		return nil
	}
	return up.Goals[len(up.Goals)-1]
}

// NormalizeValueName folds a raw value mention into its identity key.
func NormalizeValueName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ValueByName looks up a value by its normalized name.
func (up *UserProfile) ValueByName(name string) *Value {
	return up.Values[NormalizeValueName(name)]
}

// EnsureValue returns the value for the normalized name, creating it with the
// initial weight 0.5 when unseen. Reports whether the value already existed.
func (up *UserProfile) EnsureValue(name string) (*Value, bool) {
	key := NormalizeValueName(name)
	if v, ok := up.Values[key]; ok {
		return v, true
	}
	v := &Value{
		Name:      key,
		Weight:    0.5,
		CreatedAt: time.Now().UTC(),
	}
	up.Values[key] = v
	up.UpdatedAt = time.Now().UTC()
	return v, false
}

// ValuesByWeight returns the values sorted by descending weight. Ties are
// broken by name so the ordering is deterministic.
func (up *UserProfile) ValuesByWeight() []*Value {
	sorted := make([]*Value, 0, len(up.Values))
	for _, v := range up.Values {
		sorted = append(sorted, v)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Weight != sorted[j].Weight {
			return sorted[i].Weight > sorted[j].Weight
		}
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

// HasAction reports whether an action with the exact description exists.
func (up *UserProfile) HasAction(description string) bool {
	for _, a := range up.SuggestedActions {
		if a.Description == description {
			return true
		}
	}
	return false
}

// AddAction appends an action suggestion, deduplicating by exact description.
func (up *UserProfile) AddAction(action *ActionSuggestion) bool {
	if action == nil || action.Description == "" || up.HasAction(action.Description) {
		return false
	}
	up.SuggestedActions = append(up.SuggestedActions, action)
	up.UpdatedAt = time.Now().UTC()
	return true
}

// ToJSON serializes the profile to a JSON string.
func (up *UserProfile) ToJSON() (string, error) {
	data, err := json.Marshal(up)
	if err != nil {
		return "", fmt.Errorf("failed to marshal user profile: %w", err)
	}
	return string(data), nil
}

// FromJSON deserializes a profile from a JSON string.
func (up *UserProfile) FromJSON(jsonStr string) error {
	if err := json.Unmarshal([]byte(jsonStr), up); err != nil {
		return fmt.Errorf("failed to unmarshal user profile: %w", err)
	}
	if up.Values == nil {
		up.Values = make(map[string]*Value)
	}
	return nil
}
