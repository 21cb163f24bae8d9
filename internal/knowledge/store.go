package knowledge

import (
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/valuecompass/valuecompass/internal/models"
)

// Merge thresholds and weight tuning.
const (
	minGoalLength  = 5
	minValueLength = 2

	mentionBoost    = 0.1
	baseWeight      = 0.3
	rationaleWeight = 0.15
	confirmedBoost  = 0.2
)

// Merge folds extracted Facts into the profile. It mutates the profile in
// place and returns it for composability. Merge is intentionally not
// idempotent: repeated mentions reinforce value weights.
func Merge(profile *models.UserProfile, facts models.Facts) *models.UserProfile {
	mergeGoals(profile, facts)
	mergeValues(profile, facts)

	if facts.EmotionalTone != "" {
		profile.IntentContext.EmotionalTone = facts.EmotionalTone
	}

	// Obstacles attach to the most recently created goal.
	if goal := profile.LatestGoal(); goal != nil {
		for _, obstacle := range facts.ObstaclesMentioned {
			goal.AddObstacle(obstacle)
		}
	}

	// One-time fill of the intent goal statement from the first goal.
	if profile.IntentContext.GoalStatement == "" {
		if goal := profile.FirstGoal(); goal != nil {
			profile.IntentContext.GoalStatement = goal.Statement
		}
	}

	profile.UpdatedAt = time.Now().UTC()
	return profile
}

func mergeGoals(profile *models.UserProfile, facts models.Facts) {
	for _, goalText := range facts.GoalsMentioned {
		if len(goalText) <= minGoalLength {
			continue
		}
		if goalOverlaps(profile, goalText) {
			slog.Debug("knowledge.Merge: goal overlaps existing, skipping", "goal", goalText)
			continue
		}
		goal := profile.AddGoal(goalText)
		slog.Debug("knowledge.Merge: added goal", "id", goal.ID, "statement", goal.Statement)
	}
}

// goalOverlaps reports whether the text substantially overlaps an existing
// goal statement: case-insensitive substring containment in either direction.
func goalOverlaps(profile *models.UserProfile, goalText string) bool {
	lowered := strings.ToLower(goalText)
	for _, existing := range profile.Goals {
		existingLower := strings.ToLower(existing.Statement)
		if strings.Contains(existingLower, lowered) || strings.Contains(lowered, existingLower) {
			return true
		}
	}
	return false
}

func mergeValues(profile *models.UserProfile, facts models.Facts) {
	for _, valueText := range facts.ValuesMentioned {
		if len(valueText) <= minValueLength {
			continue
		}

		value, seen := profile.EnsureValue(valueText)
		if seen {
			value.Weight = math.Min(1.0, value.Weight+mentionBoost)
			slog.Debug("knowledge.Merge: reinforced value", "name", value.Name, "weight", value.Weight)
		} else {
			slog.Debug("knowledge.Merge: added value", "name", value.Name, "weight", value.Weight)
		}

		for _, phrase := range facts.KeyPhrases {
			value.AddRationale(phrase)
		}
	}
}

// RecomputeWeights recalculates every value's weight from its rationale count
// and confirmation status. It is a full recompute, pure given current
// rationale counts, and safe to invoke repeatedly.
func RecomputeWeights(profile *models.UserProfile) {
	for _, value := range profile.Values {
		weight := math.Min(1.0, baseWeight+float64(len(value.Rationale))*rationaleWeight)
		if value.Confirmed {
			weight = math.Min(1.0, weight+confirmedBoost)
		}
		value.Weight = weight
	}
}
