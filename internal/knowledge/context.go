package knowledge

import (
	"fmt"
	"strings"

	"github.com/valuecompass/valuecompass/internal/models"
)

// RenderContext formats the accumulated profile as a context string for
// injection into stage prompts.
func RenderContext(profile *models.UserProfile) string {
	var parts []string

	if len(profile.Goals) > 0 {
		var b strings.Builder
		b.WriteString("Identified Goals:\n")
		for _, goal := range profile.Goals {
			status := ""
			if goal.Confirmed {
				status = " [CONFIRMED]"
			}
			fmt.Fprintf(&b, "  - %s%s\n", goal.Statement, status)
			if len(goal.Obstacles) > 0 {
				fmt.Fprintf(&b, "    Obstacles: %s\n", strings.Join(goal.Obstacles, ", "))
			}
		}
		parts = append(parts, b.String())
	}

	if len(profile.Values) > 0 {
		var b strings.Builder
		b.WriteString("Discovered Values:\n")
		for _, value := range profile.ValuesByWeight() {
			status := ""
			if value.Confirmed {
				status = " [CONFIRMED]"
			}
			fmt.Fprintf(&b, "  - %s (weight: %.2f)%s\n", value.Name, value.Weight, status)
			if len(value.Rationale) > 0 {
				fmt.Fprintf(&b, "    Context: %s\n", value.Rationale[len(value.Rationale)-1])
			}
		}
		parts = append(parts, b.String())
	}

	intent := profile.IntentContext
	if intent.EmotionalTone != "" || intent.DesiredOutcome != "" {
		var b strings.Builder
		b.WriteString("Emotional Context:\n")
		if intent.EmotionalTone != "" {
			fmt.Fprintf(&b, "  Tone: %s\n", intent.EmotionalTone)
		}
		if intent.DesiredOutcome != "" {
			fmt.Fprintf(&b, "  Desired outcome: %s\n", intent.DesiredOutcome)
		}
		parts = append(parts, b.String())
	}

	if len(profile.SuggestedActions) > 0 {
		var b strings.Builder
		b.WriteString("Suggested Actions:\n")
		for _, action := range profile.SuggestedActions {
			fmt.Fprintf(&b, "  - %s\n", action.Description)
			if len(action.LinkedValues) > 0 {
				fmt.Fprintf(&b, "    Aligns with: %s\n", strings.Join(action.LinkedValues, ", "))
			}
		}
		parts = append(parts, b.String())
	}

	if len(parts) == 0 {
		return "No knowledge extracted yet."
	}
	return strings.Join(parts, "\n")
}

// FormatMessageAnalysis renders one extraction's Facts for inclusion in a
// stage meta-prompt.
func FormatMessageAnalysis(facts models.Facts) string {
	return fmt.Sprintf(`
Message Length: %s
Engagement Level: %s
Emotional Tone: %s
Goals Mentioned: %s
Values Mentioned: %s
Key Phrases: %s
`,
		orUnknown(string(facts.MessageLength)),
		orUnknown(string(facts.EngagementLevel)),
		orDefault(facts.EmotionalTone, "neutral"),
		orDefault(strings.Join(facts.GoalsMentioned, ", "), "none"),
		orDefault(strings.Join(facts.ValuesMentioned, ", "), "none"),
		orDefault(strings.Join(facts.KeyPhrases, " | "), "none"),
	)
}

func orUnknown(s string) string {
	return orDefault(s, "unknown")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// EstimateTokens gives a rough token estimate (1 token per 4 characters),
// used only for stage metric accounting.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// FormatHistory renders conversation messages for inclusion in an assessment
// prompt, truncating long turns.
func FormatHistory(messages []models.Message) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		content := msg.Content
		if len(content) > 150 {
			content = content[:150] + "..."
		}
		role := msg.Role
		if role != "" {
			role = strings.ToUpper(role[:1]) + role[1:]
		}
		lines = append(lines, fmt.Sprintf("%s: %s", role, content))
	}
	return strings.Join(lines, "\n")
}
