package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/valuecompass/valuecompass/internal/genai"
	"github.com/valuecompass/valuecompass/internal/knowledge"
	"github.com/valuecompass/valuecompass/internal/models"
)

// Summarizer renders the accumulated profile into the final human-readable
// report. It never fails: if the generation service is unavailable, a
// deterministic local rendering of the profile is used instead.
type Summarizer struct {
	genaiClient genai.ClientInterface
}

// NewSummarizer creates a summarizer.
func NewSummarizer(genaiClient genai.ClientInterface) *Summarizer {
	return &Summarizer{genaiClient: genaiClient}
}

// Render produces the final summary for the session.
func (s *Summarizer) Render(ctx context.Context, session *models.Session) string {
	knowledgeContext := knowledge.RenderContext(session.Profile)
	meta := fmt.Sprintf(summaryMetaPrompt, knowledgeContext)

	policy := PolicyFor(models.StageSummary)
	messages := contextMessages(session, meta, policy.HistoryWindow)

	summary, err := s.genaiClient.GenerateWithMessages(ctx, messages)
	if err != nil {
		slog.Warn("flow.Summarizer: generation failed, rendering local summary", "sessionID", session.ID, "error", err)
		return s.renderLocal(session)
	}
	return summary
}

// renderLocal builds a plain summary straight from the profile.
func (s *Summarizer) renderLocal(session *models.Session) string {
	profile := session.Profile
	var b strings.Builder

	b.WriteString("Here's a summary of what we explored together.\n\n")

	if goal := profile.FirstGoal(); goal != nil {
		fmt.Fprintf(&b, "**Your Goal:** %s\n\n", goal.Statement)
	}

	values := profile.ValuesByWeight()
	if len(values) > 0 {
		b.WriteString("**Core Values Discovered:**\n")
		for i, v := range values {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, v.Name)
			if len(v.Rationale) > 0 {
				fmt.Fprintf(&b, "   In your words: %q\n", v.Rationale[len(v.Rationale)-1])
			}
		}
		b.WriteString("\n")
	}

	if len(profile.SuggestedActions) > 0 {
		b.WriteString("**Action Plan:**\n")
		for i, a := range profile.SuggestedActions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, a.Description)
			if len(a.LinkedValues) > 0 {
				fmt.Fprintf(&b, "   Aligns with: %s\n", strings.Join(a.LinkedValues, ", "))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("Does this capture what truly matters to you? I'd love to hear your thoughts on our conversation.")
	return b.String()
}
