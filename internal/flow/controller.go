package flow

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/openai/openai-go"

	"github.com/valuecompass/valuecompass/internal/affirm"
	"github.com/valuecompass/valuecompass/internal/genai"
	"github.com/valuecompass/valuecompass/internal/knowledge"
	"github.com/valuecompass/valuecompass/internal/models"
	"github.com/valuecompass/valuecompass/internal/telemetry"
)

// Controller owns the session state and sequences extraction, generation,
// and stage transitions. One inbound event produces exactly one controller
// pass; a session is never processed by more than one pass at a time.
type Controller struct {
	genaiClient genai.ClientInterface
	extractor   *knowledge.Extractor
	checker     *CompletionChecker
	summarizer  *Summarizer
	detector    affirm.Detector
	recorder    telemetry.Recorder
}

// NewController creates a conversation controller.
func NewController(genaiClient genai.ClientInterface, recorder telemetry.Recorder) *Controller {
	if recorder == nil {
		recorder = telemetry.NopRecorder{}
	}
	return &Controller{
		genaiClient: genaiClient,
		extractor:   knowledge.NewExtractor(genaiClient),
		checker:     NewCompletionChecker(genaiClient),
		summarizer:  NewSummarizer(genaiClient),
		detector:    affirm.NewKeywordDetector(),
		recorder:    recorder,
	}
}

// SetDetector swaps the affirmation detector.
func (c *Controller) SetDetector(d affirm.Detector) {
	if d != nil {
		c.detector = d
	}
}

// Start handles the synthetic session-start event: it emits the introduction
// once and enters the rapport stage without waiting for user input.
func (c *Controller) Start(ctx context.Context, session *models.Session) (string, error) {
	if session.Stage != models.StageIntroduction {
		return "", fmt.Errorf("session %s already started (stage %s)", session.ID, session.Stage)
	}
	slog.Info("flow.Start: starting session", "sessionID", session.ID)
	return c.runIntroduction(session), nil
}

// runIntroduction emits the introduction message and advances to rapport.
func (c *Controller) runIntroduction(session *models.Session) string {
	metric := session.OpenMetric(models.StageIntroduction.String())
	metric.TurnCount++
	metric.TotalTokens += knowledge.EstimateTokens(IntroductionMessage)
	session.CloseMetric(models.StageIntroduction.String())

	session.AppendAssistantMessage(IntroductionMessage)
	session.Advance(models.StageRapport)
	session.TotalTurns++
	return IntroductionMessage
}

// HandleMessage processes one inbound user message and returns the outbound
// reply. At most one stage transition is applied per call.
func (c *Controller) HandleMessage(ctx context.Context, session *models.Session, userText string) (string, error) {
	if session.Stage.Terminal() {
		slog.Debug("flow.HandleMessage: session already ended", "sessionID", session.ID)
		return SessionClosedMessage, nil
	}

	if strings.TrimSpace(userText) == "" {
		// The only user-visible "error": a neutral clarifying re-prompt.
		reply := repromptFor(session.Stage.String())
		session.AppendAssistantMessage(reply)
		return reply, nil
	}

	session.AppendUserMessage(userText)

	// Extraction runs on every inbound message, before any stage logic.
	facts := c.extractor.Extract(ctx, userText)
	knowledge.Merge(session.Profile, facts)

	// A message arriving before the start event bootstraps the session.
	if session.Stage == models.StageIntroduction {
		return c.runIntroduction(session), nil
	}

	if session.Stage == models.StageSummary {
		return c.runSummary(ctx, session, userText), nil
	}

	stageName := session.Stage.String()
	policy := PolicyFor(session.Stage)
	metric := session.OpenMetric(stageName)

	reply, metaPrompt := c.generateStageReply(ctx, session, facts, userText, policy)
	session.AppendAssistantMessage(reply)

	metric.TurnCount++
	metric.TotalTokens += knowledge.EstimateTokens(userText) + knowledge.EstimateTokens(reply) + knowledge.EstimateTokens(metaPrompt)
	session.TotalTurns++

	decision := c.checker.Check(ctx, session)
	if decision.Advance {
		session.CloseMetric(stageName)
		session.Advance(session.Stage.Next())
		slog.Info("flow.HandleMessage: stage advanced",
			"sessionID", session.ID, "from", stageName, "to", session.Stage.String(), "reason", decision.Reason)
	}

	return reply, nil
}

// generateStageReply produces the outbound message for the current stage.
// Generation failures are recovered with a neutral re-prompt; the session
// always continues.
func (c *Controller) generateStageReply(ctx context.Context, session *models.Session, facts models.Facts, userText string, policy StagePolicy) (reply, metaPrompt string) {
	profile := session.Profile
	knowledgeContext := knowledge.RenderContext(profile)

	switch policy.Stage {
	case models.StageRapport:
		c.applyRapportConfirmation(session, userText)
		metaPrompt = fmt.Sprintf(rapportMetaPrompt, knowledgeContext, userText, knowledge.FormatMessageAnalysis(facts))

	case models.StageValueDiscovery:
		knowledge.RecomputeWeights(profile)
		c.applyValueConfirmation(session, facts, userText)
		metaPrompt = fmt.Sprintf(valueDiscoveryMetaPrompt, knowledgeContext, userText, len(profile.Values))

	case models.StageActionPlanning:
		metaPrompt = fmt.Sprintf(actionPlanningMetaPrompt, knowledgeContext, userText, planStatus(profile, userText), len(profile.SuggestedActions))

	default:
		metaPrompt = fmt.Sprintf(rapportMetaPrompt, knowledgeContext, userText, knowledge.FormatMessageAnalysis(facts))
	}

	messages := contextMessages(session, metaPrompt, policy.HistoryWindow)
	generated, err := c.genaiClient.GenerateWithMessages(ctx, messages)
	if err != nil {
		slog.Warn("flow.generateStageReply: generation failed, using fallback message",
			"sessionID", session.ID, "stage", policy.Stage.String(), "error", err)
		return repromptFor(policy.Stage.String()), metaPrompt
	}

	if policy.Stage == models.StageActionPlanning {
		c.harvestActions(session, generated, userText)
	}
	return generated, metaPrompt
}

// runSummary handles the special two-step summary stage: first entry renders
// the summary; the following user turn is recorded as final feedback and the
// session ends unconditionally.
func (c *Controller) runSummary(ctx context.Context, session *models.Session, userText string) string {
	stageName := models.StageSummary.String()
	metric := session.OpenMetric(stageName)

	if session.FinalSummary == "" {
		summary := c.summarizer.Render(ctx, session)
		session.SetFinalSummary(summary)
		session.AppendAssistantMessage(summary)

		metric.TurnCount++
		metric.TotalTokens += knowledge.EstimateTokens(userText) + knowledge.EstimateTokens(summary)
		session.TotalTurns++
		slog.Info("flow.runSummary: final summary rendered", "sessionID", session.ID, "summaryLength", len(summary))
		return summary
	}

	session.SetFinalFeedback(userText)
	session.AppendAssistantMessage(ClosingMessage)

	metric.TurnCount++
	metric.TotalTokens += knowledge.EstimateTokens(userText) + knowledge.EstimateTokens(ClosingMessage)
	session.TotalTurns++
	session.CloseMetric(stageName)
	session.Advance(models.StageEnd)

	if err := c.recorder.RecordSession(ctx, session); err != nil {
		slog.Warn("flow.runSummary: telemetry failed", "sessionID", session.ID, "error", err)
	}
	slog.Info("flow.runSummary: session ended", "sessionID", session.ID, "totalTurns", session.TotalTurns)
	return ClosingMessage
}

// applyRapportConfirmation marks the first goal confirmed when the user
// affirms during rapport building.
func (c *Controller) applyRapportConfirmation(session *models.Session, userText string) {
	if c.detector.Detect(userText) != affirm.Affirmative {
		return
	}
	if goal := session.Profile.FirstGoal(); goal != nil && !goal.Confirmed {
		goal.Confirmed = true
		slog.Debug("flow.applyRapportConfirmation: goal confirmed", "sessionID", session.ID, "goalID", goal.ID)
	}
}

// applyValueConfirmation confirms values the user re-states while affirming
// during value discovery.
func (c *Controller) applyValueConfirmation(session *models.Session, facts models.Facts, userText string) {
	if c.detector.Detect(userText) != affirm.Affirmative {
		return
	}
	for _, name := range facts.ValuesMentioned {
		if value := session.Profile.ValueByName(name); value != nil && !value.Confirmed {
			value.Confirm()
			slog.Debug("flow.applyValueConfirmation: value confirmed", "sessionID", session.ID, "value", value.Name)
		}
	}
}

// preferenceWords signal the user is expressing an action preference.
var preferenceWords = []string{"prefer", "like", "choose", "option", "better"}

// planStatus describes where action planning stands, for the meta-prompt.
func planStatus(profile *models.UserProfile, userText string) string {
	actionCount := len(profile.SuggestedActions)
	lowered := strings.ToLower(userText)

	switch {
	case actionCount == 0:
		return "no actions yet - generate initial suggestions with A/B options"
	case containsAny(lowered, preferenceWords):
		return "feedback received - refine chosen approach and build out details"
	case actionCount < 3:
		return "actions presented - gather preferences and feedback"
	default:
		return "plan developed - confirm feasibility and alignment"
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// Action harvesting bounds: list items shorter or longer than these are noise.
const (
	minActionLength = 20
	maxActionLength = 300
)

var listItemPattern = regexp.MustCompile(`^\s*(?:\d+\.|-|\*)\s+(.+)`)

// harvestActions parses action suggestions out of the generated plan text,
// links values whose names appear in the item, and records the user's
// feedback when a preference was expressed.
func (c *Controller) harvestActions(session *models.Session, generated, userText string) {
	profile := session.Profile
	preference := containsAny(strings.ToLower(userText), preferenceWords)

	for _, item := range extractListItems(generated) {
		if len(item) < minActionLength || len(item) > maxActionLength {
			continue
		}

		var linked []string
		loweredItem := strings.ToLower(item)
		for name := range profile.Values {
			if strings.Contains(loweredItem, name) {
				linked = append(linked, name)
			}
		}

		action := &models.ActionSuggestion{
			Description:  item,
			LinkedValues: linked,
			FitScore:     0.8,
		}
		if profile.AddAction(action) {
			slog.Debug("flow.harvestActions: action added", "sessionID", session.ID, "linkedValues", len(linked))
		}
	}

	// A stated preference is recorded on the newest unfed action.
	if preference {
		for i := len(profile.SuggestedActions) - 1; i >= 0; i-- {
			if profile.SuggestedActions[i].UserFeedback == "" {
				profile.SuggestedActions[i].UserFeedback = userText
				break
			}
		}
	}
}

// extractListItems returns numbered or bulleted list items from text.
// Continuation lines belong to the preceding item.
func extractListItems(text string) []string {
	var items []string
	var current []string

	flush := func() {
		if len(current) > 0 {
			items = append(items, strings.TrimSpace(strings.Join(current, "\n")))
			current = nil
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if match := listItemPattern.FindStringSubmatch(line); match != nil {
			flush()
			current = []string{strings.TrimSpace(match[1])}
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		if len(current) > 0 {
			current = append(current, trimmed)
		}
	}
	flush()
	return items
}

// contextMessages builds the bounded message list for a generation call:
// system prompt, stage meta-instruction, and the recent history window.
func contextMessages(session *models.Session, metaPrompt string, window int) []openai.ChatCompletionMessageParamUnion {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(SystemPrompt),
		openai.SystemMessage("[META-INSTRUCTION]\n" + metaPrompt),
	}
	for _, msg := range session.RecentMessages(window) {
		switch msg.Role {
		case models.RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case models.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		}
	}
	return messages
}
