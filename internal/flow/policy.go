package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/openai/openai-go"

	"github.com/valuecompass/valuecompass/internal/genai"
	"github.com/valuecompass/valuecompass/internal/knowledge"
	"github.com/valuecompass/valuecompass/internal/models"
)

// StagePolicy holds the thresholds, ceiling, and history window for one
// stage. The four source variants disagreed on tuning; this single table is
// the one the whole system uses.
type StagePolicy struct {
	Stage models.Stage

	// Deterministic minimums that must hold before the stage may advance.
	MinTurns   int
	MinGoals   int
	MinValues  int
	MinActions int

	// MaxTurns is the hard ceiling: advancement is forced once the stage's
	// user-turn count reaches it, regardless of judgment or thresholds.
	MaxTurns int

	// HistoryWindow bounds how many recent messages generation calls see.
	HistoryWindow int
}

// policyTable is the single parameterized stage policy table.
var policyTable = map[models.Stage]StagePolicy{
	models.StageRapport: {
		Stage:         models.StageRapport,
		MinTurns:      3,
		MinGoals:      1,
		MaxTurns:      8,
		HistoryWindow: 6,
	},
	models.StageValueDiscovery: {
		Stage:         models.StageValueDiscovery,
		MinTurns:      3,
		MinValues:     3,
		MaxTurns:      10,
		HistoryWindow: 8,
	},
	models.StageActionPlanning: {
		Stage:         models.StageActionPlanning,
		MinTurns:      2,
		MinActions:    3,
		MaxTurns:      7,
		HistoryWindow: 8,
	},
	models.StageSummary: {
		Stage:         models.StageSummary,
		HistoryWindow: 4,
	},
}

// PolicyFor returns the policy for a stage. Stages without their own entry
// (introduction, end) have no completion check and fall back to a zero policy.
func PolicyFor(stage models.Stage) StagePolicy {
	if p, ok := policyTable[stage]; ok {
		return p
	}
	return StagePolicy{Stage: stage, HistoryWindow: 6}
}

// ThresholdsMet reports whether the profile and turn count satisfy the
// stage's deterministic minimums.
func (p StagePolicy) ThresholdsMet(session *models.Session) bool {
	if session.StageTurnCount(p.Stage.String()) < p.MinTurns {
		return false
	}
	profile := session.Profile
	if len(profile.Goals) < p.MinGoals {
		return false
	}
	if len(profile.Values) < p.MinValues {
		return false
	}
	return len(profile.SuggestedActions) >= p.MinActions
}

// CeilingReached reports whether the stage's hard turn ceiling is hit.
func (p StagePolicy) CeilingReached(session *models.Session) bool {
	return p.MaxTurns > 0 && session.StageTurnCount(p.Stage.String()) >= p.MaxTurns
}

// Decision is the outcome of one completion check.
type Decision struct {
	Advance bool
	Reason  string
}

// assessment is the judgment service's JSON verdict. Later service variants
// used should_advance instead of ready_to_advance; both are accepted.
type assessment struct {
	ReadyToAdvance bool   `json:"ready_to_advance"`
	ShouldAdvance  bool   `json:"should_advance"`
	Reasoning      string `json:"reasoning"`
	Confidence     string `json:"confidence"`
}

func (a assessment) ready() bool {
	return a.ReadyToAdvance || a.ShouldAdvance
}

var assessmentJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// parseAssessment parses a judgment response, preferring a fenced JSON block.
func parseAssessment(content string) (assessment, error) {
	payload := content
	if match := assessmentJSONPattern.FindStringSubmatch(content); match != nil {
		payload = match[1]
	}
	var a assessment
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		return assessment{}, fmt.Errorf("failed to parse assessment JSON: %w", err)
	}
	return a, nil
}

// CompletionChecker decides CONTINUE versus ADVANCE for a stage, combining an
// advisory LLM judgment with the deterministic policy table. A failed or
// unparseable judgment call is recoverable: the thresholds alone decide.
type CompletionChecker struct {
	genaiClient genai.ClientInterface
}

// NewCompletionChecker creates a completion checker.
func NewCompletionChecker(genaiClient genai.ClientInterface) *CompletionChecker {
	return &CompletionChecker{genaiClient: genaiClient}
}

// Check runs one completion check for the session's current stage.
// The transition rule: advance if (judgment ready AND minimums met) OR the
// ceiling is reached. The judgment is advisory, never solely authoritative.
func (c *CompletionChecker) Check(ctx context.Context, session *models.Session) Decision {
	policy := PolicyFor(session.Stage)
	stageName := policy.Stage.String()
	turnCount := session.StageTurnCount(stageName)

	if policy.CeilingReached(session) {
		slog.Info("flow.Check: turn ceiling reached, forcing advancement",
			"sessionID", session.ID, "stage", stageName, "turns", turnCount, "ceiling", policy.MaxTurns)
		return Decision{Advance: true, Reason: fmt.Sprintf("turn ceiling %d reached", policy.MaxTurns)}
	}

	thresholds := policy.ThresholdsMet(session)

	verdict, err := c.judge(ctx, session, policy)
	if err != nil {
		slog.Warn("flow.Check: judgment unavailable, deterministic fallback decides",
			"sessionID", session.ID, "stage", stageName, "error", err)
		if thresholds {
			return Decision{Advance: true, Reason: "judgment unavailable, thresholds met"}
		}
		return Decision{Advance: false, Reason: "judgment unavailable, thresholds not met"}
	}

	if verdict.ready() && thresholds {
		slog.Info("flow.Check: stage complete", "sessionID", session.ID, "stage", stageName, "reasoning", verdict.Reasoning)
		return Decision{Advance: true, Reason: verdict.Reasoning}
	}

	slog.Debug("flow.Check: staying in stage",
		"sessionID", session.ID, "stage", stageName, "judgmentReady", verdict.ready(), "thresholdsMet", thresholds, "turns", turnCount)
	return Decision{Advance: false, Reason: verdict.Reasoning}
}

// judge asks the judgment service for an advisory ready signal.
func (c *CompletionChecker) judge(ctx context.Context, session *models.Session, policy StagePolicy) (assessment, error) {
	prompt, err := c.completionPrompt(session, policy)
	if err != nil {
		return assessment{}, err
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage("You are an assessment system. Return only valid JSON."),
		openai.UserMessage(prompt),
	}

	content, err := c.genaiClient.GenerateAssessment(ctx, messages)
	if err != nil {
		return assessment{}, fmt.Errorf("judgment call failed: %w", err)
	}
	return parseAssessment(content)
}

func (c *CompletionChecker) completionPrompt(session *models.Session, policy StagePolicy) (string, error) {
	profile := session.Profile
	knowledgeContext := knowledge.RenderContext(profile)
	turnCount := session.StageTurnCount(policy.Stage.String())

	switch policy.Stage {
	case models.StageRapport:
		history := knowledge.FormatHistory(session.RecentMessages(policy.HistoryWindow))
		return fmt.Sprintf(rapportCompletionPrompt, knowledgeContext, history, turnCount), nil
	case models.StageValueDiscovery:
		return fmt.Sprintf(valueDiscoveryCompletionPrompt, knowledgeContext, len(profile.Values), len(profile.Goals), turnCount), nil
	case models.StageActionPlanning:
		return fmt.Sprintf(actionPlanningCompletionPrompt, knowledgeContext, len(profile.SuggestedActions), turnCount), nil
	default:
		return "", fmt.Errorf("stage %s has no completion prompt", policy.Stage)
	}
}
