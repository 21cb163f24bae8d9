package flow

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/valuecompass/valuecompass/internal/genai"
	"github.com/valuecompass/valuecompass/internal/models"
	"github.com/valuecompass/valuecompass/internal/telemetry"
)

func TestStartEmitsIntroductionOnce(t *testing.T) {
	mock := genai.NewMockClient("reply")
	c := NewController(mock, telemetry.NopRecorder{})
	session := models.NewSession("s1")

	intro, err := c.Start(context.Background(), session)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if intro != IntroductionMessage {
		t.Error("start did not return the introduction message")
	}
	if session.Stage != models.StageRapport {
		t.Errorf("stage after start = %s, want rapport_building", session.Stage)
	}
	if len(session.Messages) != 1 || session.Messages[0].Role != models.RoleAssistant {
		t.Error("introduction not recorded in the message log")
	}

	if _, err := c.Start(context.Background(), session); err == nil {
		t.Error("second start accepted")
	}
}

func TestHandleMessageEmptyInputReprompts(t *testing.T) {
	mock := genai.NewMockClient("reply")
	c := NewController(mock, telemetry.NopRecorder{})
	session := models.NewSession("s1")
	if _, err := c.Start(context.Background(), session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reply, err := c.HandleMessage(context.Background(), session, "   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != repromptFor("rapport_building") {
		t.Errorf("unexpected reply %q", reply)
	}
	// A blank turn consumes no LLM calls and no stage turns.
	if mock.CallCount() != 0 {
		t.Errorf("blank input triggered %d LLM calls", mock.CallCount())
	}
	if session.StageTurnCount("rapport_building") != 0 {
		t.Error("blank input counted as a stage turn")
	}
}

func TestHandleMessageRunsOneFullTurn(t *testing.T) {
	mock := genai.NewMockClient("")
	mock.Responses = []string{
		// extraction
		`{"goals_mentioned": ["switch careers into data science"], "values_mentioned": ["growth"], "emotional_tone": "hopeful", "key_phrases": ["I feel stuck"]}`,
		// stage reply
		"What is it about data science that draws you in?",
		// completion judgment
		`{"ready_to_advance": false, "reasoning": "keep exploring", "confidence": "medium"}`,
	}
	c := NewController(mock, telemetry.NopRecorder{})
	session := models.NewSession("s1")
	if _, err := c.Start(context.Background(), session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reply, err := c.HandleMessage(context.Background(), session, "I want to switch careers into data science")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "What is it about data science that draws you in?" {
		t.Errorf("unexpected reply %q", reply)
	}
	if session.Stage != models.StageRapport {
		t.Errorf("stage advanced prematurely to %s", session.Stage)
	}
	if len(session.Profile.Goals) != 1 {
		t.Error("extracted goal not merged into profile")
	}
	if v := session.Profile.ValueByName("growth"); v == nil || v.Weight != 0.5 {
		t.Error("extracted value not merged into profile")
	}
	if session.StageTurnCount("rapport_building") != 1 {
		t.Errorf("stage turn count = %d, want 1", session.StageTurnCount("rapport_building"))
	}
	if mock.CallCount() != 3 {
		t.Errorf("expected 3 LLM calls (extract, reply, judge), got %d", mock.CallCount())
	}
}

func TestRapportCeilingForcesAdvancement(t *testing.T) {
	// Every response is unparseable prose, so extraction falls back, no goals
	// accumulate, and the judgment is never usable. Progress must still happen.
	mock := genai.NewMockClient("Tell me more about that.")
	c := NewController(mock, telemetry.NopRecorder{})
	session := models.NewSession("s1")
	if _, err := c.Start(context.Background(), session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	policy := PolicyFor(models.StageRapport)
	for i := 0; i < policy.MaxTurns; i++ {
		if session.Stage != models.StageRapport {
			t.Fatalf("left rapport after %d turns, before the ceiling", i)
		}
		if _, err := c.HandleMessage(context.Background(), session, fmt.Sprintf("message %d", i)); err != nil {
			t.Fatalf("unexpected error on turn %d: %v", i, err)
		}
	}

	if session.Stage != models.StageValueDiscovery {
		t.Errorf("stage after ceiling = %s, want value_discovery", session.Stage)
	}
}

func TestStageNeverMovesBackward(t *testing.T) {
	mock := genai.NewMockClient("Tell me more about that.")
	c := NewController(mock, telemetry.NopRecorder{})
	session := models.NewSession("s1")
	if _, err := c.Start(context.Background(), session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	previous := session.Stage
	for i := 0; i < 30; i++ {
		if _, err := c.HandleMessage(context.Background(), session, fmt.Sprintf("message %d", i)); err != nil {
			t.Fatalf("unexpected error on turn %d: %v", i, err)
		}
		if session.Stage < previous {
			t.Fatalf("stage regressed from %s to %s on turn %d", previous, session.Stage, i)
		}
		previous = session.Stage
	}
	if session.Stage != models.StageEnd {
		t.Errorf("long session did not terminate, stuck at %s", session.Stage)
	}
}

func TestActionHarvesting(t *testing.T) {
	plan := `Based on your core values of growth and autonomy, here are some actions:

1. Take an online machine learning course to honor your value of growth
2. Negotiate one remote day per week, which supports your autonomy
3. Ship a small side project each month to keep learning by doing

Which of these resonates most with you?`

	mock := genai.NewMockClient("")
	mock.Responses = []string{
		"not json", // extraction falls back
		plan,
		`{"ready_to_advance": false, "reasoning": "gathering preferences"}`,
	}
	c := NewController(mock, telemetry.NopRecorder{})
	session := models.NewSession("s1")
	session.Advance(models.StageActionPlanning)
	session.Profile.EnsureValue("growth")
	session.Profile.EnsureValue("autonomy")

	if _, err := c.HandleMessage(context.Background(), session, "what should I actually do?"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	actions := session.Profile.SuggestedActions
	if len(actions) != 3 {
		t.Fatalf("expected 3 harvested actions, got %d", len(actions))
	}
	if !strings.Contains(actions[0].Description, "machine learning course") {
		t.Errorf("unexpected first action %q", actions[0].Description)
	}
	foundGrowth := false
	for _, lv := range actions[0].LinkedValues {
		if lv == "growth" {
			foundGrowth = true
		}
	}
	if !foundGrowth {
		t.Errorf("first action not linked to growth: %v", actions[0].LinkedValues)
	}

	// A second pass with a stated preference records feedback, no duplicates.
	mock.Responses = []string{
		"not json",
		plan,
		`{"ready_to_advance": false, "reasoning": "gathering preferences"}`,
	}
	if _, err := c.HandleMessage(context.Background(), session, "I prefer the first option"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(session.Profile.SuggestedActions) != 3 {
		t.Errorf("duplicate actions harvested: %d", len(session.Profile.SuggestedActions))
	}
	fed := false
	for _, a := range session.Profile.SuggestedActions {
		if a.UserFeedback == "I prefer the first option" {
			fed = true
		}
	}
	if !fed {
		t.Error("preference feedback not recorded on an action")
	}
}

func TestSummaryTwoStepFlow(t *testing.T) {
	recorder := &recordingRecorder{}
	mock := genai.NewMockClient("Here is everything we discovered together.")
	c := NewController(mock, recorder)

	session := models.NewSession("s1")
	session.Advance(models.StageSummary)
	session.Profile.AddGoal("switch careers into data science")
	session.Profile.EnsureValue("growth")

	// First summary-stage turn renders the summary exactly once.
	reply, err := c.HandleMessage(context.Background(), session, "okay, where does that leave us?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Here is everything we discovered together." {
		t.Errorf("unexpected summary %q", reply)
	}
	if session.FinalSummary != reply {
		t.Error("summary not recorded on the session")
	}
	if session.Stage != models.StageSummary {
		t.Error("session ended before feedback was collected")
	}

	// Second turn records feedback, closes out, and fires telemetry.
	reply, err = c.HandleMessage(context.Background(), session, "this really captures it, thank you")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != ClosingMessage {
		t.Errorf("unexpected closing reply %q", reply)
	}
	if session.FinalFeedback != "this really captures it, thank you" {
		t.Errorf("feedback not recorded: %q", session.FinalFeedback)
	}
	if session.Stage != models.StageEnd {
		t.Errorf("stage = %s, want end", session.Stage)
	}
	if recorder.sessions != 1 {
		t.Errorf("telemetry recorded %d sessions, want 1", recorder.sessions)
	}

	// Any further message gets the closed notice and changes nothing.
	reply, err = c.HandleMessage(context.Background(), session, "one more thing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != SessionClosedMessage {
		t.Errorf("unexpected post-end reply %q", reply)
	}
	if session.FinalFeedback != "this really captures it, thank you" {
		t.Error("post-end message altered final feedback")
	}
}

func TestGenerationFailureYieldsReprompt(t *testing.T) {
	mock := genai.NewMockClient("")
	mock.Err = errTest
	c := NewController(mock, telemetry.NopRecorder{})
	session := models.NewSession("s1")
	session.Advance(models.StageRapport)

	reply, err := c.HandleMessage(context.Background(), session, "hello there")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != repromptFor("rapport_building") {
		t.Errorf("unexpected fallback reply %q", reply)
	}
	if session.Stage != models.StageRapport {
		t.Error("failed generation changed the stage")
	}
}

var errTest = fmt.Errorf("service unavailable")

type recordingRecorder struct {
	sessions int
}

func (r *recordingRecorder) RecordSession(ctx context.Context, session *models.Session) error {
	r.sessions++
	return nil
}
