package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/valuecompass/valuecompass/internal/flow"
	"github.com/valuecompass/valuecompass/internal/genai"
	"github.com/valuecompass/valuecompass/internal/models"
	"github.com/valuecompass/valuecompass/internal/store"
	"github.com/valuecompass/valuecompass/internal/telemetry"
)

func newTestServer(mock *genai.MockClient) *Server {
	st := store.NewInMemoryStore()
	controller := flow.NewController(mock, telemetry.NopRecorder{})
	manager := flow.NewSessionManager(st, controller)
	return NewServer(manager, st)
}

func doRequest(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, models.APIResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var resp models.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v (%s)", err, w.Body.String())
	}
	return w, resp
}

func createSession(t *testing.T, s *Server) string {
	t.Helper()
	w, resp := doRequest(t, s, http.MethodPost, "/sessions", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create session status = %d, body %s", w.Code, w.Body.String())
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected result shape %T", resp.Result)
	}
	id, _ := result["session_id"].(string)
	if id == "" {
		t.Fatal("empty session id in response")
	}
	return id
}

func TestCreateSession(t *testing.T) {
	s := newTestServer(genai.NewMockClient("reply"))
	w, resp := doRequest(t, s, http.MethodPost, "/sessions", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if resp.Status != string(models.APIStatusOK) {
		t.Errorf("status field = %q", resp.Status)
	}
	result := resp.Result.(map[string]interface{})
	msg, _ := result["message"].(string)
	if !strings.Contains(msg, "Value Discovery Journey") {
		t.Errorf("introduction not returned: %q", msg)
	}
}

func TestPostMessage(t *testing.T) {
	s := newTestServer(genai.NewMockClient("What draws you to that goal?"))
	id := createSession(t, s)

	w, resp := doRequest(t, s, http.MethodPost, "/sessions/"+id+"/messages",
		`{"message": "I want to switch careers"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	result := resp.Result.(map[string]interface{})
	if got, _ := result["message"].(string); got != "What draws you to that goal?" {
		t.Errorf("unexpected reply %q", got)
	}
	if got, _ := result["stage"].(string); got != "rapport_building" {
		t.Errorf("unexpected stage %q", got)
	}
}

func TestPostMessageValidation(t *testing.T) {
	s := newTestServer(genai.NewMockClient("reply"))
	id := createSession(t, s)

	w, _ := doRequest(t, s, http.MethodPost, "/sessions/"+id+"/messages", `{"message": "   "}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank message status = %d, want 400", w.Code)
	}

	w, _ = doRequest(t, s, http.MethodPost, "/sessions/"+id+"/messages", `not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid JSON status = %d, want 400", w.Code)
	}
}

func TestPostMessageUnknownSession(t *testing.T) {
	s := newTestServer(genai.NewMockClient("reply"))
	w, _ := doRequest(t, s, http.MethodPost, "/sessions/nope/messages", `{"message": "hello"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetSession(t *testing.T) {
	s := newTestServer(genai.NewMockClient("reply"))
	id := createSession(t, s)

	w, resp := doRequest(t, s, http.MethodGet, "/sessions/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	result := resp.Result.(map[string]interface{})
	if got, _ := result["id"].(string); got != id {
		t.Errorf("session id = %q, want %q", got, id)
	}

	w, _ = doRequest(t, s, http.MethodGet, "/sessions/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown session status = %d, want 404", w.Code)
	}
}

func TestListSessions(t *testing.T) {
	s := newTestServer(genai.NewMockClient("reply"))
	createSession(t, s)
	createSession(t, s)

	w, resp := doRequest(t, s, http.MethodGet, "/sessions", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	ids, ok := resp.Result.([]interface{})
	if !ok {
		t.Fatalf("unexpected result shape %T", resp.Result)
	}
	if len(ids) != 2 {
		t.Errorf("expected 2 sessions, got %d", len(ids))
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestServer(genai.NewMockClient("reply"))
	id := createSession(t, s)

	w, _ := doRequest(t, s, http.MethodDelete, "/sessions/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	w, _ = doRequest(t, s, http.MethodGet, "/sessions/"+id, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("deleted session still retrievable, status %d", w.Code)
	}

	w, _ = doRequest(t, s, http.MethodDelete, "/sessions/"+id, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("double delete status = %d, want 404", w.Code)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(genai.NewMockClient("reply"))
	w, resp := doRequest(t, s, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	if resp.Message != "healthy" {
		t.Errorf("message = %q", resp.Message)
	}
}
