package flow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/valuecompass/valuecompass/internal/models"
	"github.com/valuecompass/valuecompass/internal/store"
)

// SessionManager loads, runs, and persists sessions through a Store backend.
// Each inbound event is one load-run-save cycle; the session is exclusively
// owned by that cycle, so no locking beyond the store's own is needed.
type SessionManager struct {
	store      store.Store
	controller *Controller
}

// NewSessionManager creates a session manager.
func NewSessionManager(st store.Store, controller *Controller) *SessionManager {
	slog.Debug("Creating SessionManager")
	return &SessionManager{store: st, controller: controller}
}

// StartSession creates a new session, emits the introduction, persists the
// snapshot, and returns the session id with the introduction message.
func (sm *SessionManager) StartSession(ctx context.Context) (string, string, error) {
	session := models.NewSession(uuid.NewString())

	intro, err := sm.controller.Start(ctx, session)
	if err != nil {
		return "", "", fmt.Errorf("failed to start session: %w", err)
	}

	if err := sm.saveSession(session); err != nil {
		return "", "", err
	}
	slog.Info("SessionManager StartSession succeeded", "sessionID", session.ID)
	return session.ID, intro, nil
}

// HandleInbound processes one user message for an existing session and
// persists the updated state.
func (sm *SessionManager) HandleInbound(ctx context.Context, sessionID, userText string) (string, error) {
	session, err := sm.loadSession(sessionID)
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", fmt.Errorf("session %s not found", sessionID)
	}

	reply, err := sm.controller.HandleMessage(ctx, session, userText)
	if err != nil {
		return "", fmt.Errorf("failed to handle message for session %s: %w", sessionID, err)
	}

	if err := sm.saveSession(session); err != nil {
		return "", err
	}
	return reply, nil
}

// GetSession loads a session by id, or nil when absent.
func (sm *SessionManager) GetSession(sessionID string) (*models.Session, error) {
	return sm.loadSession(sessionID)
}

func (sm *SessionManager) loadSession(sessionID string) (*models.Session, error) {
	snapshot, err := sm.store.GetSession(sessionID)
	if err != nil {
		slog.Error("SessionManager loadSession error", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if snapshot == nil {
		return nil, nil
	}

	var session models.Session
	if err := session.FromJSON(snapshot.State); err != nil {
		slog.Error("SessionManager loadSession parse error", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to parse session %s: %w", sessionID, err)
	}
	return &session, nil
}

func (sm *SessionManager) saveSession(session *models.Session) error {
	state, err := session.ToJSON()
	if err != nil {
		slog.Error("SessionManager saveSession serialize error", "error", err, "sessionID", session.ID)
		return fmt.Errorf("failed to serialize session %s: %w", session.ID, err)
	}

	snapshot := models.SessionSnapshot{
		ID:        session.ID,
		State:     state,
		UpdatedAt: time.Now().UTC(),
	}
	if err := sm.store.SaveSession(snapshot); err != nil {
		slog.Error("SessionManager saveSession store error", "error", err, "sessionID", session.ID)
		return fmt.Errorf("failed to save session %s: %w", session.ID, err)
	}
	return nil
}
