// Package api provides session management handlers for ValueCompass endpoints.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/valuecompass/valuecompass/internal/models"
)

// createSessionHandler handles POST /sessions.
func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("createSessionHandler invoked", "method", r.Method, "path", r.URL.Path)

	sessionID, intro, err := s.manager.StartSession(r.Context())
	if err != nil {
		slog.Error("createSessionHandler start failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create session"))
		return
	}

	slog.Info("Session created successfully", "sessionID", sessionID)
	writeJSONResponse(w, http.StatusCreated, models.Success(models.SessionCreatedResponse{
		SessionID: sessionID,
		Message:   intro,
	}))
}

// postMessageHandler handles POST /sessions/{id}/messages.
func (s *Server) postMessageHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	slog.Debug("postMessageHandler invoked", "sessionID", sessionID)

	var req models.SessionMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("postMessageHandler invalid JSON", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("postMessageHandler validation failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	reply, err := s.manager.HandleInbound(r.Context(), sessionID, req.Message)
	if err != nil {
		session, lookupErr := s.manager.GetSession(sessionID)
		if lookupErr == nil && session == nil {
			slog.Debug("postMessageHandler session not found", "sessionID", sessionID)
			writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
			return
		}
		slog.Error("postMessageHandler failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to process message"))
		return
	}

	session, err := s.manager.GetSession(sessionID)
	if err != nil || session == nil {
		slog.Error("postMessageHandler reload failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load session"))
		return
	}

	slog.Debug("postMessageHandler succeeded", "sessionID", sessionID, "stage", session.Stage.String())
	writeJSONResponse(w, http.StatusOK, models.Success(models.SessionReplyResponse{
		SessionID: sessionID,
		Stage:     session.Stage.String(),
		Message:   reply,
	}))
}

// getSessionHandler handles GET /sessions/{id}.
func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	slog.Debug("getSessionHandler invoked", "sessionID", sessionID)

	session, err := s.manager.GetSession(sessionID)
	if err != nil {
		slog.Error("getSessionHandler failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to get session"))
		return
	}
	if session == nil {
		slog.Debug("getSessionHandler not found", "sessionID", sessionID)
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		return
	}

	slog.Debug("getSessionHandler succeeded", "sessionID", sessionID)
	writeJSONResponse(w, http.StatusOK, models.Success(session))
}

// listSessionsHandler handles GET /sessions.
func (s *Server) listSessionsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("listSessionsHandler invoked", "method", r.Method, "path", r.URL.Path)

	ids, err := s.st.ListSessionIDs()
	if err != nil {
		slog.Error("listSessionsHandler failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list sessions"))
		return
	}

	slog.Debug("listSessionsHandler succeeded", "count", len(ids))
	writeJSONResponse(w, http.StatusOK, models.Success(ids))
}

// deleteSessionHandler handles DELETE /sessions/{id}.
func (s *Server) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	slog.Debug("deleteSessionHandler invoked", "sessionID", sessionID)

	session, err := s.manager.GetSession(sessionID)
	if err != nil {
		slog.Error("deleteSessionHandler check failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to check session"))
		return
	}
	if session == nil {
		slog.Debug("deleteSessionHandler session not found", "sessionID", sessionID)
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		return
	}

	if err := s.st.DeleteSession(sessionID); err != nil {
		slog.Error("deleteSessionHandler delete failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to delete session"))
		return
	}

	slog.Info("Session deleted successfully", "sessionID", sessionID)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Session deleted successfully", nil))
}

// healthHandler handles GET /health.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("healthy", nil))
}
