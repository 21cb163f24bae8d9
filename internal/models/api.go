package models

import (
	"errors"
	"strings"
)

// APIStatus represents the status field of an API response.
type APIStatus string

const (
	APIStatusOK    APIStatus = "ok"
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}

// SessionMessageRequest is the body of POST /sessions/{id}/messages.
type SessionMessageRequest struct {
	Message string `json:"message"`
}

// Validate checks that the request carries a non-blank message.
func (r SessionMessageRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return errors.New("message is required")
	}
	return nil
}

// SessionCreatedResponse is returned by POST /sessions.
type SessionCreatedResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// SessionReplyResponse is returned by POST /sessions/{id}/messages.
type SessionReplyResponse struct {
	SessionID string `json:"session_id"`
	Stage     string `json:"stage"`
	Message   string `json:"message"`
}
