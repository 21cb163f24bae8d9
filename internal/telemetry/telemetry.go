// Package telemetry reports finished interview sessions to an external
// collaborator. Failures here are logged and never affect session outcome.
package telemetry

import (
	"context"
	"log/slog"

	"github.com/valuecompass/valuecompass/internal/models"
)

// Recorder accepts a structured summary of a finished session.
type Recorder interface {
	RecordSession(ctx context.Context, session *models.Session) error
}

// SlogRecorder logs the finished session through the default slog logger.
type SlogRecorder struct{}

// NewSlogRecorder creates the default recorder.
func NewSlogRecorder() *SlogRecorder {
	return &SlogRecorder{}
}

// RecordSession logs the session's profile counts, stage metrics, and final
// outputs.
func (r *SlogRecorder) RecordSession(ctx context.Context, session *models.Session) error {
	profile := session.Profile

	slog.Info("telemetry.RecordSession: session finished",
		"sessionID", session.ID,
		"totalTurns", session.TotalTurns,
		"goals", len(profile.Goals),
		"values", len(profile.Values),
		"actions", len(profile.SuggestedActions),
		"summaryLength", len(session.FinalSummary),
		"feedbackLength", len(session.FinalFeedback),
		"sessionStart", session.SessionStart,
	)

	for _, metric := range session.StageMetrics {
		slog.Info("telemetry.RecordSession: stage metric",
			"sessionID", session.ID,
			"stage", metric.StageName,
			"turns", metric.TurnCount,
			"tokens", metric.TotalTokens,
			"start", metric.StartTime,
			"end", metric.EndTime,
		)
	}
	return nil
}

// NopRecorder discards everything. Used when telemetry is disabled.
type NopRecorder struct{}

// RecordSession implements Recorder.
func (NopRecorder) RecordSession(ctx context.Context, session *models.Session) error {
	return nil
}
