// Package store provides persistence backends for reflectd.
//
// This file implements the Supabase-backed store over PostgREST.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/supabase-community/supabase-go"

	"github.com/creanalyst/reflectd/internal/models"
)

// SupabaseStore persists sessions and scores through the Supabase REST API
// using a service-role credential.
type SupabaseStore struct {
	client *supabase.Client
}

// NewSupabaseStore creates a Supabase store for the given project URL and
// service key.
func NewSupabaseStore(projectURL, serviceKey string) (*SupabaseStore, error) {
	if projectURL == "" {
		return nil, fmt.Errorf("supabase URL not set")
	}
	if serviceKey == "" {
		return nil, fmt.Errorf("supabase service key not set")
	}
	client, err := supabase.NewClient(projectURL, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	slog.Debug("SupabaseStore.NewSupabaseStore: created Supabase store")
	return &SupabaseStore{client: client}, nil
}

type sessionRow struct {
	ID             string                     `json:"id,omitempty"`
	AgentID        string                     `json:"agent_id,omitempty"`
	CandidateName  string                     `json:"candidate_name,omitempty"`
	CandidateEmail string                     `json:"candidate_email,omitempty"`
	Transcript     []models.TranscriptMessage `json:"transcript"`
}

type scoreRow struct {
	SessionID     string               `json:"session_id"`
	RubricVersion string               `json:"rubric_version"`
	Scores        models.ScoreAnalysis `json:"scores"`
	Total         *int                 `json:"total"`
	ModelUsed     string               `json:"model_used"`
	Reasoning     string               `json:"reasoning,omitempty"`
}

// AddSession inserts a session row and returns the generated id.
func (s *SupabaseStore) AddSession(ctx context.Context, rec models.SessionRecord) (string, error) {
	row := sessionRow{
		AgentID:        rec.AgentID,
		CandidateName:  rec.CandidateName,
		CandidateEmail: rec.CandidateEmail,
		Transcript:     rec.Transcript,
	}
	var inserted []sessionRow
	_, err := s.client.From(SessionTable).
		Insert(row, false, "", "representation", "").
		ExecuteTo(&inserted)
	if err != nil {
		slog.Error("SupabaseStore.AddSession: insert failed", "error", err)
		return "", fmt.Errorf("failed to insert session: %w", err)
	}
	if len(inserted) == 0 || inserted[0].ID == "" {
		return "", fmt.Errorf("session insert returned no id")
	}
	slog.Debug("SupabaseStore.AddSession: session inserted", "id", inserted[0].ID)
	return inserted[0].ID, nil
}

// UpdateSession replaces the transcript and candidate fields of a session.
func (s *SupabaseStore) UpdateSession(ctx context.Context, rec models.SessionRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("session id required for update")
	}
	row := sessionRow{
		AgentID:        rec.AgentID,
		CandidateName:  rec.CandidateName,
		CandidateEmail: rec.CandidateEmail,
		Transcript:     rec.Transcript,
	}
	var updated []sessionRow
	_, err := s.client.From(SessionTable).
		Update(row, "representation", "").
		Eq("id", rec.ID).
		ExecuteTo(&updated)
	if err != nil {
		slog.Error("SupabaseStore.UpdateSession: update failed", "error", err, "id", rec.ID)
		return fmt.Errorf("failed to update session %s: %w", rec.ID, err)
	}
	slog.Debug("SupabaseStore.UpdateSession: session updated", "id", rec.ID)
	return nil
}

// AddScore inserts a score row referencing an existing session.
func (s *SupabaseStore) AddScore(ctx context.Context, rec models.ScoreRecord) error {
	row := scoreRow{
		SessionID:     rec.SessionID,
		RubricVersion: rec.RubricVersion,
		Scores:        rec.Scores,
		ModelUsed:     rec.ModelUsed,
		Reasoning:     rec.Reasoning,
	}
	var inserted []scoreRow
	_, err := s.client.From(ScoreTable).
		Insert(row, false, "", "representation", "").
		ExecuteTo(&inserted)
	if err != nil {
		slog.Error("SupabaseStore.AddScore: insert failed", "error", err, "sessionID", rec.SessionID)
		return fmt.Errorf("failed to insert score for session %s: %w", rec.SessionID, err)
	}
	slog.Debug("SupabaseStore.AddScore: score inserted", "sessionID", rec.SessionID)
	return nil
}

// Close implements Store; the Supabase client holds no resources to release.
func (s *SupabaseStore) Close() error {
	return nil
}

var _ Store = (*SupabaseStore)(nil)
