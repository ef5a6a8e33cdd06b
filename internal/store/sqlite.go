// Package store provides persistence backends for reflectd.
//
// This file implements a SQLite-backed store for local development.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "embed"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/creanalyst/reflectd/internal/models"
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists sessions and scores in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store based on provided options.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN not set")
	}
	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open SQLite database", "error", err)
		return nil, err
	}
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run SQLite migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully", "dsn", cfg.DSN)
	return &SQLiteStore{db: db}, nil
}

// AddSession inserts a session row and returns the generated id.
func (s *SQLiteStore) AddSession(ctx context.Context, rec models.SessionRecord) (string, error) {
	transcript, err := json.Marshal(rec.Transcript)
	if err != nil {
		return "", fmt.Errorf("failed to marshal transcript: %w", err)
	}
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reflection_sessions (id, agent_id, candidate_name, candidate_email, transcript) VALUES (?, ?, ?, ?, ?)`,
		id, rec.AgentID, rec.CandidateName, rec.CandidateEmail, string(transcript))
	if err != nil {
		slog.Error("SQLiteStore.AddSession failed", "error", err)
		return "", fmt.Errorf("failed to insert session: %w", err)
	}
	return id, nil
}

// UpdateSession replaces the transcript and candidate fields of a session.
func (s *SQLiteStore) UpdateSession(ctx context.Context, rec models.SessionRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("session id required for update")
	}
	transcript, err := json.Marshal(rec.Transcript)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE reflection_sessions SET agent_id = ?, candidate_name = ?, candidate_email = ?, transcript = ? WHERE id = ?`,
		rec.AgentID, rec.CandidateName, rec.CandidateEmail, string(transcript), rec.ID)
	if err != nil {
		slog.Error("SQLiteStore.UpdateSession failed", "error", err, "id", rec.ID)
		return fmt.Errorf("failed to update session %s: %w", rec.ID, err)
	}
	return nil
}

// AddScore inserts a score row referencing an existing session.
func (s *SQLiteStore) AddScore(ctx context.Context, rec models.ScoreRecord) error {
	scores, err := json.Marshal(rec.Scores)
	if err != nil {
		return fmt.Errorf("failed to marshal scores: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reflection_scores (id, session_id, rubric_version, scores, model_used, reasoning) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), rec.SessionID, rec.RubricVersion, string(scores), rec.ModelUsed, rec.Reasoning)
	if err != nil {
		slog.Error("SQLiteStore.AddScore failed", "error", err, "sessionID", rec.SessionID)
		return fmt.Errorf("failed to insert score for session %s: %w", rec.SessionID, err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
