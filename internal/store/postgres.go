// Package store provides persistence backends for reflectd.
//
// This file implements a PostgreSQL-backed store for deployments that connect
// to the database directly instead of going through the Supabase REST API.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/creanalyst/reflectd/internal/models"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists sessions and scores in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")
	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run Postgres migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

// AddSession inserts a session row and returns the generated id.
func (s *PostgresStore) AddSession(ctx context.Context, rec models.SessionRecord) (string, error) {
	transcript, err := json.Marshal(rec.Transcript)
	if err != nil {
		return "", fmt.Errorf("failed to marshal transcript: %w", err)
	}
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reflection_sessions (id, agent_id, candidate_name, candidate_email, transcript) VALUES ($1, $2, $3, $4, $5)`,
		id, rec.AgentID, rec.CandidateName, rec.CandidateEmail, transcript)
	if err != nil {
		slog.Error("PostgresStore.AddSession failed", "error", err)
		return "", fmt.Errorf("failed to insert session: %w", err)
	}
	slog.Debug("PostgresStore.AddSession succeeded", "id", id)
	return id, nil
}

// UpdateSession replaces the transcript and candidate fields of a session.
func (s *PostgresStore) UpdateSession(ctx context.Context, rec models.SessionRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("session id required for update")
	}
	transcript, err := json.Marshal(rec.Transcript)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE reflection_sessions SET agent_id = $2, candidate_name = $3, candidate_email = $4, transcript = $5 WHERE id = $1`,
		rec.ID, rec.AgentID, rec.CandidateName, rec.CandidateEmail, transcript)
	if err != nil {
		slog.Error("PostgresStore.UpdateSession failed", "error", err, "id", rec.ID)
		return fmt.Errorf("failed to update session %s: %w", rec.ID, err)
	}
	slog.Debug("PostgresStore.UpdateSession succeeded", "id", rec.ID)
	return nil
}

// AddScore inserts a score row referencing an existing session.
func (s *PostgresStore) AddScore(ctx context.Context, rec models.ScoreRecord) error {
	scores, err := json.Marshal(rec.Scores)
	if err != nil {
		return fmt.Errorf("failed to marshal scores: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reflection_scores (id, session_id, rubric_version, scores, model_used, reasoning) VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.NewString(), rec.SessionID, rec.RubricVersion, scores, rec.ModelUsed, rec.Reasoning)
	if err != nil {
		slog.Error("PostgresStore.AddScore failed", "error", err, "sessionID", rec.SessionID)
		return fmt.Errorf("failed to insert score for session %s: %w", rec.SessionID, err)
	}
	slog.Debug("PostgresStore.AddScore succeeded", "sessionID", rec.SessionID)
	return nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

var _ Store = (*PostgresStore)(nil)
