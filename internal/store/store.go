// Package store provides persistence backends for reflection sessions and
// rubric scores.
//
// Backends: Supabase (PostgREST), direct PostgreSQL, SQLite for local
// development, and an in-memory store for tests. The read path is not used by
// the service; records are written for later analysis.
package store

import (
	"context"
	"strings"

	"github.com/creanalyst/reflectd/internal/models"
)

// Table names. Reflection data is kept isolated from the voice interview app.
const (
	SessionTable = "reflection_sessions"
	ScoreTable   = "reflection_scores"
)

// Store is the persistence contract for the reflection service.
type Store interface {
	// AddSession inserts a session record and returns its id.
	AddSession(ctx context.Context, rec models.SessionRecord) (string, error)
	// UpdateSession replaces the stored transcript and candidate fields of an
	// existing session.
	UpdateSession(ctx context.Context, rec models.SessionRecord) error
	// AddScore inserts a score record referencing a stored session.
	AddScore(ctx context.Context, rec models.ScoreRecord) error
	// Close releases backend resources.
	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	// DSN is the database connection string for SQL-backed stores.
	DSN string
}

// Option defines a functional option for store configuration.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType reports "postgres" for PostgreSQL connection strings and
// "sqlite" for file paths.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}
