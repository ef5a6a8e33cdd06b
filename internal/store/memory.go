package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/creanalyst/reflectd/internal/models"
)

// InMemoryStore keeps records in memory. It backs tests and credential-free
// local runs.
type InMemoryStore struct {
	mu       sync.Mutex
	sessions map[string]models.SessionRecord
	scores   []models.ScoreRecord
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]models.SessionRecord)}
}

// AddSession inserts a session record and returns the generated id.
func (s *InMemoryStore) AddSession(ctx context.Context, rec models.SessionRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.sessions[rec.ID] = rec
	return rec.ID, nil
}

// UpdateSession replaces an existing session record.
func (s *InMemoryStore) UpdateSession(ctx context.Context, rec models.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[rec.ID]; !ok {
		return fmt.Errorf("session %s not found", rec.ID)
	}
	s.sessions[rec.ID] = rec
	return nil
}

// AddScore inserts a score record.
func (s *InMemoryStore) AddScore(ctx context.Context, rec models.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[rec.SessionID]; !ok {
		return fmt.Errorf("session %s not found", rec.SessionID)
	}
	s.scores = append(s.scores, rec)
	return nil
}

// GetSession returns a stored session record.
func (s *InMemoryStore) GetSession(id string) (models.SessionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[id]
	return rec, ok
}

// Scores returns all stored score records.
func (s *InMemoryStore) Scores() []models.ScoreRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ScoreRecord, len(s.scores))
	copy(out, s.scores)
	return out
}

// Close implements Store.
func (s *InMemoryStore) Close() error {
	return nil
}

var _ Store = (*InMemoryStore)(nil)
