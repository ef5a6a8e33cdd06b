package store

import (
	"context"

	"github.com/creanalyst/reflectd/internal/flow"
	"github.com/creanalyst/reflectd/internal/models"
)

// SessionPersister adapts a Store to the flow.Persister contract used by the
// session state machine's automatic finish-step save.
type SessionPersister struct {
	Store Store
	// CandidateName and CandidateEmail are attached to saved sessions when known.
	CandidateName  string
	CandidateEmail string
}

// PersistTranscript implements flow.Persister.
func (p *SessionPersister) PersistTranscript(ctx context.Context, module flow.Module, transcript []models.TranscriptMessage) (string, error) {
	return p.Store.AddSession(ctx, models.SessionRecord{
		AgentID:        module.Exercise,
		CandidateName:  p.CandidateName,
		CandidateEmail: p.CandidateEmail,
		Transcript:     transcript,
	})
}

var _ flow.Persister = (*SessionPersister)(nil)
