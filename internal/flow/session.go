package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/creanalyst/reflectd/internal/models"
)

// PersistStatus is the save status of a session transcript.
type PersistStatus string

const (
	PersistIdle   PersistStatus = "idle"
	PersistSaving PersistStatus = "saving"
	PersistSaved  PersistStatus = "saved"
	PersistError  PersistStatus = "error"
)

// PersistState carries the status plus the saved id or the failure message.
type PersistState struct {
	Status PersistStatus
	ID     string
	Err    string
}

// Persister saves a completed session transcript and returns the stored id.
type Persister interface {
	PersistTranscript(ctx context.Context, module Module, transcript []models.TranscriptMessage) (string, error)
}

// Session is the transcript/session state machine for one reflection
// interview: the global ordered message list, the current step cursor, and the
// persistence status. All methods are safe for concurrent use, though the
// expected caller is a single interaction loop.
type Session struct {
	mu        sync.Mutex
	module    Module
	steps     []Step
	messages  []models.TranscriptMessage
	current   int
	persist   PersistState
	persister Persister
	now       func() time.Time
	newID     func() string
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithPersister sets the transcript persister invoked automatically when the
// session reaches the finish step.
func WithPersister(p Persister) SessionOption {
	return func(s *Session) { s.persister = p }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithIDGenerator overrides the message id source.
func WithIDGenerator(gen func() string) SessionOption {
	return func(s *Session) { s.newID = gen }
}

// NewSession creates a session positioned at the first step of the given flow.
func NewSession(module Module, steps []Step, opts ...SessionOption) *Session {
	s := &Session{
		module:  module,
		steps:   steps,
		persist: PersistState{Status: PersistIdle},
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentStep returns the step the session cursor is on.
func (s *Session) CurrentStep() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.steps[s.current]
}

// Steps returns the fixed flow the session was built with.
func (s *Session) Steps() []Step {
	out := make([]Step, len(s.steps))
	copy(out, s.steps)
	return out
}

// Advance moves the cursor to the next step; it is a no-op on the last step.
// Entering the finish step triggers a single automatic persistence attempt
// when the transcript is non-empty and no attempt has been made yet.
func (s *Session) Advance(ctx context.Context) Step {
	s.mu.Lock()
	if s.current < len(s.steps)-1 {
		s.current++
	}
	step := s.steps[s.current]
	shouldPersist := step.Type == StepTypeFinish &&
		s.persist.Status == PersistIdle && len(s.messages) > 0
	s.mu.Unlock()
	if shouldPersist {
		if err := s.PersistTranscript(ctx); err != nil {
			slog.Warn("Session.Advance: automatic transcript save failed", "module", s.module.ID, "error", err)
		}
	}
	return step
}

// Retreat moves the cursor to the previous step; it is a no-op on the first step.
func (s *Session) Retreat() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current > 0 {
		s.current--
	}
	return s.steps[s.current]
}

// Reset returns the session to its initial state: no messages, first step,
// persistence idle.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.current = 0
	s.persist = PersistState{Status: PersistIdle}
}

// AppendMessage records an utterance at the end of the global message list.
// An empty stepId defaults to the current step; an empty questionKey is
// derived from the step id. The message gets a fresh unique id and a
// capture-time timestamp.
func (s *Session) AppendMessage(source models.MessageSource, text, stepID string, questionKey models.QuestionKey) models.TranscriptMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stepID == "" {
		stepID = s.steps[s.current].ID
	}
	if questionKey == "" {
		if key, ok := QuestionKeyFromStepID(stepID); ok {
			questionKey = key
		}
	}
	msg := models.TranscriptMessage{
		ID:          s.newID(),
		Source:      source,
		Message:     text,
		Timestamp:   s.now().Format("15:04:05"),
		StepID:      stepID,
		QuestionKey: questionKey,
	}
	s.messages = append(s.messages, msg)
	return msg
}

// Messages returns a copy of the global ordered message list.
func (s *Session) Messages() []models.TranscriptMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.TranscriptMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// MessagesForStep returns the messages recorded for a single step, in
// insertion order.
func (s *Session) MessagesForStep(stepID string) []models.TranscriptMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TranscriptMessage
	for _, msg := range s.messages {
		if msg.StepID == stepID {
			out = append(out, msg)
		}
	}
	return out
}

// ClearCurrentStep removes every message whose step id equals the current
// step, leaving messages for all other steps and their order untouched.
func (s *Session) ClearCurrentStep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	stepID := s.steps[s.current].ID
	kept := s.messages[:0]
	for _, msg := range s.messages {
		if msg.StepID != stepID {
			kept = append(kept, msg)
		}
	}
	s.messages = kept
}

// RenderTranscript renders the full message list as a plain-text document with
// a section header whenever the step changes between consecutive messages.
// It has no side effects on session state: repeated calls over an unchanged
// message list and clock produce byte-identical output.
func (s *Session) RenderTranscript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := []string{
		s.module.TranscriptTitle,
		"Generated: " + s.now().Format("2006-01-02 15:04:05"),
		"",
	}
	lastStepID := ""
	for _, msg := range s.messages {
		if msg.StepID != "" && msg.StepID != lastStepID {
			if step, ok := s.stepByID(msg.StepID); ok {
				header := step.QuestionText
				if header == "" {
					header = step.Title
				}
				lines = append(lines, "--- "+header+" ---")
			}
			lastStepID = msg.StepID
		}
		speaker := "Coach"
		if msg.Source == models.SourceUser {
			speaker = "You"
		}
		lines = append(lines, speaker+": "+msg.Message)
	}
	return strings.Join(lines, "\n")
}

// TranscriptFilename builds the module-specific download filename with a
// filesystem-safe timestamp.
func (s *Session) TranscriptFilename() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp := s.now().UTC().Format("2006-01-02T15-04-05Z")
	return fmt.Sprintf("%s-%s.txt", s.module.TranscriptFilenamePrefix, stamp)
}

// PersistState returns the current save status.
func (s *Session) PersistState() PersistState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist
}

// PersistTranscript saves the transcript through the configured persister.
// It is a no-op while a save is in flight, after a save has already
// succeeded, or when the transcript is empty, and transitions to saved{id}
// or error{message}.
func (s *Session) PersistTranscript(ctx context.Context) error {
	s.mu.Lock()
	if s.persist.Status == PersistSaving || s.persist.Status == PersistSaved {
		s.mu.Unlock()
		return nil
	}
	if len(s.messages) == 0 {
		s.mu.Unlock()
		return nil
	}
	if s.persister == nil {
		s.persist = PersistState{Status: PersistError, Err: "transcript persistence is not configured"}
		s.mu.Unlock()
		return fmt.Errorf("no persister configured")
	}
	transcript := make([]models.TranscriptMessage, len(s.messages))
	copy(transcript, s.messages)
	s.persist = PersistState{Status: PersistSaving}
	s.mu.Unlock()

	id, err := s.persister.PersistTranscript(ctx, s.module, transcript)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.persist = PersistState{Status: PersistError, Err: err.Error()}
		return err
	}
	if id == "" {
		s.persist = PersistState{Status: PersistError, Err: "save succeeded but returned no id"}
		return fmt.Errorf("persister returned empty session id")
	}
	s.persist = PersistState{Status: PersistSaved, ID: id}
	return nil
}

// RetryPersist re-runs transcript persistence after a failed attempt. It is
// only valid from the error state; saved sessions are terminal.
func (s *Session) RetryPersist(ctx context.Context) error {
	s.mu.Lock()
	if s.persist.Status != PersistError {
		s.mu.Unlock()
		return nil
	}
	s.persist = PersistState{Status: PersistIdle}
	s.mu.Unlock()
	return s.PersistTranscript(ctx)
}

func (s *Session) stepByID(id string) (Step, bool) {
	for _, step := range s.steps {
		if step.ID == id {
			return step, true
		}
	}
	return Step{}, false
}
