// Package bridge manages the live text session between one flow step and its
// external conversational agent. Each step owns at most one session; switching
// steps tears the prior session down before a new one may start.
package bridge

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/creanalyst/reflectd/internal/flow"
	"github.com/creanalyst/reflectd/internal/models"
)

// State is the connection state of an agent session.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// Session errors.
var (
	ErrAgentNotConfigured = errors.New("missing agent configuration")
	ErrNotConnected       = errors.New("session is not connected")
	ErrAlreadyStarted     = errors.New("session already starting or started")
)

// InboundPayload is the raw message shape delivered by the agent transport.
type InboundPayload struct {
	Type    string `json:"type,omitempty"`
	Source  string `json:"source,omitempty"`
	Message string `json:"message,omitempty"`
	Text    string `json:"text,omitempty"`
}

// NormalizePayload maps a raw inbound payload onto the transcript model:
// "assistant" becomes "ai", unknown sources default to "ai", and the text is
// taken from whichever field is populated. The second return value is false
// for payloads with no usable text.
func NormalizePayload(p InboundPayload) (models.MessageSource, string, bool) {
	text := p.Message
	if text == "" {
		text = p.Text
	}
	if strings.TrimSpace(text) == "" {
		return "", "", false
	}
	return models.NormalizeSource(p.Source), text, true
}

// SignedURLFunc obtains an ephemeral signed connection URL for an agent,
// normally through the server-side proxy that enforces the module allow-list.
type SignedURLFunc func(ctx context.Context, agentID string) (string, error)

// Transport is a live connection to the agent platform.
type Transport interface {
	// SendText relays one user utterance over the connection.
	SendText(text string) error
	// Close tears the connection down. It must be safe to call twice.
	Close() error
}

// Dialer establishes a Transport against a signed URL. Inbound payloads are
// delivered to onPayload; onClosed fires once when the connection ends, with a
// nil error for an orderly close.
type Dialer interface {
	Dial(ctx context.Context, signedURL string, onPayload func(InboundPayload), onClosed func(error)) (Transport, error)
}

// MessageFunc receives normalized inbound and optimistic outbound messages
// tagged with the owning step and its derived question key.
type MessageFunc func(source models.MessageSource, text, stepID string, questionKey models.QuestionKey)

// ErrorFunc surfaces transport errors to the user.
type ErrorFunc func(err error)

// Session is the per-step agent session state machine.
type Session struct {
	mu          sync.Mutex
	step        flow.Step
	questionKey models.QuestionKey
	state       State
	starting    bool
	transport   Transport
	signedURL   SignedURLFunc
	dialer      Dialer
	onMessage   MessageFunc
	onError     ErrorFunc
}

// NewSession creates a disconnected session bound to one flow step.
func NewSession(step flow.Step, signedURL SignedURLFunc, dialer Dialer, onMessage MessageFunc, onError ErrorFunc) *Session {
	key, _ := flow.QuestionKeyFromStepID(step.ID)
	return &Session{
		step:        step,
		questionKey: key,
		state:       StateDisconnected,
		signedURL:   signedURL,
		dialer:      dialer,
		onMessage:   onMessage,
		onError:     onError,
	}
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start acquires a signed URL and connects. A step without a configured agent
// id fails immediately with ErrAgentNotConfigured. Overlapping starts are
// rejected while one is in flight.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.starting || s.state != StateDisconnected {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	if strings.TrimSpace(s.step.AgentID) == "" {
		s.mu.Unlock()
		return ErrAgentNotConfigured
	}
	s.starting = true
	s.state = StateConnecting
	s.mu.Unlock()

	signedURL, err := s.signedURL(ctx, s.step.AgentID)
	if err != nil {
		s.failStart(err)
		return err
	}

	transport, err := s.dialer.Dial(ctx, signedURL, s.handlePayload, s.handleClosed)
	if err != nil {
		s.failStart(err)
		return err
	}

	s.mu.Lock()
	s.starting = false
	s.state = StateConnected
	s.transport = transport
	s.mu.Unlock()
	slog.Debug("Session.Start: agent session connected", "stepID", s.step.ID, "agentID", s.step.AgentID)
	return nil
}

// SendText relays a user message. The message is appended optimistically
// before the transport send; a send failure is surfaced through the error
// callback without rolling the appended message back.
func (s *Session) SendText(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	s.mu.Lock()
	if s.state != StateConnected || s.transport == nil {
		s.mu.Unlock()
		return ErrNotConnected
	}
	transport := s.transport
	s.mu.Unlock()

	s.onMessage(models.SourceUser, trimmed, s.step.ID, s.questionKey)
	if err := transport.SendText(trimmed); err != nil {
		slog.Warn("Session.SendText: transport send failed", "stepID", s.step.ID, "error", err)
		if s.onError != nil {
			s.onError(err)
		}
		return err
	}
	return nil
}

// End tears the session down. It is safe to call in any state and is the
// guaranteed release path on step change or unmount.
func (s *Session) End() {
	s.mu.Lock()
	transport := s.transport
	s.transport = nil
	s.starting = false
	s.state = StateDisconnected
	s.mu.Unlock()
	if transport != nil {
		if err := transport.Close(); err != nil {
			slog.Debug("Session.End: transport close failed", "stepID", s.step.ID, "error", err)
		}
	}
}

func (s *Session) handlePayload(p InboundPayload) {
	source, text, ok := NormalizePayload(p)
	if !ok {
		return
	}
	// User echoes are already appended optimistically on send.
	if source != models.SourceAI {
		return
	}
	s.onMessage(source, text, s.step.ID, s.questionKey)
}

func (s *Session) handleClosed(err error) {
	s.mu.Lock()
	s.transport = nil
	s.starting = false
	wasConnected := s.state != StateDisconnected
	s.state = StateDisconnected
	s.mu.Unlock()
	if err != nil && wasConnected && s.onError != nil {
		s.onError(err)
	}
}

func (s *Session) failStart(err error) {
	s.mu.Lock()
	s.starting = false
	s.state = StateDisconnected
	s.mu.Unlock()
	if s.onError != nil {
		s.onError(err)
	}
}
