package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/creanalyst/reflectd/internal/flow"
	"github.com/creanalyst/reflectd/internal/models"
)

type fakeTransport struct {
	sent    []string
	sendErr error
	closed  int
}

func (t *fakeTransport) SendText(text string) error {
	if t.sendErr != nil {
		return t.sendErr
	}
	t.sent = append(t.sent, text)
	return nil
}

func (t *fakeTransport) Close() error {
	t.closed++
	return nil
}

type fakeDialer struct {
	transport *fakeTransport
	err       error
	onPayload func(InboundPayload)
	onClosed  func(error)
	dials     int
}

func (d *fakeDialer) Dial(ctx context.Context, signedURL string, onPayload func(InboundPayload), onClosed func(error)) (Transport, error) {
	d.dials++
	d.onPayload = onPayload
	d.onClosed = onClosed
	if d.err != nil {
		return nil, d.err
	}
	return d.transport, nil
}

type recorded struct {
	source      models.MessageSource
	text        string
	stepID      string
	questionKey models.QuestionKey
}

type harness struct {
	session  *Session
	dialer   *fakeDialer
	urlErr   error
	messages []recorded
	errors   []error
}

func newHarness(step flow.Step, dialer *fakeDialer, urlErr error) *harness {
	h := &harness{dialer: dialer, urlErr: urlErr}
	signedURL := func(ctx context.Context, agentID string) (string, error) {
		if h.urlErr != nil {
			return "", h.urlErr
		}
		return "wss://example.com/conv?token=abc", nil
	}
	h.session = NewSession(step, signedURL, dialer,
		func(source models.MessageSource, text, stepID string, questionKey models.QuestionKey) {
			h.messages = append(h.messages, recorded{source, text, stepID, questionKey})
		},
		func(err error) { h.errors = append(h.errors, err) },
	)
	return h
}

func agentStep() flow.Step {
	return flow.Step{ID: "q1-agent", Type: flow.StepTypeAgent, AgentID: "agent_123"}
}

func TestNormalizePayload(t *testing.T) {
	cases := []struct {
		payload InboundPayload
		source  models.MessageSource
		text    string
		ok      bool
	}{
		{InboundPayload{Source: "user", Message: "hello"}, models.SourceUser, "hello", true},
		{InboundPayload{Source: "assistant", Message: "hi"}, models.SourceAI, "hi", true},
		{InboundPayload{Source: "agent", Text: "from text field"}, models.SourceAI, "from text field", true},
		{InboundPayload{Source: "ai", Message: "   "}, "", "", false},
		{InboundPayload{}, "", "", false},
	}
	for _, tc := range cases {
		source, text, ok := NormalizePayload(tc.payload)
		if source != tc.source || text != tc.text || ok != tc.ok {
			t.Errorf("NormalizePayload(%+v) = (%q, %q, %v), want (%q, %q, %v)",
				tc.payload, source, text, ok, tc.source, tc.text, tc.ok)
		}
	}
}

func TestStartWithoutAgentID(t *testing.T) {
	h := newHarness(flow.Step{ID: "q1-agent", AgentID: "  "}, &fakeDialer{transport: &fakeTransport{}}, nil)
	if err := h.session.Start(context.Background()); err != ErrAgentNotConfigured {
		t.Fatalf("expected ErrAgentNotConfigured, got %v", err)
	}
	if h.session.State() != StateDisconnected {
		t.Errorf("state should stay disconnected, got %q", h.session.State())
	}
	if h.dialer.dials != 0 {
		t.Error("dialer should not be invoked without an agent id")
	}
}

func TestStartConnects(t *testing.T) {
	h := newHarness(agentStep(), &fakeDialer{transport: &fakeTransport{}}, nil)
	if err := h.session.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if h.session.State() != StateConnected {
		t.Errorf("expected connected state, got %q", h.session.State())
	}
	if err := h.session.Start(context.Background()); err != ErrAlreadyStarted {
		t.Errorf("second start should be rejected, got %v", err)
	}
}

func TestStartSignedURLFailure(t *testing.T) {
	h := newHarness(agentStep(), &fakeDialer{transport: &fakeTransport{}}, errors.New("403 forbidden"))
	if err := h.session.Start(context.Background()); err == nil {
		t.Fatal("expected signed URL error")
	}
	if h.session.State() != StateDisconnected {
		t.Errorf("failed start should reset to disconnected, got %q", h.session.State())
	}
	if len(h.errors) != 1 {
		t.Errorf("error callback should fire once, got %d", len(h.errors))
	}
	// A failed start is not terminal; the session can start again.
	h.urlErr = nil
	if err := h.session.Start(context.Background()); err != nil {
		t.Errorf("restart after failure should work: %v", err)
	}
}

func TestSendTextRequiresConnection(t *testing.T) {
	h := newHarness(agentStep(), &fakeDialer{transport: &fakeTransport{}}, nil)
	if err := h.session.SendText("hello"); err != ErrNotConnected {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if err := h.session.SendText("   "); err != nil {
		t.Errorf("blank text should be a silent no-op, got %v", err)
	}
}

func TestSendTextOptimisticAppend(t *testing.T) {
	transport := &fakeTransport{}
	h := newHarness(agentStep(), &fakeDialer{transport: transport}, nil)
	if err := h.session.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if err := h.session.SendText("  my answer  "); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if len(h.messages) != 1 {
		t.Fatalf("expected one optimistic message, got %d", len(h.messages))
	}
	msg := h.messages[0]
	if msg.source != models.SourceUser || msg.text != "my answer" {
		t.Errorf("unexpected message: %+v", msg)
	}
	if msg.stepID != "q1-agent" || msg.questionKey != models.QuestionAttracts {
		t.Errorf("message not tagged with step/key: %+v", msg)
	}
	if len(transport.sent) != 1 || transport.sent[0] != "my answer" {
		t.Errorf("transport should carry the trimmed text: %v", transport.sent)
	}
}

func TestSendTextFailureKeepsAppendedMessage(t *testing.T) {
	transport := &fakeTransport{sendErr: errors.New("pipe broken")}
	h := newHarness(agentStep(), &fakeDialer{transport: transport}, nil)
	if err := h.session.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if err := h.session.SendText("my answer"); err == nil {
		t.Fatal("expected send failure")
	}
	if len(h.messages) != 1 {
		t.Errorf("optimistic message must survive the failure, got %d", len(h.messages))
	}
	if len(h.errors) != 1 {
		t.Errorf("error callback should fire once, got %d", len(h.errors))
	}
}

func TestInboundMessages(t *testing.T) {
	h := newHarness(agentStep(), &fakeDialer{transport: &fakeTransport{}}, nil)
	if err := h.session.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	h.dialer.onPayload(InboundPayload{Source: "assistant", Message: "Tell me more."})
	h.dialer.onPayload(InboundPayload{Source: "user", Message: "echo of my own words"})
	h.dialer.onPayload(InboundPayload{Source: "ai", Text: "   "})

	if len(h.messages) != 1 {
		t.Fatalf("only the agent message should be recorded, got %d", len(h.messages))
	}
	msg := h.messages[0]
	if msg.source != models.SourceAI || msg.text != "Tell me more." {
		t.Errorf("unexpected inbound message: %+v", msg)
	}
}

func TestEndTeardown(t *testing.T) {
	transport := &fakeTransport{}
	h := newHarness(agentStep(), &fakeDialer{transport: transport}, nil)
	if err := h.session.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	h.session.End()
	if h.session.State() != StateDisconnected {
		t.Errorf("end should disconnect, got %q", h.session.State())
	}
	if transport.closed != 1 {
		t.Errorf("transport should be closed once, got %d", transport.closed)
	}
	h.session.End()
	if transport.closed != 1 {
		t.Errorf("repeated End must not close again, got %d", transport.closed)
	}
	if err := h.session.SendText("late"); err != ErrNotConnected {
		t.Errorf("send after End should fail, got %v", err)
	}
}

func TestRemoteCloseSurfacesError(t *testing.T) {
	h := newHarness(agentStep(), &fakeDialer{transport: &fakeTransport{}}, nil)
	if err := h.session.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	h.dialer.onClosed(errors.New("connection reset"))
	if h.session.State() != StateDisconnected {
		t.Errorf("remote close should disconnect, got %q", h.session.State())
	}
	if len(h.errors) != 1 {
		t.Errorf("abnormal close should surface one error, got %d", len(h.errors))
	}

	// Orderly close reports nothing.
	h2 := newHarness(agentStep(), &fakeDialer{transport: &fakeTransport{}}, nil)
	if err := h2.session.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	h2.dialer.onClosed(nil)
	if len(h2.errors) != 0 {
		t.Errorf("orderly close should not surface errors, got %d", len(h2.errors))
	}
}
