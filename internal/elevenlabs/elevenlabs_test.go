package elevenlabs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestConfigured(t *testing.T) {
	if NewClient("").Configured() {
		t.Error("empty key should not be configured")
	}
	if !NewClient("key").Configured() {
		t.Error("non-empty key should be configured")
	}
}

func TestFetchSignedURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != signedURLPath {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "secret" {
			t.Errorf("missing api key header")
		}
		if got := r.URL.Query().Get("agent_id"); got != "agent_123" {
			t.Errorf("unexpected agent id %q", got)
		}
		json.NewEncoder(w).Encode(map[string]string{"signed_url": "wss://example.com/conv?token=abc"})
	}))
	defer srv.Close()

	client := NewClient("secret", WithBaseURL(srv.URL))
	got, err := client.FetchSignedURL(context.Background(), "agent_123")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "wss://example.com/conv?token=abc" {
		t.Errorf("signed url mismatch: %q", got)
	}
}

func TestFetchSignedURLUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"agent not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient("secret", WithBaseURL(srv.URL))
	_, err := client.FetchSignedURL(context.Background(), "agent_missing")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestFetchSignedURLEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	client := NewClient("secret", WithBaseURL(srv.URL))
	if _, err := client.FetchSignedURL(context.Background(), "agent_123"); err == nil {
		t.Error("missing signed_url field should be an error")
	}
}

func TestCoachReply(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != chatPath {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"output": []map[string]string{{"content": "Name one concrete deal you worked on."}},
		})
	}))
	defer srv.Close()

	client := NewClient("secret", WithBaseURL(srv.URL))
	reply, err := client.CoachReply(context.Background(), "What attracts you?", "I like deals.", "agent_123")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if reply != "Name one concrete deal you worked on." {
		t.Errorf("reply mismatch: %q", reply)
	}
	if captured.AgentID != "agent_123" {
		t.Errorf("agent id not forwarded: %q", captured.AgentID)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Fatalf("unexpected messages: %+v", captured.Messages)
	}
	if !strings.Contains(captured.Messages[1].Content, "User answer: I like deals.") {
		t.Errorf("user message not embedded: %q", captured.Messages[1].Content)
	}
}

func TestCoachReplyAlternateShapes(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"message":"Good start."}`, "Good start."},
		{`{"reply":"Add a number."}`, "Add a number."},
		{`{"output":[]}`, ""},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(tc.body))
		}))
		client := NewClient("secret", WithBaseURL(srv.URL))
		reply, err := client.CoachReply(context.Background(), "q", "a", "agent")
		srv.Close()
		if err != nil {
			t.Errorf("body %q: unexpected error %v", tc.body, err)
			continue
		}
		if reply != tc.want {
			t.Errorf("body %q: reply %q, want %q", tc.body, reply, tc.want)
		}
	}
}
