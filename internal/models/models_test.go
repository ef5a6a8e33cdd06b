package models

import (
	"strings"
	"testing"
)

func TestNormalizeSource(t *testing.T) {
	cases := map[string]MessageSource{
		"user":      SourceUser,
		"ai":        SourceAI,
		"assistant": SourceAI,
		"system":    SourceAI,
		"":          SourceAI,
	}
	for raw, want := range cases {
		if got := NormalizeSource(raw); got != want {
			t.Errorf("NormalizeSource(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestTranscriptMessageValidate(t *testing.T) {
	msg := TranscriptMessage{ID: "m1", Source: SourceUser, Message: "hello"}
	if err := msg.Validate(); err != nil {
		t.Errorf("valid message rejected: %v", err)
	}

	msg.ID = "  "
	if err := msg.Validate(); err != ErrEmptyMessageID {
		t.Errorf("expected ErrEmptyMessageID, got %v", err)
	}

	msg.ID = "m1"
	msg.Source = "assistant"
	if err := msg.Validate(); err != ErrInvalidSource {
		t.Errorf("expected ErrInvalidSource, got %v", err)
	}

	msg.Source = SourceAI
	msg.QuestionKey = "q9_unknown"
	if err := msg.Validate(); err != ErrInvalidQuestionKey {
		t.Errorf("expected ErrInvalidQuestionKey, got %v", err)
	}
}

func TestQuestionKeys(t *testing.T) {
	keys := QuestionKeys()
	if len(keys) != 6 {
		t.Fatalf("expected 6 question keys, got %d", len(keys))
	}
	if keys[0] != QuestionAttracts || keys[5] != QuestionConnect {
		t.Errorf("question keys out of order: %v", keys)
	}
	for _, key := range keys {
		if !IsValidQuestionKey(key) {
			t.Errorf("key %q should be valid", key)
		}
	}
	if IsValidQuestionKey("q7_extra") {
		t.Error("unexpected key accepted")
	}
}

func TestZeroQuestionScore(t *testing.T) {
	zero := ZeroQuestionScore()
	if !zero.IsZero() {
		t.Error("sentinel should report IsZero")
	}
	if zero.Strengths == nil || zero.Weaknesses == nil {
		t.Error("sentinel slices must be non-nil so they marshal as []")
	}
	scored := QuestionScore{ScoreContent: 5, Strengths: []string{}, Weaknesses: []string{}}
	if scored.IsZero() {
		t.Error("scored question should not report IsZero")
	}
}

func TestScoreAnalysisValidate(t *testing.T) {
	analysis := ScoreAnalysis{Questions: map[QuestionKey]QuestionScore{}}
	for _, key := range QuestionKeys() {
		analysis.Questions[key] = ZeroQuestionScore()
	}
	if err := analysis.Validate(); err != nil {
		t.Errorf("complete analysis rejected: %v", err)
	}

	delete(analysis.Questions, QuestionConnect)
	if err := analysis.Validate(); err == nil {
		t.Error("expected error for missing question key")
	}

	analysis.Questions["q7_extra"] = ZeroQuestionScore()
	if err := analysis.Validate(); err == nil {
		t.Error("expected error for foreign question key")
	}
}

func TestScoreRequestValidate(t *testing.T) {
	valid := ScoreRequest{
		Transcript: []TranscriptMessage{{ID: "m1", Source: SourceUser, Message: "hi"}},
	}
	if details := valid.Validate(); len(details) != 0 {
		t.Errorf("valid request rejected: %v", details)
	}

	bad := ScoreRequest{
		Transcript:     []TranscriptMessage{{ID: "", Source: "bot"}},
		Provider:       "gemini",
		QuestionKey:    "q0_none",
		CandidateEmail: "not-an-email",
	}
	details := bad.Validate()
	if len(details) != 4 {
		t.Fatalf("expected 4 validation details, got %d: %v", len(details), details)
	}
	for _, prefix := range []string{"transcript:", "provider:", "questionKey:", "candidateEmail:"} {
		found := false
		for _, d := range details {
			if strings.HasPrefix(d, prefix) {
				found = true
			}
		}
		if !found {
			t.Errorf("missing detail with prefix %q in %v", prefix, details)
		}
	}
}

func TestScoreRequestValidateEmptyMessageText(t *testing.T) {
	req := ScoreRequest{
		Transcript: []TranscriptMessage{{ID: "m1", Source: SourceUser, Message: ""}},
	}
	details := req.Validate()
	if len(details) != 1 || !strings.Contains(details[0], ErrEmptyMessage.Error()) {
		t.Errorf("empty message text should be rejected on the score path, got %v", details)
	}
}

func TestScoreRequestValidateSessionID(t *testing.T) {
	req := ScoreRequest{
		Transcript: []TranscriptMessage{{ID: "m1", Source: SourceUser, Message: "hi"}},
		SessionID:  "not-a-uuid",
	}
	details := req.Validate()
	if len(details) != 1 || !strings.Contains(details[0], "sessionId") {
		t.Errorf("non-UUID session id should be rejected, got %v", details)
	}

	req.SessionID = "2b7ef9a0-64f1-4b39-9a2e-61a3f0c0b6d4"
	if details := req.Validate(); len(details) != 0 {
		t.Errorf("UUID session id should be accepted, got %v", details)
	}
}

func TestScoreRequestValidateEmptyTranscript(t *testing.T) {
	req := ScoreRequest{}
	details := req.Validate()
	if len(details) != 1 || !strings.Contains(details[0], "transcript") {
		t.Errorf("expected single transcript detail, got %v", details)
	}
}

func TestSessionRequestValidate(t *testing.T) {
	req := SessionRequest{
		CandidateName:  "Jordan",
		CandidateEmail: "jordan@example.com",
		Transcript:     []TranscriptMessage{{ID: "m1", Source: SourceAI, Message: "welcome"}},
	}
	if err := req.Validate(); err != nil {
		t.Errorf("valid request rejected: %v", err)
	}

	req.Transcript = nil
	if err := req.Validate(); err != ErrEmptyTranscript {
		t.Errorf("expected ErrEmptyTranscript, got %v", err)
	}

	req.Transcript = []TranscriptMessage{{ID: "m1", Source: SourceAI, Message: "welcome"}}
	req.CandidateEmail = "nope"
	if err := req.Validate(); err != ErrInvalidEmail {
		t.Errorf("expected ErrInvalidEmail, got %v", err)
	}

	// Session persistence tolerates empty message text, unlike scoring.
	req.CandidateEmail = "jordan@example.com"
	req.Transcript = []TranscriptMessage{{ID: "m1", Source: SourceAI, Message: ""}}
	if err := req.Validate(); err != nil {
		t.Errorf("empty message text should be allowed when persisting a session, got %v", err)
	}
}
