package genai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/creanalyst/reflectd/internal/models"
)

// mockChatService implements openAIChatService for testing.
type mockChatService struct {
	resp       *openai.ChatCompletion
	err        error
	lastParams openai.ChatCompletionNewParams
}

func (m *mockChatService) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	m.lastParams = params
	return m.resp, m.err
}

func TestOpenAIScore_Success(t *testing.T) {
	text := analysisJSON(t, models.QuestionAttracts, 8)
	mock := &mockChatService{resp: &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: text}},
		},
	}}
	scorer := &OpenAIScorer{chat: mock, model: "gpt-4o-mini"}

	result, err := scorer.Score(context.Background(), sampleTranscript(), "", models.QuestionAttracts)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.ModelUsed != "gpt-4o-mini" || result.UsedFallback {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.Analysis.Questions[models.QuestionAttracts].ScoreContent != 8 {
		t.Errorf("score not parsed: %+v", result.Analysis.Questions[models.QuestionAttracts])
	}
	if mock.lastParams.Model != "gpt-4o-mini" {
		t.Errorf("model param mismatch: %q", mock.lastParams.Model)
	}
	if !strings.Contains(mock.lastParams.Messages[0].OfUser.Content.OfString.Value, "q1_attracts") {
		t.Error("prompt should carry the target question key")
	}
}

func TestOpenAIScore_ServiceError(t *testing.T) {
	scorer := &OpenAIScorer{chat: &mockChatService{err: errors.New("service failure")}, model: "gpt-4o-mini"}
	_, err := scorer.Score(context.Background(), sampleTranscript(), "", "")
	if err == nil || !strings.Contains(err.Error(), "service failure") {
		t.Errorf("expected service failure error, got %v", err)
	}
}

func TestOpenAIScore_MalformedOutput(t *testing.T) {
	mock := &mockChatService{resp: &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: "I cannot produce JSON today."}},
		},
	}}
	scorer := &OpenAIScorer{chat: mock, model: "gpt-4o-mini"}

	result, err := scorer.Score(context.Background(), sampleTranscript(), "", "")
	if err != nil {
		t.Fatalf("malformed output should not error: %v", err)
	}
	if !result.UsedFallback {
		t.Error("malformed output should be marked as fallback")
	}
	if result.Analysis.RawText == "" {
		t.Error("fallback analysis should carry raw text")
	}
}

func TestOpenAIScore_NoKey(t *testing.T) {
	scorer := NewOpenAIScorer("", "")
	result, err := scorer.Score(context.Background(), sampleTranscript(), "", "")
	if err != nil {
		t.Fatalf("missing key should degrade, not fail: %v", err)
	}
	if result.ModelUsed != "fallback-missing-openai-key" || !result.UsedFallback {
		t.Errorf("unexpected fallback result: %+v", result)
	}
	if err := result.Analysis.Validate(); err != nil {
		t.Errorf("fallback analysis should be complete: %v", err)
	}
}
