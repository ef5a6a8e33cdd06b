package genai

import (
	"context"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/creanalyst/reflectd/internal/models"
)

// anthropicMessageService is the minimal surface of the Anthropic messages
// client, extracted for mocking.
type anthropicMessageService interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicScorer scores transcripts with the Anthropic messages API.
type AnthropicScorer struct {
	messages anthropicMessageService
	model    string
}

// NewAnthropicScorer creates an Anthropic scorer. When apiKey is empty the
// scorer stays usable and Score returns a fallback analysis instead of failing.
func NewAnthropicScorer(apiKey, model string) *AnthropicScorer {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	s := &AnthropicScorer{model: model}
	if apiKey != "" {
		client := anthropic.NewClient(option.WithAPIKey(apiKey))
		s.messages = &client.Messages
	}
	return s
}

// Provider implements Scorer.
func (s *AnthropicScorer) Provider() models.Provider { return models.ProviderAnthropic }

// Score implements Scorer.
func (s *AnthropicScorer) Score(ctx context.Context, transcript []models.TranscriptMessage, summary string, questionKey models.QuestionKey) (ScoreResult, error) {
	if s.messages == nil {
		slog.Warn("AnthropicScorer.Score: no API key configured, returning fallback analysis")
		return ScoreResult{
			Analysis:     EmptyAnalysis(),
			ModelUsed:    "fallback-missing-anthropic-key",
			UsedFallback: true,
		}, nil
	}

	prompt := RubricPrompt(transcript, summary, questionKey)
	resp, err := s.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(s.model),
		MaxTokens:   1024,
		Temperature: anthropic.Float(0),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return ScoreResult{}, err
	}

	text := ""
	for _, block := range resp.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	parsed := SafeParseAnalysis(text)
	return ScoreResult{
		Analysis:     parsed,
		ModelUsed:    s.model,
		UsedFallback: parsed.RawText != "",
		RawText:      text,
	}, nil
}
