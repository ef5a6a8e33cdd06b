package genai

import (
	"context"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/creanalyst/reflectd/internal/models"
)

// ScoreResult is the outcome of a single provider invocation.
type ScoreResult struct {
	Analysis     models.ScoreAnalysis
	ModelUsed    string
	UsedFallback bool
	RawText      string
}

// Scorer scores a transcript against the rubric with one provider.
type Scorer interface {
	Provider() models.Provider
	Score(ctx context.Context, transcript []models.TranscriptMessage, summary string, questionKey models.QuestionKey) (ScoreResult, error)
}

// openAIChatService is the minimal surface of the OpenAI chat completion
// client, extracted for mocking.
type openAIChatService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAIScorer scores transcripts with the OpenAI chat completion API.
type OpenAIScorer struct {
	chat  openAIChatService
	model string
}

// NewOpenAIScorer creates an OpenAI scorer. When apiKey is empty the scorer
// stays usable and Score returns a fallback analysis instead of failing,
// matching the degradation contract for unconfigured providers.
func NewOpenAIScorer(apiKey, model string) *OpenAIScorer {
	if model == "" {
		model = "gpt-4o-mini"
	}
	s := &OpenAIScorer{model: model}
	if apiKey != "" {
		client := openai.NewClient(option.WithAPIKey(apiKey))
		s.chat = &client.Chat.Completions
	}
	return s
}

// Provider implements Scorer.
func (s *OpenAIScorer) Provider() models.Provider { return models.ProviderOpenAI }

// Score implements Scorer. The request runs at temperature 0 with JSON-biased
// output; malformed responses degrade to a fallback analysis rather than an error.
func (s *OpenAIScorer) Score(ctx context.Context, transcript []models.TranscriptMessage, summary string, questionKey models.QuestionKey) (ScoreResult, error) {
	if s.chat == nil {
		slog.Warn("OpenAIScorer.Score: no API key configured, returning fallback analysis")
		return ScoreResult{
			Analysis:     EmptyAnalysis(),
			ModelUsed:    "fallback-missing-openai-key",
			UsedFallback: true,
		}, nil
	}

	prompt := RubricPrompt(transcript, summary, questionKey)
	completion, err := s.chat.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(s.model),
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Temperature: openai.Float(0),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return ScoreResult{}, err
	}

	text := ""
	if len(completion.Choices) > 0 {
		text = completion.Choices[0].Message.Content
	}
	parsed := SafeParseAnalysis(text)
	return ScoreResult{
		Analysis:     parsed,
		ModelUsed:    s.model,
		UsedFallback: parsed.RawText != "",
		RawText:      text,
	}, nil
}
