package genai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/creanalyst/reflectd/internal/models"
)

// Engine orchestrates transcript scoring: provider selection, single-question
// filtering, the Anthropic-to-OpenAI retry, and anti-hallucination
// normalization of the returned analysis.
type Engine struct {
	openAI          Scorer
	anthropic       Scorer
	defaultProvider models.Provider
}

// ScoreOutcome is the engine's result for one scoring request.
type ScoreOutcome struct {
	// Scores is the normalized analysis returned to the caller.
	Scores models.ScoreAnalysis
	// Analysis is the provider's analysis before normalization; persisted
	// records keep this form.
	Analysis     models.ScoreAnalysis
	ModelUsed    string
	UsedFallback bool
	RawText      string
}

// NewEngine creates a scoring engine over the two provider adapters.
func NewEngine(openAI, anthropic Scorer, defaultProvider models.Provider) *Engine {
	if !models.IsValidProvider(defaultProvider) {
		defaultProvider = models.ProviderAnthropic
	}
	return &Engine{openAI: openAI, anthropic: anthropic, defaultProvider: defaultProvider}
}

// FilterTranscript keeps messages tagged with the question key that carry a
// non-empty id and message. An empty key keeps the transcript unchanged.
func FilterTranscript(transcript []models.TranscriptMessage, questionKey models.QuestionKey) []models.TranscriptMessage {
	if questionKey == "" {
		return transcript
	}
	var filtered []models.TranscriptMessage
	for _, msg := range transcript {
		if msg.QuestionKey != questionKey {
			continue
		}
		if strings.TrimSpace(msg.ID) == "" || msg.Message == "" {
			continue
		}
		filtered = append(filtered, msg)
	}
	return filtered
}

// ScoreTranscript runs the full scoring pipeline for a validated request.
func (e *Engine) ScoreTranscript(ctx context.Context, req models.ScoreRequest) (ScoreOutcome, error) {
	filtered := FilterTranscript(req.Transcript, req.QuestionKey)
	// When the per-question filter matches nothing, score the full
	// transcript; the target question is zeroed during normalization below.
	forScoring := filtered
	if len(forScoring) == 0 {
		forScoring = req.Transcript
	}

	provider := req.Provider
	if provider == "" {
		provider = e.defaultProvider
	}
	scorer := e.scorerFor(provider)
	if scorer == nil {
		return ScoreOutcome{}, fmt.Errorf("no scorer configured for provider %s", provider)
	}

	result, err := scorer.Score(ctx, forScoring, req.Summary, req.QuestionKey)
	if err != nil {
		// One-shot retry against OpenAI when the Anthropic call itself
		// failed. There is no retry in the other direction.
		if provider != models.ProviderAnthropic || e.openAI == nil {
			return ScoreOutcome{}, err
		}
		slog.Warn("Engine.ScoreTranscript: anthropic call failed, retrying with openai", "error", err)
		result, err = e.openAI.Score(ctx, forScoring, req.Summary, req.QuestionKey)
		if err != nil {
			return ScoreOutcome{}, err
		}
		result.ModelUsed = result.ModelUsed + " (fallback from anthropic error)"
		result.UsedFallback = true
	}

	return ScoreOutcome{
		Scores:       normalize(result.Analysis, req.QuestionKey, len(filtered) == 0),
		Analysis:     result.Analysis,
		ModelUsed:    result.ModelUsed,
		UsedFallback: result.UsedFallback,
		RawText:      result.RawText,
	}, nil
}

func (e *Engine) scorerFor(provider models.Provider) Scorer {
	if provider == models.ProviderOpenAI {
		return e.openAI
	}
	return e.anthropic
}

// normalize forces every non-target question to the all-zero sentinel when
// scoring a single question, and zeroes the target too when the candidate gave
// no answer for it. This guards against hallucinated scores for questions the
// model was told to skip.
func normalize(analysis models.ScoreAnalysis, questionKey models.QuestionKey, filteredEmpty bool) models.ScoreAnalysis {
	normalized := models.ScoreAnalysis{
		Questions: make(map[models.QuestionKey]models.QuestionScore, len(models.QuestionKeys())),
		RawText:   analysis.RawText,
	}
	for key, score := range analysis.Questions {
		normalized.Questions[key] = score
	}
	for _, key := range models.QuestionKeys() {
		if _, ok := normalized.Questions[key]; !ok {
			normalized.Questions[key] = models.ZeroQuestionScore()
		}
	}
	if questionKey == "" {
		return normalized
	}
	for _, key := range models.QuestionKeys() {
		if key != questionKey {
			normalized.Questions[key] = models.ZeroQuestionScore()
		}
	}
	if filteredEmpty {
		normalized.Questions[questionKey] = models.ZeroQuestionScore()
	}
	return normalized
}
