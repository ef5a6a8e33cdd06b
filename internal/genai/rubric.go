// Package genai implements rubric-based transcript scoring against LLM
// providers, with strict response parsing, graceful degradation to an all-zero
// analysis, and a one-shot cross-provider retry.
package genai

import (
	"strings"

	"github.com/creanalyst/reflectd/internal/models"
)

// RubricVersion is recorded with every persisted score row.
const RubricVersion = "cre-career-path-rubric-v1"

// RubricDimension describes one scored question for display purposes.
type RubricDimension struct {
	Key    models.QuestionKey
	Label  string
	Detail string
}

// RubricDimensions lists the six scored questions with their content expectations.
var RubricDimensions = []RubricDimension{
	{
		Key:    models.QuestionAttracts,
		Label:  "Attraction to pathway",
		Detail: "Genuine and thoughtful reasons for pursuing the pathway, aligning with core values and long-term goals.",
	},
	{
		Key:    models.QuestionConcerns,
		Label:  "Concerns/Risks",
		Detail: "Self-aware and constructive articulation of potential challenges or risks, showing mitigation strategies.",
	},
	{
		Key:    models.QuestionQuestions,
		Label:  "Questions/Curiosities",
		Detail: "Quality of questions and curiosities asked, demonstrating deep research and intellectual curiosity about the role or industry.",
	},
	{
		Key:    models.QuestionDirectSkills,
		Label:  "Directly Applicable Skills",
		Detail: "Clear, concise examples of direct skills/traits (hard or soft) that immediately apply to the new role.",
	},
	{
		Key:    models.QuestionImproveSkills,
		Label:  "Improvement Areas",
		Detail: "Honest and specific identification of areas for development, linked to a concrete plan for improvement.",
	},
	{
		Key:    models.QuestionConnect,
		Label:  "Networking Strategy",
		Detail: "Strategic and appropriate networking targets or methods that align with the pathway.",
	},
}

// JoinTranscript renders a transcript as "speaker: message" lines for prompt
// embedding.
func JoinTranscript(transcript []models.TranscriptMessage) string {
	lines := make([]string, 0, len(transcript))
	for _, msg := range transcript {
		speaker := "Candidate"
		if msg.Source == models.SourceAI {
			speaker = "Interviewer"
		}
		lines = append(lines, speaker+": "+msg.Message)
	}
	return strings.Join(lines, "\n")
}

const emptyQuestionJSON = `{
      "score_content": 0,
      "score_communication_clarity": 0,
      "score_conciseness_efficiency": 0,
      "score_specificity": 0,
      "strengths": [],
      "weaknesses": []
    }`

// RubricPrompt builds the deterministic scoring prompt embedding the
// transcript, optional summary, and the target question key ("all" semantics
// when absent). The prompt instructs the model to score only the target
// question and zero all others.
func RubricPrompt(transcript []models.TranscriptMessage, summary string, questionKey models.QuestionKey) string {
	var b strings.Builder
	b.WriteString(`
You are a career reflection coach scoring written answers. Score *one question at a time* when a questionKey is provided. Only score the supplied question; leave all other questions at 0 with empty strengths/weaknesses.

When writing strengths or weaknesses, cite specific evidence from the candidate's answer. Pull in short quotes or paraphrased snippets from the transcript (e.g., "Mentioned cap rates tightening to 5.5%") so the candidate can see exactly what to repeat or fix.

Scoring system (use numbers 1–10):
8–10 = strongly meets criteria
4–6 = partially meets criteria
1-3 = poor performance

Return strict JSON matching exactly:
{
  "questions": {
`)
	keys := models.QuestionKeys()
	for i, key := range keys {
		b.WriteString(`    "` + string(key) + `": ` + emptyQuestionJSON)
		if i < len(keys)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("  }\n}\n\n# Transcript:\n")
	b.WriteString(JoinTranscript(transcript))

	b.WriteString("\n\n# Summary (if provided):\n")
	if summary != "" {
		b.WriteString(summary)
	} else {
		b.WriteString("N/A")
	}

	b.WriteString("\n\nQuestion to score (questionKey): ")
	if questionKey != "" {
		b.WriteString(string(questionKey))
	} else {
		b.WriteString("all (if provided) but only score the provided key")
	}

	b.WriteString(`

# Field Definitions per question:
- score_content: quality and correctness of the answer for this question.
- score_communication_clarity: structure, organization, and clarity for this question.
- score_conciseness_efficiency: brevity and efficiency for this question.
- score_specificity: relevance and concreteness of details for this question.
- strengths: 2–4 concise bullet strings about what went well for this question and each bullet should reference a concrete quote or detail from the transcript.
- weaknesses: 2–4 concise bullet strings about what to improve for this question and each bullet should reference the specific phrase or section that needs work.

Question-specific content expectations:
`)
	for _, dim := range RubricDimensions {
		b.WriteString("- " + string(dim.Key) + ": " + dim.Detail + "\n")
	}
	return b.String()
}
