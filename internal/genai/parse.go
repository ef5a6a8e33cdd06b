package genai

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/creanalyst/reflectd/internal/models"
)

// maxRawTextLength caps the raw model output carried on a fallback analysis
// for diagnostics.
const maxRawTextLength = 1000

var codeFencePattern = regexp.MustCompile("```json|```")

// EmptyAnalysis returns the all-zero analysis used when scoring cannot be
// completed.
func EmptyAnalysis() models.ScoreAnalysis {
	questions := make(map[models.QuestionKey]models.QuestionScore, len(models.QuestionKeys()))
	for _, key := range models.QuestionKeys() {
		questions[key] = models.ZeroQuestionScore()
	}
	return models.ScoreAnalysis{Questions: questions}
}

// flexInt tolerates models that quote numeric fields ("7" instead of 7).
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	trimmed := strings.Trim(string(data), `"`)
	if trimmed == "" || trimmed == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return err
	}
	*n = flexInt(f)
	return nil
}

type rawQuestionScore struct {
	ScoreContent               flexInt  `json:"score_content"`
	ScoreCommunicationClarity  flexInt  `json:"score_communication_clarity"`
	ScoreConcisenessEfficiency flexInt  `json:"score_conciseness_efficiency"`
	ScoreSpecificity           flexInt  `json:"score_specificity"`
	Strengths                  []string `json:"strengths"`
	Weaknesses                 []string `json:"weaknesses"`
}

type rawAnalysis struct {
	Questions map[models.QuestionKey]rawQuestionScore `json:"questions"`
}

// SafeParseAnalysis parses raw model output into a score analysis. Markdown
// code fences are stripped before parsing. On any parse or schema failure it
// returns the all-zero analysis carrying the first kilobyte of raw text, so
// callers never see an error from malformed model output.
func SafeParseAnalysis(text string) models.ScoreAnalysis {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimSpace(codeFencePattern.ReplaceAllString(cleaned, ""))
	}

	var parsed rawAnalysis
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return fallbackAnalysis(cleaned)
	}
	if len(parsed.Questions) != len(models.QuestionKeys()) {
		return fallbackAnalysis(cleaned)
	}
	analysis := models.ScoreAnalysis{
		Questions: make(map[models.QuestionKey]models.QuestionScore, len(parsed.Questions)),
	}
	for _, key := range models.QuestionKeys() {
		raw, ok := parsed.Questions[key]
		if !ok {
			return fallbackAnalysis(cleaned)
		}
		score := models.QuestionScore{
			ScoreContent:               int(raw.ScoreContent),
			ScoreCommunicationClarity:  int(raw.ScoreCommunicationClarity),
			ScoreConcisenessEfficiency: int(raw.ScoreConcisenessEfficiency),
			ScoreSpecificity:           int(raw.ScoreSpecificity),
			Strengths:                  raw.Strengths,
			Weaknesses:                 raw.Weaknesses,
		}
		if score.Strengths == nil {
			score.Strengths = []string{}
		}
		if score.Weaknesses == nil {
			score.Weaknesses = []string{}
		}
		analysis.Questions[key] = score
	}
	return analysis
}

func fallbackAnalysis(cleaned string) models.ScoreAnalysis {
	analysis := EmptyAnalysis()
	if len(cleaned) > maxRawTextLength {
		cleaned = cleaned[:maxRawTextLength]
	}
	analysis.RawText = cleaned
	return analysis
}
