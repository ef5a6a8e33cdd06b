// Package models defines the core data structures for reflectd.
//
// It includes transcript messages, question keys, rubric score types, and the
// request/record shapes shared by the API, scoring, and store modules.
package models

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
)

// MessageSource identifies who produced a transcript message.
type MessageSource string

const (
	// SourceUser marks a message typed by the candidate.
	SourceUser MessageSource = "user"
	// SourceAI marks a message produced by the coaching agent.
	SourceAI MessageSource = "ai"
)

// IsValidMessageSource checks if the given source is supported.
func IsValidMessageSource(src MessageSource) bool {
	return src == SourceUser || src == SourceAI
}

// NormalizeSource maps inbound agent payload sources onto the transcript model.
// "assistant" is treated as "ai"; unknown sources default to "ai".
func NormalizeSource(raw string) MessageSource {
	if raw == string(SourceUser) {
		return SourceUser
	}
	return SourceAI
}

// QuestionKey tags which reflection prompt a message or score belongs to.
type QuestionKey string

const (
	QuestionAttracts      QuestionKey = "q1_attracts"
	QuestionConcerns      QuestionKey = "q2_concerns"
	QuestionQuestions     QuestionKey = "q3_questions"
	QuestionDirectSkills  QuestionKey = "q4_direct_skills"
	QuestionImproveSkills QuestionKey = "q5_improve_skills"
	QuestionConnect       QuestionKey = "q6_connect"
)

// QuestionKeys returns the six question keys in prompt order.
func QuestionKeys() []QuestionKey {
	return []QuestionKey{
		QuestionAttracts,
		QuestionConcerns,
		QuestionQuestions,
		QuestionDirectSkills,
		QuestionImproveSkills,
		QuestionConnect,
	}
}

// IsValidQuestionKey checks if the given question key is one of the six fixed values.
func IsValidQuestionKey(key QuestionKey) bool {
	switch key {
	case QuestionAttracts, QuestionConcerns, QuestionQuestions,
		QuestionDirectSkills, QuestionImproveSkills, QuestionConnect:
		return true
	default:
		return false
	}
}

// Error variables for better error handling and testability
var (
	ErrEmptyMessageID     = errors.New("message id cannot be empty")
	ErrEmptyMessage       = errors.New("message text cannot be empty")
	ErrInvalidSource      = errors.New("message source must be \"user\" or \"ai\"")
	ErrInvalidSessionID   = errors.New("session id must be a UUID")
	ErrEmptyTranscript    = errors.New("transcript cannot be empty")
	ErrInvalidQuestionKey = errors.New("invalid question key")
	ErrInvalidProvider    = errors.New("invalid provider")
	ErrInvalidEmail       = errors.New("invalid candidate email")
	ErrEmptyAgentID       = errors.New("agent id cannot be empty")
)

// TranscriptMessage is one utterance in a reflection session. Messages are
// immutable once created; session ordering is insertion order.
type TranscriptMessage struct {
	ID          string        `json:"id"`
	Source      MessageSource `json:"source"`
	Message     string        `json:"message"`
	Timestamp   string        `json:"timestamp,omitempty"`
	StepID      string        `json:"stepId,omitempty"`
	QuestionKey QuestionKey   `json:"questionKey,omitempty"`
}

// Validate checks the fields every persisted or scored message must carry.
func (m *TranscriptMessage) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return ErrEmptyMessageID
	}
	if !IsValidMessageSource(m.Source) {
		return ErrInvalidSource
	}
	if m.QuestionKey != "" && !IsValidQuestionKey(m.QuestionKey) {
		return ErrInvalidQuestionKey
	}
	return nil
}

// QuestionScore holds the four rubric ratings plus evidence bullets for one
// question. Ratings are semantically 1-10 but not range-enforced.
type QuestionScore struct {
	ScoreContent               int      `json:"score_content"`
	ScoreCommunicationClarity  int      `json:"score_communication_clarity"`
	ScoreConcisenessEfficiency int      `json:"score_conciseness_efficiency"`
	ScoreSpecificity           int      `json:"score_specificity"`
	Strengths                  []string `json:"strengths"`
	Weaknesses                 []string `json:"weaknesses"`
}

// ZeroQuestionScore returns the all-zero/empty sentinel used when a question
// was not scored. The slices are non-nil so the sentinel marshals as [].
func ZeroQuestionScore() QuestionScore {
	return QuestionScore{Strengths: []string{}, Weaknesses: []string{}}
}

// IsZero reports whether the score equals the unsanitized sentinel.
func (q QuestionScore) IsZero() bool {
	return q.ScoreContent == 0 && q.ScoreCommunicationClarity == 0 &&
		q.ScoreConcisenessEfficiency == 0 && q.ScoreSpecificity == 0 &&
		len(q.Strengths) == 0 && len(q.Weaknesses) == 0
}

// ScoreAnalysis maps each of the six question keys to a QuestionScore. RawText
// carries truncated raw model output when parsing failed.
type ScoreAnalysis struct {
	Questions map[QuestionKey]QuestionScore `json:"questions"`
	RawText   string                        `json:"rawText,omitempty"`
}

// Validate checks that the analysis covers exactly the six question keys.
func (a *ScoreAnalysis) Validate() error {
	if len(a.Questions) != len(QuestionKeys()) {
		return errors.New("analysis must cover exactly six questions")
	}
	for _, key := range QuestionKeys() {
		if _, ok := a.Questions[key]; !ok {
			return ErrInvalidQuestionKey
		}
	}
	return nil
}

// Provider identifies an LLM scoring provider.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// IsValidProvider checks if the given provider is supported.
func IsValidProvider(p Provider) bool {
	return p == ProviderOpenAI || p == ProviderAnthropic
}

// ScoreRequest is the payload for POST /api/score.
type ScoreRequest struct {
	Transcript     []TranscriptMessage `json:"transcript"`
	SessionID      string              `json:"sessionId,omitempty"`
	AgentID        string              `json:"agentId,omitempty"`
	CandidateName  string              `json:"candidateName,omitempty"`
	CandidateEmail string              `json:"candidateEmail,omitempty"`
	Summary        string              `json:"summary,omitempty"`
	Provider       Provider            `json:"provider,omitempty"`
	QuestionKey    QuestionKey         `json:"questionKey,omitempty"`
}

// Validate returns field-level validation problems, empty when the request is
// valid. Scoring is stricter than session persistence: every message must
// carry non-empty text, and a supplied session id must be a UUID.
func (r *ScoreRequest) Validate() []string {
	var details []string
	if len(r.Transcript) == 0 {
		details = append(details, "transcript: "+ErrEmptyTranscript.Error())
	}
	for i := range r.Transcript {
		err := r.Transcript[i].Validate()
		if err == nil && r.Transcript[i].Message == "" {
			err = ErrEmptyMessage
		}
		if err != nil {
			details = append(details, "transcript: "+err.Error())
			break
		}
	}
	if r.SessionID != "" {
		if _, err := uuid.Parse(r.SessionID); err != nil {
			details = append(details, "sessionId: "+ErrInvalidSessionID.Error())
		}
	}
	if r.Provider != "" && !IsValidProvider(r.Provider) {
		details = append(details, "provider: "+ErrInvalidProvider.Error())
	}
	if r.QuestionKey != "" && !IsValidQuestionKey(r.QuestionKey) {
		details = append(details, "questionKey: "+ErrInvalidQuestionKey.Error())
	}
	if r.CandidateEmail != "" {
		if _, err := mail.ParseAddress(r.CandidateEmail); err != nil {
			details = append(details, "candidateEmail: "+ErrInvalidEmail.Error())
		}
	}
	return details
}

// SessionRequest is the payload for POST /api/{slug}/session.
type SessionRequest struct {
	CandidateName  string              `json:"candidateName,omitempty"`
	CandidateEmail string              `json:"candidateEmail,omitempty"`
	Transcript     []TranscriptMessage `json:"transcript"`
}

// Validate performs validation on a session persistence request.
func (r *SessionRequest) Validate() error {
	if len(r.Transcript) == 0 {
		return ErrEmptyTranscript
	}
	for i := range r.Transcript {
		if err := r.Transcript[i].Validate(); err != nil {
			return err
		}
	}
	if r.CandidateEmail != "" {
		if _, err := mail.ParseAddress(strings.TrimSpace(r.CandidateEmail)); err != nil {
			return ErrInvalidEmail
		}
	}
	return nil
}

// SessionRecord is a persisted reflection session.
type SessionRecord struct {
	ID             string              `json:"id,omitempty"`
	AgentID        string              `json:"agent_id,omitempty"`
	CandidateName  string              `json:"candidate_name,omitempty"`
	CandidateEmail string              `json:"candidate_email,omitempty"`
	Transcript     []TranscriptMessage `json:"transcript"`
}

// ScoreRecord is a persisted rubric evaluation referencing a session.
type ScoreRecord struct {
	SessionID     string        `json:"session_id"`
	RubricVersion string        `json:"rubric_version"`
	Scores        ScoreAnalysis `json:"scores"`
	ModelUsed     string        `json:"model_used"`
	Reasoning     string        `json:"reasoning,omitempty"`
}
