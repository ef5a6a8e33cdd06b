// Package flow implements the reflection interview flow: step configuration,
// question-key derivation, timebox policy, the module registry, and the
// transcript/session state machine.
package flow

import (
	"regexp"
	"strconv"

	"github.com/creanalyst/reflectd/internal/models"
)

// StepType identifies the kind of a flow step.
type StepType string

const (
	StepTypeIntro    StepType = "intro"
	StepTypeQuestion StepType = "question"
	StepTypeAgent    StepType = "agent"
	StepTypeFinish   StepType = "finish"
)

// Step is one node in the fixed linear reflection flow. A flow is built once
// per module selection and is immutable afterwards.
type Step struct {
	ID            string
	Type          StepType
	Title         string
	Subtitle      string
	Description   string
	QuestionText  string
	AgentID       string
	SoftWarningMs int64
	HardStopMs    int64
	WrapUpLine    string
}

// IntroStepID and FinishStepID are the stable ids of the flow boundary steps.
const (
	IntroStepID  = "intro"
	FinishStepID = "finish"
)

// questionTexts are the fixed reflection prompts, one per agent step position.
var questionTexts = []string{
	"What attracts you to this pathway?",
	"What concerns you about this pathway?",
	"What questions and curiosities do you have?",
	"What skills or traits do you have that directly apply?",
	"What skills or traits do you need to improve on?",
	"Who can you connect with to learn about this path?",
}

// BuildFlow produces the ordered step list for a reflection interview: one
// intro step, one agent step per supplied agent id, and one finish step.
// An empty agent id is valid and means no live agent is configured for that
// prompt; the flow still carries the prompt for the text-only coaching path.
func BuildFlow(agentIDs []string) []Step {
	steps := make([]Step, 0, len(agentIDs)+2)
	steps = append(steps, Step{
		ID:       IntroStepID,
		Type:     StepTypeIntro,
		Title:    "Introduction and Instruction",
		Subtitle: "Meet Your AI Interview Coach",
		Description: "Reflect on six career pathway prompts in a text-first experience. " +
			"You'll write answers, get light AI follow-ups, and receive targeted feedback " +
			"on clarity, specificity, and alignment with your goals.",
	})
	for i, agentID := range agentIDs {
		n := strconv.Itoa(i + 1)
		title := "Talk to your AI Career Coach"
		if i == 0 {
			title = "Live Answer"
		}
		questionText := ""
		if i < len(questionTexts) {
			questionText = questionTexts[i]
		}
		steps = append(steps, Step{
			ID:            "q" + n + "-agent",
			Type:          StepTypeAgent,
			Title:         title,
			Description:   "Live answer with Agent " + n,
			QuestionText:  questionText,
			AgentID:       agentID,
			SoftWarningMs: DefaultSoftWarning.Milliseconds(),
			HardStopMs:    DefaultHardStop.Milliseconds(),
			WrapUpLine:    DefaultWrapUpLine,
		})
	}
	steps = append(steps, Step{
		ID:          FinishStepID,
		Type:        StepTypeFinish,
		Title:       "Finish",
		Description: "Wrap up and download your transcript.",
	})
	return steps
}

var stepIDPattern = regexp.MustCompile(`^q(\d)-`)

// QuestionKeyFromStepID derives the question key for a step id matching
// "q{n}-...". The second return value is false for any other id.
func QuestionKeyFromStepID(stepID string) (models.QuestionKey, bool) {
	match := stepIDPattern.FindStringSubmatch(stepID)
	if match == nil {
		return "", false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return "", false
	}
	keys := models.QuestionKeys()
	if n < 1 || n > len(keys) {
		return "", false
	}
	return keys[n-1], true
}
