package domain

import "strings"

// SuccessFeedback is the fixed message for a submission with no findings
const SuccessFeedback = "✅ PASS: Code looks good!"

// RuleID identifies a rule of the rule-based validator
type RuleID string

const (
	RuleDate  RuleID = "date"
	RulePunct RuleID = "punct"
	RuleNull  RuleID = "null"
)

// Finding is a single rule violation
type Finding struct {
	Rule    RuleID   `json:"rule"`
	Message string   `json:"message"`
	Matches []string `json:"matches,omitempty"`
}

// Verdict is the outcome of validating a submission
type Verdict struct {
	IsCorrect bool      `json:"is_correct"`
	Feedback  string    `json:"feedback"`
	Findings  []Finding `json:"findings,omitempty"`
	Reviewer  string    `json:"reviewer"`
}

// VerdictFromFindings builds a rule-based verdict. Feedback lists the finding
// messages in the order given, or the success message when there are none.
func VerdictFromFindings(reviewer string, findings []Finding) Verdict {
	if len(findings) == 0 {
		return Verdict{IsCorrect: true, Feedback: SuccessFeedback, Reviewer: reviewer}
	}

	messages := make([]string, len(findings))
	for i, f := range findings {
		messages[i] = f.Message
	}
	return Verdict{
		IsCorrect: false,
		Feedback:  strings.Join(messages, "\n"),
		Findings:  findings,
		Reviewer:  reviewer,
	}
}
