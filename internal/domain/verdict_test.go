package domain

import "testing"

func TestVerdictFromFindings_NoFindings(t *testing.T) {
	v := VerdictFromFindings("rules", nil)

	if !v.IsCorrect {
		t.Error("IsCorrect = false; want true")
	}
	if v.Feedback != SuccessFeedback {
		t.Errorf("Feedback = %q; want %q", v.Feedback, SuccessFeedback)
	}
	if v.Reviewer != "rules" {
		t.Errorf("Reviewer = %q; want rules", v.Reviewer)
	}
}

func TestVerdictFromFindings_JoinsInOrder(t *testing.T) {
	v := VerdictFromFindings("rules", []Finding{
		{Rule: RuleDate, Message: "first"},
		{Rule: RuleNull, Message: "second"},
	})

	if v.IsCorrect {
		t.Error("IsCorrect = true; want false")
	}
	if v.Feedback != "first\nsecond" {
		t.Errorf("Feedback = %q; want %q", v.Feedback, "first\nsecond")
	}
	if len(v.Findings) != 2 {
		t.Errorf("len(Findings) = %d; want 2", len(v.Findings))
	}
}

func TestNewLogEntry(t *testing.T) {
	sub := Submission{PatternID: PatternNull, QuestionCode: "q", UserCode: "u"}
	entry := NewLogEntry("User1", sub, Verdict{IsCorrect: false, Feedback: "nope"})

	if entry.UserID != "User1" || entry.PatternID != PatternNull {
		t.Errorf("entry = %+v; want user User1 pattern P3", entry)
	}
	if entry.QuestionCode != "q" || entry.UserCode != "u" || entry.Feedback != "nope" {
		t.Errorf("entry fields not copied: %+v", entry)
	}
	if entry.Status() != "❌ FAIL" {
		t.Errorf("Status() = %q; want FAIL marker", entry.Status())
	}
}
