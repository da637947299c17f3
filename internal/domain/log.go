package domain

import "time"

// LogEntry is one recorded training attempt. Entries are append-only.
type LogEntry struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	PatternID    PatternID `json:"pattern_id"`
	QuestionCode string    `json:"question_code"`
	UserCode     string    `json:"user_code"`
	Feedback     string    `json:"feedback"`
	IsCorrect    bool      `json:"is_correct"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewLogEntry records a validated submission for a user
func NewLogEntry(userID string, sub Submission, verdict Verdict) *LogEntry {
	return &LogEntry{
		UserID:       userID,
		PatternID:    sub.PatternID,
		QuestionCode: sub.QuestionCode,
		UserCode:     sub.UserCode,
		Feedback:     verdict.Feedback,
		IsCorrect:    verdict.IsCorrect,
	}
}

// Status renders the entry outcome for activity listings
func (e LogEntry) Status() string {
	if e.IsCorrect {
		return "✅ PASS"
	}
	return "❌ FAIL"
}
