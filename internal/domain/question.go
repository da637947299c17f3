package domain

// QuestionOrigin records how a question came to be
type QuestionOrigin string

const (
	OriginCanned     QuestionOrigin = "canned"
	OriginGenerative QuestionOrigin = "generative"
	OriginFailed     QuestionOrigin = "failed" // generative source failed; Code holds the error text
	OriginRetry      QuestionOrigin = "retry"  // reloaded from the mistake notebook
)

// Question is a broken snippet bound to the pattern it exercises
type Question struct {
	PatternID PatternID      `json:"pattern_id"`
	Code      string         `json:"code"`
	Origin    QuestionOrigin `json:"origin"`
	Err       string         `json:"error,omitempty"`
}

// Failed reports whether the question is a degenerate error placeholder.
func (q Question) Failed() bool {
	return q.Origin == OriginFailed
}

// Submission is the user's attempted rewrite of a question
type Submission struct {
	PatternID    PatternID
	QuestionCode string
	UserCode     string
}
