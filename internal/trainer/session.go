package trainer

import (
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/etltrainer/internal/domain"
)

// DefaultUserID is used when no user label is supplied
const DefaultUserID = "User1"

// SessionContext is the per-session state of one trainee. It is a value:
// service operations take the current context and return the next one.
type SessionContext struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	PatternID domain.PatternID `json:"pattern_id"`
	Mode      domain.Mode      `json:"mode"`
	Question  domain.Question  `json:"question"`
	Editor    string           `json:"editor"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func newSessionContext(userID string, id domain.PatternID, mode domain.Mode, now time.Time) SessionContext {
	if userID == "" {
		userID = DefaultUserID
	}
	return SessionContext{
		ID:        uuid.NewString(),
		UserID:    userID,
		PatternID: id,
		Mode:      mode,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// withQuestion caches q as the current question and resets the editor to it
func (sc SessionContext) withQuestion(q domain.Question, now time.Time) SessionContext {
	sc.PatternID = q.PatternID
	sc.Question = q
	sc.Editor = q.Code
	sc.UpdatedAt = now
	return sc
}

// Submission returns the editor contents as a submission for the current question
func (sc SessionContext) Submission() domain.Submission {
	return domain.Submission{
		PatternID:    sc.PatternID,
		QuestionCode: sc.Question.Code,
		UserCode:     sc.Editor,
	}
}
