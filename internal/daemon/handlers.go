package daemon

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/felixgeelhaar/etltrainer/internal/domain"
	"github.com/felixgeelhaar/etltrainer/internal/storage/sqlite"
	"github.com/felixgeelhaar/etltrainer/internal/trainer"
)

type patternView struct {
	ID          domain.PatternID `json:"id"`
	Name        string           `json:"name"`
	Label       string           `json:"label"`
	Description string           `json:"description"`
	Composite   bool             `json:"composite"`
	SampleCount int              `json:"sample_count"`
	Samples     []string         `json:"samples,omitempty"`
}

func newPatternView(p domain.Pattern, withSamples bool) patternView {
	v := patternView{
		ID:          p.ID,
		Name:        p.Name,
		Label:       p.Label(),
		Description: p.Description,
		Composite:   p.Composite,
		SampleCount: len(p.Samples),
	}
	if withSamples {
		v.Samples = p.Samples
	}
	return v
}

// Pattern handlers

func (s *Server) handleListPatterns(w http.ResponseWriter, r *http.Request) {
	patterns := s.app.Catalog.List()
	result := make([]patternView, 0, len(patterns))
	for _, p := range patterns {
		result = append(result, newPatternView(p, false))
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"patterns": result,
	})
}

func (s *Server) handleGetPattern(w http.ResponseWriter, r *http.Request) {
	p, err := s.app.Catalog.Get(domain.PatternID(r.PathValue("id")))
	if err != nil {
		s.jsonError(w, http.StatusNotFound, "pattern not found", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, newPatternView(p, true))
}

// Session handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !s.decode(w, r, &req) {
		return
	}

	mode := s.app.DefaultMode()
	if req.Mode != "" {
		mode = domain.Mode(req.Mode)
	}
	userID := req.UserID
	if userID == "" {
		userID = s.cfg.Trainer.UserID
	}

	sc, err := s.service.NewSession(r.Context(), userID, domain.PatternID(req.PatternID), mode)
	if err != nil {
		s.serviceError(w, "failed to create session", err)
		return
	}
	if !s.save(w, sc) {
		return
	}
	s.jsonResponse(w, http.StatusCreated, sc)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.List(r.Context())
	if err != nil {
		s.serviceError(w, "failed to list sessions", err)
		return
	}
	if sessions == nil {
		sessions = []trainer.SessionContext{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.load(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, sc)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.serviceError(w, "failed to delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChangePattern(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.load(w, r)
	if !ok {
		return
	}
	var req changePatternRequest
	if !s.decode(w, r, &req) {
		return
	}

	sc, err := s.service.ChangePattern(r.Context(), sc, domain.PatternID(req.PatternID))
	if err != nil {
		s.serviceError(w, "failed to change pattern", err)
		return
	}
	if s.save(w, sc) {
		s.jsonResponse(w, http.StatusOK, sc)
	}
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.load(w, r)
	if !ok {
		return
	}
	var req setModeRequest
	if !s.decode(w, r, &req) {
		return
	}

	sc, err := s.service.SetMode(sc, domain.Mode(req.Mode))
	if err != nil {
		s.serviceError(w, "failed to set mode", err)
		return
	}
	if s.save(w, sc) {
		s.jsonResponse(w, http.StatusOK, sc)
	}
}

func (s *Server) handleNewQuestion(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.load(w, r)
	if !ok {
		return
	}

	sc, err := s.service.NewQuestion(r.Context(), sc)
	if err != nil {
		s.serviceError(w, "failed to get question", err)
		return
	}
	if s.save(w, sc) {
		s.jsonResponse(w, http.StatusOK, sc)
	}
}

func (s *Server) handleSetEditor(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.load(w, r)
	if !ok {
		return
	}
	var req editorRequest
	if !s.decode(w, r, &req) {
		return
	}

	sc = s.service.SetEditor(sc, req.Code)
	if s.save(w, sc) {
		s.jsonResponse(w, http.StatusOK, sc)
	}
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.load(w, r)
	if !ok {
		return
	}
	var req submitRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Code != nil {
		sc = s.service.SetEditor(sc, *req.Code)
	}

	sc, res, err := s.service.Submit(r.Context(), sc)
	if err != nil {
		s.serviceError(w, "failed to submit", err)
		return
	}
	if !s.save(w, sc) {
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"session": sc,
		"verdict": res.Verdict,
		"entry":   res.Entry,
	})
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.load(w, r)
	if !ok {
		return
	}
	var req retryRequest
	if !s.decode(w, r, &req) {
		return
	}

	sc, err := s.service.Retry(r.Context(), sc, req.LogID)
	if err != nil {
		s.serviceError(w, "failed to retry mistake", err)
		return
	}
	if s.save(w, sc) {
		s.jsonResponse(w, http.StatusOK, sc)
	}
}

func (s *Server) load(w http.ResponseWriter, r *http.Request) (trainer.SessionContext, bool) {
	sc, err := s.sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.serviceError(w, "session not found", err)
		return sc, false
	}
	return sc, true
}

func (s *Server) save(w http.ResponseWriter, sc trainer.SessionContext) bool {
	// Not bound to the request: the attempt is already recorded
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.sessions.Put(ctx, sc); err != nil {
		s.serviceError(w, "failed to save session", err)
		return false
	}
	return true
}

// Training log handlers

func (s *Server) handleMistakes(w http.ResponseWriter, r *http.Request) {
	user := r.PathValue("user")
	entries, err := s.service.Mistakes(r.Context(), user)
	if err != nil {
		s.serviceError(w, "failed to list mistakes", err)
		return
	}
	if entries == nil {
		entries = []*domain.LogEntry{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"user_id":  user,
		"mistakes": entries,
	})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	user := r.PathValue("user")

	limit := s.cfg.Trainer.RecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.jsonError(w, http.StatusBadRequest, "limit must be a non-negative integer", err)
			return
		}
		limit = n
	}

	entries, err := s.service.Activity(r.Context(), user, limit)
	if err != nil {
		s.serviceError(w, "failed to list logs", err)
		return
	}
	if entries == nil {
		entries = []*domain.LogEntry{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"user_id": user,
		"limit":   limit,
		"logs":    entries,
	})
}

// Analytics handlers

var analyticsTypes = []string{
	domain.EventSessionStarted,
	domain.EventQuestionServed,
	domain.EventAttemptRecorded,
	domain.EventMistakeRetried,
}

func (s *Server) handleAnalyticsEvents(w http.ResponseWriter, r *http.Request) {
	if s.app.Analytics == nil {
		s.jsonError(w, http.StatusNotImplemented, "analytics require the sqlite store", nil)
		return
	}

	q := r.URL.Query()
	eventType := q.Get("type")
	if eventType == "" {
		s.jsonError(w, http.StatusBadRequest, "type is required", nil)
		return
	}

	f := sqlite.EventFilter{Type: eventType, SessionID: q.Get("session")}
	for name, dst := range map[string]*time.Time{"since": &f.Since, "until": &f.Until} {
		if v := q.Get(name); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				s.jsonError(w, http.StatusBadRequest, name+" must be RFC3339", err)
				return
			}
			*dst = t
		}
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.jsonError(w, http.StatusBadRequest, "limit must be a positive integer", err)
			return
		}
		f.Limit = n
	}

	events, err := s.app.Analytics.Query(r.Context(), f)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to query analytics", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"type":   eventType,
		"events": events,
	})
}

func (s *Server) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	if s.app.Analytics == nil {
		s.jsonError(w, http.StatusNotImplemented, "analytics require the sqlite store", nil)
		return
	}

	counts, err := s.app.Analytics.Counts(r.Context())
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to count events", err)
		return
	}
	// report known types even before their first event
	for _, t := range analyticsTypes {
		if _, ok := counts[t]; !ok {
			counts[t] = 0
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"counts": counts,
	})
}
