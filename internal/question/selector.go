package question

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/etltrainer/internal/catalog"
	"github.com/felixgeelhaar/etltrainer/internal/domain"
)

// Selector produces questions for catalog patterns in either mode
type Selector struct {
	catalog    *catalog.Catalog
	canned     Source
	generative Source
}

// NewSelector creates a selector. generative may be nil, in which case
// generative requests fall back to the canned source.
func NewSelector(cat *catalog.Catalog, canned, generative Source) *Selector {
	if canned == nil {
		canned = NewCannedSource(nil)
	}
	return &Selector{
		catalog:    cat,
		canned:     canned,
		generative: generative,
	}
}

// Select returns a question for the pattern. Only an unknown pattern is an error.
func (s *Selector) Select(ctx context.Context, id domain.PatternID, mode domain.Mode) (domain.Question, error) {
	p, err := s.catalog.Get(id)
	if err != nil {
		return domain.Question{}, err
	}

	if mode == domain.ModeGenerative {
		if s.generative != nil {
			return s.generative.Question(ctx, p), nil
		}
		slog.Warn("no text generation provider configured, using canned questions", "pattern", id)
	}

	return s.canned.Question(ctx, p), nil
}

// Generative reports whether a generative source is configured
func (s *Selector) Generative() bool {
	return s.generative != nil
}
