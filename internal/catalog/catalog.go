package catalog

import (
	"fmt"

	"github.com/felixgeelhaar/etltrainer/internal/domain"
)

// Catalog is the read-only registry of migration patterns. It is fully built
// by its constructor and never mutated afterwards.
type Catalog struct {
	order    []domain.PatternID
	patterns map[domain.PatternID]domain.Pattern
}

// New creates a catalog from the given patterns, keeping their order
func New(patterns ...domain.Pattern) *Catalog {
	c := &Catalog{
		order:    make([]domain.PatternID, 0, len(patterns)),
		patterns: make(map[domain.PatternID]domain.Pattern, len(patterns)),
	}
	for _, p := range patterns {
		if _, dup := c.patterns[p.ID]; !dup {
			c.order = append(c.order, p.ID)
		}
		c.patterns[p.ID] = p.Clone()
	}
	return c
}

// Default returns the catalog of built-in patterns
func Default() *Catalog {
	return New(builtinPatterns()...)
}

// List returns all patterns in registration order
func (c *Catalog) List() []domain.Pattern {
	out := make([]domain.Pattern, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.patterns[id].Clone())
	}
	return out
}

// Get returns a pattern by ID
func (c *Catalog) Get(id domain.PatternID) (domain.Pattern, error) {
	p, ok := c.patterns[id]
	if !ok {
		return domain.Pattern{}, fmt.Errorf("%w: %s", domain.ErrUnknownPattern, id)
	}
	return p.Clone(), nil
}

// Describe returns the human-readable description of a pattern
func (c *Catalog) Describe(id domain.PatternID) (string, error) {
	p, ok := c.patterns[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownPattern, id)
	}
	return p.Description, nil
}

// Samples returns a copy of the pattern's canned sample pool
func (c *Catalog) Samples(id domain.PatternID) ([]string, error) {
	p, err := c.Get(id)
	if err != nil {
		return nil, err
	}
	return p.Samples, nil
}

// Has reports whether the pattern is registered
func (c *Catalog) Has(id domain.PatternID) bool {
	_, ok := c.patterns[id]
	return ok
}

// Stats summarises the catalog
type Stats struct {
	PatternCount int
	SampleCount  int
}

// Stats returns pattern and sample counts
func (c *Catalog) Stats() Stats {
	stats := Stats{PatternCount: len(c.order)}
	for _, p := range c.patterns {
		stats.SampleCount += len(p.Samples)
	}
	return stats
}
