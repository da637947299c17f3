package question

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/felixgeelhaar/etltrainer/internal/domain"
)

// Source produces a question for a pattern. Sources never fail: problems are
// reported inside the returned question.
type Source interface {
	Question(ctx context.Context, p domain.Pattern) domain.Question
}

// CannedSource draws uniformly, with replacement, from a pattern's sample pool
type CannedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewCannedSource creates a canned source. A nil rng uses the global source.
func NewCannedSource(rng *rand.Rand) *CannedSource {
	return &CannedSource{rng: rng}
}

// Question returns a random sample of the pattern
func (s *CannedSource) Question(_ context.Context, p domain.Pattern) domain.Question {
	if len(p.Samples) == 0 {
		err := fmt.Sprintf("pattern %s has no samples", p.ID)
		return domain.Question{PatternID: p.ID, Code: err, Origin: domain.OriginFailed, Err: err}
	}

	return domain.Question{
		PatternID: p.ID,
		Code:      p.Samples[s.intN(len(p.Samples))],
		Origin:    domain.OriginCanned,
	}
}

func (s *CannedSource) intN(n int) int {
	if s.rng == nil {
		return rand.IntN(n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}
