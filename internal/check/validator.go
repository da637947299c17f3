package check

import (
	"context"

	"github.com/felixgeelhaar/etltrainer/internal/domain"
)

// Validator reviews a submission against the rules of its pattern.
// A failed review is a verdict, not an error; only an unknown pattern is.
type Validator interface {
	Name() string
	Validate(ctx context.Context, sub domain.Submission) (domain.Verdict, error)
}
