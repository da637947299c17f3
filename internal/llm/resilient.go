package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
)

// generateFunc is one call to a provider
type generateFunc func(ctx context.Context) (*Response, error)

// ResilientConfig tunes the retry and circuit breaker around a provider.
// A zero value wraps nothing.
type ResilientConfig struct {
	// Attempts is the total number of tries for retryable failures;
	// values below 2 disable retry
	Attempts int

	// RetryDelay is the first backoff, doubled per attempt with jitter
	RetryDelay time.Duration

	// TripAfter consecutive failures opens the breaker for a minute;
	// 0 disables the breaker
	TripAfter uint32

	// Observe is called once per Generate with the overall outcome
	Observe func(provider string, elapsed time.Duration, err error)

	Logger *slog.Logger
}

// DefaultResilientConfig retries 429/5xx twice and trips after three
// consecutive failures
func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		Attempts:   3,
		RetryDelay: 2 * time.Second,
		TripAfter:  3,
	}
}

// ResilientProvider guards a provider with fortify's retry and circuit breaker
type ResilientProvider struct {
	provider Provider
	wrap     []func(generateFunc) generateFunc // innermost first
	observe  func(provider string, elapsed time.Duration, err error)
}

// NewResilientProvider wraps provider according to cfg
func NewResilientProvider(provider Provider, cfg ResilientConfig) *ResilientProvider {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rp := &ResilientProvider{provider: provider, observe: cfg.Observe}

	if cfg.Attempts > 1 {
		delay := cfg.RetryDelay
		if delay <= 0 {
			delay = 2 * time.Second
		}
		retrier := retry.New[*Response](retry.Config{
			MaxAttempts:   cfg.Attempts,
			InitialDelay:  delay,
			MaxDelay:      30 * time.Second,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable:   IsRetryable,
		})
		rp.wrap = append(rp.wrap, func(next generateFunc) generateFunc {
			return func(ctx context.Context) (*Response, error) {
				return retrier.Do(ctx, func(ctx context.Context) (*Response, error) { return next(ctx) })
			}
		})
	}

	if cfg.TripAfter > 0 {
		breaker := circuitbreaker.New[*Response](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    30 * time.Second,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.TripAfter
			},
			OnStateChange: func(from, to circuitbreaker.State) {
				logger.Warn("circuit breaker state change",
					"provider", provider.Name(), "from", from.String(), "to", to.String())
			},
		})
		rp.wrap = append(rp.wrap, func(next generateFunc) generateFunc {
			return func(ctx context.Context) (*Response, error) {
				return breaker.Execute(ctx, func(ctx context.Context) (*Response, error) { return next(ctx) })
			}
		})
	}

	return rp
}

func (p *ResilientProvider) Name() string {
	return p.provider.Name()
}

// Generate runs the request through the breaker, then the retrier
func (p *ResilientProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	call := generateFunc(func(ctx context.Context) (*Response, error) {
		return p.provider.Generate(ctx, req)
	})
	for _, w := range p.wrap {
		call = w(call)
	}

	start := time.Now()
	resp, err := call(ctx)
	if p.observe != nil {
		p.observe(p.provider.Name(), time.Since(start), err)
	}
	return resp, err
}
