package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"imagehound/internal/domain"
)

// Default circuit breaker settings.
const (
	defaultCBMaxFailures uint32        = 3
	defaultCBTimeout     time.Duration = 2 * time.Minute
	defaultCBInterval    time.Duration = 10 * time.Minute
)

// bestMatchResult bundles a lookup outcome through the generic breaker.
type bestMatchResult struct {
	fields domain.ResultFields
	meta   *domain.ResultMeta
}

// BreakerEngine wraps a BestMatchEngine with circuit breaker protection.
// When a provider fails repeatedly its deep lookups fail fast for a while
// instead of burning a worker slot on a dead endpoint; the plain search
// button keeps working throughout.
type BreakerEngine struct {
	domain.BestMatchEngine
	breaker *gobreaker.CircuitBreaker[bestMatchResult]
	logger  *slog.Logger
}

// WithBreaker wraps inner with a circuit breaker using default settings.
func WithBreaker(inner domain.BestMatchEngine, logger *slog.Logger) *BreakerEngine {
	cb := gobreaker.NewCircuitBreaker[bestMatchResult](gobreaker.Settings{
		Name:        "engine:" + inner.Name(),
		MaxRequests: 1, // allow 1 probe in half-open state
		Interval:    defaultCBInterval,
		Timeout:     defaultCBTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= defaultCBMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &BreakerEngine{
		BestMatchEngine: inner,
		breaker:         cb,
		logger:          logger,
	}
}

// BestMatch routes the lookup through the circuit breaker.
func (e *BreakerEngine) BestMatch(ctx context.Context, imageURL string) (domain.ResultFields, *domain.ResultMeta, error) {
	res, err := e.breaker.Execute(func() (bestMatchResult, error) {
		fields, meta, err := e.BestMatchEngine.BestMatch(ctx, imageURL)
		return bestMatchResult{fields: fields, meta: meta}, err
	})
	if err != nil {
		return nil, nil, domain.WrapOp("BreakerEngine.BestMatch", err)
	}
	return res.fields, res.meta, nil
}
