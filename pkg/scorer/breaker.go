package scorer

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/soundprediction/estratto/pkg/types"
)

// BreakerConfig holds circuit breaker settings for the scorer client.
type BreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // seconds
	Timeout          int     `mapstructure:"timeout"`  // seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// BreakerScorer wraps a Scorer with circuit breaking so a failing scoring
// service sheds load fast instead of tying up request handlers.
type BreakerScorer struct {
	scorer Scorer
	cb     *gobreaker.CircuitBreaker
	logger *slog.Logger
}

// NewBreakerScorer creates the wrapper. A nil logger falls back to the
// default slog logger.
func NewBreakerScorer(s Scorer, cfg BreakerConfig, logger *slog.Logger) *BreakerScorer {
	if logger == nil {
		logger = slog.Default()
	}

	st := gobreaker.Settings{
		Name:        "scorer",
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.ReadyToTripRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("scorer circuit breaker state change",
				"name", name, "from", from.String(), "to", to.String())
		},
	}

	return &BreakerScorer{
		scorer: s,
		cb:     gobreaker.NewCircuitBreaker(st),
		logger: logger,
	}
}

// Score implements Scorer.
func (b *BreakerScorer) Score(ctx context.Context, question string, docs []types.Document) ([]ScoredDocument, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.scorer.Score(ctx, question, docs)
	})
	if err != nil {
		return nil, err
	}
	return out.([]ScoredDocument), nil
}

// Health implements Scorer. Health probes bypass the breaker so readiness
// checks can observe recovery.
func (b *BreakerScorer) Health(ctx context.Context) error {
	return b.scorer.Health(ctx)
}
