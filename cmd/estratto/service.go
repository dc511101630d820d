package estratto

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/soundprediction/estratto"
	"github.com/soundprediction/estratto/pkg/config"
	"github.com/soundprediction/estratto/pkg/export"
	estrattoLogger "github.com/soundprediction/estratto/pkg/logger"
	"github.com/soundprediction/estratto/pkg/scorer"
	"github.com/soundprediction/estratto/pkg/store"
	"github.com/soundprediction/estratto/pkg/telemetry"
	"github.com/soundprediction/estratto/pkg/types"
)

// initializeService builds the extraction service from configuration.
// The returned store is nil when caching is disabled.
func initializeService(cfg *config.Config) (*estratto.Service, *store.Store, error) {
	logger := newLogger(cfg)

	// Remote scorer, optionally wrapped in a circuit breaker
	sc, err := newScorer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	var opts []estratto.Option
	opts = append(opts, estratto.WithLogger(logger))

	var cache *store.Store
	if cfg.Cache.Enabled {
		cache, err = store.Open(cfg.Cache.Path, cfg.Cache.TTL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open answer cache: %w", err)
		}
		opts = append(opts, estratto.WithCache(cache))
		fmt.Printf("Answer cache enabled at: %s\n", cfg.Cache.Path)
	}

	if cfg.Export.Enabled {
		exporter, err := export.NewParquetAnswerWriter(cfg.Export.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create answer exporter: %w", err)
		}
		opts = append(opts, estratto.WithExporter(exporter))
		fmt.Printf("Answer export enabled at: %s\n", cfg.Export.Dir)
	}

	qaCfg := types.QAConfig{
		NBest:           cfg.QA.NBest,
		MaxAnswerLength: cfg.QA.MaxAnswerLength,
	}
	svc, err := estratto.New(sc, qaCfg, cfg.QA.MaxConcurrency, opts...)
	if err != nil {
		if cache != nil {
			cache.Close()
		}
		return nil, nil, fmt.Errorf("failed to create extraction service: %w", err)
	}

	fmt.Printf("Estratto initialized with scorer: %s\n", cfg.Scorer.Endpoint)
	return svc, cache, nil
}

// newScorer builds the scorer client from configuration.
func newScorer(cfg *config.Config, logger *slog.Logger) (scorer.Scorer, error) {
	httpScorer, err := scorer.NewHTTPScorer(scorer.Config{
		Endpoint: cfg.Scorer.Endpoint,
		APIKey:   cfg.Scorer.APIKey,
		Timeout:  cfg.Scorer.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create scorer client: %w", err)
	}

	if !cfg.CircuitBreaker.Enabled {
		return httpScorer, nil
	}
	return scorer.NewBreakerScorer(httpScorer, scorer.BreakerConfig{
		Enabled:          true,
		MaxRequests:      cfg.CircuitBreaker.MaxRequests,
		Interval:         cfg.CircuitBreaker.Interval,
		Timeout:          cfg.CircuitBreaker.Timeout,
		ReadyToTripRatio: cfg.CircuitBreaker.ReadyToTripRatio,
	}, logger), nil
}

// newLogger builds the colored logger, with parquet error telemetry when a
// telemetry path is configured.
func newLogger(cfg *config.Config) *slog.Logger {
	level := parseLevel(cfg.Log.Level)
	colorHandler := estrattoLogger.NewColorHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})

	trackingPath := cfg.Telemetry.ParquetPath
	if trackingPath == "" {
		return slog.New(colorHandler)
	}

	if err := os.MkdirAll(trackingPath, 0755); err != nil {
		fmt.Printf("Warning: Failed to create telemetry directory: %v\n", err)
		return slog.New(colorHandler)
	}

	parquetHandler, err := telemetry.NewParquetHandler(colorHandler, trackingPath)
	if err != nil {
		fmt.Printf("Warning: Failed to initialize error tracking: %v\n", err)
		return slog.New(colorHandler)
	}
	fmt.Printf("Error tracking enabled at: %s\n", trackingPath)
	return slog.New(parquetHandler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
