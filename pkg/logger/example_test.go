package logger_test

import (
	"log/slog"

	"github.com/soundprediction/estratto/pkg/logger"
)

func ExampleNewDefaultLogger() {
	// Create a logger with default settings
	log := logger.NewDefaultLogger(slog.LevelDebug)

	// Log different levels
	log.Debug("This is a debug message")
	log.Info("This is an info message")
	log.Info("Answer cache hit")          // Will be green in terminal
	log.Warn("This is a warning message") // Will be yellow in terminal
	log.Error("This is an error message") // Will be red in terminal
}

func ExampleNewDefaultLogger_attributes() {
	// Create a logger with custom configuration
	log := logger.NewDefaultLogger(slog.LevelInfo)

	// Log with attributes
	log.Info("Processing extraction", "question_id", "12345", "documents", 3)
	log.Info("Exported answers to parquet", "count", 42, "file", "answers.parquet") // Green
	log.Warn("Scorer latency high", "duration_ms", 950, "limit_ms", 1000)           // Yellow
	log.Error("Scorer request failed", "error", "timeout", "retry_count", 3)        // Red
}
