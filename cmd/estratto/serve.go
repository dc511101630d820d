package estratto

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soundprediction/estratto/pkg/config"
	"github.com/soundprediction/estratto/pkg/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Estratto HTTP server",
	Long: `Start the Estratto HTTP server to provide REST API access to answer
extraction.

The server provides endpoints for:
- Extracting answer spans from documents
- Looking up cached answers by basket
- Health checks

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServe,
}

var (
	serverHost string
	serverPort int
	serverMode string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server-specific flags
	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serveCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serveCmd.Flags().StringVar(&serverMode, "mode", "debug", "Server mode (debug, release, test)")

	// Scorer flags
	serveCmd.Flags().String("scorer-endpoint", "", "Remote scorer endpoint")
	serveCmd.Flags().String("scorer-api-key", "", "Remote scorer API key")

	// Ranking flags
	serveCmd.Flags().Int("n-best", 0, "Number of answers returned per document")
	serveCmd.Flags().Int("max-answer-length", 0, "Maximum answer span length in tokens")

	// Cache flags
	serveCmd.Flags().Bool("cache", false, "Enable the answer cache")
	serveCmd.Flags().String("cache-path", "", "Answer cache directory")

	// Export flags
	serveCmd.Flags().Bool("export", false, "Enable parquet answer export")
	serveCmd.Flags().String("export-dir", "", "Parquet export directory")

	// Telemetry flags
	serveCmd.Flags().String("telemetry-parquet-path", "", "Path to directory for error telemetry")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	overrideConfigWithFlags(cmd, cfg)

	// Validate configuration
	if err := validateServeConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize the extraction service
	fmt.Println("Initializing Estratto...")
	svc, cache, err := initializeService(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize Estratto: %w", err)
	}
	defer svc.Close()

	// Create and setup server
	srv := server.New(cfg, svc, cache)
	srv.Setup()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal: %v\n", sig)

		// Create shutdown context with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Shutdown server
		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		fmt.Println("Server stopped gracefully")
		return nil
	}
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	// Server flags
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}

	// Scorer flags
	if cmd.Flags().Changed("scorer-endpoint") {
		cfg.Scorer.Endpoint, _ = cmd.Flags().GetString("scorer-endpoint")
	}
	if cmd.Flags().Changed("scorer-api-key") {
		cfg.Scorer.APIKey, _ = cmd.Flags().GetString("scorer-api-key")
	}

	// Ranking flags
	if cmd.Flags().Changed("n-best") {
		cfg.QA.NBest, _ = cmd.Flags().GetInt("n-best")
	}
	if cmd.Flags().Changed("max-answer-length") {
		cfg.QA.MaxAnswerLength, _ = cmd.Flags().GetInt("max-answer-length")
	}

	// Cache flags
	if cmd.Flags().Changed("cache") {
		cfg.Cache.Enabled, _ = cmd.Flags().GetBool("cache")
	}
	if cmd.Flags().Changed("cache-path") {
		cfg.Cache.Path, _ = cmd.Flags().GetString("cache-path")
	}

	// Export flags
	if cmd.Flags().Changed("export") {
		cfg.Export.Enabled, _ = cmd.Flags().GetBool("export")
	}
	if cmd.Flags().Changed("export-dir") {
		cfg.Export.Dir, _ = cmd.Flags().GetString("export-dir")
	}

	// Telemetry flags
	if cmd.Flags().Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = cmd.Flags().GetString("telemetry-parquet-path")
	}
}

func validateServeConfig(cfg *config.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}

	if cfg.Scorer.Endpoint == "" {
		return fmt.Errorf("scorer endpoint is required")
	}
	return nil
}
