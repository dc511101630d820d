package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/soundprediction/estratto/pkg/types"
)

// Config holds the connection settings for a remote scoring service.
type Config struct {
	Endpoint string        `json:"endpoint" mapstructure:"endpoint"`
	APIKey   string        `json:"api_key" mapstructure:"api_key"`
	Timeout  time.Duration `json:"timeout" mapstructure:"timeout"`
}

// HTTPScorer calls a scoring service over HTTP. The service owns
// tokenization and passage splitting; this client only speaks the typed
// score contract.
type HTTPScorer struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPScorer validates the config and builds the client.
func NewHTTPScorer(cfg Config) (*HTTPScorer, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("scorer endpoint URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPScorer{
		baseURL: cfg.Endpoint,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type scoreRequest struct {
	Question  string           `json:"question"`
	Documents []types.Document `json:"documents"`
}

type scoreResponse struct {
	Documents []ScoredDocument `json:"documents"`
}

// Score implements Scorer.
func (c *HTTPScorer) Score(ctx context.Context, question string, docs []types.Document) ([]ScoredDocument, error) {
	body, err := json.Marshal(scoreRequest{Question: question, Documents: docs})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal score request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/score", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("score request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("score request failed with status %d: %s", resp.StatusCode, string(payload))
	}

	var decoded scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode score response: %w", err)
	}
	if len(decoded.Documents) != len(docs) {
		return nil, fmt.Errorf("scorer returned %d documents for %d inputs", len(decoded.Documents), len(docs))
	}
	return decoded.Documents, nil
}

// Health implements Scorer.
func (c *HTTPScorer) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %d", resp.StatusCode)
	}
	return nil
}
