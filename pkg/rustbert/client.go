// Package rustbert provides a direct question answering backend on top of
// go-rust-bert's QA pipeline. It is an alternative to the logit-serving
// scorer for deployments that run the model in-process: the pipeline does
// its own span selection, so the aggregation core is bypassed and answers
// come back with character offsets instead of token indices.
package rustbert

import (
	"context"
	"fmt"
	"sync"

	"github.com/soundprediction/go-rust-bert/pkg/rustbert"
)

// Answer is one answer from the in-process QA pipeline. Start and End are
// character offsets into the context string.
type Answer struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
	Start int     `json:"start"`
	End   int     `json:"end"`
}

// Client wraps the go-rust-bert QA model. The model loads lazily on first
// use and is guarded by a mutex because the underlying pipeline is not
// safe for concurrent prediction.
type Client struct {
	qaModel *rustbert.QAModel
	mu      sync.Mutex
}

// NewClient creates an unloaded client.
func NewClient() *Client {
	return &Client{}
}

// Load loads the QA model. Calling it on a loaded client is a no-op.
func (c *Client) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.qaModel != nil {
		return nil
	}
	m, err := rustbert.NewQAModel()
	if err != nil {
		return fmt.Errorf("failed to create QA model: %w", err)
	}
	c.qaModel = m
	return nil
}

// Close releases the model.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.qaModel != nil {
		c.qaModel.Close()
		c.qaModel = nil
	}
}

// Answer runs the QA pipeline for one question over one context string.
// The ctx is checked before the (non-interruptible) native call.
func (c *Client) Answer(ctx context.Context, question, contextText string) ([]Answer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.qaModel == nil {
		if err := c.Load(); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	results, err := c.qaModel.Predict(question, contextText)
	if err != nil {
		return nil, fmt.Errorf("QA prediction failed: %w", err)
	}

	answers := make([]Answer, 0, len(results))
	for _, r := range results {
		answers = append(answers, Answer{
			Text:  r.Answer,
			Score: r.Score,
			Start: r.Start,
			End:   r.End,
		})
	}
	return answers, nil
}
