package scorer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/estratto/pkg/types"
)

func TestHTTPScorerScore(t *testing.T) {
	docs := []types.Document{{ID: "doc1", Text: "some text"}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/score", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req scoreRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "what is it?", req.Question)
		require.Len(t, req.Documents, 1)

		resp := scoreResponse{Documents: []ScoredDocument{{
			DocumentID:   "doc1",
			TokenOffsets: []int{0, 5},
			Stride:       50,
			Passages: []ScoredPassage{{
				StartLogits:   []float32{0, 1},
				EndLogits:     []float32{0, 1},
				PassageStartT: 0,
				Seq2StartT:    1,
				PaddingMask:   []int{1, 1},
			}},
		}}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c, err := NewHTTPScorer(Config{Endpoint: srv.URL, APIKey: "secret"})
	require.NoError(t, err)

	out, err := c.Score(context.Background(), "what is it?", docs)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "doc1", out[0].DocumentID)
	require.Len(t, out[0].Passages, 1)
	assert.Equal(t, types.PassageContext{PassageStartT: 0, Seq2StartT: 1, NNonPadding: 2},
		out[0].Passages[0].Context())
}

func TestHTTPScorerScoreDocumentCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(scoreResponse{})
	}))
	defer srv.Close()

	c, err := NewHTTPScorer(Config{Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = c.Score(context.Background(), "q", []types.Document{{ID: "d", Text: "t"}})
	assert.Error(t, err)
}

func TestHTTPScorerRequiresEndpoint(t *testing.T) {
	_, err := NewHTTPScorer(Config{})
	assert.Error(t, err)
}

func TestHTTPScorerHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := NewHTTPScorer(Config{Endpoint: srv.URL})
	require.NoError(t, err)
	assert.NoError(t, c.Health(context.Background()))
}

// failingScorer always errors, to drive the breaker open.
type failingScorer struct{}

func (failingScorer) Score(context.Context, string, []types.Document) ([]ScoredDocument, error) {
	return nil, errors.New("boom")
}

func (failingScorer) Health(context.Context) error { return nil }

func TestBreakerScorerOpensAfterFailures(t *testing.T) {
	b := NewBreakerScorer(failingScorer{}, BreakerConfig{
		MaxRequests:      1,
		Interval:         60,
		Timeout:          60,
		ReadyToTripRatio: 0.5,
	}, nil)

	var lastErr error
	for i := 0; i < 10; i++ {
		_, lastErr = b.Score(context.Background(), "q", nil)
		require.Error(t, lastErr)
	}
	assert.ErrorIs(t, lastErr, gobreaker.ErrOpenState)
}
