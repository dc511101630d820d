package estratto

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/estratto/pkg/scorer"
	"github.com/soundprediction/estratto/pkg/store"
	"github.com/soundprediction/estratto/pkg/types"
)

// mockScorer returns canned score output and counts calls.
type mockScorer struct {
	docs  []scorer.ScoredDocument
	err   error
	calls int
}

func (m *mockScorer) Score(_ context.Context, _ string, docs []types.Document) ([]scorer.ScoredDocument, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.docs, nil
}

func (m *mockScorer) Health(context.Context) error { return nil }

// fixtureDocument builds one nine-token document split into two strided
// passages. Each passage input is [special, q, q, passage tokens...]: the
// model sequence has seq_2_start_t = 3.
//
// Document: "the quick brown fox jumps over the lazy dog"
// Passage 0 covers doc tokens 0..4, passage 1 covers doc tokens 5..8.
func fixtureDocument() (types.Document, scorer.ScoredDocument) {
	doc := types.Document{ID: "doc1", Text: "the quick brown fox jumps over the lazy dog"}

	// Passage logits: strongly prefer sample tokens 4..6 (doc tokens 1..3)
	// in passage 0, and favor no answer in passage 1.
	p0 := scorer.ScoredPassage{
		//                       0   1   2   3  4  5  6  7
		StartLogits:   []float32{2, -9, -9, -9, 8, 0, 0, 0},
		EndLogits:     []float32{2, -9, -9, -9, 0, 0, 8, 0},
		PassageStartT: 0,
		Seq2StartT:    3,
		PaddingMask:   []int{1, 1, 1, 1, 1, 1, 1, 1},
	}
	p1 := scorer.ScoredPassage{
		StartLogits:   []float32{5, -9, -9, -9, 1, 0, 0, 0},
		EndLogits:     []float32{5, -9, -9, -9, 1, 0, 0, 0},
		PassageStartT: 5,
		Seq2StartT:    3,
		PaddingMask:   []int{1, 1, 1, 1, 1, 1, 1, 0},
	}

	sd := scorer.ScoredDocument{
		DocumentID:   "doc1",
		TokenOffsets: []int{0, 4, 10, 16, 20, 26, 31, 35, 40},
		Stride:       5,
		Passages:     []scorer.ScoredPassage{p0, p1},
	}
	return doc, sd
}

func TestServiceExtract(t *testing.T) {
	doc, sd := fixtureDocument()
	ms := &mockScorer{docs: []scorer.ScoredDocument{sd}}

	svc, err := New(ms, types.QAConfig{NBest: 5, MaxAnswerLength: 30}, 0)
	require.NoError(t, err)

	results, err := svc.Extract(context.Background(), "q1", "what jumps?", []types.Document{doc})
	require.NoError(t, err)

	answers, ok := results["doc1-q1"]
	require.True(t, ok)
	require.NotEmpty(t, answers)

	// Passage 0's top span is sample (4,6) -> doc tokens (1,3):
	// "quick brown fox".
	top := answers[0]
	assert.Equal(t, "quick brown fox", top.Text)
	assert.Equal(t, 1, top.StartT)
	assert.Equal(t, 3, top.EndT)
	assert.InDelta(t, 16.0, top.Score, 1e-6)

	// Every basket list respects the NBest bound, and passage 1's weak
	// candidates are all cut before arbitration.
	assert.Len(t, answers, 5)
	for _, a := range answers[1:] {
		assert.False(t, a.IsNoAnswer())
		assert.InDelta(t, 8.0, a.Score, 1e-6)
	}
}

func TestServiceExtractValidation(t *testing.T) {
	ms := &mockScorer{}
	svc, err := New(ms, types.DefaultQAConfig(), 0)
	require.NoError(t, err)

	_, err = svc.Extract(context.Background(), "q1", "", []types.Document{{ID: "d", Text: "t"}})
	assert.Error(t, err)

	_, err = svc.Extract(context.Background(), "q1", "why?", nil)
	assert.Error(t, err)

	_, err = svc.Extract(context.Background(), "q1", "why?", []types.Document{{ID: "", Text: "t"}})
	assert.ErrorIs(t, err, types.ErrEmptyDocumentID)
	assert.Zero(t, ms.calls)
}

func TestServiceExtractScorerFailure(t *testing.T) {
	ms := &mockScorer{err: errors.New("scorer down")}
	svc, err := New(ms, types.DefaultQAConfig(), 0)
	require.NoError(t, err)

	_, err = svc.Extract(context.Background(), "q1", "why?", []types.Document{{ID: "d", Text: "t"}})
	assert.ErrorContains(t, err, "scoring failed")
}

func TestServiceExtractUsesCache(t *testing.T) {
	doc, sd := fixtureDocument()
	ms := &mockScorer{docs: []scorer.ScoredDocument{sd}}

	cache, err := store.Open(t.TempDir(), time.Hour)
	require.NoError(t, err)

	svc, err := New(ms, types.QAConfig{NBest: 5, MaxAnswerLength: 30}, 0, WithCache(cache))
	require.NoError(t, err)
	defer svc.Close()

	first, err := svc.Extract(context.Background(), "q1", "what jumps?", []types.Document{doc})
	require.NoError(t, err)
	require.Equal(t, 1, ms.calls)

	second, err := svc.Extract(context.Background(), "q1", "what jumps?", []types.Document{doc})
	require.NoError(t, err)
	assert.Equal(t, 1, ms.calls, "second extraction must be served from cache")
	assert.Equal(t, first, second)
}

func TestServiceFormatResults(t *testing.T) {
	doc, sd := fixtureDocument()
	ms := &mockScorer{docs: []scorer.ScoredDocument{sd}}

	svc, err := New(ms, types.QAConfig{NBest: 5, MaxAnswerLength: 30}, 0)
	require.NoError(t, err)

	results, err := svc.Extract(context.Background(), "q1", "what jumps?", []types.Document{doc})
	require.NoError(t, err)

	formatted := svc.FormatResults(results, []types.Document{doc}, "q1")
	fr, ok := formatted["doc1-q1"]
	require.True(t, ok)
	assert.Equal(t, "qa", fr.Task)
	require.NotEmpty(t, fr.Predictions)

	top := fr.Predictions[0]
	require.NotNil(t, top.Start)
	require.NotNil(t, top.End)
	assert.Equal(t, 1, *top.Start)
	assert.Equal(t, 3, *top.End)
	assert.Equal(t, "quick brown fox", top.Label)
	assert.Nil(t, top.Probability)
	assert.Contains(t, top.Context, "quick brown fox")
}
